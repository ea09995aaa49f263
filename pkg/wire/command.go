package wire

import (
	"errors"
	"fmt"
	"strconv"
)

// Hardware limits of the R2D7 bus.
const (
	// MinAddress is the lowest controller address.
	MinAddress = 1

	// MaxAddress is the highest controller address.
	MaxAddress = 7

	// MinUnit is the lowest unit number behind an address.
	MinUnit = 1

	// MaxUnit is the highest unit number behind an address.
	MaxUnit = 60

	// MaxDuration is the largest duration that fits the 3-digit field.
	MaxDuration = 999

	// TicksPerSecond is the controller's native time granularity.
	TicksPerSecond = 20
)

// Command framing characters.
const (
	commandStart = '*'
	commandEnd   = ';'
)

// Wire errors.
var (
	ErrInvalidCommand = errors.New("invalid command")
	ErrUnknownDialect = errors.New("unknown dialect")
)

// Direction is the single-character motion code of a command.
type Direction byte

const (
	// DirectionOpen raises the shade.
	DirectionOpen Direction = 'o'

	// DirectionClose lowers the shade.
	DirectionClose Direction = 'c'

	// DirectionStop halts the motor.
	DirectionStop Direction = 's'
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionOpen:
		return "OPEN"
	case DirectionClose:
		return "CLOSE"
	case DirectionStop:
		return "STOP"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether d is a known direction code.
func (d Direction) Valid() bool {
	return d == DirectionOpen || d == DirectionClose || d == DirectionStop
}

// MoveCommand is a single relative motion instruction.
type MoveCommand struct {
	Address   int
	Unit      int
	Direction Direction

	// Duration is the unsigned run time in twentieths of a second.
	Duration int

	clamped bool
}

// NewMoveCommand builds a move from a signed duration. Positive durations
// open, negative durations close. Magnitudes above MaxDuration are clamped.
func NewMoveCommand(address, unit, duration int) MoveCommand {
	cmd := MoveCommand{
		Address:   address,
		Unit:      unit,
		Direction: DirectionOpen,
		Duration:  duration,
	}
	if duration < 0 {
		cmd.Direction = DirectionClose
		cmd.Duration = -duration
	}
	if cmd.Duration > MaxDuration {
		cmd.Duration = MaxDuration
		cmd.clamped = true
	}
	return cmd
}

// Clamped reports whether NewMoveCommand had to shorten the duration.
func (c MoveCommand) Clamped() bool {
	return c.clamped
}

// Seconds returns the run time in seconds.
func (c MoveCommand) Seconds() float64 {
	return float64(c.Duration) / TicksPerSecond
}

// String returns the encoded command.
func (c MoveCommand) String() string {
	return string(AppendMove(nil, c))
}

// AppendMove appends the encoded move statement to dst.
func AppendMove(dst []byte, c MoveCommand) []byte {
	dst = append(dst, commandStart)
	dst = strconv.AppendInt(dst, int64(c.Address), 10)
	dst = append(dst, byte(c.Direction))
	dst = fmt.Appendf(dst, "%02d%03d", c.Unit, c.Duration)
	return append(dst, commandEnd)
}

// AppendStop appends the encoded stop statement for (address, unit) to dst.
func AppendStop(dst []byte, address, unit int) []byte {
	dst = append(dst, commandStart)
	dst = strconv.AppendInt(dst, int64(address), 10)
	dst = append(dst, byte(DirectionStop))
	dst = fmt.Appendf(dst, "%02d", unit)
	return append(dst, commandEnd)
}

// ValidAddress reports whether address is within the bus range.
func ValidAddress(address int) bool {
	return address >= MinAddress && address <= MaxAddress
}

// ValidUnit reports whether unit is within the bus range.
func ValidUnit(unit int) bool {
	return unit >= MinUnit && unit <= MaxUnit
}
