package shade

import (
	"math"
	"sync"

	"github.com/esi-r2d7/r2d7-go/pkg/wire"
)

// Position limits.
const (
	Closed = 0.0
	Open   = 100.0
)

// MaxTravelTime is the longest supported full travel in seconds.
const MaxTravelTime = 3600.0

// Mover sends relative motion commands to a controller.
// Implemented by session.Session.
type Mover interface {
	// Move runs (address, unit) for duration twentieths of a second.
	// Positive durations open, negative durations close, zero is a no-op.
	Move(address, unit, duration int) error
}

// Unit is one shade, or a pre-coded group of shades, on the controller.
type Unit struct {
	mover      Mover
	address    int
	unit       int
	travelTime float64

	mu       sync.Mutex
	position float64
}

// New creates a Unit after validating its bus coordinates.
// travelTime is the number of seconds a full close-to-open travel takes.
func New(mover Mover, address, unit int, travelTime float64) (*Unit, error) {
	if err := Validate(address, unit); err != nil {
		return nil, err
	}
	if math.IsNaN(travelTime) || travelTime <= 0 || travelTime > MaxTravelTime {
		return nil, &RangeError{Field: "travel time", Value: travelTime, Min: 0, Max: MaxTravelTime}
	}

	return &Unit{
		mover:      mover,
		address:    address,
		unit:       unit,
		travelTime: travelTime,
		position:   Closed,
	}, nil
}

// Validate checks address and unit against the controller's bus limits.
func Validate(address, unit int) error {
	if !wire.ValidAddress(address) {
		return &RangeError{Field: "address", Value: address, Min: wire.MinAddress, Max: wire.MaxAddress}
	}
	if !wire.ValidUnit(unit) {
		return &RangeError{Field: "unit", Value: unit, Min: wire.MinUnit, Max: wire.MaxUnit}
	}
	return nil
}

// Address returns the controller address (1-7).
func (u *Unit) Address() int { return u.address }

// UnitNumber returns the unit number (1-60).
func (u *Unit) UnitNumber() int { return u.unit }

// TravelTime returns the full travel time in seconds.
func (u *Unit) TravelTime() float64 { return u.travelTime }

// Open moves the shade fully open.
func (u *Unit) Open() error {
	return u.SetPosition(Open)
}

// Close moves the shade fully closed.
func (u *Unit) Close() error {
	return u.SetPosition(Closed)
}

// Position returns the last commanded position. It does not query the
// controller.
func (u *Unit) Position() float64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.position
}

// IsClosed reports whether the shade is (nearly) fully closed.
func (u *Unit) IsClosed() bool {
	return u.Position() < 1
}

// SetPosition moves the shade to position (0-100).
//
// The cached position is updated even if the move fails, since the
// controller cannot confirm delivery. The move error, if any, is returned.
// Concurrent SetPosition calls on the same Unit must be serialized by the
// caller.
func (u *Unit) SetPosition(position float64) error {
	if math.IsNaN(position) || position < Closed || position > Open {
		return ErrInvalidPosition
	}

	u.mu.Lock()
	amount := position - u.position
	u.position = position
	u.mu.Unlock()

	return u.mover.Move(u.address, u.unit, u.Duration(amount))
}

// Duration converts a signed position delta into controller ticks,
// truncated toward zero.
func (u *Unit) Duration(amount float64) int {
	return int(wire.TicksPerSecond * u.travelTime * amount / 100)
}
