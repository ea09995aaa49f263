package wire

import (
	"bytes"
	"fmt"
	"strconv"
)

// ParseCommands decodes every complete statement in data. A trailing
// incomplete statement is returned unconsumed in rest so stream readers
// can prepend it to the next chunk. Whitespace and line terminators
// between statements are ignored.
//
// Stop statements are returned as a MoveCommand with DirectionStop and a
// zero Duration.
func ParseCommands(data []byte) (cmds []MoveCommand, rest []byte, err error) {
	for {
		data = bytes.TrimLeft(data, " \t\r\n")
		if len(data) == 0 {
			return cmds, nil, nil
		}
		if data[0] != commandStart {
			return cmds, data, fmt.Errorf("%w: unexpected byte %q", ErrInvalidCommand, data[0])
		}

		end := bytes.IndexByte(data, commandEnd)
		if end < 0 {
			return cmds, data, nil
		}

		cmd, err := parseStatement(data[1:end])
		if err != nil {
			return cmds, data, err
		}
		cmds = append(cmds, cmd)
		data = data[end+1:]
	}
}

// parseStatement decodes the body between '*' and ';'.
func parseStatement(body []byte) (MoveCommand, error) {
	if len(body) < 4 {
		return MoveCommand{}, fmt.Errorf("%w: %q too short", ErrInvalidCommand, body)
	}

	address, err := strconv.Atoi(string(body[:1]))
	if err != nil {
		return MoveCommand{}, fmt.Errorf("%w: address %q", ErrInvalidCommand, body[:1])
	}
	dir := Direction(body[1])
	if !dir.Valid() {
		return MoveCommand{}, fmt.Errorf("%w: direction %q", ErrInvalidCommand, body[1])
	}

	unit, err := parseDigits(body[2:4])
	if err != nil {
		return MoveCommand{}, err
	}
	cmd := MoveCommand{Address: address, Unit: unit, Direction: dir}

	switch {
	case dir == DirectionStop && len(body) == 4:
		return cmd, nil
	case dir != DirectionStop && len(body) == 7:
		cmd.Duration, err = parseDigits(body[4:7])
		return cmd, err
	default:
		return MoveCommand{}, fmt.Errorf("%w: %q has wrong length", ErrInvalidCommand, body)
	}
}

func parseDigits(b []byte) (int, error) {
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: non-digit in %q", ErrInvalidCommand, b)
		}
	}
	n, _ := strconv.Atoi(string(b))
	return n, nil
}
