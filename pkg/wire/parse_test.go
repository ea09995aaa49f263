package wire

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommandsRawStream(t *testing.T) {
	cmds, rest, err := ParseCommands([]byte("*3o07025;*3s07;"))
	require.NoError(t, err)
	assert.Empty(t, rest)
	require.Len(t, cmds, 2)

	assert.Equal(t, MoveCommand{Address: 3, Unit: 7, Direction: DirectionOpen, Duration: 25}, cmds[0])
	assert.Equal(t, MoveCommand{Address: 3, Unit: 7, Direction: DirectionStop}, cmds[1])
}

func TestParseCommandsLines(t *testing.T) {
	cmds, rest, err := ParseCommands([]byte("*1c12300;\n*2o01005;\r\n"))
	require.NoError(t, err)
	assert.Empty(t, rest)
	require.Len(t, cmds, 2)
	assert.Equal(t, DirectionClose, cmds[0].Direction)
	assert.Equal(t, 300, cmds[0].Duration)
	assert.Equal(t, 2, cmds[1].Address)
}

func TestParseCommandsPartial(t *testing.T) {
	cmds, rest, err := ParseCommands([]byte("*3o07025;*3s0"))
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, "*3s0", string(rest))

	cmds, rest, err = ParseCommands(append(rest, []byte("7;")...))
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, DirectionStop, cmds[0].Direction)
	assert.Empty(t, rest)
}

func TestParseCommandsRoundTrip(t *testing.T) {
	in := NewMoveCommand(5, 42, -123)
	cmds, _, err := ParseCommands(LineDialect{}.EncodeMove(in))
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, in.String(), cmds[0].String())
}

func TestParseCommandsInvalid(t *testing.T) {
	inputs := []string{
		"x3o07025;",
		"*3x07025;",
		"*3o0a025;",
		"*3o070;",
		"*3s0701;",
		"*3;",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, _, err := ParseCommands([]byte(in))
			if !errors.Is(err, ErrInvalidCommand) {
				t.Errorf("ParseCommands(%q) error = %v, want ErrInvalidCommand", in, err)
			}
		})
	}
}
