package wire

import (
	"testing"
)

func TestNewMoveCommand(t *testing.T) {
	tests := []struct {
		name     string
		duration int
		wantDir  Direction
		wantDur  int
		clamped  bool
	}{
		{"Positive", 25, DirectionOpen, 25, false},
		{"Negative", -25, DirectionClose, 25, false},
		{"Max", 999, DirectionOpen, 999, false},
		{"ClampedOpen", 1200, DirectionOpen, 999, true},
		{"ClampedClose", -1000, DirectionClose, 999, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewMoveCommand(3, 7, tt.duration)
			if cmd.Direction != tt.wantDir {
				t.Errorf("Direction = %v, want %v", cmd.Direction, tt.wantDir)
			}
			if cmd.Duration != tt.wantDur {
				t.Errorf("Duration = %d, want %d", cmd.Duration, tt.wantDur)
			}
			if cmd.Clamped() != tt.clamped {
				t.Errorf("Clamped() = %v, want %v", cmd.Clamped(), tt.clamped)
			}
		})
	}
}

func TestMoveCommandString(t *testing.T) {
	tests := []struct {
		cmd  MoveCommand
		want string
	}{
		{NewMoveCommand(3, 7, 25), "*3o07025;"},
		{NewMoveCommand(3, 7, -25), "*3c07025;"},
		{NewMoveCommand(1, 60, 999), "*1o60999;"},
		{NewMoveCommand(7, 1, -1), "*7c01001;"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.cmd.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppendStop(t *testing.T) {
	if got := string(AppendStop(nil, 2, 5)); got != "*2s05;" {
		t.Errorf("AppendStop = %q, want %q", got, "*2s05;")
	}
}

func TestMoveCommandSeconds(t *testing.T) {
	cmd := NewMoveCommand(1, 1, 30)
	if got := cmd.Seconds(); got != 1.5 {
		t.Errorf("Seconds() = %v, want 1.5", got)
	}
}

func TestDirectionString(t *testing.T) {
	tests := []struct {
		dir  Direction
		want string
	}{
		{DirectionOpen, "OPEN"},
		{DirectionClose, "CLOSE"},
		{DirectionStop, "STOP"},
		{Direction('x'), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.dir.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidRanges(t *testing.T) {
	for a := -1; a <= 9; a++ {
		want := a >= 1 && a <= 7
		if got := ValidAddress(a); got != want {
			t.Errorf("ValidAddress(%d) = %v, want %v", a, got, want)
		}
	}
	for u := -1; u <= 62; u++ {
		want := u >= 1 && u <= 60
		if got := ValidUnit(u); got != want {
			t.Errorf("ValidUnit(%d) = %v, want %v", u, got, want)
		}
	}
}
