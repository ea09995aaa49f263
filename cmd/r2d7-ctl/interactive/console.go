// Package interactive provides the interactive command-line interface
// of r2d7-ctl.
package interactive

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/esi-r2d7/r2d7-go/pkg/connection"
	"github.com/esi-r2d7/r2d7-go/pkg/session"
	"github.com/esi-r2d7/r2d7-go/pkg/shade"
)

// Controller is the session surface used by the console.
type Controller interface {
	shade.Mover
	Shade(address, unit int, travelTime float64) (*shade.Unit, error)
	State() connection.State
	Stats() session.Stats
	String() string
}

// Console executes operator commands against a controller session.
type Console struct {
	ctrl   Controller
	shades map[string]*shade.Unit
	out    io.Writer
}

// NewConsole creates a console writing its output to out.
func NewConsole(ctrl Controller, out io.Writer) *Console {
	return &Console{
		ctrl:   ctrl,
		shades: make(map[string]*shade.Unit),
		out:    out,
	}
}

// AddShade registers a named shade.
func (c *Console) AddShade(name string, address, unit int, travelTime float64) error {
	if _, exists := c.shades[name]; exists {
		return fmt.Errorf("shade %q already exists", name)
	}
	u, err := c.ctrl.Shade(address, unit, travelTime)
	if err != nil {
		return err
	}
	c.shades[name] = u
	return nil
}

// Execute runs one command line. It returns false when the console
// should exit.
func (c *Console) Execute(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()

	case "shades", "ls":
		c.cmdShades()

	case "open", "o":
		c.cmdSet(args, shade.Open)

	case "close", "c":
		c.cmdSet(args, shade.Closed)

	case "set", "s":
		c.cmdSetPosition(args)

	case "move", "m":
		c.cmdMove(args)

	case "add":
		c.cmdAdd(args)

	case "status":
		c.cmdStatus()

	case "quit", "exit", "q":
		fmt.Fprintln(c.out, "Exiting...")
		return false

	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
R2D7 Commands:
  Shades:
    shades                          - List shades and cached positions
    open <name>                     - Open a shade fully
    close <name>                    - Close a shade fully
    set <name> <position>           - Move a shade to a position (0-100)
    add <name> <addr> <unit> <secs> - Add a shade (e.g. add office 3 7 15.4)

  Raw:
    move <addr> <unit> <ticks>      - Send a raw move (ticks of 1/20 s, negative closes)

  Session:
    status                          - Show connection state and counters
    help                            - Show this help
    quit                            - Exit`)
}

func (c *Console) cmdShades() {
	if len(c.shades) == 0 {
		fmt.Fprintln(c.out, "No shades configured (use 'add')")
		return
	}

	names := make([]string, 0, len(c.shades))
	for name := range c.shades {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		u := c.shades[name]
		state := "open"
		if u.IsClosed() {
			state = "closed"
		}
		fmt.Fprintf(c.out, "  %-16s addr=%d unit=%02d travel=%.1fs position=%g (%s)\n",
			name, u.Address(), u.UnitNumber(), u.TravelTime(), u.Position(), state)
	}
}

func (c *Console) lookup(args []string, usage string) (string, *shade.Unit, bool) {
	if len(args) < 1 {
		fmt.Fprintf(c.out, "Usage: %s\n", usage)
		return "", nil, false
	}
	u, ok := c.shades[args[0]]
	if !ok {
		fmt.Fprintf(c.out, "Unknown shade: %s\n", args[0])
		return "", nil, false
	}
	return args[0], u, true
}

func (c *Console) cmdSet(args []string, position float64) {
	name, u, ok := c.lookup(args, "open|close <name>")
	if !ok {
		return
	}
	c.apply(name, u, position)
}

func (c *Console) cmdSetPosition(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "Usage: set <name> <position>")
		return
	}
	name, u, ok := c.lookup(args, "set <name> <position>")
	if !ok {
		return
	}
	position, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		fmt.Fprintf(c.out, "Invalid position: %s\n", args[1])
		return
	}
	c.apply(name, u, position)
}

func (c *Console) apply(name string, u *shade.Unit, position float64) {
	from := u.Position()
	if err := u.SetPosition(position); err != nil {
		fmt.Fprintf(c.out, "%s: %v\n", name, err)
		if u.Position() == from {
			return
		}
	}
	fmt.Fprintf(c.out, "%s: %g -> %g\n", name, from, u.Position())
}

func (c *Console) cmdMove(args []string) {
	if len(args) < 3 {
		fmt.Fprintln(c.out, "Usage: move <addr> <unit> <ticks>")
		return
	}
	vals := make([]int, 3)
	for i, arg := range args[:3] {
		v, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Fprintf(c.out, "Invalid number: %s\n", arg)
			return
		}
		vals[i] = v
	}
	if err := c.ctrl.Move(vals[0], vals[1], vals[2]); err != nil {
		fmt.Fprintf(c.out, "Move failed: %v\n", err)
		return
	}
	fmt.Fprintln(c.out, "OK")
}

func (c *Console) cmdAdd(args []string) {
	if len(args) < 3 {
		fmt.Fprintln(c.out, "Usage: add <name> <addr> <unit> [travel-seconds]")
		return
	}
	address, err1 := strconv.Atoi(args[1])
	unit, err2 := strconv.Atoi(args[2])
	if err1 != nil || err2 != nil {
		fmt.Fprintln(c.out, "Address and unit must be numbers")
		return
	}
	travel := 15.4
	if len(args) > 3 {
		t, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			fmt.Fprintf(c.out, "Invalid travel time: %s\n", args[3])
			return
		}
		travel = t
	}
	if err := c.AddShade(args[0], address, unit, travel); err != nil {
		fmt.Fprintf(c.out, "Add failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Added %s\n", args[0])
}

func (c *Console) cmdStatus() {
	st := c.ctrl.Stats()
	fmt.Fprintf(c.out, "Controller: %s\n", c.ctrl)
	fmt.Fprintf(c.out, "State:      %s\n", c.ctrl.State())
	fmt.Fprintf(c.out, "Moves:      %d sent, %d dropped\n", st.MovesSent, st.MovesDropped)
	fmt.Fprintf(c.out, "Links:      %d connects, %d disconnects\n", st.Connects, st.Disconnects)
	if c.ctrl.State() == connection.StateDisconnected {
		fmt.Fprintf(c.out, "Retrying:   %d attempts since last connect\n", st.ReconnectAttempts)
	}
	fmt.Fprintf(c.out, "Received:   %d bytes\n", st.BytesReceived)
}

// Run reads commands from a readline prompt until quit, EOF or ctx is
// cancelled.
func (c *Console) Run(ctx context.Context, rl *readline.Instance) {
	defer rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			return
		}

		if !c.Execute(strings.TrimSpace(line)) {
			return
		}
	}
}

// NewReadline creates the r2d7-ctl prompt.
func NewReadline() (*readline.Instance, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "r2d7> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return rl, nil
}
