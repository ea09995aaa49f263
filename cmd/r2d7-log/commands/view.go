// Package commands implements the r2d7-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/esi-r2d7/r2d7-go/pkg/log"
	"github.com/esi-r2d7/r2d7-go/pkg/wire"
)

// BuildFilter converts command-line flag values into a log.Filter.
func BuildFilter(direction, category, connID string, address int) (log.Filter, error) {
	filter := log.Filter{ConnectionID: connID}

	if direction != "" {
		d, ok := log.ParseDirection(direction)
		if !ok {
			return filter, fmt.Errorf("invalid direction: %s (must be in, out, or local)", direction)
		}
		filter.Direction = &d
	}

	if category != "" {
		c, ok := log.ParseCategory(category)
		if !ok {
			return filter, fmt.Errorf("invalid category: %s (must be command, feedback, state, or error)", category)
		}
		filter.Category = &c
	}

	if address != 0 {
		if !wire.ValidAddress(address) {
			return filter, fmt.Errorf("invalid address: %d (must be %d-%d)", address, wire.MinAddress, wire.MaxAddress)
		}
		filter.Address = address
	}

	return filter, nil
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [conn:id] DIRECTION CATEGORY
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	connID := shortenConnID(event.ConnectionID)
	if connID == "" {
		connID = "-"
	}

	fmt.Fprintf(w, "%s [conn:%s] %-5s %s\n", ts, connID, event.Direction.String(), event.Category.String())
	if event.RemoteAddr != "" {
		fmt.Fprintf(w, "  Controller: %s\n", event.RemoteAddr)
	}

	switch {
	case event.Command != nil:
		formatCommandDetails(w, event.Command)
	case event.Feedback != nil:
		formatFeedbackDetails(w, event.Feedback)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenConnID returns the first 8 characters of the connection ID.
func shortenConnID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatCommandDetails(w io.Writer, cmd *log.CommandEvent) {
	fmt.Fprintf(w, "  Shade: %d/%02d %s for %.2fs\n",
		cmd.Address, cmd.Unit, cmd.Direction, float64(cmd.Duration)/wire.TicksPerSecond)
	if len(cmd.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s\n", strconv.Quote(string(cmd.Data)))
	}
	if cmd.Dropped {
		fmt.Fprintln(w, "  Dropped: not delivered")
	}
}

func formatFeedbackDetails(w io.Writer, fb *log.FeedbackEvent) {
	fmt.Fprintf(w, "  Size: %d bytes\n", fb.Size)
	if len(fb.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s", strconv.Quote(string(fb.Data)))
		if fb.Truncated {
			fmt.Fprintf(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
}

// RunView executes the view command.
func RunView(path string, filter log.Filter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}

	return nil
}
