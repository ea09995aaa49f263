package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/esi-r2d7/r2d7-go/pkg/log"
)

// createTestLogFile writes events to a temporary capture file.
func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test"+log.FileExtension)

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func sampleEvents() []log.Event {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)
	return []log.Event{
		{
			Timestamp:    ts,
			ConnectionID: "abc12345-6789-0123-4567-890abcdef012",
			Direction:    log.DirectionLocal,
			Category:     log.CategoryState,
			RemoteAddr:   "tcp://192.168.2.55:4008",
			StateChange:  &log.StateChangeEvent{OldState: "DISCONNECTED", NewState: "CONNECTED", Reason: "connected"},
		},
		{
			Timestamp:    ts.Add(time.Second),
			ConnectionID: "abc12345-6789-0123-4567-890abcdef012",
			Direction:    log.DirectionOut,
			Category:     log.CategoryCommand,
			RemoteAddr:   "tcp://192.168.2.55:4008",
			Command: &log.CommandEvent{
				Address: 3, Unit: 7, Direction: "OPEN", Duration: 154,
				Data: []byte("*3o07154;*3s07;"),
			},
		},
		{
			Timestamp:    ts.Add(2 * time.Second),
			ConnectionID: "abc12345-6789-0123-4567-890abcdef012",
			Direction:    log.DirectionIn,
			Category:     log.CategoryFeedback,
			Feedback:     log.NewFeedbackEvent([]byte("OK\r\n")),
		},
		{
			Timestamp: ts.Add(3 * time.Second),
			Direction: log.DirectionOut,
			Category:  log.CategoryCommand,
			Command: &log.CommandEvent{
				Address: 1, Unit: 2, Direction: "CLOSE", Duration: 20, Dropped: true,
			},
		},
		{
			Timestamp: ts.Add(4 * time.Second),
			Direction: log.DirectionLocal,
			Category:  log.CategoryError,
			Error:     &log.ErrorEventData{Context: "dial", Message: "connection refused"},
		},
	}
}

func TestFormatCommandEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, sampleEvents()[1])
	output := buf.String()

	if !strings.Contains(output, "2026-01-28T10:15:33.123456Z") {
		t.Errorf("expected timestamp, got: %s", output)
	}
	if !strings.Contains(output, "[conn:abc12345]") {
		t.Errorf("expected shortened connection ID, got: %s", output)
	}
	if !strings.Contains(output, "OUT") || !strings.Contains(output, "COMMAND") {
		t.Errorf("expected direction and category, got: %s", output)
	}
	if !strings.Contains(output, "Shade: 3/07 OPEN for 7.70s") {
		t.Errorf("expected shade details, got: %s", output)
	}
	if !strings.Contains(output, `"*3o07154;*3s07;"`) {
		t.Errorf("expected quoted command bytes, got: %s", output)
	}
}

func TestFormatDroppedCommand(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, sampleEvents()[3])
	output := buf.String()

	if !strings.Contains(output, "[conn:-]") {
		t.Errorf("expected placeholder connection ID, got: %s", output)
	}
	if !strings.Contains(output, "Dropped") {
		t.Errorf("expected dropped marker, got: %s", output)
	}
}

func TestFormatStateAndError(t *testing.T) {
	events := sampleEvents()

	var buf bytes.Buffer
	formatEvent(&buf, events[0])
	if !strings.Contains(buf.String(), "DISCONNECTED -> CONNECTED") {
		t.Errorf("expected state transition, got: %s", buf.String())
	}

	buf.Reset()
	formatEvent(&buf, events[4])
	if !strings.Contains(buf.String(), "Message: connection refused") {
		t.Errorf("expected error message, got: %s", buf.String())
	}
}

func TestRunViewWithFilter(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	filter, err := BuildFilter("", "command", "", 0)
	if err != nil {
		t.Fatalf("BuildFilter failed: %v", err)
	}

	var buf bytes.Buffer
	if err := RunView(path, filter, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	if got := strings.Count(buf.String(), "COMMAND"); got != 2 {
		t.Errorf("expected 2 command events, got %d:\n%s", got, buf.String())
	}

	filter, _ = BuildFilter("", "", "", 3)
	buf.Reset()
	if err := RunView(path, filter, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	if strings.Count(buf.String(), "Shade:") != 1 {
		t.Errorf("expected 1 event for address 3, got:\n%s", buf.String())
	}
}

func TestBuildFilterInvalid(t *testing.T) {
	if _, err := BuildFilter("sideways", "", "", 0); err == nil {
		t.Error("expected error for invalid direction")
	}
	if _, err := BuildFilter("", "message", "", 0); err == nil {
		t.Error("expected error for invalid category")
	}
	if _, err := BuildFilter("", "", "", 8); err == nil {
		t.Error("expected error for invalid address")
	}

	f, err := BuildFilter("IN", "Feedback", "abc", 0)
	if err != nil {
		t.Fatalf("BuildFilter failed: %v", err)
	}
	if *f.Direction != log.DirectionIn || *f.Category != log.CategoryFeedback || f.ConnectionID != "abc" {
		t.Errorf("unexpected filter: %+v", f)
	}
}

func TestRunViewMissingFile(t *testing.T) {
	var buf bytes.Buffer
	if err := RunView(filepath.Join(t.TempDir(), "missing.rlog"), log.Filter{}, &buf); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestStats(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	stats, err := collectStats(path)
	if err != nil {
		t.Fatalf("collectStats failed: %v", err)
	}
	if stats.TotalEvents != 5 {
		t.Errorf("TotalEvents = %d, want 5", stats.TotalEvents)
	}
	if stats.CommandsSent != 1 || stats.CommandsDropped != 1 {
		t.Errorf("commands = %d sent / %d dropped, want 1/1", stats.CommandsSent, stats.CommandsDropped)
	}
	if stats.FeedbackBytes != 4 {
		t.Errorf("FeedbackBytes = %d, want 4", stats.FeedbackBytes)
	}
	if stats.Errors != 1 {
		t.Errorf("Errors = %d, want 1", stats.Errors)
	}
	if len(stats.Connections) != 1 {
		t.Errorf("Connections = %d, want 1", len(stats.Connections))
	}

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	output := buf.String()
	for _, want := range []string{"Total Events: 5", "COMMAND:", "FEEDBACK:", "Commands: 1 sent, 1 dropped", "[abc12345]", "Errors: 1"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestExportJSONL(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "out.jsonl")

	if err := RunExport(path, "jsonl", out); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d", len(lines))
	}

	var event log.Event
	if err := json.Unmarshal([]byte(lines[1]), &event); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if event.Command == nil || event.Command.Address != 3 {
		t.Errorf("unexpected command event: %+v", event)
	}
}

func TestExportCSV(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "out.csv")

	if err := RunExport(path, "csv", out); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	output := string(data)
	if !strings.HasPrefix(output, "timestamp,connection_id") {
		t.Errorf("expected header, got: %s", output)
	}
	if !strings.Contains(output, "3,7,OPEN,154,*3o07154;*3s07;") {
		t.Errorf("expected command row, got: %s", output)
	}
	if !strings.Contains(output, "dropped") {
		t.Errorf("expected dropped row, got: %s", output)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, nil)
	if err := RunExport(path, "xml", ""); err == nil {
		t.Error("expected error for unknown format")
	}
}
