// Command r2d7-log is a tool for viewing and analyzing R2D7 protocol
// capture files.
//
// Capture files are created by r2d7-ctl and r2d7-mqtt with the
// -protocol-log flag.
//
// Usage:
//
//	r2d7-log <command> [flags] <file.rlog>
//
// Commands:
//
//	view     View capture file in human-readable format
//	export   Export capture file to JSON lines or CSV
//	stats    Show statistics about the capture file
//
// Examples:
//
//	# View all events
//	r2d7-log view session.rlog
//
//	# View only commands sent to address 3
//	r2d7-log view -category command -address 3 session.rlog
//
//	# View only controller output
//	r2d7-log view -direction in session.rlog
//
//	# Show statistics
//	r2d7-log stats session.rlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/esi-r2d7/r2d7-go/cmd/r2d7-log/commands"
)

const usage = `r2d7-log - R2D7 Protocol Capture Analyzer

Usage:
  r2d7-log <command> [flags] <file.rlog>

Commands:
  view     View capture file in human-readable format
  export   Export capture file to JSON lines or CSV
  stats    Show statistics about the capture file

Use "r2d7-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `r2d7-log view - View capture file in human-readable format

Usage:
  r2d7-log view [flags] <file.rlog>

Flags:
`)
		fs.PrintDefaults()
	}

	direction := fs.String("direction", "", "Filter by direction (in, out, local)")
	category := fs.String("category", "", "Filter by category (command, feedback, state, error)")
	connID := fs.String("conn-id", "", "Filter by connection ID prefix")
	address := fs.Int("address", 0, "Filter commands by controller address (1-7)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: capture file path required")
		fs.Usage()
		os.Exit(1)
	}

	filter, err := commands.BuildFilter(*direction, *category, *connID, *address)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := commands.RunView(fs.Arg(0), filter, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `r2d7-log export - Export capture file to JSON lines or CSV

Usage:
  r2d7-log export [flags] <file.rlog>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: capture file path required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunExport(fs.Arg(0), *format, *output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `r2d7-log stats - Show statistics about the capture file

Usage:
  r2d7-log stats <file.rlog>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: capture file path required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunStats(fs.Arg(0), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
