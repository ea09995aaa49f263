// Command r2d7-ctl is an interactive console for an R2D7 shade controller.
//
// Usage:
//
//	r2d7-ctl [flags]
//
// Flags:
//
//	-config string        Configuration file path (shades and controller)
//	-host string          Controller host (default "192.168.2.55")
//	-port int             Controller TCP port (default 4008)
//	-serial string        Serial device; overrides -host
//	-dialect string       Command dialect: raw, line (default "raw")
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-protocol-log string  Write protocol capture to file (.rlog)
//
// Examples:
//
//	# Connect to the default device server and add a shade by hand
//	r2d7-ctl
//	r2d7> add office 3 7 15.4
//	r2d7> set office 50
//
//	# Use the shades from a config file and capture traffic
//	r2d7-ctl -config /etc/r2d7.yaml -protocol-log /tmp/r2d7.rlog
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/esi-r2d7/r2d7-go/cmd/r2d7-ctl/interactive"
	"github.com/esi-r2d7/r2d7-go/internal/cliutil"
	"github.com/esi-r2d7/r2d7-go/pkg/config"
	"github.com/esi-r2d7/r2d7-go/pkg/session"
)

var (
	configFile  = flag.String("config", "", "Configuration file path")
	host        = flag.String("host", "", "Controller host (default "+config.DefaultHost+")")
	port        = flag.Int("port", 0, "Controller TCP port (default 4008)")
	serialDev   = flag.String("serial", "", "Serial device; overrides -host")
	dialect     = flag.String("dialect", "", "Command dialect: raw, line")
	logLevel    = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	protocolLog = flag.String("protocol-log", "", "Write protocol capture to file (.rlog)")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	rl, err := interactive.NewReadline()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, err := cliutil.NewLogger(rl.Stderr(), *logLevel)
	if err != nil {
		rl.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	plog, closePlog, err := cliutil.ProtocolLogger(*protocolLog, logger, *logLevel == "debug")
	if err != nil {
		rl.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closePlog()

	sessCfg, err := cfg.SessionConfig()
	if err != nil {
		rl.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	sessCfg.Logger = logger
	sessCfg.ProtocolLogger = plog
	// The console stays usable while the controller is unreachable.
	sessCfg.RequireInitialConnection = false

	sess, err := session.New(sessCfg)
	if err != nil {
		rl.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer sess.Close()

	console := interactive.NewConsole(sess, rl.Stdout())
	for _, s := range cfg.Shades {
		if err := console.AddShade(s.Name, s.Address, s.Unit, s.TravelTime); err != nil {
			logger.Warn("skipping shade", "shade", s.Name, "error", err)
		}
	}

	if !sess.IsConnected() {
		logger.Warn("controller not reachable yet, retrying in background", "controller", sessCfg.Dialer.String())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	console.Run(ctx, rl)
}

// loadConfig reads -config (if given) and applies the command-line
// overrides.
func loadConfig() (*config.File, error) {
	cfg := config.Default()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	c := &cfg.Controller
	if *host != "" {
		c.Transport = config.TransportTCP
		c.Host = *host
	}
	if *port != 0 {
		c.Port = *port
	}
	if *serialDev != "" {
		c.Transport = config.TransportSerial
		c.Device = *serialDev
	}
	if *dialect != "" {
		c.Dialect = *dialect
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
