// Command r2d7-mqtt bridges an R2D7 shade controller to an MQTT broker.
//
// Every shade in the configuration file is exposed under
// <topic_prefix>/<name>/{set,position,state}. The session availability is
// published to <topic_prefix>/status, which is also registered as the
// broker last will.
//
// Usage:
//
//	r2d7-mqtt -config /etc/r2d7.yaml [flags]
//
// Flags:
//
//	-config string        Configuration file path (required)
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-protocol-log string  Write protocol capture to file (.rlog)
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/esi-r2d7/r2d7-go/internal/cliutil"
	"github.com/esi-r2d7/r2d7-go/pkg/bridge"
	"github.com/esi-r2d7/r2d7-go/pkg/config"
	"github.com/esi-r2d7/r2d7-go/pkg/session"
)

var (
	configFile  = flag.String("config", "", "Configuration file path (required)")
	logLevel    = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	protocolLog = flag.String("protocol-log", "", "Write protocol capture to file (.rlog)")
)

func main() {
	flag.Parse()

	logger, err := cliutil.NewLogger(os.Stderr, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(logger); err != nil {
		logger.Error("r2d7-mqtt failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	if *configFile == "" {
		return fmt.Errorf("-config is required")
	}
	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	if cfg.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required")
	}

	plog, closePlog, err := cliutil.ProtocolLogger(*protocolLog, logger, *logLevel == "debug")
	if err != nil {
		return err
	}
	defer closePlog()

	sessCfg, err := cfg.SessionConfig()
	if err != nil {
		return err
	}
	sessCfg.Logger = logger.With("component", "session")
	sessCfg.ProtocolLogger = plog

	sess, err := session.New(sessCfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	shades := make([]bridge.Shade, 0, len(cfg.Shades))
	for _, s := range cfg.Shades {
		u, err := s.NewUnit(sess)
		if err != nil {
			return err
		}
		shades = append(shades, bridge.Shade{Name: s.Name, Unit: u})
	}

	// The bridge needs the client and the client's on-connect handler
	// needs the bridge, so the handler reads it through this variable.
	var br *bridge.Bridge
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTT.Broker)
	opts.SetClientID(cfg.MQTT.ClientID)
	opts.SetUsername(cfg.MQTT.Username)
	opts.SetPassword(cfg.MQTT.Password)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetWill(cfg.MQTT.TopicPrefix+"/status", bridge.StatusOffline, 1, true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		logger.Info("connected to mqtt broker", "broker", cfg.MQTT.Broker)
		// Subscriptions do not survive a clean-session reconnect.
		go func() {
			if err := br.Start(); err != nil {
				logger.Error("bridge start failed", "error", err)
				return
			}
			if err := br.PublishStatus(sess.IsConnected()); err != nil {
				logger.Warn("publish status failed", "error", err)
			}
		}()
	})

	client := mqtt.NewClient(opts)
	br, err = bridge.New(client, shades, bridge.Config{
		TopicPrefix: cfg.MQTT.TopicPrefix,
		QoS:         1,
		Logger:      logger.With("component", "bridge"),
	})
	if err != nil {
		return err
	}
	sess.OnStateChange(br.SessionStateChanged)

	logger.Info("connecting to mqtt broker", "broker", cfg.MQTT.Broker)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	logger.Info("shutting down")

	if err := br.Stop(); err != nil {
		logger.Warn("bridge stop failed", "error", err)
	}
	br.Wait()
	if err := br.PublishStatus(false); err != nil {
		logger.Warn("publish status failed", "error", err)
	}
	client.Disconnect(250)
	return nil
}
