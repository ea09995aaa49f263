package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/esi-r2d7/r2d7-go/pkg/connection"
	"github.com/esi-r2d7/r2d7-go/pkg/session"
	"github.com/esi-r2d7/r2d7-go/pkg/shade"
	"github.com/esi-r2d7/r2d7-go/pkg/wire"
)

// Transport names.
const (
	TransportTCP    = "tcp"
	TransportSerial = "serial"
)

// Defaults applied by Parse.
const (
	DefaultHost        = "192.168.2.55"
	DefaultTravelTime  = 15.4
	DefaultTopicPrefix = "r2d7"
	DefaultClientID    = "r2d7"
)

// File is a parsed configuration document.
type File struct {
	Controller Controller `yaml:"controller"`
	Shades     []Shade    `yaml:"shades"`
	MQTT       MQTT       `yaml:"mqtt"`
}

// Controller describes how to reach the R2D7.
type Controller struct {
	Transport string `yaml:"transport"`

	// TCP transport.
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// Serial transport.
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`

	Dialect                  string        `yaml:"dialect"`
	PollInterval             time.Duration `yaml:"poll_interval"`
	CloseGrace               time.Duration `yaml:"close_grace"`
	DialTimeout              time.Duration `yaml:"dial_timeout"`
	WriteTimeout             time.Duration `yaml:"write_timeout"`
	RequireInitialConnection bool          `yaml:"require_initial_connection"`
}

// Shade is one motor unit.
type Shade struct {
	Name       string  `yaml:"name"`
	Address    int     `yaml:"address"`
	Unit       int     `yaml:"unit"`
	TravelTime float64 `yaml:"travel_time"`
}

// MQTT configures the broker connection of r2d7-mqtt.
type MQTT struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// Default returns a configuration for the default TCP endpoint without
// shades.
func Default() *File {
	f := &File{}
	f.applyDefaults()
	return f
}

// Parse parses a configuration from YAML bytes, applies defaults and
// validates the result.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &LoadError{
			Message: "failed to parse YAML",
			Cause:   err,
		}
	}

	f.applyDefaults()
	if err := f.Validate(); err != nil {
		return nil, &LoadError{
			Message: "invalid configuration",
			Cause:   err,
		}
	}
	return &f, nil
}

// Load reads and parses a configuration file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{
			File:    path,
			Message: "failed to read file",
			Cause:   err,
		}
	}

	f, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
		}
		return nil, err
	}
	return f, nil
}

func (f *File) applyDefaults() {
	c := &f.Controller
	if c.Transport == "" {
		c.Transport = TransportTCP
	}
	if c.Transport == TransportTCP && c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = connection.DefaultPort
	}
	if c.Baud == 0 {
		c.Baud = connection.DefaultBaudRate
	}
	if c.Dialect == "" {
		c.Dialect = "raw"
	}
	if c.PollInterval == 0 {
		c.PollInterval = session.DefaultPollInterval
	}
	if c.CloseGrace == 0 {
		c.CloseGrace = session.DefaultCloseGrace
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = connection.DefaultDialTimeout
	}

	for i := range f.Shades {
		if f.Shades[i].TravelTime == 0 {
			f.Shades[i].TravelTime = DefaultTravelTime
		}
	}

	if f.MQTT.ClientID == "" {
		f.MQTT.ClientID = DefaultClientID
	}
	if f.MQTT.TopicPrefix == "" {
		f.MQTT.TopicPrefix = DefaultTopicPrefix
	}
}

// Validate checks the configuration. All problems are reported together.
func (f *File) Validate() error {
	var errs []error

	c := f.Controller
	switch c.Transport {
	case TransportTCP:
		if c.Host == "" {
			errs = append(errs, errors.New("controller.host is required for tcp"))
		}
		if c.Port < 1 || c.Port > 65535 {
			errs = append(errs, fmt.Errorf("controller.port %d out of range", c.Port))
		}
	case TransportSerial:
		if c.Device == "" {
			errs = append(errs, errors.New("controller.device is required for serial"))
		}
		if c.Baud < 0 {
			errs = append(errs, fmt.Errorf("controller.baud %d is invalid", c.Baud))
		}
	default:
		errs = append(errs, fmt.Errorf("controller.transport %q is unknown", c.Transport))
	}
	if _, err := wire.ParseDialect(c.Dialect); err != nil {
		errs = append(errs, fmt.Errorf("controller.dialect: %w", err))
	}
	if c.PollInterval < 0 || c.DialTimeout < 0 || c.WriteTimeout < 0 {
		errs = append(errs, errors.New("controller timings must not be negative"))
	}

	seen := make(map[string]bool, len(f.Shades))
	for i, s := range f.Shades {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("shades[%d]: name is required", i))
		} else if strings.ContainsAny(s.Name, "/+#") {
			errs = append(errs, fmt.Errorf("shades[%d]: name %q contains a topic separator", i, s.Name))
		}
		if seen[s.Name] {
			errs = append(errs, fmt.Errorf("shades[%d]: duplicate name %q", i, s.Name))
		}
		seen[s.Name] = true

		if err := shade.Validate(s.Address, s.Unit); err != nil {
			errs = append(errs, fmt.Errorf("shades[%d]: %w", i, err))
		}
		if s.TravelTime <= 0 || s.TravelTime > shade.MaxTravelTime {
			errs = append(errs, fmt.Errorf("shades[%d]: travel_time %g is invalid", i, s.TravelTime))
		}
	}

	return errors.Join(errs...)
}

// Dialer returns the connection dialer for the configured transport.
func (f *File) Dialer() connection.Dialer {
	c := f.Controller
	if c.Transport == TransportSerial {
		mode := connection.DefaultSerialMode()
		mode.BaudRate = c.Baud
		return &connection.SerialDialer{Device: c.Device, Mode: mode}
	}
	return &connection.TCPDialer{Host: c.Host, Port: c.Port, Timeout: c.DialTimeout}
}

// SessionConfig converts the controller section to a session.Config.
// Logger and ProtocolLogger are left for the caller.
func (f *File) SessionConfig() (session.Config, error) {
	dialect, err := wire.ParseDialect(f.Controller.Dialect)
	if err != nil {
		return session.Config{}, err
	}
	return session.Config{
		Dialer:                   f.Dialer(),
		Dialect:                  dialect,
		PollInterval:             f.Controller.PollInterval,
		CloseGrace:               f.Controller.CloseGrace,
		WriteTimeout:             f.Controller.WriteTimeout,
		RequireInitialConnection: f.Controller.RequireInitialConnection,
	}, nil
}

// Shade returns the shade named name.
func (f *File) Shade(name string) (Shade, bool) {
	for _, s := range f.Shades {
		if s.Name == name {
			return s, true
		}
	}
	return Shade{}, false
}

// NewUnit creates the shade unit driven by mover.
func (s Shade) NewUnit(mover shade.Mover) (*shade.Unit, error) {
	u, err := shade.New(mover, s.Address, s.Unit, s.TravelTime)
	if err != nil {
		return nil, fmt.Errorf("shade %q: %w", s.Name, err)
	}
	return u, nil
}
