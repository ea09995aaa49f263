package bridge

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/esi-r2d7/r2d7-go/pkg/connection"
	"github.com/esi-r2d7/r2d7-go/pkg/shade"
)

// Payload values.
const (
	PayloadOpen    = "OPEN"
	PayloadClose   = "CLOSE"
	StateOpen      = "open"
	StateClosed    = "closed"
	StatusOnline   = "online"
	StatusOffline  = "offline"
	DefaultTimeout = 5 * time.Second
)

// Bridge errors.
var (
	ErrUnknownShade   = errors.New("unknown shade")
	ErrInvalidPayload = errors.New("invalid payload")
	ErrDuplicateShade = errors.New("duplicate shade name")
	ErrTimeout        = errors.New("mqtt operation timed out")
)

// Client is the subset of mqtt.Client used by the bridge.
type Client interface {
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Unsubscribe(topics ...string) mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Shade is a named shade unit.
type Shade struct {
	Name string
	Unit *shade.Unit
}

// Config configures a Bridge.
type Config struct {
	// TopicPrefix is prepended to all topics (default "r2d7").
	TopicPrefix string

	// QoS is used for subscriptions and publishes.
	QoS byte

	// Timeout bounds each subscribe and publish (default: DefaultTimeout).
	Timeout time.Duration

	// Logger is used for operational logging. Nil disables it.
	Logger *slog.Logger
}

// Bridge maps MQTT commands to shade moves and publishes cached state.
type Bridge struct {
	client Client
	cfg    Config
	logger *slog.Logger

	names  []string
	shades map[string]*shade.Unit

	// mu serializes moves so SetPosition is never concurrent per unit.
	mu sync.Mutex

	// Commands received from the router, applied in arrival order by a
	// single drain goroutine.
	qmu      sync.Mutex
	queue    []command
	draining bool
	inflight sync.WaitGroup
}

type command struct {
	name     string
	position float64
}

// New creates a bridge for shades.
func New(client Client, shades []Shade, cfg Config) (*Bridge, error) {
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "r2d7"
	}
	cfg.TopicPrefix = strings.TrimSuffix(cfg.TopicPrefix, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	b := &Bridge{
		client: client,
		cfg:    cfg,
		logger: logger,
		shades: make(map[string]*shade.Unit, len(shades)),
	}
	for _, s := range shades {
		if _, exists := b.shades[s.Name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateShade, s.Name)
		}
		b.shades[s.Name] = s.Unit
		b.names = append(b.names, s.Name)
	}
	return b, nil
}

// SetTopic returns the command topic of a shade.
func (b *Bridge) SetTopic(name string) string { return b.topic(name, "set") }

// PositionTopic returns the position topic of a shade.
func (b *Bridge) PositionTopic(name string) string { return b.topic(name, "position") }

// StateTopic returns the state topic of a shade.
func (b *Bridge) StateTopic(name string) string { return b.topic(name, "state") }

// StatusTopic returns the availability topic.
func (b *Bridge) StatusTopic() string { return b.cfg.TopicPrefix + "/status" }

func (b *Bridge) topic(name, leaf string) string {
	return b.cfg.TopicPrefix + "/" + name + "/" + leaf
}

// Start subscribes to the command topics and publishes the initial state
// of every shade.
func (b *Bridge) Start() error {
	for _, name := range b.names {
		if err := b.wait(b.client.Subscribe(b.SetTopic(name), b.cfg.QoS, b.HandleMessage)); err != nil {
			return fmt.Errorf("subscribe %s: %w", b.SetTopic(name), err)
		}
		b.logger.Debug("subscribed", "topic", b.SetTopic(name))
	}
	for _, name := range b.names {
		if err := b.PublishState(name); err != nil {
			return err
		}
	}
	return nil
}

// Stop unsubscribes from the command topics.
func (b *Bridge) Stop() error {
	if len(b.names) == 0 {
		return nil
	}
	topics := make([]string, len(b.names))
	for i, name := range b.names {
		topics[i] = b.SetTopic(name)
	}
	return b.wait(b.client.Unsubscribe(topics...))
}

// HandleMessage is the mqtt.MessageHandler for command topics. It only
// parses and queues the command, so it never blocks the client's router.
func (b *Bridge) HandleMessage(_ mqtt.Client, msg mqtt.Message) {
	name, ok := b.shadeFromTopic(msg.Topic())
	if !ok {
		b.logger.Warn("ignoring message on unexpected topic", "topic", msg.Topic())
		return
	}

	position, err := ParsePayload(string(msg.Payload()))
	if err != nil {
		b.logger.Warn("ignoring command", "shade", name, "payload", string(msg.Payload()), "error", err)
		return
	}

	b.enqueue(command{name: name, position: position})
}

// Wait blocks until every queued command has been applied.
func (b *Bridge) Wait() {
	b.inflight.Wait()
}

func (b *Bridge) enqueue(cmd command) {
	b.qmu.Lock()
	defer b.qmu.Unlock()
	b.inflight.Add(1)
	b.queue = append(b.queue, cmd)
	if !b.draining {
		b.draining = true
		go b.drain()
	}
}

func (b *Bridge) drain() {
	for {
		b.qmu.Lock()
		if len(b.queue) == 0 {
			b.draining = false
			b.qmu.Unlock()
			return
		}
		cmd := b.queue[0]
		b.queue = b.queue[1:]
		b.qmu.Unlock()

		if err := b.Apply(cmd.name, cmd.position); err != nil {
			b.logger.Warn("command failed", "shade", cmd.name, "position", cmd.position, "error", err)
		}
		b.inflight.Done()
	}
}

// Apply moves a shade and publishes its new cached state. The state is
// published even when the move was dropped, as the cache is updated
// regardless.
func (b *Bridge) Apply(name string, position float64) error {
	unit, ok := b.shades[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownShade, name)
	}

	b.mu.Lock()
	moveErr := unit.SetPosition(position)
	b.mu.Unlock()

	if errors.Is(moveErr, shade.ErrInvalidPosition) {
		return moveErr
	}
	b.logger.Info("shade moved", "shade", name, "position", position, "error", moveErr)

	if err := b.PublishState(name); err != nil {
		return errors.Join(moveErr, err)
	}
	return moveErr
}

// PublishState publishes the retained position and state of a shade.
func (b *Bridge) PublishState(name string) error {
	unit, ok := b.shades[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownShade, name)
	}

	state := StateOpen
	if unit.IsClosed() {
		state = StateClosed
	}
	position := strconv.FormatFloat(unit.Position(), 'f', -1, 64)

	if err := b.publish(b.PositionTopic(name), position); err != nil {
		return err
	}
	return b.publish(b.StateTopic(name), state)
}

// SessionStateChanged publishes availability. It has the signature of
// session.StateHandler.
func (b *Bridge) SessionStateChanged(_, new connection.State) {
	if err := b.PublishStatus(new == connection.StateConnected); err != nil {
		b.logger.Warn("publish status failed", "error", err)
	}
}

// PublishStatus publishes the retained availability.
func (b *Bridge) PublishStatus(online bool) error {
	status := StatusOffline
	if online {
		status = StatusOnline
	}
	return b.publish(b.StatusTopic(), status)
}

func (b *Bridge) publish(topic, payload string) error {
	if err := b.wait(b.client.Publish(topic, b.cfg.QoS, true, payload)); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func (b *Bridge) wait(token mqtt.Token) error {
	if !token.WaitTimeout(b.cfg.Timeout) {
		return ErrTimeout
	}
	return token.Error()
}

func (b *Bridge) shadeFromTopic(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, b.cfg.TopicPrefix+"/")
	if !ok {
		return "", false
	}
	name, ok := strings.CutSuffix(rest, "/set")
	if !ok || name == "" || strings.Contains(name, "/") {
		return "", false
	}
	_, known := b.shades[name]
	return name, known
}

// ParsePayload converts a command payload to a target position.
func ParsePayload(payload string) (float64, error) {
	p := strings.TrimSpace(payload)
	switch strings.ToUpper(p) {
	case PayloadOpen:
		return shade.Open, nil
	case PayloadClose:
		return shade.Closed, nil
	}

	position, err := strconv.ParseFloat(p, 64)
	if err != nil || math.IsNaN(position) || position < shade.Closed || position > shade.Open {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPayload, payload)
	}
	return position, nil
}
