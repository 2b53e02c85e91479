package daemon

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/saaga0h/solartone/pkg/mqtt"
)

// StateMessage is the retained MQTT payload published on every applied
// temperature change.
type StateMessage struct {
	Temperature int       `json:"temperature"`
	Phase       string    `json:"phase"`
	Timestamp   time.Time `json:"timestamp"`
}

// OverrideRequest pins the color temperature for a bounded time.
// An empty MQTT payload clears the active override.
type OverrideRequest struct {
	Temperature int  `json:"temperature"`
	Minutes     int  `json:"minutes"`
	Clear       bool `json:"-"`
}

// Announcer bridges the daemon to MQTT: it publishes state changes and
// feeds override requests into the reactor loop. Paho delivers messages
// on its own goroutine, so requests cross into the reactor through a
// channel; the handler itself mutates nothing.
type Announcer struct {
	client mqtt.Client
	prefix string
	logger *slog.Logger
}

// NewAnnouncer creates an announcer over a connected MQTT client
func NewAnnouncer(client mqtt.Client, prefix string, logger *slog.Logger) *Announcer {
	return &Announcer{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

// PublishState publishes the applied temperature, retained so late
// subscribers see the current state.
func (a *Announcer) PublishState(temperature int, phase string, now time.Time) {
	payload, err := json.Marshal(StateMessage{
		Temperature: temperature,
		Phase:       phase,
		Timestamp:   now,
	})
	if err != nil {
		a.logger.Error("Failed to encode state message", "error", err)
		return
	}
	topic := mqtt.StateTopic(a.prefix)
	if err := a.client.Publish(topic, 0, true, payload); err != nil {
		a.logger.Warn("Failed to publish state", "topic", topic, "error", err)
	}
}

// SubscribeOverrides routes override messages into the given channel.
// A full channel drops the request rather than blocking the MQTT
// delivery goroutine.
func (a *Announcer) SubscribeOverrides(ch chan<- OverrideRequest) error {
	topic := mqtt.OverrideTopic(a.prefix)
	handler := func(msg mqtt.Message) {
		req, err := parseOverride(msg.Payload())
		if err != nil {
			a.logger.Warn("Ignoring malformed override", "error", err)
			return
		}
		select {
		case ch <- req:
		default:
			a.logger.Warn("Override queue full, dropping request")
		}
	}
	if err := a.client.Subscribe(topic, 0, handler); err != nil {
		return fmt.Errorf("failed to subscribe to overrides: %w", err)
	}
	return nil
}

func parseOverride(payload []byte) (OverrideRequest, error) {
	if len(payload) == 0 {
		return OverrideRequest{Clear: true}, nil
	}
	var req OverrideRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return OverrideRequest{}, err
	}
	if req.Temperature < 1000 || req.Temperature > 10000 {
		return OverrideRequest{}, fmt.Errorf("temperature %d out of range", req.Temperature)
	}
	if req.Minutes <= 0 {
		return OverrideRequest{}, fmt.Errorf("minutes must be positive")
	}
	return req, nil
}
