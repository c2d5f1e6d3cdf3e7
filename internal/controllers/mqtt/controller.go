package mqttctrl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Agrid-Dev/roomgym/internal/ports"
	"github.com/Agrid-Dev/roomgym/internal/radiator"
	"github.com/Agrid-Dev/roomgym/internal/room"
)

type Config struct {
	// Identity
	DeviceID string

	// MQTT connection
	BrokerURL string
	ClientID  string

	// Topics
	BaseTopic string

	// Behavior
	QoS             byte
	RetainSnapshot  bool
	PublishInterval time.Duration

	Username string
	Password string

	Logger *slog.Logger
}

type Controller struct {
	svc ports.RoomService
	cfg Config
	log *slog.Logger

	client mqtt.Client
}

func New(svc ports.RoomService, cfg Config) (*Controller, error) {
	// ---- defaults ----

	if cfg.BrokerURL == "" {
		cfg.BrokerURL = "tcp://localhost:1883"
	}

	if cfg.DeviceID == "" {
		return nil, errors.New("mqtt: DeviceID is required")
	}
	if cfg.BaseTopic == "" {
		cfg.BaseTopic = "roomgym/" + cfg.DeviceID
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "roomgym-" + cfg.DeviceID
	}
	if cfg.PublishInterval <= 0 {
		cfg.PublishInterval = 1 * time.Second
	}
	if cfg.QoS > 1 {
		return nil, errors.New("mqtt: QoS must be 0 or 1")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		svc: svc,
		cfg: cfg,
		log: log.With("controller", "mqtt"),
	}, nil
}

func (c *Controller) Run(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(c.cfg.BrokerURL).
		SetClientID(c.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(2 * time.Second)

	if c.cfg.Username != "" {
		opts.SetUsername(c.cfg.Username)
		opts.SetPassword(c.cfg.Password)
	}

	// Subscribe when connected/reconnected.
	opts.OnConnect = func(cl mqtt.Client) {
		topic := c.topic("set/+")
		token := cl.Subscribe(topic, c.cfg.QoS, c.onMessage)
		token.Wait()
		if err := token.Error(); err != nil {
			c.log.Error("subscribe failed", "topic", topic, "err", err)
		}
	}

	c.client = mqtt.NewClient(opts)
	tok := c.client.Connect()
	tok.Wait()
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}

	// Publish loop: publish snapshot on interval, and only when changed.
	ticker := time.NewTicker(c.cfg.PublishInterval)
	defer ticker.Stop()

	last := c.svc.Get()
	c.publishSnapshot(last)

	for {
		select {
		case <-ctx.Done():
			c.client.Disconnect(250)
			return ctx.Err()

		case <-ticker.C:
			cur := c.svc.Get()
			if !reflect.DeepEqual(cur, last) {
				c.publishSnapshot(cur)
				last = cur
			}
		}
	}
}

func (c *Controller) publishSnapshot(s room.Snapshot) {
	dto := snapshotDTO{
		DeviceID:           c.cfg.DeviceID,
		Temperature:        s.Temperature,
		AmbientTemperature: s.AmbientTemperature,
		RadiatorPower:      s.RadiatorPower,
		LastAction:         s.LastAction.String(),
		ComfortLow:         s.Comfort.Min,
		ComfortHigh:        s.Comfort.Max,
		Clock:              s.Clock,
		Steps:              s.Steps,
		Done:               s.Done,
		EpisodeReward:      s.EpisodeReward,
	}
	b, _ := json.Marshal(dto)
	c.client.Publish(c.topic("snapshot"), c.cfg.QoS, c.cfg.RetainSnapshot, b)
}

func (c *Controller) publishResult(r room.StepResult) {
	info := r.Info
	if info == nil {
		info = map[string]any{}
	}
	b, _ := json.Marshal(resultDTO{
		Temperature: r.Temperature,
		Reward:      r.Reward,
		Done:        r.Done,
		Info:        info,
	})
	c.client.Publish(c.topic("result"), c.cfg.QoS, false, b)
}

type snapshotDTO struct {
	DeviceID           string  `json:"device_id"`
	Temperature        float64 `json:"temperature"`
	AmbientTemperature float64 `json:"ambient_temperature"`
	RadiatorPower      float64 `json:"radiator_power"`
	LastAction         string  `json:"last_action"`
	ComfortLow         float64 `json:"comfort_low"`
	ComfortHigh        float64 `json:"comfort_high"`
	Clock              int64   `json:"clock"`
	Steps              int     `json:"steps"`
	Done               bool    `json:"done"`
	EpisodeReward      float64 `json:"episode_reward"`
}

type resultDTO struct {
	Temperature float64        `json:"temperature"`
	Reward      float64        `json:"reward"`
	Done        bool           `json:"done"`
	Info        map[string]any `json:"info"`
}

// Command payload format: {"value": ...}
type valueReq[T any] struct {
	Value *T `json:"value"`
}

func (c *Controller) onMessage(_ mqtt.Client, msg mqtt.Message) {
	// topic format: <base>/set/<command>
	t := msg.Topic()
	prefix := c.topic("set/")
	if !strings.HasPrefix(t, prefix) {
		return
	}
	field := strings.TrimPrefix(t, prefix)

	payload := msg.Payload()

	switch field {
	case "step":
		v, err := decodeValueStrict[int](payload)
		if err != nil {
			c.log.Warn("dropping step command", "err", err)
			return
		}
		res, err := c.svc.Step(radiator.Action(v))
		if err != nil {
			c.log.Warn("step rejected", "action", v, "err", err)
			return
		}
		c.publishResult(res)
		c.publishSnapshot(c.svc.Get())

	case "reset":
		// {"value": true}; false is a no-op.
		v, err := decodeValueStrict[bool](payload)
		if err != nil {
			c.log.Warn("dropping reset command", "err", err)
			return
		}
		if !v {
			return
		}
		c.svc.Reset()
		c.publishSnapshot(c.svc.Get())
	}
}

func (c *Controller) topic(suffix string) string {
	return strings.TrimRight(c.cfg.BaseTopic, "/") + "/" + suffix
}

func decodeValueStrict[T any](b []byte) (T, error) {
	var zero T
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	var req valueReq[T]
	if err := dec.Decode(&req); err != nil {
		return zero, err
	}
	if req.Value == nil {
		return zero, errors.New("missing field 'value'")
	}
	return *req.Value, nil
}
