// Package telemetry publishes simulation traces to Kafka.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Agrid-Dev/roomgym/internal/harness"
)

// MessageWriter is the part of *kafka.Writer the recorder needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter returns an asynchronous writer: a synchronous one would hold
// every simulated step for a full batch round-trip.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
	}
}

type stepEvent struct {
	Type               string    `json:"type"`
	DeviceID           string    `json:"deviceId"`
	EpisodeID          string    `json:"episodeId"`
	Step               int       `json:"step"`
	SimTime            time.Time `json:"simTime"`
	Action             int       `json:"action"`
	Temperature        float64   `json:"temperature"`
	AmbientTemperature float64   `json:"ambientTemperature"`
	RadiatorPower      float64   `json:"radiatorPower"`
	Reward             float64   `json:"reward"`
	Scored             bool      `json:"scored"`
	Done               bool      `json:"done"`
}

type episodeEvent struct {
	Type            string  `json:"type"`
	DeviceID        string  `json:"deviceId"`
	EpisodeID       string  `json:"episodeId"`
	Steps           int     `json:"steps"`
	TotalReward     float64 `json:"totalReward"`
	ScoredIntervals int     `json:"scoredIntervals"`
	MeanTemperature float64 `json:"meanTemperature"`
	StdTemperature  float64 `json:"stdTemperature"`
	MinTemperature  float64 `json:"minTemperature"`
	MaxTemperature  float64 `json:"maxTemperature"`
	ComfortRatio    float64 `json:"comfortRatio"`
}

// KafkaRecorder implements harness.Recorder. Messages are keyed by device ID
// so one device's trace stays ordered within a partition.
type KafkaRecorder struct {
	w        MessageWriter
	deviceID string
	log      *slog.Logger
}

var _ harness.Recorder = (*KafkaRecorder)(nil)

func NewKafkaRecorder(w MessageWriter, deviceID string, log *slog.Logger) *KafkaRecorder {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &KafkaRecorder{w: w, deviceID: deviceID, log: log}
}

func (k *KafkaRecorder) Record(ctx context.Context, step harness.Step) error {
	s := step.State
	ts := time.Unix(s.Clock, 0).UTC()
	return k.publish(ctx, ts, stepEvent{
		Type:               "step",
		DeviceID:           k.deviceID,
		EpisodeID:          step.EpisodeID,
		Step:               s.Steps,
		SimTime:            ts,
		Action:             int(step.Action),
		Temperature:        s.Temperature,
		AmbientTemperature: s.AmbientTemperature,
		RadiatorPower:      s.RadiatorPower,
		Reward:             step.Result.Reward,
		Scored:             step.Result.Scored,
		Done:               step.Result.Done,
	})
}

func (k *KafkaRecorder) EndEpisode(ctx context.Context, sum harness.Summary) error {
	return k.publish(ctx, time.Now().UTC(), episodeEvent{
		Type:            "episode",
		DeviceID:        k.deviceID,
		EpisodeID:       sum.EpisodeID,
		Steps:           sum.Steps,
		TotalReward:     sum.TotalReward,
		ScoredIntervals: sum.ScoredIntervals,
		MeanTemperature: sum.MeanTemperature,
		StdTemperature:  sum.StdTemperature,
		MinTemperature:  sum.MinTemperature,
		MaxTemperature:  sum.MaxTemperature,
		ComfortRatio:    sum.ComfortRatio,
	})
}

func (k *KafkaRecorder) publish(ctx context.Context, ts time.Time, event any) error {
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := k.w.WriteMessages(ctx, kafka.Message{Key: []byte(k.deviceID), Value: b, Time: ts}); err != nil {
		k.log.Error("kafka write failed", "err", err, "deviceId", k.deviceID)
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (k *KafkaRecorder) Close() error {
	return k.w.Close()
}
