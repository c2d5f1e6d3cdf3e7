package app

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/Agrid-Dev/roomgym/internal/ambient"
	"github.com/Agrid-Dev/roomgym/internal/harness"
	"github.com/Agrid-Dev/roomgym/internal/radiator"
	"github.com/Agrid-Dev/roomgym/internal/room"
	"github.com/Agrid-Dev/roomgym/internal/thermal"
)

// NewLogger builds the process logger from the log section.
func NewLogger(w io.Writer, c LogConfig) (*slog.Logger, error) {
	var level slog.Level
	if c.Level != "" {
		if err := level.UnmarshalText([]byte(c.Level)); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(c.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unsupported log format %q", c.Format)
	}
}

// RoomConfig converts the file sections into the environment configuration.
// start is the simulated epoch at reset.
func (c Config) RoomConfig(start int64) room.Config {
	return room.Config{
		Comfort: r1.Interval{Min: c.Room.ComfortLow, Max: c.Room.ComfortHigh},
		Geometry: room.Geometry{
			Length: c.Room.Length,
			Width:  c.Room.Width,
			Height: c.Room.Height,
		},
		Thermal: thermal.Params{
			TransferCoefficient: c.Thermal.TransferCoefficient,
			AirDensity:          c.Thermal.AirDensity,
			SpecificHeat:        c.Thermal.SpecificHeat,
		},
		Radiator: radiator.Params{
			Length:         c.Radiator.Length,
			Height:         c.Radiator.Height,
			RampTime:       c.Radiator.RampTime,
			CooldownFactor: c.Radiator.CooldownFactor,
		},
		AmbientTemperature: c.Ambient.Temperature,
		Step:               c.Episode.Step,
		RewardInterval:     c.Episode.RewardInterval,
		Horizon:            c.Episode.Horizon,
		Start:              start,
		ResetSpread:        c.Episode.ResetSpread,
	}
}

// AmbientSource returns the outdoor temperature source and the episode start
// timestamp it implies.
func (c Config) AmbientSource(log *slog.Logger) (ambient.Source, int64, error) {
	if c.Ambient.File == "" {
		return ambient.Constant(c.Ambient.Temperature), c.Episode.Start, nil
	}

	series, err := ambient.Load(c.Ambient.File)
	if err != nil {
		return nil, 0, fmt.Errorf("ambient: %w", err)
	}
	if n := series.Skipped(); n > 0 {
		log.Warn("skipped malformed weather samples", "file", c.Ambient.File, "count", n)
	}
	if c.Ambient.Date != "" {
		series, err = series.Day(c.Ambient.Date)
		if err != nil {
			return nil, 0, fmt.Errorf("ambient: %w", err)
		}
	}
	log.Info("weather loaded", "file", c.Ambient.File, "samples", series.Len(), "start", series.Start())
	return series, series.Start(), nil
}

// NewEnvironment wires a room environment from the config.
func (c Config) NewEnvironment(log *slog.Logger) (*room.Environment, error) {
	src, start, err := c.AmbientSource(log)
	if err != nil {
		return nil, err
	}
	seed := c.Episode.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return room.New(c.RoomConfig(start),
		room.WithAmbient(src),
		room.WithRand(rand.New(rand.NewSource(seed))),
		room.WithLogger(log),
	)
}

// Policy builds the harness baseline policy.
func (c Config) Policy() (harness.Policy, error) {
	action := radiator.Action(c.Harness.Action)
	switch strings.ToLower(c.Harness.Policy) {
	case "constant":
		if !action.Valid() {
			return nil, fmt.Errorf("harness action: %w", radiator.ErrInvalidAction)
		}
		return harness.Constant(action), nil
	case "random":
		seed := c.Harness.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		return harness.NewRandom(seed), nil
	case "hysteresis", "":
		h, err := harness.NewHysteresis(harness.HysteresisParams{
			TriggerHysteresis: c.Harness.TriggerHysteresis,
			TargetHysteresis:  c.Harness.TargetHysteresis,
			Action:            action,
		})
		if err != nil {
			return nil, fmt.Errorf("harness: %w", err)
		}
		return h, nil
	default:
		return nil, fmt.Errorf("unknown policy %q", c.Harness.Policy)
	}
}
