// Package room simulates the air temperature of a single heated room over an
// episode of discrete steps.
package room

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/Agrid-Dev/roomgym/internal/ambient"
	"github.com/Agrid-Dev/roomgym/internal/radiator"
	"github.com/Agrid-Dev/roomgym/internal/thermal"
)

// Rand is the random source used at reset.
type Rand interface {
	Intn(n int) int
}

type Snapshot struct {
	Temperature        float64
	AmbientTemperature float64
	RadiatorPower      float64
	LastAction         radiator.Action

	Comfort  r1.Interval
	Geometry Geometry

	Clock         int64 // simulated epoch seconds
	Steps         int
	Done          bool
	EpisodeReward float64
}

type StepResult struct {
	Temperature float64
	Reward      float64
	// Scored is set on steps that close a reward interval.
	Scored bool
	Done   bool
	Info   map[string]any
}

// Spaces describes what an agent sees and can do.
type Spaces struct {
	Actions     int
	Observation r1.Interval
}

type Environment struct {
	mu sync.RWMutex

	cfg       Config
	rad       *radiator.Radiator
	ambient   ambient.Source
	rng       Rand
	log       *slog.Logger
	scheduler rewardScheduler
	s         Snapshot
}

type Option func(*Environment)

func WithRand(r Rand) Option {
	return func(e *Environment) { e.rng = r }
}

func WithAmbient(src ambient.Source) Option {
	return func(e *Environment) { e.ambient = src }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Environment) { e.log = l }
}

func New(cfg Config, opts ...Option) (*Environment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rad, err := radiator.New(cfg.Radiator)
	if err != nil {
		return nil, err
	}
	e := &Environment{
		cfg:       cfg,
		rad:       rad,
		scheduler: newRewardScheduler(int(cfg.RewardInterval / cfg.Step)),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.ambient == nil {
		e.ambient = ambient.Constant(cfg.AmbientTemperature)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	if e.log == nil {
		e.log = slog.New(slog.DiscardHandler)
	}
	e.reset()
	return e, nil
}

func (e *Environment) Config() Config {
	return e.cfg
}

func (e *Environment) Spaces() Spaces {
	return Spaces{
		Actions:     radiator.NumActions,
		Observation: r1.Interval{Min: 0, Max: 100},
	}
}

func (e *Environment) Get() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.s
}

// Reset starts a new episode and returns the initial zone temperature.
func (e *Environment) Reset() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reset()
}

func (e *Environment) reset() float64 {
	spread := e.cfg.ResetSpread
	offset := e.rng.Intn(2*spread+1) - spread

	e.rad.Reset()
	e.scheduler.reset()
	e.s = Snapshot{
		Temperature:        e.cfg.Midpoint() + float64(offset),
		AmbientTemperature: e.cfg.AmbientTemperature,
		Comfort:            e.cfg.Comfort,
		Geometry:           e.cfg.Geometry,
		Clock:              e.cfg.Start,
	}
	if temp, ok := e.ambient.Temperature(e.s.Clock); ok {
		e.s.AmbientTemperature = temp
	}
	return e.s.Temperature
}

// Step applies one radiator action for one step of simulated time.
func (e *Environment) Step(action radiator.Action) (StepResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.s.Done {
		return StepResult{}, ErrEpisodeDone
	}
	power, err := e.rad.Step(action, e.cfg.Step)
	if err != nil {
		return StepResult{}, err
	}

	if temp, ok := e.ambient.Temperature(e.s.Clock); ok {
		e.s.AmbientTemperature = temp
	} else {
		e.log.Debug("no ambient sample, keeping previous value",
			"clock", e.s.Clock, "ambient", e.s.AmbientTemperature)
	}

	g := e.cfg.Geometry
	wall := thermal.WallHeatFlow(e.cfg.Thermal.TransferCoefficient, g.Length, g.Width, g.Height,
		e.s.AmbientTemperature, e.s.Temperature)
	delta, err := e.cfg.Thermal.Delta(e.cfg.Step, wall, e.rad.HeatFlow(), g.Volume())
	if err != nil {
		return StepResult{}, err
	}

	e.s.Temperature += delta
	e.s.RadiatorPower = power
	e.s.LastAction = action
	e.s.Clock += int64(e.cfg.Step / time.Second)
	e.s.Steps++

	res := StepResult{Temperature: e.s.Temperature, Info: map[string]any{}}
	if e.scheduler.tick() {
		res.Scored = true
		res.Reward = Reward(e.s.Temperature, e.cfg.Comfort)
		e.s.EpisodeReward += res.Reward
	}
	if time.Duration(e.s.Steps)*e.cfg.Step >= e.cfg.Horizon {
		e.s.Done = true
	}
	res.Done = e.s.Done
	return res, nil
}
