package harness

import (
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat"

	"github.com/Agrid-Dev/roomgym/internal/room"
)

type Summary struct {
	EpisodeID       string
	Steps           int
	TotalReward     float64
	ScoredIntervals int

	MeanTemperature float64
	StdTemperature  float64
	MinTemperature  float64
	MaxTemperature  float64
	// ComfortRatio is the share of steps that ended inside the comfort band.
	ComfortRatio float64
}

func (s Summary) String() string {
	return fmt.Sprintf("episode %s | steps %d | reward %.1f over %d intervals | temp %.2f±%.2f [%.2f, %.2f] | comfort %.0f%%",
		s.EpisodeID, s.Steps, s.TotalReward, s.ScoredIntervals,
		s.MeanTemperature, s.StdTemperature, s.MinTemperature, s.MaxTemperature, 100*s.ComfortRatio)
}

// tracker accumulates one episode.
type tracker struct {
	id      string
	comfort r1.Interval
	temps   []float64
	reward  float64
	scored  int
	inBand  int
}

func newTracker(comfort r1.Interval) *tracker {
	return &tracker{id: uuid.NewString(), comfort: comfort}
}

func (t *tracker) add(res room.StepResult) {
	t.temps = append(t.temps, res.Temperature)
	if res.Scored {
		t.scored++
		t.reward += res.Reward
	}
	if res.Temperature >= t.comfort.Min && res.Temperature <= t.comfort.Max {
		t.inBand++
	}
}

func (t *tracker) summary() Summary {
	s := Summary{
		EpisodeID:       t.id,
		Steps:           len(t.temps),
		TotalReward:     t.reward,
		ScoredIntervals: t.scored,
	}
	if len(t.temps) == 0 {
		return s
	}
	s.MeanTemperature, s.StdTemperature = stat.MeanStdDev(t.temps, nil)
	s.MinTemperature = floats.Min(t.temps)
	s.MaxTemperature = floats.Max(t.temps)
	s.ComfortRatio = float64(t.inBand) / float64(len(t.temps))
	return s
}
