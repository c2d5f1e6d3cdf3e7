package room

import (
	"math"

	"gonum.org/v1/gonum/spatial/r1"
)

const (
	RewardOutside  = -1.0
	RewardNearMid  = 1.0
	RewardInBand   = 0.5
	midpointMargin = 1.0 // °C
)

// Reward scores a zone temperature against the comfort band.
func Reward(temp float64, comfort r1.Interval) float64 {
	if temp < comfort.Min || temp > comfort.Max {
		return RewardOutside
	}
	mid := (comfort.Min + comfort.Max) / 2
	if math.Abs(temp-mid) <= midpointMargin {
		return RewardNearMid
	}
	return RewardInBand
}

// rewardScheduler counts steps down to the next scoring point. When the
// reward interval does not divide the horizon, the steps after the last full
// interval are never scored.
type rewardScheduler struct {
	every     int
	remaining int
}

func newRewardScheduler(every int) rewardScheduler {
	return rewardScheduler{every: every, remaining: every}
}

// tick consumes one step and reports whether it closes an interval.
func (s *rewardScheduler) tick() bool {
	s.remaining--
	if s.remaining > 0 {
		return false
	}
	s.remaining = s.every
	return true
}

func (s *rewardScheduler) reset() {
	s.remaining = s.every
}
