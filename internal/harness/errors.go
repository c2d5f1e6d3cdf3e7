package harness

import "errors"

var (
	ErrInvalidHysteresis = errors.New("trigger hysteresis must be greater or equal to target hysteresis")
	ErrNoEpisodes        = errors.New("episode count must be at least one")
)
