package room

import "errors"

var (
	ErrInvalidGeometry       = errors.New("room dimensions must be strictly positive")
	ErrInvalidComfortBand    = errors.New("comfort low must be strictly below comfort high")
	ErrInvalidTimestep       = errors.New("step duration must be a positive whole number of seconds")
	ErrInvalidRewardInterval = errors.New("reward interval must be a positive multiple of the step duration")
	ErrInvalidHorizon        = errors.New("episode horizon must be at least one step")
	ErrInvalidResetSpread    = errors.New("reset spread must be greater or equal to zero")
	ErrEpisodeDone           = errors.New("episode is done, reset required")
)
