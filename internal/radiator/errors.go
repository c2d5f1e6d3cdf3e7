package radiator

import "errors"

var (
	ErrInvalidAction     = errors.New("invalid radiator action")
	ErrInvalidDimensions = errors.New("radiator length and height must be strictly positive")
	ErrInvalidRampTime   = errors.New("radiator ramp time must be strictly positive")
	ErrInvalidCooldown   = errors.New("radiator cooldown factor must be strictly negative")
)
