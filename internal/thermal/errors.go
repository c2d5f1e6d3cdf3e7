package thermal

import "errors"

var (
	ErrNonPositiveVolume           = errors.New("room volume must be strictly positive")
	ErrNegativeTransferCoefficient = errors.New("heat transfer coefficient must be greater or equal to zero")
	ErrInvalidAirProperties        = errors.New("air density and specific heat must be strictly positive")
)
