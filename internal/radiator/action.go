package radiator

import (
	"fmt"
	"strconv"
)

// MaxAction is the highest setting of a thermostatic valve head.
const MaxAction = 5

// Action is a valve setting: 0 is off, 1..MaxAction heat proportionally.
type Action int

const (
	ActionOff Action = 0
	ActionMax Action = MaxAction
)

// NumActions is the cardinality of the discrete action space.
const NumActions = MaxAction + 1

func (a Action) Valid() bool {
	return a >= ActionOff && a <= ActionMax
}

func (a Action) String() string {
	if !a.Valid() {
		return "invalid"
	}
	if a == ActionOff {
		return "off"
	}
	return strconv.Itoa(int(a))
}

// Fraction is the share of full heating requested by the action.
func (a Action) Fraction() float64 {
	return float64(a) / MaxAction
}

// ParseAction accepts "off" or a setting number.
func ParseAction(s string) (Action, error) {
	if s == "off" {
		return ActionOff, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || !Action(n).Valid() {
		return ActionOff, fmt.Errorf("%w: %q", ErrInvalidAction, s)
	}
	return Action(n), nil
}
