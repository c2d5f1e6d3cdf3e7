// Package ambient provides outdoor temperatures to the room simulation,
// either as a constant or from a recorded weather series.
package ambient

// Source answers the outdoor temperature at a simulated epoch timestamp.
// ok is false when the source has nothing usable for ts; callers keep their
// previous value in that case.
type Source interface {
	Temperature(ts int64) (temp float64, ok bool)
}

// Constant is a Source that never changes.
type Constant float64

func (c Constant) Temperature(int64) (float64, bool) {
	return float64(c), true
}
