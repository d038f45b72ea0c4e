// SPDX-License-Identifier: EPL-2.0

package window

import "fmt"

// MakeRamps writes a rising ramp into up and its exact time reverse into
// down. The ramp is the first half of a window of 2*len(up) points, so it
// starts at (or near) 0 and ends at the window's peak.
//
// The returned bool is false when name is unknown and the linear ramp was
// used instead.
func MakeRamps(name string, up, down []float32, beta float64) (bool, error) {
	if len(up) != len(down) {
		return false, fmt.Errorf("up %d, down %d: %w", len(up), len(down), ErrRampSize)
	}

	n := len(up)
	w, ok := MakeWindow(name, 2*n, beta)

	for i := range n {
		up[i] = float32(w[i])
	}
	for i := range n {
		down[i] = up[n-1-i]
	}

	return ok, nil
}

// Ramps is an immutable pair of ramp tables. Build a new one instead of
// editing Up or Down; readers may hold a reference while it is replaced.
type Ramps struct {
	Shape string
	Beta  float64
	Up    []float32
	Down  []float32
}

// NewRamps builds tables of length samples for the named shape. The Shape
// field keeps the requested name even when the linear fallback was used;
// Known reports that case.
func NewRamps(name string, length int, beta float64) (*Ramps, bool) {
	if length < 0 {
		length = 0
	}

	r := &Ramps{
		Shape: name,
		Beta:  beta,
		Up:    make([]float32, length),
		Down:  make([]float32, length),
	}

	// lengths always match here
	ok, _ := MakeRamps(name, r.Up, r.Down, beta)

	return r, ok
}

// Len is the ramp length in samples.
func (r *Ramps) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Up)
}
