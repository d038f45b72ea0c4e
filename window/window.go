// SPDX-License-Identifier: EPL-2.0

package window

import (
	"math"
	"strings"
	"sync"
)

// DefaultBeta is the shape parameter used by the Kaiser, Cauchy, Poisson,
// Gaussian and Tukey windows when none is given.
const DefaultBeta = 2.5

// DefaultShape is the window used for grain ramps.
const DefaultShape = "HANNING"

// Func fills w with a window of len(w) points. Shapes that rise and fall
// symmetrically should peak in the middle of w.
type Func func(w []float64, beta float64)

// Registry maps upper-cased window names to their generators.
type Registry struct {
	shapes map[string]Func

	mtx *sync.Mutex
}

// NewRegistry returns a registry holding every built-in shape.
func NewRegistry() *Registry {
	r := &Registry{
		shapes: make(map[string]Func),
		mtx:    &sync.Mutex{},
	}

	for name, f := range builtin {
		r.shapes[name] = f
	}

	return r
}

// Register adds or replaces a shape. Names are case-insensitive.
func (r *Registry) Register(name string, f Func) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.shapes[strings.ToUpper(name)] = f
}

// Get looks a shape up by name.
func (r *Registry) Get(name string) (Func, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	f, ok := r.shapes[strings.ToUpper(name)]
	return f, ok
}

// Names lists the registered shapes.
func (r *Registry) Names() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	names := make([]string, 0, len(r.shapes))
	for name := range r.shapes {
		names = append(names, name)
	}

	return names
}

// Make builds a window of size points. Unknown names produce a linear
// rise and fall (the trapezoid) and report false; they never fail.
func (r *Registry) Make(name string, size int, beta float64) ([]float64, bool) {
	w := make([]float64, size)
	ok := r.Fill(name, w, beta)

	return w, ok
}

// Fill writes the named window into w.
func (r *Registry) Fill(name string, w []float64, beta float64) bool {
	f, ok := r.Get(name)
	if !ok {
		f = trapezoid
	}

	if len(w) > 0 {
		f(w, beta)
	}

	return ok
}

var defaultRegistry = NewRegistry()

// Register adds a shape to the package registry.
func Register(name string, f Func) {
	defaultRegistry.Register(name, f)
}

// Known reports whether name is a registered shape.
func Known(name string) bool {
	_, ok := defaultRegistry.Get(name)
	return ok
}

// MakeWindow builds a window from the package registry.
func MakeWindow(name string, size int, beta float64) ([]float64, bool) {
	return defaultRegistry.Make(name, size, beta)
}

var builtin = map[string]Func{
	"TRAPEZOID":   trapezoid,
	"RECTANGULAR": rectangular,
	"HANN":        hann,
	"HANNING":     hann,
	"WELCH":       welch,
	"PARZEN":      parzen,
	"BARTLETT":    bartlett,
	"HAMMING":     hamming,
	"BLACKMAN2":   blackman2,
	"BLACKMAN3":   blackman3,
	"BLACKMAN4":   blackman4,
	"EXPONENTIAL": exponential,
	"KAISER":      kaiser,
	"CAUCHY":      cauchy,
	"POISSON":     poisson,
	"RIEMANN":     riemann,
	"GAUSSIAN":    gaussian,
	"TUKEY":       tukey,
}

// mirror computes point i for i in [0, size/2] and writes it to both
// halves. The middle point always wins so even-sized windows reach their
// peak at index size/2-1.
func mirror(w []float64, f func(i, mid int) float64) {
	size := len(w)
	mid := size / 2

	for i := 0; i <= mid && i < size; i++ {
		v := f(i, mid)
		w[i] = v
		w[size-1-i] = v
	}
}

func trapezoid(w []float64, _ float64) {
	half := len(w) / 2
	if half < 2 {
		for i := range w {
			w[i] = float64(i % 2)
		}
		return
	}

	inc := 1 / float64(half-1)
	for i := range half {
		w[i] = float64(i) * inc
		w[half+i] = 1 - float64(i)*inc
	}

	if len(w)%2 == 1 {
		w[len(w)-1] = 0
	}
}

func rectangular(w []float64, _ float64) {
	for i := range w {
		w[i] = 1
	}
}

func cosineSum(w []float64, coeffs ...float64) {
	freq := 2 * math.Pi / float64(len(w))

	mirror(w, func(i, _ int) float64 {
		a := freq * float64(i)
		v, sign := 0.0, 1.0
		for k, c := range coeffs {
			v += sign * c * math.Cos(float64(k)*a)
			sign = -sign
		}
		return v
	})
}

func hann(w []float64, _ float64) { cosineSum(w, 0.5, 0.5) }

func hamming(w []float64, _ float64) { cosineSum(w, 0.54, 0.46) }

func blackman2(w []float64, _ float64) { cosineSum(w, 0.42323, 0.49755, 0.07922) }

func blackman3(w []float64, _ float64) { cosineSum(w, 0.35875, 0.48829, 0.14128, 0.01168) }

func blackman4(w []float64, _ float64) {
	cosineSum(w, 0.287333, 0.44716, 0.20844, 0.05190, 0.005149)
}

func welch(w []float64, _ float64) {
	midp1 := float64((len(w) + 1) / 2)

	mirror(w, func(i, mid int) float64 {
		x := float64(i-mid) / midp1
		return 1 - x*x
	})
}

func parzen(w []float64, _ float64) {
	midp1 := float64((len(w) + 1) / 2)

	mirror(w, func(i, mid int) float64 {
		return 1 - math.Abs(float64(i-mid)/midp1)
	})
}

func bartlett(w []float64, _ float64) {
	mirror(w, func(i, mid int) float64 {
		if mid == 0 {
			return 1
		}
		return float64(i) / float64(mid)
	})
}

// distance runs from 1 at the window edge to 0 at its centre.
func distance(i, mid int) float64 {
	if mid == 0 {
		return 0
	}
	return 1 - float64(i)/float64(mid)
}

func exponential(w []float64, _ float64) {
	mid := len(w) / 2
	expn := math.Ln2 / float64(mid+1)

	mirror(w, func(i, _ int) float64 {
		return math.Exp(expn*float64(i)) - 1
	})
}

func kaiser(w []float64, beta float64) {
	i0beta := besselI0(beta)

	mirror(w, func(i, mid int) float64 {
		a := distance(i, mid)
		return besselI0(beta*math.Sqrt(1-a*a)) / i0beta
	})
}

func cauchy(w []float64, beta float64) {
	mirror(w, func(i, mid int) float64 {
		a := beta * distance(i, mid)
		return 1 / (1 + a*a)
	})
}

func poisson(w []float64, beta float64) {
	mirror(w, func(i, mid int) float64 {
		return math.Exp(-beta * distance(i, mid))
	})
}

func gaussian(w []float64, beta float64) {
	mirror(w, func(i, mid int) float64 {
		a := beta * distance(i, mid)
		return math.Exp(-0.5 * a * a)
	})
}

func riemann(w []float64, _ float64) {
	sr := 2 * math.Pi / float64(len(w))

	mirror(w, func(i, mid int) float64 {
		if i == mid {
			return 1
		}
		x := sr * float64(mid-i)
		return math.Sin(x) / x
	})
}

// tukey tapers the first beta of each half with a cosine and holds 1 in
// between. Beta is clamped to [0, 1], so the default of 2.5 gives a Hann
// shape and 0 a rectangle.
func tukey(w []float64, beta float64) {
	beta = min(max(beta, 0), 1)

	mirror(w, func(i, mid int) float64 {
		taper := float64(mid) * beta
		if float64(i) >= taper {
			return 1
		}
		return 0.5 * (1 - math.Cos(math.Pi*float64(i)/taper))
	})
}

// besselI0 is the modified Bessel function of the first kind, order zero.
func besselI0(x float64) float64 {
	sum, term := 1.0, 1.0
	q := x * x / 4

	for k := 1; k < 64; k++ {
		term *= q / float64(k*k)
		sum += term
		if term < sum*1e-16 {
			break
		}
	}

	return sum
}
