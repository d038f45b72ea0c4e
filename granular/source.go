// SPDX-License-Identifier: EPL-2.0

package granular

// source is what grains read from: either a host-owned static buffer or the
// engine's own live ring buffer. samples always points at the active one and
// its length is the logical buffer size.
type source struct {
	samples []float32
	ms      float64
	live    bool

	// live ring buffer, owned by the engine
	ring      []float32
	ringMS    float64
	liveIndex int
	recording bool
}

func (s *source) n() int { return len(s.samples) }

// copyIn writes in at the live write index, wrapping at the logical size.
// liveIndex is left on the next slot to write.
func (s *source) copyIn(in []float32) {
	n := len(s.samples)
	if !s.live || n == 0 {
		return
	}

	li := s.liveIndex
	if li >= n {
		li = 0
	}
	for len(in) > 0 {
		c := copy(s.samples[li:], in)
		in = in[c:]
		li += c
		if li >= n {
			li = 0
		}
	}
	s.liveIndex = li
}

func (s *source) clearRing() {
	clear(s.ring)
	s.liveIndex = 0
}
