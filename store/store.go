// SPDX-License-Identifier: EPL-2.0

package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"

	"github.com/ik5/audgrain/audio"
	"github.com/ik5/audgrain/formats/aiff"
	"github.com/ik5/audgrain/formats/mp3"
	"github.com/ik5/audgrain/formats/vorbis"
	"github.com/ik5/audgrain/formats/wav"
	"github.com/ik5/audgrain/granular"
	"github.com/ik5/audgrain/utils"
)

// livePrefix marks a buffer name that selects live input, as in "ms2000".
const livePrefix = "ms"

// DefaultRegistry knows every format under formats/.
func DefaultRegistry() *audio.Registry {
	reg := audio.NewRegistry()
	reg.Register("wav", wav.Decoder{})
	reg.Register("wave", wav.Decoder{})
	reg.Register("mp3", mp3.Decoder{})
	reg.Register("ogg", vorbis.Decoder{})
	reg.Register("oga", vorbis.Decoder{})
	reg.Register("aif", aiff.Decoder{})
	reg.Register("aiff", aiff.Decoder{})
	return reg
}

// Store maps buffer names to mono samples at one sampling rate. It is safe
// for concurrent use. Samples handed out by Resolve must not be modified.
type Store struct {
	rate    int
	reg     *audio.Registry
	bufSize int
	log     logrus.FieldLogger

	mu      sync.RWMutex
	buffers map[string][]float32
}

type Option func(*Store)

// WithRegistry replaces DefaultRegistry.
func WithRegistry(reg *audio.Registry) Option {
	return func(s *Store) { s.reg = reg }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Store) { s.log = log }
}

// WithBufSize sets the read size used while decoding.
func WithBufSize(n int) Option {
	return func(s *Store) { s.bufSize = n }
}

// New returns an empty Store converting everything to rate Hz.
func New(rate int, opts ...Option) *Store {
	s := &Store{
		rate:    rate,
		bufSize: audio.DefaultBufSize,
		buffers: make(map[string][]float32),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.reg == nil {
		s.reg = DefaultRegistry()
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	s.log = s.log.WithField("component", "store")
	return s
}

// Rate is the sampling rate of every stored buffer.
func (s *Store) Rate() int { return s.rate }

// Load decodes the file at path and stores it as name. The decoder is
// picked by extension. A leading ~ in path is expanded.
func (s *Store) Load(name, path string) error {
	path, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer f.Close()

	if err := s.LoadReader(name, filepath.Ext(path), f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// LoadReader is Load for an already open stream.
func (s *Store) LoadReader(name, ext string, r io.Reader) error {
	if name == "" {
		return ErrEmptyName
	}
	if _, ok := ParseLiveName(name); ok {
		return fmt.Errorf("%q: %w", name, ErrLiveName)
	}

	dec, ok := s.reg.Get(ext)
	if !ok {
		return fmt.Errorf("%q: %w", ext, ErrUnknownFormat)
	}

	src, err := dec.Decode(r)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer src.Close()

	samples, err := audio.ToMono(src, s.rate, s.bufSize)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if len(samples) == 0 {
		return fmt.Errorf("%q: %w", name, granular.ErrNoSamples)
	}

	s.Put(name, samples)
	s.log.WithFields(logrus.Fields{
		"name":    name,
		"samples": len(samples),
		"ms":      utils.SamplesToMs(float64(s.rate), len(samples)),
	}).Info("buffer loaded")
	return nil
}

// Put stores samples as name, replacing any buffer already there. The slice
// is kept, not copied.
func (s *Store) Put(name string, samples []float32) {
	s.mu.Lock()
	s.buffers[name] = samples
	s.mu.Unlock()
}

// Delete forgets name. Granulators already reading it keep their slice.
func (s *Store) Delete(name string) {
	s.mu.Lock()
	delete(s.buffers, name)
	s.mu.Unlock()
}

// Names lists the stored buffers, sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.buffers))
	for name := range s.buffers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Resolve returns the samples stored as name, their count and their length
// in milliseconds.
func (s *Store) Resolve(name string) ([]float32, int, float64, error) {
	if _, ok := ParseLiveName(name); ok {
		return nil, 0, 0, fmt.Errorf("%q: %w", name, ErrLiveName)
	}

	s.mu.RLock()
	samples, ok := s.buffers[name]
	s.mu.RUnlock()

	if !ok {
		return nil, 0, 0, fmt.Errorf("%q: %w", name, ErrUnknownBuffer)
	}
	return samples, len(samples), utils.SamplesToMs(float64(s.rate), len(samples)), nil
}

// ParseLiveName reports whether name selects live input and for how many
// milliseconds: "ms1500" is the last 1.5 seconds of input.
func ParseLiveName(name string) (float64, bool) {
	digits, ok := strings.CutPrefix(name, livePrefix)
	if !ok || digits == "" {
		return 0, false
	}
	ms, err := strconv.ParseFloat(digits, 64)
	if err != nil || ms <= 0 {
		return 0, false
	}
	return ms, true
}

// Source is a resolved buffer name, ready to hand to a Granulator.
type Source struct {
	Name    string
	Samples []float32
	LiveMS  float64
	// Ring is used when the granulator has no live buffer yet.
	Ring granular.LiveRing
}

// Live reports whether the source is the live input.
func (src Source) Live() bool { return src.LiveMS > 0 }

// Lookup resolves name into a Source. Live names need no stored buffer;
// they come with a live buffer at the store's rate so that Apply never
// allocates one.
func (s *Store) Lookup(name string) (Source, error) {
	if ms, ok := ParseLiveName(name); ok {
		return Source{
			Name:   name,
			LiveMS: ms,
			Ring:   granular.NewLiveRing(float64(s.rate), ms),
		}, nil
	}
	samples, _, _, err := s.Resolve(name)
	if err != nil {
		return Source{}, err
	}
	return Source{Name: name, Samples: samples}, nil
}

// Apply points g at src.
func (src Source) Apply(g *granular.Granulator) error {
	if src.Live() {
		return g.UseLiveInputRing(src.Ring, src.LiveMS)
	}
	return g.UseStaticBuffer(src.Samples)
}

// Attach looks name up and points g at it. Call it from the goroutine that
// owns g; with an Engine, Lookup first and Apply inside a Command.
func (s *Store) Attach(g *granular.Granulator, name string) error {
	src, err := s.Lookup(name)
	if err != nil {
		return err
	}
	return src.Apply(g)
}
