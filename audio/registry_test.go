// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"
	"slices"
	"testing"

	"github.com/ik5/audgrain/internal/audiotest"
)

type stubDecoder struct{ name string }

func (d *stubDecoder) Decode(io.Reader) (Source, error) {
	return audiotest.Silent(44100, 2, 100), nil
}

func TestRegistryLookup(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	wav := &stubDecoder{name: "wav"}
	reg.Register("wav", wav)
	reg.Register(".OGG", &stubDecoder{name: "ogg"})

	tests := []struct {
		ext  string
		want string
		ok   bool
	}{
		{ext: "wav", want: "wav", ok: true},
		{ext: ".wav", want: "wav", ok: true},
		{ext: "WAV", want: "wav", ok: true},
		{ext: "ogg", want: "ogg", ok: true},
		{ext: "mp3", ok: false},
		{ext: "", ok: false},
	}

	for _, tt := range tests {
		d, ok := reg.Get(tt.ext)
		if ok != tt.ok {
			t.Errorf("Get(%q) ok = %v, want %v", tt.ext, ok, tt.ok)
			continue
		}
		if ok && d.(*stubDecoder).name != tt.want {
			t.Errorf("Get(%q) = %s, want %s", tt.ext, d.(*stubDecoder).name, tt.want)
		}
	}

	if got := reg.Extensions(); !slices.Equal(got, []string{"ogg", "wav"}) {
		t.Errorf("Extensions() = %v, want [ogg wav]", got)
	}
}

func TestRegistryReplace(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register("wav", &stubDecoder{name: "old"})
	reg.Register("wav", &stubDecoder{name: "new"})

	d, _ := reg.Get("wav")
	if d.(*stubDecoder).name != "new" {
		t.Errorf("Get() = %s after replace, want new", d.(*stubDecoder).name)
	}
}

func TestRegistryConcurrent(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	done := make(chan struct{})

	for i := range 8 {
		go func() {
			defer func() { done <- struct{}{} }()
			for range 100 {
				if i%2 == 0 {
					reg.Register("wav", &stubDecoder{})
				} else {
					reg.Get("wav")
					reg.Extensions()
				}
			}
		}()
	}
	for range 8 {
		<-done
	}
}
