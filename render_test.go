// SPDX-License-Identifier: EPL-2.0

package audgrain

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/ik5/audgrain/audio"
	"github.com/ik5/audgrain/granular"
	"github.com/ik5/audgrain/internal/audiotest"
)

func testConfig() granular.Config {
	logger, _ := test.NewNullLogger()
	return granular.Config{
		SamplingRate: 8000,
		MaxVoices:    4,
		Channels:     2,
		TickSize:     64,
		RampLenMS:    5,
		GrainLenMS:   40,
		Seed:         7,
		Logger:       logger,
	}
}

func TestGranulate(t *testing.T) {
	t.Parallel()

	src := audiotest.Sine(16000, 2, 16000, 440)

	var saw bool
	out, err := Granulate(src, testConfig(), 500, func(g *granular.Granulator) {
		saw = g.BufferMS() > 990 && g.BufferMS() < 1010
		g.SetTranspositions([]float64{0, 12})
	})
	if err != nil {
		t.Fatalf("Granulate() error = %v", err)
	}
	if !saw {
		t.Error("setup did not see the resampled one second buffer")
	}

	if len(out) != 2 {
		t.Fatalf("got %d channels, want 2", len(out))
	}
	for c := range out {
		if len(out[c]) != 4000 {
			t.Errorf("channel %d has %d frames, want 4000", c, len(out[c]))
		}
	}

	var energy float64
	for _, ch := range out {
		for _, v := range ch {
			energy += float64(v * v)
		}
	}
	if energy == 0 {
		t.Error("output is silent")
	}
}

func TestGranulateErrors(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	if _, err := Granulate(audiotest.Silent(8000, 1, 0), cfg, 100, nil); !errors.Is(err, granular.ErrNoSamples) {
		t.Errorf("empty source: error = %v, want %v", err, granular.ErrNoSamples)
	}

	broken := audiotest.Constant(8000, 1, 1000, 0.5).FailAfter(100)
	if _, err := Granulate(broken, cfg, 100, nil); !errors.Is(err, audiotest.ErrBroken) {
		t.Errorf("broken source: error = %v, want %v", err, audiotest.ErrBroken)
	}

	cfg.Channels = 0
	if _, err := Granulate(audiotest.Silent(8000, 1, 100), cfg, 100, nil); !errors.Is(err, granular.ErrInvalidChannels) {
		t.Errorf("bad config: error = %v, want %v", err, granular.ErrInvalidChannels)
	}
}

func TestRenderOffIsSilent(t *testing.T) {
	t.Parallel()

	g, err := granular.New(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	samples, err := audio.ToMono(audiotest.Constant(8000, 1, 800, 1), 8000, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.UseStaticBuffer(samples); err != nil {
		t.Fatal(err)
	}

	for c, ch := range Render(g, 300) {
		for i, v := range ch {
			if v != 0 {
				t.Fatalf("channel %d sample %d = %v while off", c, i, v)
			}
		}
	}
}

func TestInterleave(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		planar [][]float32
		want   []float32
		want16 []int16
	}{
		{name: "empty", planar: nil, want: nil, want16: nil},
		{
			name:   "mono",
			planar: [][]float32{{0.5, -0.5}},
			want:   []float32{0.5, -0.5},
			want16: []int16{16383, -16383},
		},
		{
			name:   "stereo",
			planar: [][]float32{{1, 0}, {0, -1}},
			want:   []float32{1, 0, 0, -1},
			want16: []int16{32767, 0, 0, -32767},
		},
		{
			name:   "short channel",
			planar: [][]float32{{0.25, 0.25}, {0.5}},
			want:   []float32{0.25, 0.5, 0.25, 0},
			want16: []int16{8191, 16383, 8191, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Interleave(tt.planar)
			if len(got) != len(tt.want) {
				t.Fatalf("Interleave() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Interleave()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}

			got16 := Interleave16(tt.planar)
			if len(got16) != len(tt.want16) {
				t.Fatalf("Interleave16() = %v, want %v", got16, tt.want16)
			}
			for i := range got16 {
				if got16[i] != tt.want16[i] {
					t.Errorf("Interleave16()[%d] = %v, want %v", i, got16[i], tt.want16[i])
				}
			}
		})
	}
}
