// SPDX-License-Identifier: EPL-2.0

package granular

import "github.com/sirupsen/logrus"

// Fields returns a snapshot of the engine's parameters, ready to be logged.
func (g *Granulator) Fields() logrus.Fields {
	mode := "static"
	if g.src.live {
		mode = "live"
	}

	f := logrus.Fields{
		"status":           g.Status().String(),
		"sampling_rate":    g.rate,
		"tick_size":        g.tickSize,
		"channels":         g.numChannels,
		"active_channels":  g.activeChannels,
		"max_voices":       g.maxVoices,
		"active_voices":    g.activeVoices,
		"source":           mode,
		"buffer_ms":        g.src.ms,
		"buffer_samples":   g.src.n(),
		"region_start_ms":  g.startMS,
		"region_end_ms":    g.endMS,
		"grain_ms":         g.grainLenMS,
		"grain_samples":    g.grainLen,
		"deviation":        g.deviation,
		"density":          g.density,
		"direction":        g.direction.String(),
		"ramp_ms":          g.rampLenMS,
		"ramp_samples":     g.rampLen,
		"ramp_type":        g.rampType,
		"grain_amp":        g.targetGrainAmp,
		"transpositions":   g.Transpositions(),
		"offset_st":        g.offsetST,
		"octave_size":      g.octaveSize,
		"octave_divisions": g.octaveDivisions,
		"warnings":         g.warnings.Load(),
	}

	if g.src.ring != nil {
		f["live_buffer_ms"] = g.src.ringMS
		f["live_index"] = g.src.liveIndex
		f["live_recording"] = g.src.recording
	}

	return f
}
