// SPDX-License-Identifier: EPL-2.0

package control

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ik5/audgrain/granular"
)

const defaultParams = `{
	"grainLengthMs": 80,
	"grainDeviation": 10,
	"density": 100,
	"grainAmp": 0.5,
	"transpositions": [-12, 0, 7, 12],
	"direction": "auto",
	"rampLengthMs": 10,
	"rampType": "HANNING",
	"warnings": true
}
`

// Params is one parameter document. Only the keys present are applied, so a
// file can change a single setting and leave the rest alone.
type Params struct {
	Buffer *string `json:"buffer,omitempty"`
	On     *bool   `json:"on,omitempty"`
	Smooth *bool   `json:"smooth,omitempty"`

	GrainLengthMS  *float64 `json:"grainLengthMs,omitempty"`
	GrainDeviation *float64 `json:"grainDeviation,omitempty"`
	Density        *float64 `json:"density,omitempty"`
	GrainAmp       *float64 `json:"grainAmp,omitempty"`
	Direction      *string  `json:"direction,omitempty"`

	Transpositions      []float64 `json:"transpositions,omitempty"`
	TranspositionOffset *float64  `json:"transpositionOffset,omitempty"`
	OctaveSize          *float64  `json:"octaveSize,omitempty"`
	OctaveDivisions     *float64  `json:"octaveDivisions,omitempty"`

	StartMS         *float64 `json:"startMs,omitempty"`
	EndMS           *float64 `json:"endMs,omitempty"`
	PortionPosition *float64 `json:"portionPosition,omitempty"`
	PortionWidth    *float64 `json:"portionWidth,omitempty"`

	ActiveVoices   *int `json:"activeVoices,omitempty"`
	ActiveChannels *int `json:"activeChannels,omitempty"`

	RampLengthMS *float64 `json:"rampLengthMs,omitempty"`
	RampType     *string  `json:"rampType,omitempty"`

	Warnings      *bool `json:"warnings,omitempty"`
	LiveRecording *bool `json:"liveRecording,omitempty"`
}

// DefaultParams returns the document written by ReadParams for a missing
// file.
func DefaultParams() *Params {
	p, err := ParseParams([]byte(defaultParams))
	if err != nil {
		panic(err)
	}
	return p
}

// ParseParams decodes a JSON parameter document.
func ParseParams(data []byte) (*Params, error) {
	var p Params
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshalling params: %w", err)
	}
	if p.Direction != nil {
		if _, ok := granular.ParseDirection(*p.Direction); !ok {
			return nil, fmt.Errorf("%q: %w", *p.Direction, ErrUnknownDirection)
		}
	}
	return &p, nil
}

// ReadParams reads the parameter file at path. A missing file is created
// with the defaults first.
func ReadParams(path string) (*Params, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(path, []byte(defaultParams), 0o644); err != nil {
			return nil, fmt.Errorf("can't write default params: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("can't read params: %w", err)
	}
	return ParseParams(data)
}

// Apply sets everything in p except Buffer on g. Run it on the goroutine
// that owns g. "on": false is applied first and "on": true last.
//
// Ramp settings need g to be off, and Off only starts a fade. When g is not
// off yet, the ramp settings and a following "on": true are held back and
// Apply returns true; call ApplyHeld once g is off.
func (p *Params) Apply(g *granular.Granulator) (held bool) {
	if p.Warnings != nil {
		g.SetWarnings(*p.Warnings)
	}
	if p.On != nil && !*p.On {
		g.Off()
	}
	held = p.needsOff() && g.Status() != granular.StatusOff

	if p.OctaveSize != nil {
		g.SetOctaveSize(*p.OctaveSize)
	}
	if p.OctaveDivisions != nil {
		g.SetOctaveDivisions(*p.OctaveDivisions)
	}
	if p.Transpositions != nil {
		g.SetTranspositions(p.Transpositions)
	}
	if p.TranspositionOffset != nil {
		g.SetTranspositionOffsetST(*p.TranspositionOffset)
	}

	if p.RampType != nil && !held {
		g.SetRampType(*p.RampType)
	}
	if p.GrainLengthMS != nil {
		g.SetGrainLengthMS(*p.GrainLengthMS)
	}
	if p.RampLengthMS != nil && !held {
		g.SetRampLenMS(*p.RampLengthMS)
	}
	if p.GrainDeviation != nil {
		g.SetGrainLengthDeviation(*p.GrainDeviation)
	}
	if p.Density != nil {
		g.SetDensity(*p.Density)
	}
	if p.Direction != nil {
		d, _ := granular.ParseDirection(*p.Direction)
		g.SetDirection(d)
	}

	if p.StartMS != nil {
		g.SetSamplesStartMS(*p.StartMS)
	}
	if p.EndMS != nil {
		g.SetSamplesEndMS(*p.EndMS)
	}
	switch {
	case p.PortionPosition != nil && p.PortionWidth != nil:
		g.Portion(*p.PortionPosition, *p.PortionWidth)
	case p.PortionPosition != nil:
		g.SetPortionPosition(*p.PortionPosition)
	case p.PortionWidth != nil:
		g.SetPortionWidth(*p.PortionWidth)
	}

	if p.ActiveVoices != nil {
		g.SetActiveVoices(*p.ActiveVoices)
	}
	if p.ActiveChannels != nil {
		g.SetActiveChannels(*p.ActiveChannels)
	}
	if p.GrainAmp != nil {
		g.SetGrainAmp(*p.GrainAmp)
	}
	if p.LiveRecording != nil {
		g.SetLiveRecording(*p.LiveRecording)
	}
	if p.Smooth != nil && *p.Smooth {
		g.SmoothMode()
	}

	if p.On != nil && *p.On && !held {
		g.On()
	}
	return held
}

// ApplyHeld sets what Apply held back: the ramp settings, then "on": true.
func (p *Params) ApplyHeld(g *granular.Granulator) {
	if p.RampType != nil {
		g.SetRampType(*p.RampType)
	}
	if p.RampLengthMS != nil {
		g.SetRampLenMS(*p.RampLengthMS)
	}
	if p.On != nil && *p.On {
		g.On()
	}
}

func (p *Params) needsOff() bool {
	return p.RampType != nil || p.RampLengthMS != nil
}
