// SPDX-License-Identifier: EPL-2.0

package granular

// Status is the engine-wide on/off state. Starting and Stopping fade the
// whole output in or out over one ramp length.
type Status int32

const (
	StatusOff Status = iota
	StatusStarting
	StatusOn
	StatusStopping
)

func (s Status) String() string {
	switch s {
	case StatusOff:
		return "off"
	case StatusStarting:
		return "starting"
	case StatusOn:
		return "on"
	case StatusStopping:
		return "stopping"
	}
	return "unknown"
}

// Phase is where a grain is in its life.
type Phase int

const (
	// PhaseOff marks a voice that has never been initialised or was switched
	// off while dormant.
	PhaseOff Phase = iota
	// PhaseStarting counts down the start delay; the grain is silent.
	PhaseStarting
	// PhaseRampUp fades the grain in.
	PhaseRampUp
	// PhaseActive plays at full envelope.
	PhaseActive
	// PhaseStopping fades the grain out, naturally or because it was forced.
	PhaseStopping
	// PhaseInactive is an exhausted grain waiting to be re-initialised.
	PhaseInactive
	// PhaseSkip runs a silent life: the density roll failed or the region
	// was too short for the chosen length and transposition.
	PhaseSkip
)

func (p Phase) String() string {
	switch p {
	case PhaseOff:
		return "off"
	case PhaseStarting:
		return "starting"
	case PhaseRampUp:
		return "ramp-up"
	case PhaseActive:
		return "active"
	case PhaseStopping:
		return "stopping"
	case PhaseInactive:
		return "inactive"
	case PhaseSkip:
		return "skip"
	}
	return "unknown"
}

// Audible reports whether a grain in this phase reads samples.
func (p Phase) Audible() bool {
	return p == PhaseRampUp || p == PhaseActive || p == PhaseStopping
}

// Activity says whether a voice slot is in use. It is kept apart from Phase
// so that switching a voice off never disturbs where its grain is.
type Activity int

const (
	ActivityActive Activity = iota
	ActivityInactive
)

func (a Activity) String() string {
	if a == ActivityActive {
		return "active"
	}
	return "inactive"
}

// Direction selects how grains read the source.
type Direction int

const (
	// DirectionAuto reads backwards when the region start is after its end.
	DirectionAuto Direction = iota
	DirectionForward
	DirectionBackward
	// DirectionRandom flips a coin for every grain.
	DirectionRandom
)

func (d Direction) String() string {
	switch d {
	case DirectionAuto:
		return "auto"
	case DirectionForward:
		return "forward"
	case DirectionBackward:
		return "backward"
	case DirectionRandom:
		return "random"
	}
	return "unknown"
}

// ParseDirection maps a name from String back to a Direction.
func ParseDirection(s string) (Direction, bool) {
	for d := DirectionAuto; d <= DirectionRandom; d++ {
		if d.String() == s {
			return d, true
		}
	}
	return DirectionAuto, false
}

type delayMode int

const (
	delayNone delayMode = iota
	delayRandom
	delayFixed
)
