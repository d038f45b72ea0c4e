// SPDX-License-Identifier: EPL-2.0

// Package granular is a real-time granular synthesis engine.
//
// A Granulator plays up to MaxVoices short, enveloped grains read from a
// mono sample source and mixes them into one or more output channels. Each
// grain picks a start point inside a region of the source, a length around
// the nominal grain length, a transposition, a channel and an optional start
// delay. When it runs out it is re-initialised with new values, forever.
//
// # Sources
//
// A source is either a static buffer owned by the host:
//
//	g.UseStaticBuffer(samples)
//
// or the engine's live ring buffer, which the host feeds every tick:
//
//	g.UseLiveInput(1000) // the last second of input
//	g.SetLiveRecording(true)
//	g.CopyInputSamples(in)
//
// # Processing
//
// Go renders into per-channel slices. Output is overwritten, not added to:
//
//	g.On()
//	g.Go(out, len(out[0]))
//
// Go never blocks or allocates. On and Off fade the whole output over one
// ramp length, and SetGrainAmp glides over exactly one tick.
//
// # Threads
//
// A Granulator belongs to the audio goroutine. Engine wraps it with a
// bounded command queue so control goroutines can change parameters safely:
//
//	e, _ := granular.NewEngine(granular.DefaultConfig(), 0)
//	e.Do(func(g *granular.Granulator) { g.SetDensity(50) })
//	// in the audio callback
//	e.Process(in, out)
//
// # Parameters
//
// Setters validate their input, clamp it to a usable value and log a
// warning through logrus instead of failing. SetWarnings(false) silences
// the warnings without changing behaviour.
package granular
