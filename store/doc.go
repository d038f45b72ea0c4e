// SPDX-License-Identifier: EPL-2.0

// Package store keeps named sample buffers for granulators.
//
// Files are decoded by extension, resampled to the store's rate and mixed
// down to mono when loaded, so a granulator can read them as they are.
// Names of the form "msNNN" are not stored: they select the last NNN
// milliseconds of live input instead.
//
//	st := store.New(48000)
//	if err := st.Load("rain", "~/samples/rain.ogg"); err != nil {
//	    return err
//	}
//	err := st.Attach(g, "rain") // or "ms2000" for live input
package store
