// SPDX-License-Identifier: EPL-2.0

// Package control drives a granular.Engine from a JSON parameter file.
//
// A parameter file holds any subset of the engine's settings:
//
//	{
//	    "buffer": "rain",
//	    "density": 60,
//	    "transpositions": [-12, 0, 7],
//	    "on": true
//	}
//
// ReadParams creates the file with defaults when it is missing. A
// Controller applies documents through the engine's command queue, and Run
// reapplies the file whenever it changes on disk.
package control
