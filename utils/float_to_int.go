// SPDX-License-Identifier: EPL-2.0

package utils

// Float32ToInt16 clamps x to [-1, 1] and scales it to 16-bit PCM.
func Float32ToInt16(x float32) int16 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	// 32767 keeps +1 from overflowing
	return int16(x * 32767.0)
}

// Float32ToInt clamps x to [-1, 1] and scales it to a signed integer of the
// given bit depth, as stored in go-audio IntBuffers.
func Float32ToInt(x float32, bitDepth int) int {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	full := float64(int64(1)<<(bitDepth-1)) - 1

	return int(float64(x) * full)
}
