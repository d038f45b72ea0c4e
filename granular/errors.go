// SPDX-License-Identifier: EPL-2.0

package granular

import "errors"

var (
	ErrInvalidSamplingRate = errors.New("sampling rate must be positive")
	ErrInvalidChannels     = errors.New("channel count must be at least 1")
	ErrInvalidTickSize     = errors.New("tick size must be at least 1 sample")
	ErrNoSamples           = errors.New("sample buffer is empty")
	ErrLiveBufferTooSmall  = errors.New("live buffer is too small")
	ErrNotOff              = errors.New("engine must be off")
	ErrQueueFull           = errors.New("command queue is full")
)
