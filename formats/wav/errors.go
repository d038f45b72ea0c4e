// SPDX-License-Identifier: EPL-2.0

package wav

import "errors"

var (
	ErrNotWavFile          = errors.New("not a WAV file")
	ErrUnsupportedFormat   = errors.New("only integer PCM WAV is supported")
	ErrUnsupportedBitDepth = errors.New("unsupported WAV bit depth")
	ErrNoChannels          = errors.New("WAV needs at least one channel")
	ErrChannelMismatch     = errors.New("channel count does not match the writer")
)
