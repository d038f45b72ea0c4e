// SPDX-License-Identifier: EPL-2.0

package store

import "errors"

var (
	ErrUnknownBuffer = errors.New("no buffer with that name")
	ErrUnknownFormat = errors.New("no decoder for file extension")
	ErrLiveName      = errors.New("live buffer names have no stored samples")
	ErrEmptyName     = errors.New("buffer name is empty")
)
