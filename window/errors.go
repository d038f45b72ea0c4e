// SPDX-License-Identifier: EPL-2.0

package window

import "errors"

var (
	// ErrRampSize indicates the ramp-up and ramp-down tables differ in length
	ErrRampSize = errors.New("ramp tables must have the same length")
)
