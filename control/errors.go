// SPDX-License-Identifier: EPL-2.0

package control

import "errors"

var ErrUnknownDirection = errors.New("unknown direction")
