// SPDX-License-Identifier: MIT

package config

import "errors"

// ErrInvalidConfig indicates a problem file that cannot describe a run:
// malformed YAML, unknown keys, or values failing Validate.
var ErrInvalidConfig = errors.New("config: invalid problem description")
