// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package params

import (
	"errors"
	"fmt"
)

// ErrDuplicateParameter is matched by every DuplicateParameterError.
var ErrDuplicateParameter = errors.New("duplicate parameter")

// DuplicateParameterError names the first key of a raw suffix that collided
// with a parameter already in the set.
type DuplicateParameterError struct {
	Key string
}

func (e *DuplicateParameterError) Error() string {
	return fmt.Sprintf("%s: %q", ErrDuplicateParameter, e.Key)
}

// Unwrap allows errors.Is(err, ErrDuplicateParameter).
func (e *DuplicateParameterError) Unwrap() error {
	return ErrDuplicateParameter
}
