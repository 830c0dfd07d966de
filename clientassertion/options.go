// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package clientassertion

import "github.com/jonboulle/clockwork"

// Option configures the JWT
type Option func(*JWT) error

// WithClock sets the clock used for the nbf claim.
func WithClock(c clockwork.Clock) Option {
	return func(j *JWT) error {
		j.clock = c
		return nil
	}
}

// WithIDGenerator sets the func used to generate the jti claim.
func WithIDGenerator(fn func() (string, error)) Option {
	return func(j *JWT) error {
		j.genID = fn
		return nil
	}
}
