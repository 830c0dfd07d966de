// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package logging

import "io"

// Option defines a common functional options type which can be used in a
// variadic parameter pattern.
type Option func(interface{})

// ApplyOpts takes a pointer to the options struct as a set of default options
// and applies the slice of opts as overrides.
func ApplyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		if o == nil {
			continue
		}
		o(opts)
	}
}

// WithLevel provides an optional initial level.
func WithLevel(l Level) Option {
	return func(o interface{}) {
		if o, ok := o.(*tracerOptions); ok {
			o.withLevel = l
		}
	}
}

// WithOutput provides an optional writer for the logger.
func WithOutput(w io.Writer) Option {
	return func(o interface{}) {
		if o, ok := o.(*tracerOptions); ok && w != nil {
			o.withOutput = w
		}
	}
}

// WithName provides an optional name for the root logger.
func WithName(n string) Option {
	return func(o interface{}) {
		if o, ok := o.(*tracerOptions); ok {
			o.withName = n
		}
	}
}
