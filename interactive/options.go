// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package interactive

import (
	"github.com/hashicorp/capauth/logging"
	"github.com/hashicorp/capauth/params"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/text/language"
)

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

// flowOptions is the set of available options for New.
type flowOptions struct {
	withAdditionalScopes     []string
	withLoginHint            string
	withExtraQueryParameters string
	withPrompt               Prompt
	withUILocales            []language.Tag
	withPlatformParameters   []params.Pair
	withLogger               hclog.Logger
}

func flowDefaults() flowOptions {
	return flowOptions{
		withLogger: logging.Named("interactive"),
	}
}

func getFlowOpts(opt ...Option) flowOptions {
	opts := flowDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithAdditionalScopes provides scopes which are consented to during the
// authorization request.  They are not part of the token request and do
// not key the cache.
func WithAdditionalScopes(scopes ...string) Option {
	return func(o interface{}) {
		if o, ok := o.(*flowOptions); ok {
			o.withAdditionalScopes = append(o.withAdditionalScopes, scopes...)
		}
	}
}

// WithLoginHint provides an optional login_hint, also handed to a broker as
// the username.
func WithLoginHint(hint string) Option {
	return func(o interface{}) {
		if o, ok := o.(*flowOptions); ok {
			o.withLoginHint = hint
		}
	}
}

// WithExtraQueryParameters provides an already encoded query string appended
// verbatim to the authorization request.  A single leading "&" is removed.
func WithExtraQueryParameters(raw string) Option {
	return func(o interface{}) {
		if o, ok := o.(*flowOptions); ok {
			o.withExtraQueryParameters = raw
		}
	}
}

// WithPrompt provides an optional prompt.
func WithPrompt(p Prompt) Option {
	return func(o interface{}) {
		if o, ok := o.(*flowOptions); ok {
			o.withPrompt = p
		}
	}
}

// WithUILocales provides optional preferred languages for the provider's UI.
func WithUILocales(tags ...language.Tag) Option {
	return func(o interface{}) {
		if o, ok := o.(*flowOptions); ok {
			o.withUILocales = append(o.withUILocales, tags...)
		}
	}
}

// WithPlatformParameters provides additional parameters required by the
// platform's UI.  They are sent in order after the standard parameters and
// may not replace any of them.
func WithPlatformParameters(p ...params.Pair) Option {
	return func(o interface{}) {
		if o, ok := o.(*flowOptions); ok {
			o.withPlatformParameters = append(o.withPlatformParameters, p...)
		}
	}
}

// WithLogger provides an optional logger.
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*flowOptions); ok && l != nil {
			o.withLogger = l
		}
	}
}
