// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package authority

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

type authorityOptions struct {
	withIssuer     string
	withProviderCA string
}

func authorityDefaults() authorityOptions {
	return authorityOptions{}
}

func getAuthorityOpts(opt ...Option) authorityOptions {
	opts := authorityDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithIssuer provides an optional issuer for the authority.
func WithIssuer(issuer string) Option {
	return func(o interface{}) {
		if o, ok := o.(*authorityOptions); ok {
			o.withIssuer = issuer
		}
	}
}

// WithProviderCA provides an optional CA cert PEM used when sending requests
// to the provider.
func WithProviderCA(cert string) Option {
	return func(o interface{}) {
		if o, ok := o.(*authorityOptions); ok {
			o.withProviderCA = cert
		}
	}
}
