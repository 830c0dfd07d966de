// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package loopback

import (
	"net"

	"github.com/hashicorp/capauth/logging"
	"github.com/hashicorp/go-hclog"
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

type uiOptions struct {
	withListener      net.Listener
	withBrowserOpener func(string) error
	withLogger        hclog.Logger
	withSuccessHTML   string
}

func uiDefaults() uiOptions {
	return uiOptions{
		withBrowserOpener: OpenBrowser,
		withLogger:        logging.Named("loopback"),
		withSuccessHTML:   successHTML,
	}
}

func getUIOpts(opt ...Option) uiOptions {
	opts := uiDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithListener provides the listener the redirect is received on, instead
// of listening on the redirect uri's host and port.  It is closed once the
// result is delivered.
func WithListener(l net.Listener) Option {
	return func(o interface{}) {
		if o, ok := o.(*uiOptions); ok {
			o.withListener = l
		}
	}
}

// WithBrowserOpener provides the func used to show the authorization uri.
// The default is OpenBrowser.
func WithBrowserOpener(fn func(string) error) Option {
	return func(o interface{}) {
		if o, ok := o.(*uiOptions); ok && fn != nil {
			o.withBrowserOpener = fn
		}
	}
}

// WithLogger provides an optional logger.
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*uiOptions); ok && l != nil {
			o.withLogger = l
		}
	}
}

// WithSuccessHTML provides the page shown after a successful redirect.
func WithSuccessHTML(html string) Option {
	return func(o interface{}) {
		if o, ok := o.(*uiOptions); ok && html != "" {
			o.withSuccessHTML = html
		}
	}
}
