// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package acquire

import (
	"github.com/hashicorp/capauth/cache"
	"github.com/hashicorp/capauth/logging"
	"github.com/hashicorp/go-hclog"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
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

// handlerOptions is the set of available options for NewHandler and
// AcquireSilent.
type handlerOptions struct {
	withCache          cache.Cache
	withCacheSet       bool
	withExchanger      Exchanger
	withBroker         Broker
	withLogger         hclog.Logger
	withTracerProvider trace.TracerProvider
	withClock          clockwork.Clock
}

func handlerDefaults() handlerOptions {
	return handlerOptions{
		withExchanger:      NewHTTPExchanger(nil),
		withLogger:         logging.Named("acquire"),
		withTracerProvider: otel.GetTracerProvider(),
		withClock:          clockwork.NewRealClock(),
	}
}

func getHandlerOpts(opt ...Option) handlerOptions {
	opts := handlerDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithCache provides a token cache.  Successful acquisitions are stored in
// it and AcquireSilent requires it.
func WithCache(c cache.Cache) Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok {
			o.withCache = c
			o.withCacheSet = true
		}
	}
}

// WithExchanger provides the token request transport.  The default is an
// HTTPExchanger.
func WithExchanger(e Exchanger) Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok && e != nil {
			o.withExchanger = e
		}
	}
}

// WithBroker provides the broker used when a grant requires one.
func WithBroker(b Broker) Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok {
			o.withBroker = b
		}
	}
}

// WithLogger provides an optional logger.
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok && l != nil {
			o.withLogger = l
		}
	}
}

// WithTracerProvider provides an optional OpenTelemetry tracer provider.  The
// default is the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok && tp != nil {
			o.withTracerProvider = tp
		}
	}
}

// WithClock provides an optional clock used for client assertions and token
// expiry checks.
func WithClock(c clockwork.Clock) Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok && c != nil {
			o.withClock = c
		}
	}
}
