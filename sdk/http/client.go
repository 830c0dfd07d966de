// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package http builds the HTTP clients used to talk to identity providers.
package http

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/hashicorp/go-cleanhttp"
)

// DefaultTimeout bounds a single request to an identity provider.
const DefaultTimeout = 30 * time.Second

var ErrInvalidCertificatePem = errors.New("invalid certificate PEM")

// Option configures NewClient.
type Option func(interface{})

// ApplyOpts applies the options to opts.
func ApplyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		if o == nil {
			continue
		}
		o(opts)
	}
}

type clientOptions struct {
	withTimeout time.Duration
}

func clientDefaults() clientOptions {
	return clientOptions{withTimeout: DefaultTimeout}
}

func getClientOpts(opt ...Option) clientOptions {
	opts := clientDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithTimeout overrides DefaultTimeout.  Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok {
			o.withTimeout = d
		}
	}
}

// NewClient returns a client for authority discovery and token requests.
// Connections are pooled.  When caPEM is set only those roots are trusted for
// the provider, otherwise the system roots are used.  TLS 1.2 is the minimum.
//
// Supported options:
//   - WithTimeout
func NewClient(caPEM string, opt ...Option) (*http.Client, error) {
	const op = "http.NewClient"
	opts := getClientOpts(opt...)
	tr := cleanhttp.DefaultPooledTransport()
	if caPEM != "" {
		roots := x509.NewCertPool()
		if !roots.AppendCertsFromPEM([]byte(caPEM)) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCertificatePem)
		}
		tr.TLSClientConfig = &tls.Config{
			RootCAs:    roots,
			MinVersion: tls.VersionTLS12,
		}
	}
	return &http.Client{Transport: tr, Timeout: opts.withTimeout}, nil
}

// ClientContext attaches client to ctx.  Discovery (go-oidc) and the token
// exchange (x/oauth2 context key) both pick it up from there.
func ClientContext(ctx context.Context, client *http.Client) context.Context {
	return oidc.ClientContext(ctx, client)
}
