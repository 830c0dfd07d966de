// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package acquire

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// Result of a successful acquisition.
type Result struct {
	Token   *oauth2.Token
	IDToken string

	// Scopes granted by the provider.  When the provider does not return a
	// scope, these are the requested scopes.
	Scopes []string

	CorrelationID string
	FromBroker    bool
	FromCache     bool
}

// TokenSource returns an oauth2.TokenSource which always returns the
// acquired token.
func (r *Result) TokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(r.Token)
}

// ExpiresIn returns the remaining lifetime of the access token relative to
// now.  Zero means the token has no expiry.
func (r *Result) ExpiresIn(now time.Time) time.Duration {
	if r.Token == nil || r.Token.Expiry.IsZero() {
		return 0
	}
	return r.Token.Expiry.Sub(now)
}

type correlationKey struct{}

// WithCorrelationID returns a context carrying the correlation id sent with
// the requests of an acquisition.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the correlation id carried by ctx, if any.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
