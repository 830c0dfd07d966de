// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package interactive

import "context"

// UI shows the authorization request to the user.  Authorize returns a
// channel which receives exactly one AuthorizationResult.  A user who
// cancels is reported as a UserCancel result, not as an error.
type UI interface {
	Authorize(ctx context.Context, authorizationURI, redirectURI string) (<-chan AuthorizationResult, error)
}

// UIFunc adapts a func to the UI interface.
type UIFunc func(ctx context.Context, authorizationURI, redirectURI string) (<-chan AuthorizationResult, error)

// Authorize implements UI.
func (f UIFunc) Authorize(ctx context.Context, authorizationURI, redirectURI string) (<-chan AuthorizationResult, error) {
	return f(ctx, authorizationURI, redirectURI)
}

// ResultChannel returns a closed channel holding r.
func ResultChannel(r AuthorizationResult) <-chan AuthorizationResult {
	ch := make(chan AuthorizationResult, 1)
	ch <- r
	close(ch)
	return ch
}
