// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package acquire

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/capauth/params"
)

const (
	GrantTypeRefreshToken = "refresh_token"
	ParamRefreshToken     = "refresh_token"
)

// expiryDelta is how early a cached access token is treated as expired.
const expiryDelta = 10 * time.Second

// RefreshGrant redeems a refresh token.
type RefreshGrant struct {
	refreshToken string
}

var _ Grant = (*RefreshGrant)(nil)

// NewRefreshGrant creates a RefreshGrant for the refresh token.
func NewRefreshGrant(refreshToken string) (*RefreshGrant, error) {
	const op = "acquire.NewRefreshGrant"
	if refreshToken == "" {
		return nil, fmt.Errorf("%s: missing refresh token: %w", op, ErrInvalidParameter)
	}
	return &RefreshGrant{refreshToken: refreshToken}, nil
}

// GrantType implements Grant.
func (g *RefreshGrant) GrantType() string { return GrantTypeRefreshToken }

// PreStep implements Grant.  There is nothing to do before a refresh.
func (g *RefreshGrant) PreStep(context.Context) error { return nil }

// AugmentRequestParameters implements Grant.
func (g *RefreshGrant) AugmentRequestParameters(p *params.Set) error {
	p.Set(ParamGrantType, GrantTypeRefreshToken)
	p.Set(ParamRefreshToken, g.refreshToken)
	return nil
}

// PostStep implements Grant.  Providers which do not rotate refresh tokens
// omit them from the response, the redeemed one stays valid.
func (g *RefreshGrant) PostStep(_ context.Context, r *Result) error {
	if r.Token.RefreshToken == "" {
		r.Token.RefreshToken = g.refreshToken
	}
	return nil
}

// AcquireSilent returns a token for the request without user interaction.
// A valid cached token is returned as is.  An expired cached token with a
// refresh token is refreshed.  Otherwise, or when the provider rejects the
// refresh token, ErrInteractionRequired is returned.
//
// WithCache is required.
func AcquireSilent(ctx context.Context, req Request, opt ...Option) (*Result, error) {
	const op = "acquire.AcquireSilent"
	opts := getHandlerOpts(opt...)
	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if opts.withCache == nil {
		return nil, fmt.Errorf("%s: missing cache: %w", op, ErrInvalidParameter)
	}

	key := req.CacheKey()
	e, err := opts.withCache.Lookup(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if e == nil || e.Token == nil {
		opts.withLogger.Debug("cache miss")
		return nil, fmt.Errorf("%s: no cached token: %w", op, ErrInteractionRequired)
	}

	cached := &Result{
		Token:         e.Token,
		IDToken:       e.IDToken,
		Scopes:        e.Scopes,
		CorrelationID: CorrelationID(ctx),
		FromCache:     true,
	}
	if e.Token.AccessToken != "" && (e.Token.Expiry.IsZero() || cached.ExpiresIn(opts.withClock.Now()) > expiryDelta) {
		opts.withLogger.Debug("cache hit")
		return cached, nil
	}
	if e.Token.RefreshToken == "" {
		return nil, fmt.Errorf("%s: cached token expired: %w", op, ErrInteractionRequired)
	}

	g, err := NewRefreshGrant(e.Token.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	h, err := NewHandler(req, g, opt...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	r, err := h.Run(ctx)
	if err != nil {
		if IsInteractionRequired(err) {
			return nil, fmt.Errorf("%s: %w: %w", op, ErrInteractionRequired, err)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}
