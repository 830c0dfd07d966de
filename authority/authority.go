// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package authority describes the identity provider endpoints a token is
// acquired from.  An Authority is immutable once created and may be shared by
// any number of concurrent acquisitions.
package authority

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	sdkHttp "github.com/hashicorp/capauth/sdk/http"
	"golang.org/x/oauth2"
)

var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrInvalidCACert    = errors.New("invalid CA certificate")
	ErrDiscoveryFailed  = errors.New("discovery failed")
)

// Authority is a resolved identity provider.
type Authority struct {
	issuer                string
	authorizationEndpoint string
	tokenEndpoint         string
	caPEM                 string
}

// New creates an Authority from known endpoints.  Both endpoints must be
// absolute http(s) URLs without a fragment.
//
// Supported options:
//   - WithIssuer
//   - WithProviderCA
func New(authorizationEndpoint, tokenEndpoint string, opt ...Option) (*Authority, error) {
	const op = "authority.New"
	opts := getAuthorityOpts(opt...)
	if err := validateEndpoint(authorizationEndpoint); err != nil {
		return nil, fmt.Errorf("%s: authorization endpoint: %w", op, err)
	}
	if err := validateEndpoint(tokenEndpoint); err != nil {
		return nil, fmt.Errorf("%s: token endpoint: %w", op, err)
	}
	if opts.withProviderCA != "" {
		if _, err := sdkHttp.NewClient(opts.withProviderCA); err != nil {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCACert)
		}
	}
	return &Authority{
		issuer:                opts.withIssuer,
		authorizationEndpoint: authorizationEndpoint,
		tokenEndpoint:         tokenEndpoint,
		caPEM:                 opts.withProviderCA,
	}, nil
}

// Discover resolves the endpoints of issuer from its OIDC discovery document.
// It makes an http request to the issuer.
//
// Supported options:
//   - WithProviderCA
func Discover(ctx context.Context, issuer string, opt ...Option) (*Authority, error) {
	const op = "authority.Discover"
	if err := validateEndpoint(issuer); err != nil {
		return nil, fmt.Errorf("%s: issuer: %w", op, err)
	}
	opts := getAuthorityOpts(opt...)
	client, err := sdkHttp.NewClient(opts.withProviderCA)
	if err != nil {
		if errors.Is(err, sdkHttp.ErrInvalidCertificatePem) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCACert)
		}
		return nil, fmt.Errorf("%s: unable to create http client: %w", op, err)
	}
	p, err := oidc.NewProvider(sdkHttp.ClientContext(ctx, client), issuer)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrDiscoveryFailed, err)
	}
	ep := p.Endpoint()
	return New(ep.AuthURL, ep.TokenURL, WithIssuer(issuer), WithProviderCA(opts.withProviderCA))
}

func validateEndpoint(s string) error {
	if s == "" {
		return fmt.Errorf("empty: %w", ErrInvalidParameter)
	}
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("%q is invalid: %w", s, ErrInvalidParameter)
	}
	switch {
	case u.Scheme != "https" && u.Scheme != "http":
		return fmt.Errorf("%q scheme is not http or https: %w", s, ErrInvalidParameter)
	case u.Host == "":
		return fmt.Errorf("%q has no host: %w", s, ErrInvalidParameter)
	case u.Fragment != "" || strings.Contains(s, "#"):
		return fmt.Errorf("%q has a fragment: %w", s, ErrInvalidParameter)
	}
	return nil
}

// Issuer returns the issuer, empty when the authority was not discovered
// and WithIssuer was not used.
func (a *Authority) Issuer() string { return a.issuer }

// AuthorizationEndpoint returns the authorization endpoint.
func (a *Authority) AuthorizationEndpoint() string { return a.authorizationEndpoint }

// TokenEndpoint returns the token endpoint.  It is also the audience of
// client assertions.
func (a *Authority) TokenEndpoint() string { return a.tokenEndpoint }

// ProviderCA returns the optional CA PEM used to reach the provider.
func (a *Authority) ProviderCA() string { return a.caPEM }

// Endpoint returns the endpoints as an oauth2.Endpoint.
func (a *Authority) Endpoint() oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:   a.authorizationEndpoint,
		TokenURL:  a.tokenEndpoint,
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

// CacheKey is the value used to scope cached tokens to this authority.
func (a *Authority) CacheKey() string {
	if a.issuer != "" {
		return a.issuer
	}
	return a.tokenEndpoint
}
