// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package interactive implements the authorization code grant: it builds the
// authorization request, hands it to a UI, verifies the result and adds the
// code to the token request.  A Flow is an acquire.Grant and is run by an
// acquire.Handler.
package interactive

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/hashicorp/capauth/acquire"
	"github.com/hashicorp/capauth/authority"
	"github.com/hashicorp/capauth/internal/clientinfo"
	"github.com/hashicorp/capauth/params"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/text/language"
)

const (
	GrantTypeAuthorizationCode = "authorization_code"

	// BrokerRedirectPrefix marks an authorization code which is really a
	// broker redirect.
	BrokerRedirectPrefix = "msauth://"

	// loginRequired is the provider error meaning a fresh interactive prompt
	// is needed.
	loginRequired = "login_required"
)

// Authorization request parameter names.
const (
	ParamResponseType  = "response_type"
	ParamRedirectURI   = "redirect_uri"
	ParamLoginHint     = "login_hint"
	ParamCorrelationID = "correlation_id"
	ParamClientID      = "client_id"
	ParamScope         = "scope"
	ParamPrompt        = "prompt"
	ParamUILocales     = "ui_locales"
	ParamCode          = "code"
)

// Prompt values the provider is asked to honor.
type Prompt string

const (
	None          Prompt = "none"
	Login         Prompt = "login"
	Consent       Prompt = "consent"
	SelectAccount Prompt = "select_account"
	Create        Prompt = "create"
)

func (p Prompt) valid() bool {
	switch p {
	case None, Login, Consent, SelectAccount, Create:
		return true
	}
	return false
}

// Flow is the authorization code grant.  It is single use and is not safe
// for concurrent use.
type Flow struct {
	authority            *authority.Authority
	scopes               []string
	additionalScopes     []string
	clientID             string
	redirectURI          string
	ui                   UI
	loginHint            string
	extraQueryParameters string
	prompt               Prompt
	uiLocales            []language.Tag
	platformParameters   []params.Pair
	logger               hclog.Logger

	brokerParams acquire.BrokerParameters

	// result is set once a Success result was verified.
	result *AuthorizationResult
}

var (
	_ acquire.Grant          = (*Flow)(nil)
	_ acquire.BrokerDelegate = (*Flow)(nil)
)

// New creates an authorization code Flow.  The redirect uri must be
// absolute and may not carry a fragment.
//
// Supported options:
//   - WithAdditionalScopes
//   - WithLoginHint
//   - WithExtraQueryParameters
//   - WithPrompt
//   - WithUILocales
//   - WithPlatformParameters
//   - WithLogger
func New(a *authority.Authority, scopes []string, clientID, redirectURI string, ui UI, opt ...Option) (*Flow, error) {
	const op = "interactive.New"
	opts := getFlowOpts(opt...)

	var result *multierror.Error
	if a == nil {
		result = multierror.Append(result, fmt.Errorf("authority is nil: %w", ErrNilParameter))
	}
	if ui == nil {
		result = multierror.Append(result, fmt.Errorf("ui is nil: %w", ErrNilParameter))
	}
	if clientID == "" {
		result = multierror.Append(result, fmt.Errorf("missing client id: %w", ErrInvalidParameter))
	}
	if len(scopes) == 0 {
		result = multierror.Append(result, fmt.Errorf("missing scopes: %w", ErrInvalidParameter))
	}
	for i, s := range append(append([]string{}, scopes...), opts.withAdditionalScopes...) {
		if strings.TrimSpace(s) == "" {
			result = multierror.Append(result, fmt.Errorf("scope %d is blank: %w", i, ErrInvalidParameter))
		}
	}
	if err := validateRedirectURI(redirectURI); err != nil {
		result = multierror.Append(result, err)
	}
	if opts.withPrompt != "" && !opts.withPrompt.valid() {
		result = multierror.Append(result, fmt.Errorf("unsupported prompt %q: %w", opts.withPrompt, ErrInvalidParameter))
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	extra := strings.TrimPrefix(opts.withExtraQueryParameters, "&")
	f := &Flow{
		authority:            a,
		scopes:               append([]string(nil), scopes...),
		additionalScopes:     append([]string(nil), opts.withAdditionalScopes...),
		clientID:             clientID,
		redirectURI:          redirectURI,
		ui:                   ui,
		loginHint:            opts.withLoginHint,
		extraQueryParameters: extra,
		prompt:               opts.withPrompt,
		uiLocales:            opts.withUILocales,
		platformParameters:   opts.withPlatformParameters,
		logger:               opts.withLogger,
		brokerParams: acquire.BrokerParameters{
			acquire.BrokerForce:            "NO",
			acquire.BrokerUsername:         opts.withLoginHint,
			acquire.BrokerRedirectURI:      redirectURI,
			acquire.BrokerExtraQueryParams: extra,
		},
	}

	// collisions with the extra query parameters are known now, except
	// for a correlation id which is only known per call.
	if _, err := f.authorizationParameters(""); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return f, nil
}

func validateRedirectURI(redirectURI string) error {
	u, err := url.Parse(redirectURI)
	switch {
	case strings.Contains(redirectURI, "#"):
		return fmt.Errorf("%q: %w", redirectURI, ErrRedirectURIContainsFragment)
	case err != nil:
		return fmt.Errorf("%q: %w: %w", redirectURI, ErrInvalidRedirectURI, err)
	case !u.IsAbs() || (u.Host == "" && u.Opaque == ""):
		return fmt.Errorf("%q is not absolute: %w", redirectURI, ErrInvalidRedirectURI)
	}
	return nil
}

// GrantType implements acquire.Grant.
func (f *Flow) GrantType() string { return GrantTypeAuthorizationCode }

// Request returns the acquire.Request matching the flow.  Additional scopes
// are not part of it.
func (f *Flow) Request() acquire.Request {
	return acquire.Request{
		Authority: f.authority,
		ClientID:  f.clientID,
		Scopes:    append([]string(nil), f.scopes...),
	}
}

// ExtraQueryParameters returns the normalized extra query parameters.
func (f *Flow) ExtraQueryParameters() string { return f.extraQueryParameters }

// RedirectURI returns the redirect uri sent with both requests.
func (f *Flow) RedirectURI() string { return f.redirectURI }

// Result returns the verified authorization result, if any.
func (f *Flow) Result() (AuthorizationResult, bool) {
	if f.result == nil {
		return AuthorizationResult{}, false
	}
	return *f.result, true
}

func (f *Flow) authorizationParameters(correlationID string) (*params.Set, error) {
	const op = "Flow.authorizationParameters"
	p := params.New()
	p.Set(ParamResponseType, "code")
	p.Set(ParamRedirectURI, f.redirectURI)
	if strings.TrimSpace(f.loginHint) != "" {
		p.Set(ParamLoginHint, f.loginHint)
	}
	if correlationID != "" {
		p.Set(ParamCorrelationID, correlationID)
	}
	clientinfo.Apply(p)
	p.Set(ParamClientID, f.clientID)
	p.Set(ParamScope, strings.Join(mergeScopes(f.scopes, f.additionalScopes), " "))
	if f.prompt != "" {
		p.Set(ParamPrompt, string(f.prompt))
	}
	if len(f.uiLocales) > 0 {
		locales := make([]string, 0, len(f.uiLocales))
		for _, t := range f.uiLocales {
			locales = append(locales, t.String())
		}
		p.Set(ParamUILocales, strings.Join(locales, " "))
	}
	for _, pp := range f.platformParameters {
		if p.ContainsKey(pp.Key) {
			return nil, fmt.Errorf("%s: %w: %w", op, ErrDuplicateQueryParameter, &params.DuplicateParameterError{Key: pp.Key})
		}
		p.Set(pp.Key, pp.Value)
	}
	if strings.TrimSpace(f.extraQueryParameters) != "" {
		if err := p.AppendRawSuffix(f.extraQueryParameters); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", op, ErrDuplicateQueryParameter, err)
		}
	}
	return p, nil
}

// mergeScopes returns scopes followed by the additional scopes not already
// present.
func mergeScopes(scopes, additional []string) []string {
	seen := make(map[string]struct{}, len(scopes)+len(additional))
	merged := make([]string, 0, len(scopes)+len(additional))
	for _, s := range append(append([]string{}, scopes...), additional...) {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		merged = append(merged, s)
	}
	return merged
}

// AuthorizationURI returns the authorization request uri.  The correlation
// id carried by ctx, if any, is included.
func (f *Flow) AuthorizationURI(ctx context.Context) (string, error) {
	const op = "Flow.AuthorizationURI"
	p, err := f.authorizationParameters(acquire.CorrelationID(ctx))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	endpoint := f.authority.AuthorizationEndpoint()
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return endpoint + sep + p.Encode(), nil
}

// PreStep implements acquire.Grant.  It asks the UI for an authorization
// result and verifies it.
func (f *Flow) PreStep(ctx context.Context) error {
	const op = "Flow.PreStep"
	authURI, err := f.AuthorizationURI(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	f.logger.Debug("starting interactive authorization", "redirect_uri", f.redirectURI)
	r := f.awaitResult(ctx, authURI)
	if err := f.verify(ctx, r); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// awaitResult converts every outcome of the UI into a result.
func (f *Flow) awaitResult(ctx context.Context, authURI string) AuthorizationResult {
	ch, err := f.ui.Authorize(ctx, authURI, f.redirectURI)
	switch {
	case err != nil:
		f.logger.Debug("ui failed", "error", err)
		return NewAuthorizationResult(Unknown, "", "", err.Error())
	case ch == nil:
		return NewAuthorizationResult(Unknown, "", "", "ui returned no result channel")
	}
	select {
	case r, ok := <-ch:
		if !ok {
			return NewAuthorizationResult(Unknown, "", "", "ui closed without a result")
		}
		return r
	case <-ctx.Done():
		return NewAuthorizationResult(UserCancel, "", "", fmt.Sprintf("authorization canceled: %s", ctx.Err()))
	}
}

func (f *Flow) verify(ctx context.Context, r AuthorizationResult) error {
	const op = "Flow.verify"
	if r.Error() == loginRequired {
		return fmt.Errorf("%s: %w: %w", op, acquire.ErrInteractionRequired, &acquire.ServiceError{
			Code:          r.Error(),
			Description:   r.ErrorDescription(),
			CorrelationID: acquire.CorrelationID(ctx),
		})
	}
	if r.Status() != Success {
		f.logger.Debug("authorization failed", "status", r.Status().String(), "error", r.Error())
		return fmt.Errorf("%s: %s: %w", op, r.Status(), &acquire.ServiceError{
			Code:          r.Error(),
			Description:   r.ErrorDescription(),
			CorrelationID: acquire.CorrelationID(ctx),
		})
	}
	if r.Code() == "" {
		return fmt.Errorf("%s: %w", op, ErrMissingAuthorizationCode)
	}
	f.result = &r
	if f.BrokerInvocationRequired() {
		f.brokerParams[acquire.BrokerInstallURL] = r.Code()
	}
	return nil
}

// AugmentRequestParameters implements acquire.Grant.
func (f *Flow) AugmentRequestParameters(p *params.Set) error {
	const op = "Flow.AugmentRequestParameters"
	if f.result == nil {
		return fmt.Errorf("%s: %w", op, ErrNoAuthorizationResult)
	}
	p.Set(acquire.ParamGrantType, GrantTypeAuthorizationCode)
	p.Set(ParamCode, f.result.Code())
	p.Set(ParamRedirectURI, f.redirectURI)
	return nil
}

// PostStep implements acquire.Grant.  It does nothing.
func (f *Flow) PostStep(context.Context, *acquire.Result) error {
	return nil
}

// BrokerInvocationRequired implements acquire.BrokerDelegate.  The broker is
// required when the authorization code is a broker redirect.
func (f *Flow) BrokerInvocationRequired() bool {
	return f.result != nil && f.result.Code() != "" && strings.HasPrefix(f.result.Code(), BrokerRedirectPrefix)
}

// BrokerParameters implements acquire.BrokerDelegate.
func (f *Flow) BrokerParameters() acquire.BrokerParameters {
	return f.brokerParams.Clone()
}

// UpdateBrokerParameters implements acquire.BrokerDelegate.  It copies the
// username carried by the broker redirect's query into p.
func (f *Flow) UpdateBrokerParameters(p acquire.BrokerParameters) error {
	const op = "Flow.UpdateBrokerParameters"
	if f.result == nil {
		return fmt.Errorf("%s: %w", op, ErrNoAuthorizationResult)
	}
	u, err := url.Parse(f.result.Code())
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, acquire.ErrBrokerParameter, err)
	}
	query, err := url.QueryUnescape(u.RawQuery)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, acquire.ErrBrokerParameter, err)
	}
	for _, seg := range strings.Split(query, "&") {
		k, v, _ := strings.Cut(seg, "=")
		if k == acquire.BrokerUsername {
			p[acquire.BrokerUsername] = v
			return nil
		}
	}
	return fmt.Errorf("%s: %w: missing %s", op, acquire.ErrBrokerParameter, acquire.BrokerUsername)
}
