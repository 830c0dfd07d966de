// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package acquire drives a single token acquisition: it runs a Grant's hooks
// around the token request, authenticates the client with a signed
// assertion when a credential is configured, and hands the acquisition to a
// Broker when the Grant requires it.
package acquire

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/capauth/authority"
	"github.com/hashicorp/capauth/cache"
	"github.com/hashicorp/capauth/clientassertion"
	"github.com/hashicorp/capauth/params"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Token request parameter names.
const (
	ParamClientID            = "client_id"
	ParamScope               = "scope"
	ParamGrantType           = "grant_type"
	ParamClientAssertionType = "client_assertion_type"
	ParamClientAssertion     = "client_assertion"
)

const tracerName = "github.com/hashicorp/capauth/acquire"

// State of a Handler.
type State int

const (
	Initialized State = iota
	Validated
	PreStepDone
	RequestBuilt
	Exchanged
	PostStepDone
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Initialized:
		return "initialized"
	case Validated:
		return "validated"
	case PreStepDone:
		return "pre-step-done"
	case RequestBuilt:
		return "request-built"
	case Exchanged:
		return "exchanged"
	case PostStepDone:
		return "post-step-done"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Request holds the grant invariant inputs of an acquisition.
type Request struct {
	Authority *authority.Authority
	ClientID  string

	// Scopes are the target scopes.  They are sent with the token request
	// and key the cache.
	Scopes []string

	// Credential is optional.  When set the client authenticates with a
	// client assertion signed by it.
	Credential clientassertion.CertificateCredential
}

func (r Request) validate() error {
	var result *multierror.Error
	if r.Authority == nil {
		result = multierror.Append(result, fmt.Errorf("missing authority: %w", ErrInvalidParameter))
	}
	if r.ClientID == "" {
		result = multierror.Append(result, fmt.Errorf("missing client id: %w", ErrInvalidParameter))
	}
	if len(r.Scopes) == 0 {
		result = multierror.Append(result, fmt.Errorf("missing scopes: %w", ErrInvalidParameter))
	}
	for i, s := range r.Scopes {
		if strings.TrimSpace(s) == "" {
			result = multierror.Append(result, fmt.Errorf("scope %d is blank: %w", i, ErrInvalidParameter))
		}
	}
	return result.ErrorOrNil()
}

// CacheKey returns the key the request's tokens are cached under.
func (r Request) CacheKey() cache.Key {
	return cache.NewKey(r.Authority.CacheKey(), r.ClientID, r.Scopes)
}

// Handler runs one acquisition.  It may be run once.
type Handler struct {
	req   Request
	grant Grant

	cache     cache.Cache
	exchanger Exchanger
	broker    Broker
	logger    hclog.Logger
	tracer    trace.Tracer
	clock     clockwork.Clock

	started atomic.Bool

	mu    sync.Mutex
	state State
	err   error
}

// NewHandler creates a Handler for the request and grant.
//
// Supported options:
//   - WithCache
//   - WithExchanger
//   - WithBroker
//   - WithLogger
//   - WithTracerProvider
//   - WithClock
func NewHandler(req Request, g Grant, opt ...Option) (*Handler, error) {
	const op = "acquire.NewHandler"
	opts := getHandlerOpts(opt...)

	var result *multierror.Error
	if err := req.validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if g == nil {
		result = multierror.Append(result, fmt.Errorf("grant is nil: %w", ErrNilParameter))
	}
	if opts.withCacheSet && opts.withCache == nil {
		result = multierror.Append(result, fmt.Errorf("cache is nil: %w", ErrNilParameter))
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Handler{
		req:       req,
		grant:     g,
		cache:     opts.withCache,
		exchanger: opts.withExchanger,
		broker:    opts.withBroker,
		logger:    opts.withLogger,
		tracer:    opts.withTracerProvider.Tracer(tracerName),
		clock:     opts.withClock,
		state:     Initialized,
	}, nil
}

// State returns the current state.
func (h *Handler) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Err returns the error which failed the handler, if any.
func (h *Handler) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *Handler) transition(s State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = s
}

func (h *Handler) fail(err error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = Failed
	h.err = err
	return err
}

// Run executes the acquisition.  Any failure leaves the handler Failed and
// is returned as is, no stage is retried.
func (h *Handler) Run(ctx context.Context) (*Result, error) {
	const op = "Handler.Run"
	if !h.started.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("%s: %w", op, ErrHandlerReused)
	}

	ctx, span := h.tracer.Start(ctx, "acquire.Run", trace.WithAttributes(
		attribute.String("oauth.client_id", h.req.ClientID),
		attribute.String("oauth.grant_type", h.grant.GrantType()),
	))
	defer span.End()

	r, err := h.run(ctx)
	if err != nil {
		err = h.fail(fmt.Errorf("%s: %w", op, err))
		span.SetAttributes(attribute.String("acquire.state", Failed.String()))
		span.RecordError(err)
		span.SetStatus(codes.Error, "acquisition failed")
		h.logger.Debug("acquisition failed", "grant_type", h.grant.GrantType(), "error", err)
		return nil, err
	}
	span.SetAttributes(attribute.String("acquire.state", Succeeded.String()))
	span.SetStatus(codes.Ok, "")
	return r, nil
}

func (h *Handler) run(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.transition(Validated)
	correlationID := CorrelationID(ctx)
	h.logger.Debug("starting acquisition", "grant_type", h.grant.GrantType(), "correlation_id", correlationID)

	if err := h.grant.PreStep(ctx); err != nil {
		return nil, err
	}
	h.transition(PreStepDone)

	var r *Result
	if bd, ok := h.grant.(BrokerDelegate); ok && bd.BrokerInvocationRequired() {
		var err error
		if r, err = h.invokeBroker(ctx, bd); err != nil {
			return nil, err
		}
	} else {
		form, err := h.buildRequest()
		if err != nil {
			return nil, err
		}
		h.transition(RequestBuilt)

		if r, err = h.exchanger.Exchange(ctx, h.req.Authority, form); err != nil {
			return nil, err
		}
	}
	if r == nil || r.Token == nil {
		return nil, fmt.Errorf("no token returned: %w", ErrExchangeFailed)
	}
	if len(r.Scopes) == 0 {
		r.Scopes = append([]string(nil), h.req.Scopes...)
	}
	r.CorrelationID = correlationID
	h.transition(Exchanged)

	if err := h.grant.PostStep(ctx, r); err != nil {
		return nil, err
	}
	h.transition(PostStepDone)

	if h.cache != nil {
		e := &cache.Entry{Token: r.Token, IDToken: r.IDToken, Scopes: r.Scopes}
		if err := h.cache.Store(ctx, h.req.CacheKey(), e); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCacheWrite, err)
		}
	}
	h.transition(Succeeded)
	h.logger.Debug("acquisition succeeded", "grant_type", h.grant.GrantType(), "from_broker", r.FromBroker)
	return r, nil
}

func (h *Handler) invokeBroker(ctx context.Context, bd BrokerDelegate) (*Result, error) {
	h.logger.Debug("broker invocation required")
	if h.broker == nil {
		return nil, ErrBrokerUnavailable
	}
	bp := bd.BrokerParameters()
	if err := bd.UpdateBrokerParameters(bp); err != nil {
		return nil, err
	}
	r, err := h.broker.Acquire(ctx, bp)
	if err != nil {
		return nil, err
	}
	if r != nil {
		r.FromBroker = true
	}
	return r, nil
}

// buildRequest sets the base parameters, lets the grant augment them and
// finally adds the client assertion.
func (h *Handler) buildRequest() (*params.Set, error) {
	form := params.New()
	form.Set(ParamClientID, h.req.ClientID)
	form.Set(ParamScope, strings.Join(h.req.Scopes, " "))
	if err := h.grant.AugmentRequestParameters(form); err != nil {
		return nil, err
	}
	if v, ok := form.Get(ParamGrantType); !ok || v == "" {
		form.Set(ParamGrantType, h.grant.GrantType())
	}
	if h.req.Credential != nil {
		j, err := clientassertion.NewJWT(h.req.ClientID, h.req.Authority.TokenEndpoint(), clientassertion.WithClock(h.clock))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrAssertionFailed, err)
		}
		assertion, err := j.Sign(h.req.Credential)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrAssertionFailed, err)
		}
		form.Set(ParamClientAssertionType, clientassertion.JWTTypeParam)
		form.Set(ParamClientAssertion, assertion)
	}
	return form, nil
}
