// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package acquire

import (
	"context"

	"github.com/hashicorp/capauth/params"
)

// Grant is a grant type variant driven by a Handler.  The Handler calls
// PreStep, then AugmentRequestParameters after the base token request
// parameters are set, then PostStep once the exchange succeeded.  A Grant
// belongs to a single Handler.
type Grant interface {
	// GrantType is the value sent as grant_type.
	GrantType() string

	// PreStep runs before the token request is built, for example to obtain
	// an authorization code.
	PreStep(ctx context.Context) error

	// AugmentRequestParameters adds the grant specific parameters to the
	// token request.  It is the only place a Grant may add parameters.
	AugmentRequestParameters(p *params.Set) error

	// PostStep runs after a successful exchange.
	PostStep(ctx context.Context, r *Result) error
}

// Broker parameter keys.
const (
	BrokerForce            = "force"
	BrokerUsername         = "username"
	BrokerRedirectURI      = "redirect_uri"
	BrokerExtraQueryParams = "extra_qp"
	BrokerInstallURL       = "broker_install_url"
)

// BrokerParameters are handed to a Broker.
type BrokerParameters map[string]string

// Clone returns a copy of p.
func (p BrokerParameters) Clone() BrokerParameters {
	c := make(BrokerParameters, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// BrokerDelegate is implemented by grants that can hand the acquisition to
// an OS broker after PreStep.
type BrokerDelegate interface {
	// BrokerInvocationRequired reports whether the acquisition must be
	// completed by the broker.
	BrokerInvocationRequired() bool

	// BrokerParameters returns a copy of the prepared broker parameters.
	BrokerParameters() BrokerParameters

	// UpdateBrokerParameters adds parameters only known once PreStep ran.
	UpdateBrokerParameters(p BrokerParameters) error
}

// Broker completes acquisitions on behalf of the application.
type Broker interface {
	Acquire(ctx context.Context, p BrokerParameters) (*Result, error)
}
