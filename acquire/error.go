// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package acquire

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidParameter    = errors.New("invalid parameter")
	ErrNilParameter        = errors.New("nil parameter")
	ErrInteractionRequired = errors.New("user interaction required")
	ErrServiceError        = errors.New("service error")
	ErrBrokerParameter     = errors.New("broker parameter")
	ErrBrokerUnavailable   = errors.New("broker unavailable")
	ErrHandlerReused       = errors.New("handler already run")
	ErrCacheWrite          = errors.New("cache write failed")
	ErrExchangeFailed      = errors.New("token exchange failed")
	ErrAssertionFailed     = errors.New("client assertion failed")
)

// ServiceError is returned when the identity provider answers an
// authorization or token request with an error.  Code and Description are
// the provider's values, unmodified.
type ServiceError struct {
	Code        string
	Description string

	// StatusCode is the HTTP status of a token endpoint response, zero when
	// the error came from an authorization result.
	StatusCode int

	// CorrelationID is the correlation id of the failed request, if any.
	CorrelationID string
}

func (e *ServiceError) Error() string {
	msg := ErrServiceError.Error()
	if e.Code != "" {
		msg += ": " + e.Code
	}
	if e.Description != "" {
		msg += ": " + e.Description
	}
	if e.Code == "" && e.Description == "" && e.StatusCode != 0 {
		msg += fmt.Sprintf(": unexpected status %d", e.StatusCode)
	}
	return msg
}

// Is allows errors.Is(err, ErrServiceError).
func (e *ServiceError) Is(target error) bool {
	return target == ErrServiceError
}

// interactionCodes are provider error codes which mean the caller needs to
// prompt the user again.
var interactionCodes = map[string]bool{
	"login_required":       true,
	"interaction_required": true,
	"consent_required":     true,
	"invalid_grant":        true,
}

// IsInteractionRequired reports whether err means the acquisition can only
// succeed interactively.
func IsInteractionRequired(err error) bool {
	if errors.Is(err, ErrInteractionRequired) {
		return true
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return interactionCodes[se.Code]
	}
	return false
}
