// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package interactive

import (
	"fmt"
	"net/url"
)

// Status of an AuthorizationResult.
type Status int

const (
	Success Status = iota
	ErrorHTTP
	UserCancel
	Unknown
	ProtocolError
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case ErrorHTTP:
		return "error-http"
	case UserCancel:
		return "user-cancel"
	case Unknown:
		return "unknown"
	case ProtocolError:
		return "protocol-error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// AuthorizationResult is the outcome of the interactive step.  It is
// immutable.
type AuthorizationResult struct {
	status           Status
	code             string
	err              string
	errorDescription string
}

// NewAuthorizationResult creates an AuthorizationResult.  code is the
// authorization code or a broker redirect, errCode and errDescription are
// the provider's error values.
func NewAuthorizationResult(status Status, code, errCode, errDescription string) AuthorizationResult {
	return AuthorizationResult{
		status:           status,
		code:             code,
		err:              errCode,
		errorDescription: errDescription,
	}
}

// ResultFromRedirect converts the redirect the provider sent the user agent
// to into an AuthorizationResult.
func ResultFromRedirect(u *url.URL) AuthorizationResult {
	if u == nil {
		return NewAuthorizationResult(Unknown, "", "", "no redirect")
	}
	q := u.Query()
	if e := q.Get("error"); e != "" {
		return NewAuthorizationResult(ProtocolError, "", e, q.Get("error_description"))
	}
	if code := q.Get("code"); code != "" {
		return NewAuthorizationResult(Success, code, "", "")
	}
	return NewAuthorizationResult(Unknown, "", "", "redirect carried neither a code nor an error")
}

// Status of the result.
func (r AuthorizationResult) Status() Status { return r.status }

// Code is the authorization code, or a broker redirect.
func (r AuthorizationResult) Code() string { return r.code }

// Error is the provider's error code.
func (r AuthorizationResult) Error() string { return r.err }

// ErrorDescription is the provider's error description.
func (r AuthorizationResult) ErrorDescription() string { return r.errorDescription }
