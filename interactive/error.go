// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package interactive

import "errors"

var (
	ErrInvalidParameter            = errors.New("invalid parameter")
	ErrNilParameter                = errors.New("nil parameter")
	ErrInvalidRedirectURI          = errors.New("invalid redirect uri")
	ErrRedirectURIContainsFragment = errors.New("redirect uri contains a fragment")
	ErrDuplicateQueryParameter     = errors.New("duplicate query parameter")
	ErrMissingAuthorizationCode    = errors.New("authorization code is missing")
	ErrNoAuthorizationResult       = errors.New("no authorization result")
)
