// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package loopback

import "errors"

var (
	ErrInvalidRedirectURI = errors.New("invalid loopback redirect uri")
	ErrListenFailed       = errors.New("unable to listen")
	ErrOpenBrowserFailed  = errors.New("unable to open browser")
)
