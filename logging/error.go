// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package logging

import "errors"

var (
	ErrUnknownLevel = errors.New("unknown level")
	ErrNilListener  = errors.New("nil listener")
)
