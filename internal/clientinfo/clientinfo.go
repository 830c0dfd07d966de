// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package clientinfo holds the library identification parameters sent with
// every authorization request.
package clientinfo

import (
	"runtime"

	"github.com/hashicorp/capauth/params"
)

const (
	// SKU identifies this library to identity providers.
	SKU = "capauth.go"

	// Version of the library.
	Version = "0.1.0"
)

const (
	ParamSKU     = "x-client-SKU"
	ParamVersion = "x-client-Ver"
	ParamOS      = "x-client-OS"
	ParamCPU     = "x-client-CPU"
)

// Parameters returns the identification parameters in the order they are
// sent.
func Parameters() []params.Pair {
	return []params.Pair{
		{Key: ParamSKU, Value: SKU},
		{Key: ParamVersion, Value: Version},
		{Key: ParamOS, Value: runtime.GOOS},
		{Key: ParamCPU, Value: runtime.GOARCH},
	}
}

// Apply sets the identification parameters on s.
func Apply(s *params.Set) {
	for _, p := range Parameters() {
		s.Set(p.Key, p.Value)
	}
}
