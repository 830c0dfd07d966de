// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package params provides an ordered set of request parameters used to build
// authorization request query strings and token request bodies.
//
// Parameters are serialized in the order they were first set, never sorted,
// and a caller-supplied raw suffix (already encoded "extra query parameters")
// can be appended verbatim once it has been checked for key collisions.
package params
