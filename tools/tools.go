// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

//go:build tools

// This file pins the formatting tool used for this module.  To install it at
// the pinned version run:
// $ go generate -tags tools tools/tools.go

package tools

//go:generate go install mvdan.cc/gofumpt

import (
	_ "mvdan.cc/gofumpt"
)
