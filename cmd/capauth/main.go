// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Command capauth acquires access tokens interactively and builds client
// assertions.
package main

func main() {
	Execute()
}
