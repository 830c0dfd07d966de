// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package id generates the random identifiers used by capauth.
package id

import (
	"fmt"

	"github.com/hashicorp/go-uuid"
)

// New generates a random UUID with an optional prefix.
func New(optionalPrefix string) (string, error) {
	id, err := uuid.GenerateUUID()
	if err != nil {
		return "", fmt.Errorf("unable to generate id: %w", err)
	}
	switch {
	case optionalPrefix != "":
		return fmt.Sprintf("%s_%s", optionalPrefix, id), nil
	default:
		return id, nil
	}
}

// NewCorrelationID generates an id suitable for the correlation_id request
// parameter and the client-request-id header.
func NewCorrelationID() (string, error) {
	return New("")
}
