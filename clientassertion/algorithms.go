// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package clientassertion

import (
	"crypto/rsa"
	"fmt"
)

// RSAlgorithm is an RSA signature algorithm
type RSAlgorithm string

// JOSE algorithm values as defined by RFC 7518.
// See: https://tools.ietf.org/html/rfc7518#section-3.1
const (
	// None is used for the unsecured (unsigned) form of the assertion.
	None string = "none"

	RS256 RSAlgorithm = "RS256" // RSASSA-PKCS-v1.5 using SHA-256
)

// Validate checks that the key is a supported algorithm and is valid per
// rsa.PrivateKey's Validate() method.
func (a RSAlgorithm) Validate(key *rsa.PrivateKey) error {
	const op = "RSAlgorithm.Validate"
	if key == nil {
		return fmt.Errorf("%s: %w", op, ErrNilPrivateKey)
	}
	switch a {
	case RS256:
		if err := key.Validate(); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	default:
		return fmt.Errorf("%s: %w %q for RSA key", op, ErrUnsupportedAlgorithm, a)
	}
}
