// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package clientassertion

import "errors"

var (
	// these may happen due to user error

	ErrMissingClientID     = errors.New("missing client ID")
	ErrMissingAudience     = errors.New("missing audience")
	ErrNilCredential       = errors.New("nil certificate credential")
	ErrEncodedTokenTooLong = errors.New("encoded token too long")
	ErrSigningFailed       = errors.New("signing failed")

	// if these happen, either the user directly instantiated &JWT{}
	// or there's a bug somewhere.

	ErrMissingFuncIDGenerator = errors.New("missing IDgen func; please use NewJWT()")
	ErrMissingClock           = errors.New("missing clock; please use NewJWT()")

	// credential errors

	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
	ErrNilPrivateKey        = errors.New("nil private key")
	ErrNilCertificate       = errors.New("nil certificate")
	ErrKeyMismatch          = errors.New("private key does not match certificate")
	ErrInvalidPEM           = errors.New("invalid PEM")

	// decoding errors

	ErrMalformedToken  = errors.New("malformed token")
	ErrUnexpectedClaim = errors.New("unexpected claim")
)
