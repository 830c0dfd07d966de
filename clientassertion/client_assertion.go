// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package clientassertion

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-uuid"
	"github.com/jonboulle/clockwork"
)

const (
	// JWTTypeParam is the proper value for client_assertion_type.
	// https://www.rfc-editor.org/rfc/rfc7523.html#section-2.2
	JWTTypeParam = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"

	// ValidityPeriod is the fixed distance between nbf and exp.
	ValidityPeriod = 600 * time.Second

	// MaxEncodedLength is the longest "header.payload" string that will be
	// handed to a credential for signing.
	MaxEncodedLength = 65536
)

// JWT is used to create a client assertion JWT, a special JWT used by an OAuth
// 2.0 or OIDC client to authenticate themselves to an authorization server.
// Its claims are fixed when it is created; Sign and Unsigned never modify it.
type JWT struct {
	payload Payload

	// these are overwritten for testing
	genID func() (string, error)
	clock clockwork.Clock
}

// NewJWT creates a new JWT for the client and audience (the token endpoint).
// The issuer and subject are the client id, nbf is the current time in
// seconds and exp is nbf plus ValidityPeriod.
//
// Supported Options:
// * WithClock
// * WithIDGenerator
func NewJWT(clientID, audience string, opts ...Option) (*JWT, error) {
	const op = "NewJWT"
	j := &JWT{
		genID: uuid.GenerateUUID,
		clock: clockwork.NewRealClock(),
	}

	var errs []error
	for _, opt := range opts {
		if err := opt(j); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%s: %w", op, errors.Join(errs...))
	}

	if err := j.validate(clientID, audience); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	id, err := j.genID()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to generate token id: %w", op, err)
	}
	nbf := j.clock.Now().UTC().Unix()
	j.payload = Payload{
		Audience:      audience,
		Issuer:        clientID,
		Subject:       clientID,
		ValidFrom:     nbf,
		ValidTo:       nbf + int64(ValidityPeriod/time.Second),
		JWTIdentifier: id,
	}
	return j, nil
}

func (j *JWT) validate(clientID, audience string) error {
	const op = "JWT.validate"
	var errs []error
	if j.genID == nil {
		errs = append(errs, ErrMissingFuncIDGenerator)
	}
	if j.clock == nil {
		errs = append(errs, ErrMissingClock)
	}
	if clientID == "" {
		errs = append(errs, ErrMissingClientID)
	}
	if audience == "" {
		errs = append(errs, ErrMissingAudience)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s: validation error: %w", op, errors.Join(errs...))
	}
	return nil
}

// Payload returns the claims of the JWT.
func (j *JWT) Payload() Payload {
	return j.payload
}

// Sign returns the compact serialization header.payload.signature, signed by
// cred.  The header is RS256 with the credential's thumbprint as kid.  If the
// encoded header.payload exceeds MaxEncodedLength, ErrEncodedTokenTooLong is
// returned and cred is never asked to sign.
func (j *JWT) Sign(cred CertificateCredential) (string, error) {
	const op = "JWT.Sign"
	if cred == nil {
		return "", fmt.Errorf("%s: %w", op, ErrNilCredential)
	}
	signingInput, err := j.signingInput(newHeader(cred))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	sig, err := cred.Sign([]byte(signingInput))
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, ErrSigningFailed, err)
	}
	return signingInput + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// Unsigned returns the unsecured form of the JWT (alg "none") with an empty
// signature segment: header.payload.
func (j *JWT) Unsigned() (string, error) {
	const op = "JWT.Unsigned"
	signingInput, err := j.signingInput(newHeader(nil))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signingInput + ".", nil
}

func (j *JWT) signingInput(h Header) (string, error) {
	encodedHeader, err := h.Encode()
	if err != nil {
		return "", fmt.Errorf("unable to encode header: %w", err)
	}
	encodedPayload, err := j.payload.Encode()
	if err != nil {
		return "", fmt.Errorf("unable to encode payload: %w", err)
	}
	s := encodedHeader + "." + encodedPayload
	if len(s) > MaxEncodedLength {
		return "", fmt.Errorf("%w: %d exceeds %d", ErrEncodedTokenTooLong, len(s), MaxEncodedLength)
	}
	return s, nil
}

// Parse splits a compact serialization into its decoded header, payload and
// raw signature.  It does not verify the signature.
func Parse(token string) (Header, Payload, []byte, error) {
	const op = "clientassertion.Parse"
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Header{}, Payload{}, nil, fmt.Errorf("%s: %w: expected 3 segments, got %d", op, ErrMalformedToken, len(parts))
	}
	h, err := ParseHeader(parts[0])
	if err != nil {
		return Header{}, Payload{}, nil, fmt.Errorf("%s: %w", op, err)
	}
	p, err := ParsePayload(parts[1])
	if err != nil {
		return Header{}, Payload{}, nil, fmt.Errorf("%s: %w", op, err)
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return Header{}, Payload{}, nil, fmt.Errorf("%s: %w: %w", op, ErrMalformedToken, err)
	}
	return h, p, sig, nil
}
