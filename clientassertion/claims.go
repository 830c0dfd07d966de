// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package clientassertion

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// TokenType is the only "typ" header value produced.
const TokenType = "JWT"

// Header is the JOSE header of a client assertion.  CertificateThumbprint is
// only emitted (as "kid") when Algorithm is RS256.
type Header struct {
	Type                  string
	Algorithm             string
	CertificateThumbprint string
}

// newHeader returns the header for the credential: "none" without one,
// RS256 carrying the credential's thumbprint otherwise.
func newHeader(cred CertificateCredential) Header {
	if cred == nil {
		return Header{Type: TokenType, Algorithm: None}
	}
	return Header{
		Type:                  TokenType,
		Algorithm:             string(RS256),
		CertificateThumbprint: cred.Thumbprint(),
	}
}

// Payload is the claim set of a client assertion.  ValidFrom and ValidTo are
// seconds since the epoch.  Subject and JWTIdentifier are omitted from the
// encoded form when empty.
type Payload struct {
	Audience      string
	Issuer        string
	Subject       string
	ValidFrom     int64
	ValidTo       int64
	JWTIdentifier string
}

// field maps one struct field to its wire name.  The order of a field table
// is the order of the encoded JSON object.
type field[T any] struct {
	name string
	get  func(*T) interface{}
	omit func(*T) bool
	set  func(*T, json.RawMessage) error
}

func stringField[T any](name string, ptr func(*T) *string, optional bool) field[T] {
	f := field[T]{
		name: name,
		get:  func(v *T) interface{} { return *ptr(v) },
		set:  func(v *T, raw json.RawMessage) error { return json.Unmarshal(raw, ptr(v)) },
	}
	if optional {
		f.omit = func(v *T) bool { return *ptr(v) == "" }
	}
	return f
}

func int64Field[T any](name string, ptr func(*T) *int64) field[T] {
	return field[T]{
		name: name,
		get:  func(v *T) interface{} { return *ptr(v) },
		set:  func(v *T, raw json.RawMessage) error { return json.Unmarshal(raw, ptr(v)) },
	}
}

var headerFields = []field[Header]{
	stringField("typ", func(h *Header) *string { return &h.Type }, false),
	stringField("alg", func(h *Header) *string { return &h.Algorithm }, false),
	{
		name: "kid",
		get:  func(h *Header) interface{} { return h.CertificateThumbprint },
		omit: func(h *Header) bool { return h.Algorithm != string(RS256) || h.CertificateThumbprint == "" },
		set: func(h *Header, raw json.RawMessage) error {
			return json.Unmarshal(raw, &h.CertificateThumbprint)
		},
	},
}

var payloadFields = []field[Payload]{
	stringField("aud", func(p *Payload) *string { return &p.Audience }, false),
	stringField("iss", func(p *Payload) *string { return &p.Issuer }, false),
	stringField("sub", func(p *Payload) *string { return &p.Subject }, true),
	int64Field("nbf", func(p *Payload) *int64 { return &p.ValidFrom }),
	int64Field("exp", func(p *Payload) *int64 { return &p.ValidTo }),
	stringField("jti", func(p *Payload) *string { return &p.JWTIdentifier }, true),
}

// HeaderClaimNames returns the wire names of the header, in encoding order.
func HeaderClaimNames() []string { return fieldNames(headerFields) }

// PayloadClaimNames returns the wire names of the payload, in encoding order.
func PayloadClaimNames() []string { return fieldNames(payloadFields) }

func fieldNames[T any](fields []field[T]) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.name)
	}
	return names
}

// JSON returns the canonical JSON encoding of the header.
func (h Header) JSON() ([]byte, error) { return encodeFields(&h, headerFields) }

// JSON returns the canonical JSON encoding of the payload.
func (p Payload) JSON() ([]byte, error) { return encodeFields(&p, payloadFields) }

// Encode returns the base64url (unpadded) encoding of the header JSON.
func (h Header) Encode() (string, error) { return encodeSegment(h.JSON()) }

// Encode returns the base64url (unpadded) encoding of the payload JSON.
func (p Payload) Encode() (string, error) { return encodeSegment(p.JSON()) }

// ParseHeader decodes a base64url encoded header segment.
func ParseHeader(segment string) (Header, error) {
	const op = "clientassertion.ParseHeader"
	var h Header
	if err := decodeSegment(segment, &h, headerFields); err != nil {
		return Header{}, fmt.Errorf("%s: %w", op, err)
	}
	return h, nil
}

// ParsePayload decodes a base64url encoded payload segment.
func ParsePayload(segment string) (Payload, error) {
	const op = "clientassertion.ParsePayload"
	var p Payload
	if err := decodeSegment(segment, &p, payloadFields); err != nil {
		return Payload{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func encodeSegment(data []byte, err error) (string, error) {
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

func encodeFields[T any](v *T, fields []field[T]) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, f := range fields {
		if f.omit != nil && f.omit(v) {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		if err := writeJSON(&buf, f.name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSON(&buf, f.get(v)); err != nil {
			return nil, fmt.Errorf("claim %q: %w", f.name, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeJSON writes v without HTML escaping, so URLs keep their "&".
func writeJSON(buf *bytes.Buffer, v interface{}) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}

func decodeSegment[T any](segment string, v *T, fields []field[T]) error {
	data, err := base64.RawURLEncoding.DecodeString(segment)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
	for _, f := range fields {
		r, ok := raw[f.name]
		if !ok {
			continue
		}
		if err := f.set(v, r); err != nil {
			return fmt.Errorf("%w: claim %q: %w", ErrMalformedToken, f.name, err)
		}
		delete(raw, f.name)
	}
	for name := range raw {
		return fmt.Errorf("%w: %q", ErrUnexpectedClaim, name)
	}
	return nil
}
