// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package clientassertion

import (
	"crypto/rsa"
	"crypto/sha1" //nolint:gosec
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"testing"

	"github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCertificate(t *testing.T) {
	t.Parallel()
	cert, key := TestGenerateCertificate(t)
	_, otherKey := TestGenerateCertificate(t)

	tests := []struct {
		name      string
		cert      *x509.Certificate
		key       *rsa.PrivateKey
		wantErr   bool
		wantIsErr error
	}{
		{name: "valid", cert: cert, key: key},
		{name: "nil-cert", key: key, wantErr: true, wantIsErr: ErrNilCertificate},
		{name: "nil-key", cert: cert, wantErr: true, wantIsErr: ErrNilPrivateKey},
		{name: "mismatch", cert: cert, key: otherKey, wantErr: true, wantIsErr: ErrKeyMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := NewCertificate(tt.cert, tt.key)
			if tt.wantErr {
				require.Error(err)
				assert.Truef(errors.Is(err, tt.wantIsErr), "wanted \"%s\" but got \"%s\"", tt.wantIsErr, err)
				assert.Nil(got)
				return
			}
			require.NoError(err)
			sum := sha1.Sum(tt.cert.Raw) //nolint:gosec
			assert.Equal(base64.RawURLEncoding.EncodeToString(sum[:]), got.Thumbprint())
			assert.Same(tt.cert, got.X509())
		})
	}
}

func TestCertificateFromPEM(t *testing.T) {
	t.Parallel()
	cert, key := TestGenerateCertificate(t)
	tests := []struct {
		name      string
		pem       []byte
		wantErr   bool
		wantIsErr error
	}{
		{name: "pkcs1", pem: TestCertificatePEM(t, cert, key, false)},
		{name: "pkcs8", pem: TestCertificatePEM(t, cert, key, true)},
		{name: "empty", pem: nil, wantErr: true, wantIsErr: ErrInvalidPEM},
		{
			name:      "cert-only",
			pem:       pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}),
			wantErr:   true,
			wantIsErr: ErrInvalidPEM,
		},
		{
			name:      "garbage-cert",
			pem:       pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte("nope")}),
			wantErr:   true,
			wantIsErr: ErrInvalidPEM,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := CertificateFromPEM(tt.pem)
			if tt.wantErr {
				require.Error(err)
				assert.Truef(errors.Is(err, tt.wantIsErr), "wanted \"%s\" but got \"%s\"", tt.wantIsErr, err)
				return
			}
			require.NoError(err)
			assert.Equal(cert.Raw, got.X509().Raw)
		})
	}
}

func TestCertificate_JWK(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	c := TestCertificate(t)
	k := c.JWK()
	assert.True(k.IsPublic())
	assert.True(k.Valid())
	assert.Equal(c.Thumbprint(), k.KeyID)

	data, err := json.Marshal(jose.JSONWebKeySet{Keys: []jose.JSONWebKey{k}})
	require.NoError(err)
	var set jose.JSONWebKeySet
	require.NoError(json.Unmarshal(data, &set))
	found := set.Key(c.Thumbprint())
	require.Len(found, 1)
	assert.Equal("RS256", found[0].Algorithm)
	assert.Equal(c.X509().Raw, found[0].Certificates[0].Raw)
}

func TestRSAlgorithm_Validate(t *testing.T) {
	t.Parallel()
	_, key := TestGenerateCertificate(t)
	assert.NoError(t, RS256.Validate(key))
	assert.ErrorIs(t, RS256.Validate(nil), ErrNilPrivateKey)
	assert.ErrorIs(t, RSAlgorithm("RS512").Validate(key), ErrUnsupportedAlgorithm)
}
