// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package clientassertion

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"time"

	"github.com/stretchr/testify/require"
)

// TestingT defines a very slim interface required by the Test* helpers.
type TestingT interface {
	require.TestingT
	Helper()
}

// TestGenerateCertificate will generate a self-signed test certificate and
// its 2048 bit RSA key.
func TestGenerateCertificate(t TestingT) (*x509.Certificate, *rsa.PrivateKey) {
	t.Helper()
	require := require.New(t)

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(err)

	serialNumberLimit := new(big.Int).Lsh(big.NewInt(1), 128)
	serialNumber, err := rand.Int(rand.Reader, serialNumberLimit)
	require.NoError(err)

	notBefore := time.Now()
	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{"Acme Co"},
			CommonName:   "capauth test client",
		},
		NotBefore:             notBefore,
		NotAfter:              notBefore.Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}
	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	require.NoError(err)
	cert, err := x509.ParseCertificate(derBytes)
	require.NoError(err)
	return cert, key
}

// TestCertificate returns a Certificate credential backed by a freshly
// generated test certificate.
func TestCertificate(t TestingT) *Certificate {
	t.Helper()
	cert, key := TestGenerateCertificate(t)
	c, err := NewCertificate(cert, key)
	require.NoError(t, err)
	return c
}

// TestCertificatePEM encodes a test certificate and key as PEM, the key in
// PKCS#8 form when pkcs8 is true and PKCS#1 otherwise.
func TestCertificatePEM(t TestingT, cert *x509.Certificate, key *rsa.PrivateKey, pkcs8 bool) []byte {
	t.Helper()
	out := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
	if pkcs8 {
		der, err := x509.MarshalPKCS8PrivateKey(key)
		require.NoError(t, err)
		return append(out, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})...)
	}
	der := x509.MarshalPKCS1PrivateKey(key)
	return append(out, pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: der})...)
}
