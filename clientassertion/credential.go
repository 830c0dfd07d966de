// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package clientassertion

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1" //nolint:gosec // x5t is defined as a SHA-1 thumbprint
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"

	"github.com/go-jose/go-jose/v4"
)

// CertificateCredential signs client assertions.  Thumbprint identifies the
// signing key to the authorization server and becomes the "kid" header.
// Implementations define their own concurrency guarantees.
type CertificateCredential interface {
	Thumbprint() string
	Sign(signingInput []byte) ([]byte, error)
}

// Certificate is a CertificateCredential backed by an x509 certificate and
// its RSA private key.  It is safe for concurrent use.
type Certificate struct {
	cert       *x509.Certificate
	key        *rsa.PrivateKey
	sha1       []byte
	thumbprint string
}

// ensure Certificate implements CertificateCredential
var _ CertificateCredential = (*Certificate)(nil)

// NewCertificate creates a Certificate.  The key must be a valid RSA key
// matching the certificate's public key.
func NewCertificate(cert *x509.Certificate, key *rsa.PrivateKey) (*Certificate, error) {
	const op = "NewCertificate"
	if cert == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNilCertificate)
	}
	if err := RS256.Validate(key); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok || !pub.Equal(&key.PublicKey) {
		return nil, fmt.Errorf("%s: %w", op, ErrKeyMismatch)
	}
	sum := sha1.Sum(cert.Raw) //nolint:gosec
	return &Certificate{
		cert:       cert,
		key:        key,
		sha1:       sum[:],
		thumbprint: base64.RawURLEncoding.EncodeToString(sum[:]),
	}, nil
}

// CertificateFromPEM loads the first certificate and the first RSA private
// key (PKCS#1 or PKCS#8) found in pemData.  Encrypted keys are not supported.
func CertificateFromPEM(pemData []byte) (*Certificate, error) {
	const op = "CertificateFromPEM"
	var cert *x509.Certificate
	var key *rsa.PrivateKey
	for {
		var block *pem.Block
		block, pemData = pem.Decode(pemData)
		if block == nil {
			break
		}
		switch block.Type {
		case "CERTIFICATE":
			if cert != nil {
				continue
			}
			c, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidPEM, err)
			}
			cert = c
		case "RSA PRIVATE KEY":
			if key != nil {
				continue
			}
			k, err := x509.ParsePKCS1PrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidPEM, err)
			}
			key = k
		case "PRIVATE KEY":
			if key != nil {
				continue
			}
			k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidPEM, err)
			}
			rsaKey, ok := k.(*rsa.PrivateKey)
			if !ok {
				return nil, fmt.Errorf("%s: %w: private key is %T, not RSA", op, ErrUnsupportedAlgorithm, k)
			}
			key = rsaKey
		}
	}
	switch {
	case cert == nil:
		return nil, fmt.Errorf("%s: %w: no certificate found", op, ErrInvalidPEM)
	case key == nil:
		return nil, fmt.Errorf("%s: %w: no private key found", op, ErrInvalidPEM)
	}
	return NewCertificate(cert, key)
}

// Thumbprint returns the base64url encoded SHA-1 thumbprint of the
// certificate (the x5t value).
func (c *Certificate) Thumbprint() string {
	return c.thumbprint
}

// Sign signs the input with RSASSA-PKCS1-v1_5 using SHA-256.
func (c *Certificate) Sign(signingInput []byte) ([]byte, error) {
	const op = "Certificate.Sign"
	digest := sha256.Sum256(signingInput)
	sig, err := rsa.SignPKCS1v15(rand.Reader, c.key, crypto.SHA256, digest[:])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sig, nil
}

// X509 returns the certificate.
func (c *Certificate) X509() *x509.Certificate {
	return c.cert
}

// JWK returns the public JSON Web Key for the credential, suitable for
// registering with an authorization server's jwks.  The key id is the
// thumbprint, so it matches the "kid" of assertions signed by c.
func (c *Certificate) JWK() jose.JSONWebKey {
	return jose.JSONWebKey{
		Key:                       &c.key.PublicKey,
		KeyID:                     c.thumbprint,
		Algorithm:                 string(RS256),
		Use:                       "sig",
		Certificates:              []*x509.Certificate{c.cert},
		CertificateThumbprintSHA1: c.sha1,
	}
}
