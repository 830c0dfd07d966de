// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package clientassertion builds the compact JWT a client presents as its
// client_assertion (RFC 7523) instead of a shared secret.
//
// The header and payload are encoded from fixed, ordered claim tables:
//
//	header:  {"typ":"JWT","alg":<none|RS256>,"kid":<thumbprint>?}
//	payload: {"aud":..,"iss":..,"sub":..?,"nbf":..,"exp":..,"jti":..?}
//
// Example usage:
//
//	cert, err := clientassertion.CertificateFromPEM(pemData)
//	j, err := clientassertion.NewJWT("client-id", "https://idp.example.com/token")
//	assertion, err := j.Sign(cert)
package clientassertion
