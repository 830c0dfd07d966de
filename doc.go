// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// capauth acquires OAuth2 access tokens for native applications.
//
// An interactive.Flow obtains an authorization code through a UI (see the
// loopback package), and an acquire.Handler exchanges it at the token
// endpoint, optionally authenticating the client with a certificate signed
// client assertion (see clientassertion).  Tokens may be kept in a cache
// and later acquired silently with acquire.AcquireSilent.
//
// See cmd/capauth for a command line client.
package capauth
