// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package capauth_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/capauth/acquire"
	"github.com/hashicorp/capauth/authority"
	"github.com/hashicorp/capauth/cache"
	"github.com/hashicorp/capauth/clientassertion"
	"github.com/hashicorp/capauth/interactive"
	"github.com/hashicorp/capauth/loopback"
)

func Example_interactive() {
	ctx := context.Background()

	// Discover the provider's endpoints.
	a, err := authority.Discover(ctx, "https://your-issuer.com/")
	if err != nil {
		// handle error
		return
	}

	// Load the client's certificate and key.
	cred, err := clientassertion.CertificateFromPEM([]byte("-----BEGIN CERTIFICATE-----..."))
	if err != nil {
		// handle error
		return
	}

	// Create the authorization code flow, using the system browser and a
	// loopback listener.
	f, err := interactive.New(
		a,
		[]string{"openid", "profile"},
		"your_client_id",
		"http://localhost:8250/callback",
		loopback.New(),
		interactive.WithLoginHint("alice@example.com"),
	)
	if err != nil {
		// handle error
		return
	}

	c := cache.NewMemory()
	req := f.Request()
	req.Credential = cred

	// A cached token needs no interaction.
	r, err := acquire.AcquireSilent(ctx, req, acquire.WithCache(c))
	switch {
	case errors.Is(err, acquire.ErrInteractionRequired):
		h, err := acquire.NewHandler(req, f, acquire.WithCache(c))
		if err != nil {
			// handle error
			return
		}
		if r, err = h.Run(acquire.WithCorrelationID(ctx, "your-correlation-id")); err != nil {
			// handle error
			return
		}
	case err != nil:
		// handle error
		return
	}
	fmt.Println(r.Token.AccessToken)
}
