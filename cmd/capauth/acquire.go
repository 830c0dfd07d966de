// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/hashicorp/capauth/acquire"
	"github.com/hashicorp/capauth/authority"
	"github.com/hashicorp/capauth/clientassertion"
	"github.com/hashicorp/capauth/interactive"
	"github.com/hashicorp/capauth/loopback"
	"github.com/hashicorp/capauth/sdk/id"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
)

// tokenOutput is printed by the acquire command.
type tokenOutput struct {
	AccessToken   string    `json:"access_token"`
	TokenType     string    `json:"token_type,omitempty"`
	RefreshToken  string    `json:"refresh_token,omitempty"`
	IDToken       string    `json:"id_token,omitempty"`
	Expiry        time.Time `json:"expiry,omitzero"`
	Scopes        []string  `json:"scopes,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	FromBroker    bool      `json:"from_broker,omitempty"`
}

func newAcquireCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "acquire",
		Short: "Acquire an access token interactively with the system browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			ui := loopback.New(loopback.WithBrowserOpener(func(u string) error {
				cmd.PrintErrf("Complete the login via your browser. If it does not open, visit:\n\n    %s\n\n", u)
				return loopback.OpenBrowser(u)
			}))
			r, err := runAcquire(ctx, cfg, ui)
			if err != nil {
				return err
			}
			return printJSON(cmd, tokenOutput{
				AccessToken:   r.Token.AccessToken,
				TokenType:     r.Token.Type(),
				RefreshToken:  r.Token.RefreshToken,
				IDToken:       r.IDToken,
				Expiry:        r.Token.Expiry,
				Scopes:        r.Scopes,
				CorrelationID: r.CorrelationID,
				FromBroker:    r.FromBroker,
			})
		},
	}
}

// resolveAuthority uses the configured endpoints when both are set and
// discovers them from the issuer otherwise.
func resolveAuthority(ctx context.Context, cfg *Config) (*authority.Authority, error) {
	var caPEM string
	if cfg.ProviderCAFile != "" {
		b, err := os.ReadFile(cfg.ProviderCAFile)
		if err != nil {
			return nil, fmt.Errorf("unable to read provider CA: %w", err)
		}
		caPEM = string(b)
	}
	opts := []authority.Option{authority.WithProviderCA(caPEM), authority.WithIssuer(cfg.Issuer)}
	if cfg.AuthorizationEndpoint != "" && cfg.TokenEndpoint != "" {
		return authority.New(cfg.AuthorizationEndpoint, cfg.TokenEndpoint, opts...)
	}
	if cfg.Issuer == "" {
		return nil, fmt.Errorf("either issuer or both endpoints are required: %w", authority.ErrInvalidParameter)
	}
	return authority.Discover(ctx, cfg.Issuer, opts...)
}

func loadCredential(cfg *Config) (clientassertion.CertificateCredential, error) {
	if cfg.CertificateFile == "" {
		return nil, nil
	}
	b, err := os.ReadFile(cfg.CertificateFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read certificate: %w", err)
	}
	cert, err := clientassertion.CertificateFromPEM(b)
	if err != nil {
		return nil, err
	}
	return cert, nil
}

func flowOptions(cfg *Config) ([]interactive.Option, error) {
	opts := []interactive.Option{
		interactive.WithAdditionalScopes(cfg.AdditionalScopes...),
		interactive.WithLoginHint(cfg.LoginHint),
		interactive.WithExtraQueryParameters(cfg.ExtraQueryParameters),
		interactive.WithPrompt(interactive.Prompt(cfg.Prompt)),
	}
	for _, l := range cfg.UILocales {
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("invalid ui locale %q: %w", l, err)
		}
		opts = append(opts, interactive.WithUILocales(tag))
	}
	return opts, nil
}

func runAcquire(ctx context.Context, cfg *Config, ui interactive.UI) (*acquire.Result, error) {
	a, err := resolveAuthority(ctx, cfg)
	if err != nil {
		return nil, err
	}
	cred, err := loadCredential(cfg)
	if err != nil {
		return nil, err
	}
	opts, err := flowOptions(cfg)
	if err != nil {
		return nil, err
	}
	f, err := interactive.New(a, cfg.Scopes, cfg.ClientID, cfg.RedirectURI, ui, opts...)
	if err != nil {
		return nil, err
	}
	req := f.Request()
	req.Credential = cred
	h, err := acquire.NewHandler(req, f)
	if err != nil {
		return nil, err
	}
	correlationID, err := id.NewCorrelationID()
	if err != nil {
		return nil, err
	}
	return h.Run(acquire.WithCorrelationID(ctx, correlationID))
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
