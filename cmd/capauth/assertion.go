// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"

	"github.com/hashicorp/capauth/clientassertion"
	"github.com/spf13/cobra"
)

func newAssertionCmd(cfg *Config) *cobra.Command {
	var audience string
	var unsigned, decode bool
	cmd := &cobra.Command{
		Use:   "assertion",
		Short: "Print a client assertion JWT",
		Long: `Print a client assertion JWT for the client id.  The audience defaults
to the token endpoint.  Without --unsigned a certificate file is required.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if audience == "" {
				audience = cfg.TokenEndpoint
			}
			j, err := clientassertion.NewJWT(cfg.ClientID, audience)
			if err != nil {
				return err
			}
			var token string
			switch {
			case unsigned:
				token, err = j.Unsigned()
			case cfg.CertificateFile == "":
				return fmt.Errorf("--certificate-file is required unless --unsigned is used: %w", clientassertion.ErrNilCredential)
			default:
				var cred clientassertion.CertificateCredential
				if cred, err = loadCredential(cfg); err != nil {
					return err
				}
				token, err = j.Sign(cred)
			}
			if err != nil {
				return err
			}
			if !decode {
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			}
			h, p, _, err := clientassertion.Parse(token)
			if err != nil {
				return err
			}
			hj, err := h.JSON()
			if err != nil {
				return err
			}
			pj, err := p.JSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(hj))
			fmt.Fprintln(cmd.OutOrStdout(), string(pj))
			return nil
		},
	}
	cmd.Flags().StringVar(&audience, "audience", "", "assertion audience (defaults to the token endpoint)")
	cmd.Flags().BoolVar(&unsigned, "unsigned", false, "print an unsigned assertion")
	cmd.Flags().BoolVar(&decode, "decode", false, "print the decoded header and payload instead of the token")
	return cmd
}
