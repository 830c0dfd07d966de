// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/capauth/acquire"
	"github.com/hashicorp/capauth/internal/clientinfo"
	"github.com/hashicorp/capauth/logging"
	"github.com/spf13/cobra"
)

// Exit codes for capauth commands.
const (
	ExitCodeSuccess             = 0
	ExitCodeError               = 1
	ExitCodeInteractionRequired = 2
	ExitCodeServiceError        = 3
)

// newRootCmd creates the capauth command tree.  Each call returns a fresh
// tree so tests can execute commands independently.
func newRootCmd() *cobra.Command {
	var configFile string
	cfg := &Config{}

	root := &cobra.Command{
		Use:           "capauth",
		Short:         "Acquire OAuth2 access tokens from an identity provider",
		Version:       clientinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := LoadConfig(configFile, os.Getenv)
			if err != nil {
				return err
			}
			loaded.merge(*cfg, cmd.Flags().Changed)
			*cfg = loaded

			l, err := logging.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			logging.SetLevel(l)
			return nil
		},
	}
	root.SetVersionTemplate(`{{printf "capauth version %s\n" .Version}}`)

	pf := root.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "path to a YAML config file (env "+envPrefix+"CONFIG)")
	bindFlags(pf, cfg)

	root.AddCommand(newAcquireCmd(cfg))
	root.AddCommand(newAssertionCmd(cfg))
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the capauth command and exits with a code describing the
// outcome.
func Execute() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		root.PrintErrln("Error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to a process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitCodeSuccess
	case acquire.IsInteractionRequired(err):
		return ExitCodeInteractionRequired
	case errors.Is(err, acquire.ErrServiceError):
		return ExitCodeServiceError
	default:
		return ExitCodeError
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of capauth",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "capauth version %s (%s)\n", clientinfo.Version, clientinfo.SKU)
		},
	}
}
