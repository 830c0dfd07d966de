// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const envPrefix = "CAPAUTH_"

// Config configures the capauth commands.  Values come from an optional
// YAML file, then CAPAUTH_* environment variables, then flags.
type Config struct {
	Issuer                string   `yaml:"issuer"`
	AuthorizationEndpoint string   `yaml:"authorization_endpoint"`
	TokenEndpoint         string   `yaml:"token_endpoint"`
	ProviderCAFile        string   `yaml:"provider_ca_file"`
	ClientID              string   `yaml:"client_id"`
	Scopes                []string `yaml:"scopes"`
	AdditionalScopes      []string `yaml:"additional_scopes"`
	RedirectURI           string   `yaml:"redirect_uri"`
	LoginHint             string   `yaml:"login_hint"`
	Prompt                string   `yaml:"prompt"`
	UILocales             []string `yaml:"ui_locales"`
	ExtraQueryParameters  string   `yaml:"extra_query_parameters"`
	CertificateFile       string   `yaml:"certificate_file"`
	LogLevel              string   `yaml:"log_level"`
}

// binding ties a Config field to its flag and environment variable.  Exactly
// one of str and list is set.
type binding struct {
	name  string
	usage string
	str   func(*Config) *string
	list  func(*Config) *[]string
}

func (b binding) env() string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(b.name, "-", "_"))
}

var bindings = []binding{
	{name: "issuer", usage: "issuer used to discover the provider's endpoints", str: func(c *Config) *string { return &c.Issuer }},
	{name: "authorization-endpoint", usage: "authorization endpoint, instead of discovery", str: func(c *Config) *string { return &c.AuthorizationEndpoint }},
	{name: "token-endpoint", usage: "token endpoint, instead of discovery", str: func(c *Config) *string { return &c.TokenEndpoint }},
	{name: "provider-ca-file", usage: "PEM file of CA certificates trusted for the provider", str: func(c *Config) *string { return &c.ProviderCAFile }},
	{name: "client-id", usage: "client id", str: func(c *Config) *string { return &c.ClientID }},
	{name: "scopes", usage: "target scopes", list: func(c *Config) *[]string { return &c.Scopes }},
	{name: "additional-scopes", usage: "scopes consented to without being requested", list: func(c *Config) *[]string { return &c.AdditionalScopes }},
	{name: "redirect-uri", usage: "loopback redirect uri", str: func(c *Config) *string { return &c.RedirectURI }},
	{name: "login-hint", usage: "login hint", str: func(c *Config) *string { return &c.LoginHint }},
	{name: "prompt", usage: "prompt: none, login, consent, select_account or create", str: func(c *Config) *string { return &c.Prompt }},
	{name: "ui-locales", usage: "preferred UI languages (BCP 47)", list: func(c *Config) *[]string { return &c.UILocales }},
	{name: "extra-query-parameters", usage: "encoded query string appended to the authorization request", str: func(c *Config) *string { return &c.ExtraQueryParameters }},
	{name: "certificate-file", usage: "PEM file holding the client certificate and its RSA key", str: func(c *Config) *string { return &c.CertificateFile }},
	{name: "log-level", usage: "log level: none, critical, error, warning, info, verbose, always", str: func(c *Config) *string { return &c.LogLevel }},
}

func defaultConfig() Config {
	return Config{
		RedirectURI: "http://localhost:8250/callback",
		LogLevel:    "warning",
	}
}

// bindFlags registers a flag per binding, storing values in cfg.
func bindFlags(fs *pflag.FlagSet, cfg *Config) {
	for _, b := range bindings {
		usage := fmt.Sprintf("%s (env %s)", b.usage, b.env())
		if b.str != nil {
			fs.StringVar(b.str(cfg), b.name, "", usage)
			continue
		}
		fs.StringSliceVar(b.list(cfg), b.name, nil, usage)
	}
}

// LoadConfig returns the defaults overridden by the YAML file at path (or
// named by CAPAUTH_CONFIG) and then by the environment.
func LoadConfig(path string, getenv func(string) string) (Config, error) {
	const op = "LoadConfig"
	cfg := defaultConfig()
	if path == "" {
		path = getenv(envPrefix + "CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", op, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%s: error loading config from %s: %w", op, path, err)
		}
	}
	for _, b := range bindings {
		v := getenv(b.env())
		if v == "" {
			continue
		}
		if b.str != nil {
			*b.str(&cfg) = v
			continue
		}
		*b.list(&cfg) = splitList(v)
	}
	return cfg, nil
}

// merge overrides c with the values of flags which were set.
func (c *Config) merge(flags Config, changed func(string) bool) {
	for _, b := range bindings {
		if !changed(b.name) {
			continue
		}
		if b.str != nil {
			*b.str(c) = *b.str(&flags)
			continue
		}
		*b.list(c) = append([]string(nil), *b.list(&flags)...)
	}
}

func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
}
