// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package loopback provides an interactive.UI which opens the system browser
// and receives the provider's redirect on a loopback http listener.
package loopback

import (
	"context"
	"fmt"
	"html"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/hashicorp/capauth/interactive"
	"github.com/hashicorp/go-hclog"
)

const successHTML = `<!DOCTYPE html>
<html><head><title>Authentication complete</title></head>
<body><p>Authentication complete. You may close this window.</p></body></html>`

const errorHTMLFormat = `<!DOCTYPE html>
<html><head><title>Authentication failed</title></head>
<body><p>Authentication failed: %s</p></body></html>`

const shutdownTimeout = 5 * time.Second

// UI is an interactive.UI for native applications.  Each Authorize call
// serves a single redirect.
type UI struct {
	listener    net.Listener
	openBrowser func(string) error
	logger      hclog.Logger
	successHTML string
}

var _ interactive.UI = (*UI)(nil)

// New creates a loopback UI.
//
// Supported options:
//   - WithListener
//   - WithBrowserOpener
//   - WithLogger
//   - WithSuccessHTML
func New(opt ...Option) *UI {
	opts := getUIOpts(opt...)
	return &UI{
		listener:    opts.withListener,
		openBrowser: opts.withBrowserOpener,
		logger:      opts.withLogger,
		successHTML: opts.withSuccessHTML,
	}
}

// IsLoopback reports whether host is a loopback host name or address.
func IsLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (u *UI) listen(redirect *url.URL) (net.Listener, error) {
	const op = "UI.listen"
	if u.listener != nil {
		return u.listener, nil
	}
	if redirect.Scheme != "http" || !IsLoopback(redirect.Hostname()) {
		return nil, fmt.Errorf("%s: %q is not an http loopback uri: %w", op, redirect, ErrInvalidRedirectURI)
	}
	if redirect.Port() == "" {
		return nil, fmt.Errorf("%s: %q has no port: %w", op, redirect, ErrInvalidRedirectURI)
	}
	l, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrListenFailed, err)
	}
	return l, nil
}

// Authorize implements interactive.UI.  It listens for the redirect, opens
// the browser at authorizationURI and delivers exactly one result: the
// redirect's outcome, or UserCancel if ctx is done first.
func (u *UI) Authorize(ctx context.Context, authorizationURI, redirectURI string) (<-chan interactive.AuthorizationResult, error) {
	const op = "UI.Authorize"
	redirect, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidRedirectURI, err)
	}
	l, err := u.listen(redirect)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resultCh := make(chan interactive.AuthorizationResult, 1)
	doneCh := make(chan struct{})
	var once sync.Once
	deliver := func(r interactive.AuthorizationResult) {
		once.Do(func() {
			resultCh <- r
			close(resultCh)
			close(doneCh)
		})
	}

	path := redirect.Path
	if path == "" {
		path = "/"
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, req *http.Request) {
		r := interactive.ResultFromRedirect(req.URL)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if r.Status() == interactive.Success {
			_, _ = w.Write([]byte(u.successHTML))
		} else {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = fmt.Fprintf(w, errorHTMLFormat, html.EscapeString(r.Error()+" "+r.ErrorDescription()))
		}
		deliver(r)
	})
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.Serve(l); err != nil && err != http.ErrServerClosed {
			u.logger.Error("loopback server failed", "error", err)
			deliver(interactive.NewAuthorizationResult(interactive.ErrorHTTP, "", "", err.Error()))
		}
	}()
	go func() {
		select {
		case <-ctx.Done():
			deliver(interactive.NewAuthorizationResult(interactive.UserCancel, "", "", ctx.Err().Error()))
		case <-doneCh:
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	u.logger.Debug("opening browser", "redirect_uri", redirectURI)
	if err := u.openBrowser(authorizationURI); err != nil {
		deliver(interactive.NewAuthorizationResult(interactive.Unknown, "", "", err.Error()))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrOpenBrowserFailed, err)
	}
	return resultCh, nil
}
