// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package interactive

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hashicorp/capauth/acquire"
	"github.com/hashicorp/capauth/authority"
	"github.com/hashicorp/capauth/internal/clientinfo"
	"github.com/hashicorp/capauth/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"golang.org/x/text/language"
)

const testRedirect = "http://localhost:8250/callback"

func testAuthority(t *testing.T) *authority.Authority {
	t.Helper()
	a, err := authority.New("https://idp.example.com/authorize", "https://idp.example.com/token")
	require.NoError(t, err)
	return a
}

// testUI records what it was asked to show and answers with res.
type testUI struct {
	res     AuthorizationResult
	err     error
	noReply bool
	closed  bool

	gotAuthURI  string
	gotRedirect string
}

func (u *testUI) Authorize(_ context.Context, authURI, redirectURI string) (<-chan AuthorizationResult, error) {
	u.gotAuthURI, u.gotRedirect = authURI, redirectURI
	if u.err != nil {
		return nil, u.err
	}
	ch := make(chan AuthorizationResult, 1)
	switch {
	case u.closed:
		close(ch)
	case u.noReply:
	default:
		ch <- u.res
	}
	return ch, nil
}

func TestNew(t *testing.T) {
	t.Parallel()
	a := testAuthority(t)
	ui := &testUI{}
	tests := []struct {
		name        string
		authority   *authority.Authority
		scopes      []string
		clientID    string
		redirectURI string
		ui          UI
		opts        []Option
		wantErr     bool
		wantIsErr   []error
		wantKey     string
	}{
		{
			name:        "valid",
			authority:   a,
			scopes:      []string{"openid"},
			clientID:    "client",
			redirectURI: testRedirect,
			ui:          ui,
		},
		{
			name:        "fragment",
			authority:   a,
			scopes:      []string{"openid"},
			clientID:    "client",
			redirectURI: "http://localhost/callback#frag",
			ui:          ui,
			wantErr:     true,
			wantIsErr:   []error{ErrRedirectURIContainsFragment},
		},
		{
			name:        "empty-fragment",
			authority:   a,
			scopes:      []string{"openid"},
			clientID:    "client",
			redirectURI: "http://localhost/callback#",
			ui:          ui,
			wantErr:     true,
			wantIsErr:   []error{ErrRedirectURIContainsFragment},
		},
		{
			name:        "relative-fragment",
			authority:   a,
			scopes:      []string{"openid"},
			clientID:    "client",
			redirectURI: "/callback#frag",
			ui:          ui,
			wantErr:     true,
			wantIsErr:   []error{ErrRedirectURIContainsFragment},
		},
		{
			name:        "relative",
			authority:   a,
			scopes:      []string{"openid"},
			clientID:    "client",
			redirectURI: "/callback",
			ui:          ui,
			wantErr:     true,
			wantIsErr:   []error{ErrInvalidRedirectURI},
		},
		{
			name:      "everything-missing",
			wantErr:   true,
			wantIsErr: []error{ErrNilParameter, ErrInvalidParameter, ErrInvalidRedirectURI},
		},
		{
			name:        "blank-additional-scope",
			authority:   a,
			scopes:      []string{"openid"},
			clientID:    "client",
			redirectURI: testRedirect,
			ui:          ui,
			opts:        []Option{WithAdditionalScopes(" ")},
			wantErr:     true,
			wantIsErr:   []error{ErrInvalidParameter},
		},
		{
			name:        "bad-prompt",
			authority:   a,
			scopes:      []string{"openid"},
			clientID:    "client",
			redirectURI: testRedirect,
			ui:          ui,
			opts:        []Option{WithPrompt("always")},
			wantErr:     true,
			wantIsErr:   []error{ErrInvalidParameter},
		},
		{
			name:        "duplicate-extra",
			authority:   a,
			scopes:      []string{"openid"},
			clientID:    "client",
			redirectURI: testRedirect,
			ui:          ui,
			opts:        []Option{WithExtraQueryParameters("dc=1&client_id=evil")},
			wantErr:     true,
			wantIsErr:   []error{ErrDuplicateQueryParameter, params.ErrDuplicateParameter},
			wantKey:     "client_id",
		},
		{
			name:        "duplicate-library-param",
			authority:   a,
			scopes:      []string{"openid"},
			clientID:    "client",
			redirectURI: testRedirect,
			ui:          ui,
			opts:        []Option{WithExtraQueryParameters(clientinfo.ParamSKU + "=other")},
			wantErr:     true,
			wantIsErr:   []error{ErrDuplicateQueryParameter},
			wantKey:     clientinfo.ParamSKU,
		},
		{
			name:        "duplicate-platform-param",
			authority:   a,
			scopes:      []string{"openid"},
			clientID:    "client",
			redirectURI: testRedirect,
			ui:          ui,
			opts:        []Option{WithPlatformParameters(params.Pair{Key: "scope", Value: "x"})},
			wantErr:     true,
			wantIsErr:   []error{ErrDuplicateQueryParameter},
			wantKey:     "scope",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			f, err := New(tt.authority, tt.scopes, tt.clientID, tt.redirectURI, tt.ui, tt.opts...)
			if tt.wantErr {
				require.Error(err)
				assert.Nil(f)
				for _, want := range tt.wantIsErr {
					assert.ErrorIs(err, want)
				}
				if tt.wantKey != "" {
					var dup *params.DuplicateParameterError
					require.ErrorAs(err, &dup)
					assert.Equal(tt.wantKey, dup.Key)
				}
				return
			}
			require.NoError(err)
			assert.Equal(GrantTypeAuthorizationCode, f.GrantType())
			assert.Equal(tt.redirectURI, f.RedirectURI())
			_, ok := f.Result()
			assert.False(ok)
		})
	}
}

func TestNew_ExtraQueryParameters(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "&a=1&b=2", want: "a=1&b=2"},
		{raw: "&&a=1", want: "&a=1"},
		{raw: "a=1", want: "a=1"},
		{raw: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			f, err := New(testAuthority(t), []string{"openid"}, "client", testRedirect, &testUI{},
				WithExtraQueryParameters(tt.raw),
				WithLoginHint("user@x.com"),
			)
			require.NoError(err)
			assert.Equal(tt.want, f.ExtraQueryParameters())
			assert.Equal(acquire.BrokerParameters{
				acquire.BrokerForce:            "NO",
				acquire.BrokerUsername:         "user@x.com",
				acquire.BrokerRedirectURI:      testRedirect,
				acquire.BrokerExtraQueryParams: tt.want,
			}, f.BrokerParameters())
		})
	}
}

func TestFlow_AuthorizationURI(t *testing.T) {
	t.Parallel()
	libParams := params.New()
	clientinfo.Apply(libParams)
	lib := libParams.Encode()

	tests := []struct {
		name          string
		opts          []Option
		correlationID string
		want          string
	}{
		{
			name: "minimal",
			want: "https://idp.example.com/authorize?response_type=code&redirect_uri=http%3A%2F%2Flocalhost%3A8250%2Fcallback&" +
				lib + "&client_id=client&scope=openid+profile",
		},
		{
			name: "blank-login-hint",
			opts: []Option{WithLoginHint("  ")},
			want: "https://idp.example.com/authorize?response_type=code&redirect_uri=http%3A%2F%2Flocalhost%3A8250%2Fcallback&" +
				lib + "&client_id=client&scope=openid+profile",
		},
		{
			name:          "everything",
			correlationID: "corr-id",
			opts: []Option{
				WithLoginHint("user@x.com"),
				WithAdditionalScopes("offline_access", "openid"),
				WithPrompt(SelectAccount),
				WithUILocales(language.BritishEnglish, language.French),
				WithPlatformParameters(params.Pair{Key: "brk", Value: "1"}),
				WithExtraQueryParameters("&dc=ESTS-PUB&x=a%20b"),
			},
			want: "https://idp.example.com/authorize?response_type=code&redirect_uri=http%3A%2F%2Flocalhost%3A8250%2Fcallback" +
				"&login_hint=user%40x.com&correlation_id=corr-id&" + lib +
				"&client_id=client&scope=openid+profile+offline_access&prompt=select_account&ui_locales=en-GB+fr&brk=1" +
				"&dc=ESTS-PUB&x=a%20b",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			f, err := New(testAuthority(t), []string{"openid", "profile"}, "client", testRedirect, &testUI{}, tt.opts...)
			require.NoError(err)
			ctx := context.Background()
			if tt.correlationID != "" {
				ctx = acquire.WithCorrelationID(ctx, tt.correlationID)
			}
			got, err := f.AuthorizationURI(ctx)
			require.NoError(err)
			assert.Equal(tt.want, got)
		})
	}
}

func TestFlow_AuthorizationURI_CorrelationCollision(t *testing.T) {
	t.Parallel()
	f, err := New(testAuthority(t), []string{"openid"}, "client", testRedirect, &testUI{},
		WithExtraQueryParameters("correlation_id=mine"))
	require.NoError(t, err)

	_, err = f.AuthorizationURI(context.Background())
	require.NoError(t, err)

	_, err = f.AuthorizationURI(acquire.WithCorrelationID(context.Background(), "corr"))
	require.ErrorIs(t, err, ErrDuplicateQueryParameter)
	var dup *params.DuplicateParameterError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, ParamCorrelationID, dup.Key)
}

func TestFlow_PreStep(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		ui        *testUI
		ctx       func() context.Context
		wantErr   bool
		wantIsErr error
		wantCode  string
		wantSE    *acquire.ServiceError
	}{
		{
			name:     "success",
			ui:       &testUI{res: NewAuthorizationResult(Success, "abc", "", "")},
			wantCode: "abc",
		},
		{
			name:      "login-required",
			ui:        &testUI{res: NewAuthorizationResult(ProtocolError, "", "login_required", "prompt=none failed")},
			wantErr:   true,
			wantIsErr: acquire.ErrInteractionRequired,
		},
		{
			name:      "login-required-with-success-status",
			ui:        &testUI{res: NewAuthorizationResult(Success, "abc", "login_required", "")},
			wantErr:   true,
			wantIsErr: acquire.ErrInteractionRequired,
		},
		{
			name:      "provider-error",
			ui:        &testUI{res: NewAuthorizationResult(ProtocolError, "", "access_denied", "user said no")},
			wantErr:   true,
			wantIsErr: acquire.ErrServiceError,
			wantSE:    &acquire.ServiceError{Code: "access_denied", Description: "user said no"},
		},
		{
			name:      "http-error",
			ui:        &testUI{res: NewAuthorizationResult(ErrorHTTP, "", "server_error", "")},
			wantErr:   true,
			wantIsErr: acquire.ErrServiceError,
			wantSE:    &acquire.ServiceError{Code: "server_error"},
		},
		{
			name:      "user-cancel",
			ui:        &testUI{res: NewAuthorizationResult(UserCancel, "", "", "")},
			wantErr:   true,
			wantIsErr: acquire.ErrServiceError,
			wantSE:    &acquire.ServiceError{},
		},
		{
			name:      "ui-error",
			ui:        &testUI{err: errors.New("no browser")},
			wantErr:   true,
			wantIsErr: acquire.ErrServiceError,
			wantSE:    &acquire.ServiceError{Description: "no browser"},
		},
		{
			name:      "ui-closed",
			ui:        &testUI{closed: true},
			wantErr:   true,
			wantIsErr: acquire.ErrServiceError,
		},
		{
			name: "canceled",
			ui:   &testUI{noReply: true},
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
			wantErr:   true,
			wantIsErr: acquire.ErrServiceError,
		},
		{
			name:      "missing-code",
			ui:        &testUI{res: NewAuthorizationResult(Success, "", "", "")},
			wantErr:   true,
			wantIsErr: ErrMissingAuthorizationCode,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			f, err := New(testAuthority(t), []string{"openid"}, "client", testRedirect, tt.ui)
			require.NoError(err)
			ctx := context.Background()
			if tt.ctx != nil {
				ctx = tt.ctx()
			}
			err = f.PreStep(ctx)
			assert.Equal(testRedirect, tt.ui.gotRedirect)
			assert.True(strings.HasPrefix(tt.ui.gotAuthURI, "https://idp.example.com/authorize?response_type=code&"))
			if tt.wantErr {
				require.Error(err)
				assert.ErrorIs(err, tt.wantIsErr)
				if tt.wantSE != nil {
					var se *acquire.ServiceError
					require.ErrorAs(err, &se)
					assert.Equal(tt.wantSE, se)
				}
				_, ok := f.Result()
				assert.False(ok)
				assert.ErrorIs(f.AugmentRequestParameters(params.New()), ErrNoAuthorizationResult)
				return
			}
			require.NoError(err)
			r, ok := f.Result()
			require.True(ok)
			assert.Equal(tt.wantCode, r.Code())

			p := params.New()
			p.Set(acquire.ParamClientID, "client")
			require.NoError(f.AugmentRequestParameters(p))
			assert.Equal([]string{acquire.ParamClientID, acquire.ParamGrantType, ParamCode, ParamRedirectURI}, p.Keys())
			got, _ := p.Get(acquire.ParamGrantType)
			assert.Equal(GrantTypeAuthorizationCode, got)
			got, _ = p.Get(ParamCode)
			assert.Equal(tt.wantCode, got)
			got, _ = p.Get(ParamRedirectURI)
			assert.Equal(testRedirect, got)
			assert.NoError(f.PostStep(context.Background(), nil))
		})
	}
}

func TestFlow_Broker(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		code         string
		wantRequired bool
		wantUsername string
		wantErr      bool
	}{
		{name: "not-broker", code: "abc"},
		{name: "install", code: "msauth://install", wantRequired: true, wantErr: true},
		{
			name:         "username",
			code:         "msauth://com.example.app/?username%3Dalice%40example.com%26wpj%3D1",
			wantRequired: true,
			wantUsername: "alice@example.com",
		},
		{
			name:         "plain-query",
			code:         "msauth://com.example.app/?wpj=1&username=bob",
			wantRequired: true,
			wantUsername: "bob",
		},
		{name: "prefix-not-at-start", code: "x-msauth://install"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			ui := &testUI{res: NewAuthorizationResult(Success, tt.code, "", "")}
			f, err := New(testAuthority(t), []string{"openid"}, "client", testRedirect, ui, WithLoginHint("hint"))
			require.NoError(err)
			assert.False(f.BrokerInvocationRequired())
			require.NoError(f.PreStep(context.Background()))
			assert.Equal(tt.wantRequired, f.BrokerInvocationRequired())

			bp := f.BrokerParameters()
			if !tt.wantRequired {
				assert.NotContains(bp, acquire.BrokerInstallURL)
				return
			}
			assert.Equal(tt.code, bp[acquire.BrokerInstallURL])
			assert.Equal("hint", bp[acquire.BrokerUsername])

			err = f.UpdateBrokerParameters(bp)
			if tt.wantErr {
				require.ErrorIs(err, acquire.ErrBrokerParameter)
				return
			}
			require.NoError(err)
			assert.Equal(tt.wantUsername, bp[acquire.BrokerUsername])
			assert.Equal("hint", f.BrokerParameters()[acquire.BrokerUsername])
		})
	}
}

func TestFlow_WithHandler(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)

	var gotForm url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()
	a, err := authority.New(srv.URL+"/authorize", srv.URL+"/token")
	require.NoError(err)

	ui := UIFunc(func(ctx context.Context, authURI, redirectURI string) (<-chan AuthorizationResult, error) {
		u, err := url.Parse(authURI)
		if err != nil {
			return nil, err
		}
		if u.Query().Get(ParamCorrelationID) != "corr" {
			return ResultChannel(NewAuthorizationResult(ProtocolError, "", "invalid_request", "no correlation id")), nil
		}
		return ResultChannel(NewAuthorizationResult(Success, "the-code", "", "")), nil
	})
	f, err := New(a, []string{"openid"}, "client", testRedirect, ui, WithAdditionalScopes("offline_access"))
	require.NoError(err)
	h, err := acquire.NewHandler(f.Request(), f, acquire.WithExchanger(acquire.NewHTTPExchanger(srv.Client())))
	require.NoError(err)

	r, err := h.Run(acquire.WithCorrelationID(context.Background(), "corr"))
	require.NoError(err)
	assert.Equal(acquire.Succeeded, h.State())
	assert.Equal("at", r.Token.AccessToken)
	assert.Equal("corr", r.CorrelationID)
	assert.Equal(url.Values{
		"client_id":    {"client"},
		"scope":        {"openid"},
		"grant_type":   {"authorization_code"},
		"code":         {"the-code"},
		"redirect_uri": {testRedirect},
	}, gotForm)
	var _ oauth2.TokenSource = r.TokenSource()
}

func TestFlow_WithHandler_LoginRequired(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	ui := &testUI{res: NewAuthorizationResult(ProtocolError, "", "login_required", "")}
	f, err := New(testAuthority(t), []string{"openid"}, "client", testRedirect, ui)
	require.NoError(err)
	ex := &countingExchanger{}
	h, err := acquire.NewHandler(f.Request(), f, acquire.WithExchanger(ex))
	require.NoError(err)

	_, err = h.Run(context.Background())
	require.ErrorIs(err, acquire.ErrInteractionRequired)
	assert.True(acquire.IsInteractionRequired(err))
	assert.Equal(acquire.Failed, h.State())
	assert.Equal(0, ex.calls)
}

type countingExchanger struct {
	calls int
}

func (e *countingExchanger) Exchange(context.Context, *authority.Authority, *params.Set) (*acquire.Result, error) {
	e.calls++
	return nil, errors.New("unexpected exchange")
}
