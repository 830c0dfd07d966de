// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/capauth/authority"
	"github.com/hashicorp/capauth/params"
	sdkHttp "github.com/hashicorp/capauth/sdk/http"
	"golang.org/x/oauth2"
)

// maxResponseSize bounds token endpoint responses.
const maxResponseSize = 1 << 20

// CorrelationHeader carries the correlation id of a token request.
const CorrelationHeader = "client-request-id"

// Exchanger performs the token request.
type Exchanger interface {
	Exchange(ctx context.Context, a *authority.Authority, form *params.Set) (*Result, error)
}

// HTTPExchanger posts token requests to the authority's token endpoint.
type HTTPExchanger struct {
	client *http.Client
	now    func() time.Time
}

var _ Exchanger = (*HTTPExchanger)(nil)

// NewHTTPExchanger creates an HTTPExchanger.  Without a client, a client is
// created per request from the authority's CA, unless ctx carries one (see
// sdk/http.ClientContext).
func NewHTTPExchanger(client *http.Client) *HTTPExchanger {
	return &HTTPExchanger{client: client, now: time.Now}
}

func (e *HTTPExchanger) httpClient(ctx context.Context, a *authority.Authority) (*http.Client, error) {
	if e.client != nil {
		return e.client, nil
	}
	if c, ok := ctx.Value(oauth2.HTTPClient).(*http.Client); ok && c != nil {
		return c, nil
	}
	return sdkHttp.NewClient(a.ProviderCA())
}

// Exchange implements Exchanger.
func (e *HTTPExchanger) Exchange(ctx context.Context, a *authority.Authority, form *params.Set) (*Result, error) {
	const op = "HTTPExchanger.Exchange"
	switch {
	case a == nil:
		return nil, fmt.Errorf("%s: authority is nil: %w", op, ErrNilParameter)
	case form == nil:
		return nil, fmt.Errorf("%s: form is nil: %w", op, ErrNilParameter)
	}
	client, err := e.httpClient(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create http client: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.TokenEndpoint(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrExchangeFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	correlationID := CorrelationID(ctx)
	if correlationID != "" {
		req.Header.Set(CorrelationHeader, correlationID)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrExchangeFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%s: unable to read response: %w: %w", op, ErrExchangeFailed, err)
	}

	tr, err := parseTokenResponse(resp.Header.Get("Content-Type"), body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &ServiceError{StatusCode: resp.StatusCode, CorrelationID: correlationID}
		if err == nil {
			se.Code, se.Description = tr.Error, tr.ErrorDescription
		}
		return nil, fmt.Errorf("%s: %w", op, se)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrExchangeFailed, err)
	}
	if tr.Error != "" {
		return nil, fmt.Errorf("%s: %w", op, &ServiceError{
			Code:          tr.Error,
			Description:   tr.ErrorDescription,
			StatusCode:    resp.StatusCode,
			CorrelationID: correlationID,
		})
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("%s: response is missing access_token: %w", op, ErrExchangeFailed)
	}
	return tr.result(e.now()), nil
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int64  `json:"expires_in"`
	IDToken          string `json:"id_token"`
	Scope            string `json:"scope"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`

	raw map[string]interface{}
}

// expiresIn accepts both numbers and strings, some providers send the latter.
type expiresIn int64

func (e *expiresIn) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n = json.Number(s)
	}
	i, err := n.Int64()
	if err != nil {
		return err
	}
	*e = expiresIn(i)
	return nil
}

func parseTokenResponse(contentType string, body []byte) (*tokenResponse, error) {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "application/x-www-form-urlencoded" || mediaType == "text/plain" {
		vals, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, err
		}
		tr := &tokenResponse{
			AccessToken:      vals.Get("access_token"),
			TokenType:        vals.Get("token_type"),
			RefreshToken:     vals.Get("refresh_token"),
			IDToken:          vals.Get("id_token"),
			Scope:            vals.Get("scope"),
			Error:            vals.Get("error"),
			ErrorDescription: vals.Get("error_description"),
			raw:              map[string]interface{}{},
		}
		if v := vals.Get("expires_in"); v != "" {
			if tr.ExpiresIn, err = strconv.ParseInt(v, 10, 64); err != nil {
				return nil, fmt.Errorf("expires_in: %w", err)
			}
		}
		for k := range vals {
			tr.raw[k] = vals.Get(k)
		}
		return tr, nil
	}

	var wire struct {
		tokenResponse
		ExpiresIn expiresIn `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, err
	}
	tr := wire.tokenResponse
	tr.ExpiresIn = int64(wire.ExpiresIn)
	if err := json.Unmarshal(body, &tr.raw); err != nil {
		return nil, err
	}
	return &tr, nil
}

func (tr *tokenResponse) result(now time.Time) *Result {
	tk := &oauth2.Token{
		AccessToken:  tr.AccessToken,
		TokenType:    tr.TokenType,
		RefreshToken: tr.RefreshToken,
	}
	if tr.ExpiresIn > 0 {
		tk.ExpiresIn = tr.ExpiresIn
		tk.Expiry = now.Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	r := &Result{
		Token:   tk.WithExtra(tr.raw),
		IDToken: tr.IDToken,
	}
	if tr.Scope != "" {
		r.Scopes = strings.Fields(tr.Scope)
	}
	return r
}
