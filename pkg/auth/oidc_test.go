// SPDX-FileCopyrightText: 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func unsignedToken(t *testing.T, claims map[string]interface{}) string {
	t.Helper()

	encode := func(v interface{}) string {
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatal(err)
		}
		return base64.RawURLEncoding.EncodeToString(raw)
	}
	return encode(map[string]string{"alg": "none", "typ": "JWT"}) + "." + encode(claims) + "."
}

func TestExchangeCodeIDToken(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.PostFormValue("grant_type") != "authorization_code" {
			t.Errorf("grant_type = %q", r.PostFormValue("grant_type"))
		}
		if r.PostFormValue("code") != "the-code" {
			t.Errorf("code = %q", r.PostFormValue("code"))
		}

		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": "opaque",
			"id_token":     unsignedToken(t, map[string]interface{}{"sub": "765283"}),
		})
	}))
	defer provider.Close()

	cid, err := ExchangeCode(context.Background(), provider.Client(), OIDCProvider{TokenURL: provider.URL}, "the-code")
	if err != nil {
		t.Fatal(err)
	}
	if cid != "765283" {
		t.Errorf("cid = %q", cid)
	}
}

func TestExchangeCodeAccessTokenFallback(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "vatsim_123456"})
	}))
	defer provider.Close()

	cid, err := ExchangeCode(context.Background(), provider.Client(), OIDCProvider{TokenURL: provider.URL}, "x")
	if err != nil {
		t.Fatal(err)
	}
	if cid != "123456" {
		t.Errorf("cid = %q", cid)
	}
}

func TestExchangeCodeProviderRejects(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid_grant", http.StatusBadRequest)
	}))
	defer provider.Close()

	_, err := ExchangeCode(context.Background(), provider.Client(), OIDCProvider{TokenURL: provider.URL}, "bad")
	var authErr *Error
	if !errors.As(err, &authErr) || authErr.Code != ErrOidcExchangeFailed {
		t.Fatalf("expected OidcExchangeFailed, got %v", err)
	}
}

func TestExchangeCodeProviderUnreachable(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	provider.Close() // nothing listens any more

	_, err := ExchangeCode(context.Background(), http.DefaultClient, OIDCProvider{TokenURL: provider.URL}, "x")
	var authErr *Error
	if !errors.As(err, &authErr) || authErr.Code != ErrProviderUnreachable {
		t.Fatalf("expected ProviderUnreachable, got %v", err)
	}
}

func TestExchangeCodeEmptyTokens(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer provider.Close()

	_, err := ExchangeCode(context.Background(), provider.Client(), OIDCProvider{TokenURL: provider.URL}, "x")
	var authErr *Error
	if !errors.As(err, &authErr) || authErr.Code != ErrOidcExchangeFailed {
		t.Fatalf("expected OidcExchangeFailed, got %v", err)
	}
}

func TestCidFromAccessToken(t *testing.T) {
	tests := []struct {
		token string
		cid   string
		fails bool
	}{
		{"vatsim_123456", "123456", false},
		{"some_prefix_12345", "12345", false},
		{"nounderscore", "nounderscore", false},
		{"vatsim_", "", true},
	}

	for _, test := range tests {
		cid, err := cidFromAccessToken(test.token)
		if test.fails {
			if err == nil {
				t.Errorf("cidFromAccessToken(%q) should fail", test.token)
			}
			continue
		}
		if err != nil {
			t.Errorf("cidFromAccessToken(%q) errored: %v", test.token, err)
		} else if cid != test.cid {
			t.Errorf("cidFromAccessToken(%q) = %q", test.token, cid)
		}
	}
}
