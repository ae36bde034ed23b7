// SPDX-FileCopyrightText: 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

// mock-oidc is a minimal OIDC identity provider for development setups.
// Any authorization code of the form "code_{cid}" authenticates as that
// CID; the token endpoint answers with an access token and an unsigned ID
// token whose sub claim carries the CID.
package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/gorilla/mux"
)

// tokenResponse is the OIDC token endpoint answer.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	IDToken     string `json:"id_token"`
}

// handleToken implements the authorization-code grant. The code carries
// the CID after its last underscore, mirroring the access token format.
func handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form body", http.StatusBadRequest)
		return
	}

	code := r.PostFormValue("code")
	grantType := r.PostFormValue("grant_type")
	if code == "" || grantType != "authorization_code" {
		http.Error(w, "invalid_grant", http.StatusBadRequest)
		return
	}

	cid := code[strings.LastIndexByte(code, '_')+1:]
	if cid == "" {
		http.Error(w, "invalid_grant", http.StatusBadRequest)
		return
	}

	log.WithField("cid", cid).Info("Issuing mock tokens")

	response := tokenResponse{
		AccessToken: fmt.Sprintf("vatsim_%s", cid),
		TokenType:   "Bearer",
		ExpiresIn:   3600,
		IDToken:     unsignedIDToken(cid),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.WithError(err).Warn("Failed to write token response")
	}
}

// handleAuthorize shortcuts the browser flow: it answers with a code for
// the requested CID so manual testing needs no UI.
func handleAuthorize(w http.ResponseWriter, r *http.Request) {
	cid := r.URL.Query().Get("cid")
	if cid == "" {
		http.Error(w, "cid query parameter required", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{
		"code": fmt.Sprintf("code_%s", cid),
	}); err != nil {
		log.WithError(err).Warn("Failed to write authorize response")
	}
}

// unsignedIDToken builds an alg:none ID token carrying the sub claim.
func unsignedIDToken(cid string) string {
	encode := func(v interface{}) string {
		raw, _ := json.Marshal(v)
		return base64.RawURLEncoding.EncodeToString(raw)
	}

	header := encode(map[string]string{"alg": "none", "typ": "JWT"})
	now := time.Now().Unix()
	claims := encode(map[string]interface{}{
		"iss": "mock-oidc",
		"sub": cid,
		"iat": now,
		"exp": now + 3600,
	})
	return header + "." + claims + "."
}

func main() {
	port := os.Getenv("MOCK_OIDC_PORT")
	if port == "" {
		port = "4000"
	}

	router := mux.NewRouter()
	router.HandleFunc("/token", handleToken).Methods(http.MethodPost)
	router.HandleFunc("/authorize", handleAuthorize).Methods(http.MethodGet)

	address := ":" + port
	log.WithField("address", address).Info("Mock OIDC provider listening")
	if err := http.ListenAndServe(address, router); err != nil {
		log.WithError(err).Fatal("Mock OIDC provider stopped")
	}
}
