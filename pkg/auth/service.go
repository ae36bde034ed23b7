// SPDX-FileCopyrightText: 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/gorilla/mux"
	"github.com/nats-io/nkeys"

	"github.com/pluce/openlink/pkg/models"
)

// Service is the HTTP surface of the authentication gateway.
type Service struct {
	router    *mux.Router
	accountKP nkeys.KeyPair
	config    Config
	http      *http.Client
}

// NewService wires the gateway routes onto a fresh router.
func NewService(config Config, accountKP nkeys.KeyPair) *Service {
	s := &Service{
		router:    mux.NewRouter(),
		accountKP: accountKP,
		config:    config,
		http:      &http.Client{Timeout: config.ProviderTimeout},
	}

	s.router.HandleFunc("/exchange", s.handleExchange).Methods(http.MethodPost)
	s.router.HandleFunc("/exchange-server", s.handleExchangeServer).Methods(http.MethodPost)
	s.router.HandleFunc("/public-key", s.handlePublicKey).Methods(http.MethodGet)

	return s
}

// ServeHTTP makes the service a http.Handler.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ExchangeRequest is the body of POST /exchange.
type ExchangeRequest struct {
	OidcCode       string `json:"oidc_code"`
	UserNkeyPublic string `json:"user_nkey_public"`
	Network        string `json:"network"`
}

// ExchangeResponse is the body answered by POST /exchange.
type ExchangeResponse struct {
	JWT     string `json:"jwt"`
	CID     string `json:"cid"`
	Network string `json:"network"`
}

// ExchangeServerRequest is the body of POST /exchange-server.
type ExchangeServerRequest struct {
	ServerSecret   string `json:"server_secret"`
	UserNkeyPublic string `json:"user_nkey_public"`
	Network        string `json:"network"`
}

// ExchangeServerResponse is the body answered by POST /exchange-server.
type ExchangeServerResponse struct {
	JWT     string `json:"jwt"`
	Network string `json:"network"`
}

func (s *Service) handleExchange(w http.ResponseWriter, r *http.Request) {
	var req ExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, newError(ErrOidcExchangeFailed, "malformed request body: %v", err))
		return
	}
	if req.Network == "" {
		req.Network = "demonetwork"
	}
	network := models.NetworkID(req.Network)

	provider, ok := s.config.ProviderFor(network)
	if !ok {
		s.writeError(w, newError(ErrUnknownNetwork, "no OIDC provider for network %q", req.Network))
		return
	}

	log.WithField("network", network).Info("Exchange request received")

	cid, err := ExchangeCode(r.Context(), s.http, provider, req.OidcCode)
	if err != nil {
		s.writeError(w, err)
		return
	}
	log.WithFields(log.Fields{
		"network": network,
		"cid":     cid,
	}).Info("OIDC authentication successful")

	token, err := SignUserJWT(s.accountKP, req.UserNkeyPublic, cid, network, s.config.UserJWTTTL)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, ExchangeResponse{JWT: token, CID: cid, Network: req.Network})
}

func (s *Service) handleExchangeServer(w http.ResponseWriter, r *http.Request) {
	var req ExchangeServerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, newError(ErrOidcExchangeFailed, "malformed request body: %v", err))
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.ServerSecret), []byte(s.config.ServerSecret)) != 1 {
		s.writeError(w, newError(ErrOidcExchangeFailed, "invalid server secret"))
		return
	}

	network := models.NetworkID(req.Network)
	log.WithField("network", network).Info("Server token request")

	token, err := SignServerJWT(s.accountKP, req.UserNkeyPublic, network, s.config.ServerJWTTTL)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, ExchangeServerResponse{JWT: token, Network: req.Network})
}

func (s *Service) handlePublicKey(w http.ResponseWriter, _ *http.Request) {
	publicKey, err := s.accountKP.PublicKey()
	if err != nil {
		s.writeError(w, newError(ErrInternal, "deriving public key: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	if _, err := w.Write([]byte(publicKey)); err != nil {
		log.WithError(err).Warn("Failed to write public key response")
	}
}

func (s *Service) writeJSON(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Warn("Failed to write gateway response")
	}
}

func (s *Service) writeError(w http.ResponseWriter, err error) {
	authErr, ok := err.(*Error)
	if !ok {
		authErr = newError(ErrInternal, "%v", err)
	}

	log.WithFields(log.Fields{
		"code":   authErr.Code,
		"detail": authErr.Detail,
	}).Warn("Gateway request failed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(authErr.HTTPStatus())
	if encErr := json.NewEncoder(w).Encode(map[string]string{
		"error":  string(authErr.Code),
		"detail": authErr.Detail,
	}); encErr != nil {
		log.WithError(encErr).Warn("Failed to write gateway error response")
	}
}
