// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sdk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nkeys"

	"github.com/pluce/openlink/pkg/models"
	"github.com/pluce/openlink/pkg/subjects"
)

// Client is a connected OpenLink participant: a station, an aircraft
// gateway, or (with wildcard permissions) a routing server.
type Client struct {
	nc      *nats.Conn
	creds   Credentials
	network models.NetworkID
	address models.NetworkAddress
}

// ConnectWithAuthorizationCode is the recommended entry point: it
// generates an ephemeral NKey pair, exchanges the OIDC code plus public
// key for a signed NATS JWT at the gateway, and connects to the broker.
func ConnectWithAuthorizationCode(natsURL, authURL, code string, network models.NetworkID) (*Client, error) {
	seed, publicKey, err := freshUserKey()
	if err != nil {
		return nil, err
	}

	var response struct {
		JWT string `json:"jwt"`
		CID string `json:"cid"`
	}
	err = postJSON(authURL+"/exchange", map[string]string{
		"oidc_code":        code,
		"user_nkey_public": publicKey,
		"network":          network.String(),
	}, &response)
	if err != nil {
		return nil, err
	}
	if response.JWT == "" || response.CID == "" {
		return nil, &AuthError{Detail: "gateway response misses jwt or cid"}
	}

	creds := Credentials{Seed: seed, JWT: response.JWT, CID: response.CID}
	return Connect(natsURL, creds, network)
}

// ConnectAsServer exchanges the pre-shared server secret for a wildcard
// JWT and connects. The resulting client may subscribe every outbox and
// publish to every inbox on the network.
func ConnectAsServer(natsURL, authURL, serverSecret string, network models.NetworkID) (*Client, error) {
	seed, publicKey, err := freshUserKey()
	if err != nil {
		return nil, err
	}

	var response struct {
		JWT string `json:"jwt"`
	}
	err = postJSON(authURL+"/exchange-server", map[string]string{
		"server_secret":    serverSecret,
		"user_nkey_public": publicKey,
		"network":          network.String(),
	}, &response)
	if err != nil {
		return nil, err
	}
	if response.JWT == "" {
		return nil, &AuthError{Detail: "gateway response misses jwt"}
	}

	name := fmt.Sprintf("openlink-server-%s", network)
	creds := Credentials{Seed: seed, JWT: response.JWT, CID: name}
	return Connect(natsURL, creds, network)
}

// Connect dials the broker with existing credentials. Reconnection is
// transparent; the broker client re-establishes subscriptions before new
// publishes go out, so an inbox subscription survives a reconnect.
func Connect(natsURL string, creds Credentials, network models.NetworkID) (*Client, error) {
	options := []nats.Option{
		nats.UserJWTAndSeed(creds.JWT, creds.Seed),
		nats.Name(fmt.Sprintf("openlink-%s", creds.CID)),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Warn("Broker connection lost, reconnecting")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WithField("url", nc.ConnectedUrl()).Info("Broker connection re-established")
		}),
	}

	nc, err := nats.Connect(natsURL, options...)
	if err != nil {
		if err == nats.ErrAuthorization {
			return nil, &AuthError{Detail: err.Error()}
		}
		return nil, &TransportError{Op: "connect", Err: err}
	}

	return &Client{
		nc:      nc,
		creds:   creds,
		network: network,
		address: models.NetworkAddress(creds.CID),
	}, nil
}

// Network returns the network this client is connected to.
func (c *Client) Network() models.NetworkID {
	return c.network
}

// Address returns the client's network address (derived from the CID).
func (c *Client) Address() models.NetworkAddress {
	return c.address
}

// CID returns the authenticated principal identifier.
func (c *Client) CID() string {
	return c.creds.CID
}

// Credentials returns the underlying transport credentials.
func (c *Client) Credentials() Credentials {
	return c.creds
}

// Conn exposes the raw broker connection for JetStream and other
// low-level features the SDK does not wrap.
func (c *Client) Conn() *nats.Conn {
	return c.nc
}

// Close drains the connection.
func (c *Client) Close() {
	if err := c.nc.Drain(); err != nil {
		log.WithError(err).Debug("Draining broker connection failed")
	}
}

// SendToServer wraps a payload in an envelope routed from this client to
// the network server and publishes it on the client's outbox.
func (c *Client) SendToServer(payload models.Payload) error {
	envelope := models.NewEnvelopeBuilder(payload).
		SourceAddress(c.network.String(), c.creds.CID).
		DestinationServer(c.network.String()).
		Token(c.creds.JWT).
		Build()

	return c.PublishEnvelope(subjects.Outbox(c.network, c.address), envelope)
}

// SendToStation publishes an envelope directly to a station's inbox. Used
// by server-mode clients to deliver routed messages.
func (c *Client) SendToStation(station models.NetworkAddress, envelope models.Envelope) error {
	return c.PublishEnvelope(subjects.Inbox(c.network, station), envelope)
}

// PublishEnvelope serialises and publishes an envelope on a raw subject.
// The flush boundary guarantees the broker accepted the frame.
func (c *Client) PublishEnvelope(subject string, envelope models.Envelope) error {
	raw, err := models.SerialiseEnvelope(envelope)
	if err != nil {
		return err
	}
	if err := c.nc.Publish(subject, raw); err != nil {
		return &TransportError{Op: "publish", Err: err}
	}
	if err := c.nc.Flush(); err != nil {
		return &TransportError{Op: "flush", Err: err}
	}
	return nil
}

// SubscribeInbox subscribes this client's inbox and delivers parsed
// envelopes to the handler. Unparseable payloads are logged and skipped.
// Unsubscribing the returned subscription cancels the stream.
func (c *Client) SubscribeInbox(handler func(models.Envelope)) (*nats.Subscription, error) {
	subject := subjects.Inbox(c.network, c.address)
	sub, err := c.nc.Subscribe(subject, func(msg *nats.Msg) {
		envelope, err := models.ParseEnvelope(msg.Data)
		if err != nil {
			log.WithFields(log.Fields{
				"subject": msg.Subject,
				"error":   err,
			}).Warn("Dropping unparseable inbox message")
			return
		}
		handler(envelope)
	})
	if err != nil {
		return nil, &TransportError{Op: "subscribe", Err: err}
	}
	return sub, nil
}

// SubscribeAllOutbox subscribes the outbox wildcard onto a channel.
// Server-mode clients use this to receive every client message on the
// network.
func (c *Client) SubscribeAllOutbox() (chan *nats.Msg, *nats.Subscription, error) {
	messages := make(chan *nats.Msg, 128)
	sub, err := c.nc.ChanSubscribe(subjects.OutboxWildcard(c.network), messages)
	if err != nil {
		return nil, nil, &TransportError{Op: "subscribe", Err: err}
	}
	return messages, sub, nil
}

// freshUserKey generates an ephemeral user NKey pair.
func freshUserKey() (seed, publicKey string, err error) {
	kp, err := nkeys.CreateUser()
	if err != nil {
		return "", "", fmt.Errorf("generating user nkey: %w", err)
	}
	rawSeed, err := kp.Seed()
	if err != nil {
		return "", "", fmt.Errorf("extracting nkey seed: %w", err)
	}
	pub, err := kp.PublicKey()
	if err != nil {
		return "", "", fmt.Errorf("deriving nkey public key: %w", err)
	}
	return string(rawSeed), pub, nil
}

// postJSON posts a JSON body and decodes a JSON response. Gateway errors
// surface as AuthError, connectivity errors as TransportError.
func postJSON(url string, body interface{}, response interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	res, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		return &TransportError{Op: "auth request", Err: err}
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return &TransportError{Op: "auth response", Err: err}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &AuthError{Detail: string(payload)}
	}
	return json.Unmarshal(payload, response)
}
