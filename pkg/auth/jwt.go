// SPDX-FileCopyrightText: 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"fmt"
	"time"

	natsjwt "github.com/nats-io/jwt/v2"
	"github.com/nats-io/nkeys"

	"github.com/pluce/openlink/pkg/models"
	"github.com/pluce/openlink/pkg/subjects"
)

// SignUserJWT signs a NATS user JWT for the given CID on one network.
//
// The JWT grants publish on the user's outbox subject and subscribe on
// the user's inbox subject, both derived from the CID — never from a
// callsign. The `sub` is the client-provided NKey public key, the `name`
// is the CID.
func SignUserJWT(accountKP nkeys.KeyPair, userNkeyPublic, cid string, network models.NetworkID, ttl time.Duration) (string, error) {
	address := models.NetworkAddress(cid)

	claims := natsjwt.NewUserClaims(userNkeyPublic)
	claims.Name = cid
	claims.Expires = time.Now().Add(ttl).Unix()
	claims.Permissions.Pub.Allow.Add(subjects.Outbox(network, address))
	claims.Permissions.Sub.Allow.Add(subjects.Inbox(network, address))

	token, err := claims.Encode(accountKP)
	if err != nil {
		return "", newError(ErrInternal, "signing user JWT: %v", err)
	}
	return token, nil
}

// SignServerJWT signs a NATS JWT granting server-level permissions on a
// network: subscribe on every outbox, publish on every inbox, and access
// to the JetStream API for the KV buckets.
func SignServerJWT(accountKP nkeys.KeyPair, serverNkeyPublic string, network models.NetworkID, ttl time.Duration) (string, error) {
	claims := natsjwt.NewUserClaims(serverNkeyPublic)
	claims.Name = ServerPrincipal(network)
	claims.Expires = time.Now().Add(ttl).Unix()
	claims.Permissions.Pub.Allow.Add(
		subjects.InboxWildcard(network),
		"$JS.API.>",
		"_INBOX.>",
	)
	claims.Permissions.Sub.Allow.Add(
		subjects.OutboxWildcard(network),
		"$JS.API.>",
		"_INBOX.>",
	)

	token, err := claims.Encode(accountKP)
	if err != nil {
		return "", newError(ErrInternal, "signing server JWT: %v", err)
	}
	return token, nil
}

// ServerPrincipal is the name the routing server of a network acts under.
func ServerPrincipal(network models.NetworkID) string {
	return fmt.Sprintf("openlink-server-%s", network)
}
