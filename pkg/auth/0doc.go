// SPDX-FileCopyrightText: 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth implements the federated authentication gateway: it
// exchanges OIDC authorization codes for scoped NATS user JWTs, and server
// secrets for wildcard server JWTs. The subject scope of every user JWT is
// derived from the authenticated CID; callsigns never influence scope, and
// a JWT is valid on exactly one network.
package auth
