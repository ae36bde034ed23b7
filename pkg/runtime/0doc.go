// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package runtime centralises the CPDLC protocol decisions every OpenLink
// SDK must take identically: logical-acknowledgement eligibility, short
// response selection, and dialogue closing. The conformance vectors under
// spec/sdk-conformance pin the behaviour across language implementations.
package runtime
