// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sdk

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/pluce/openlink/pkg/models"
)

// HeartbeatInterval is the default presence refresh period. It sits well
// inside the server's 90 s presence lease.
const HeartbeatInterval = 25 * time.Second

// StartPresence announces the station Online immediately, refreshes the
// announcement every interval, and sends a final Offline when the context
// ends. It returns once the initial announcement went out.
func (c *Client) StartPresence(ctx context.Context, callsign, acarsAddress string, interval time.Duration) error {
	if interval <= 0 {
		interval = HeartbeatInterval
	}

	builder := models.NewStationStatusBuilder(c.creds.CID, callsign, acarsAddress)

	if err := c.SendToServer(builder.Online()); err != nil {
		return err
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := c.SendToServer(builder.Online()); err != nil {
					log.WithError(err).Warn("Presence refresh failed")
				}
			case <-ctx.Done():
				if err := c.SendToServer(builder.Offline()); err != nil {
					log.WithError(err).Warn("Offline announcement failed")
				}
				return
			}
		}
	}()

	return nil
}
