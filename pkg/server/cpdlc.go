// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package server

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/pluce/openlink/pkg/models"
)

// CpdlcHandler drives the per-aircraft session state machine for inbound
// CPDLC envelopes. It only touches the stores; publishing the outcome is
// the engine's job.
type CpdlcHandler struct {
	sessions *SessionStore
	registry *StationRegistry
}

// NewCpdlcHandler wires the handler onto its stores.
func NewCpdlcHandler(sessions *SessionStore, registry *StationRegistry) *CpdlcHandler {
	return &CpdlcHandler{sessions: sessions, registry: registry}
}

// Result is what the engine does after a CPDLC envelope was processed.
type Result struct {
	// Destination is the callsign the envelope forwards to, empty for
	// no forward.
	Destination models.Callsign
	// Envelope is the (possibly MIN-assigned) envelope to forward.
	Envelope *models.Envelope
	// Session is the mutated session; the engine broadcasts snapshots.
	Session *Session
	// Reject is a server-generated reply for the sender (DM62, DM63,
	// DM107), nil when the message was accepted.
	Reject *models.Payload
}

// Handle processes one CPDLC envelope.
func (h *CpdlcHandler) Handle(envelope models.Envelope, acars models.AcarsEnvelope, cpdlc models.CpdlcEnvelope) (*Result, error) {
	switch {
	case cpdlc.Message.Meta != nil:
		return h.handleMeta(envelope, acars, cpdlc, cpdlc.Message.Meta)
	case cpdlc.Message.Application != nil:
		return h.handleApplication(envelope, acars, cpdlc, cpdlc.Message.Application)
	default:
		return nil, fmt.Errorf("CPDLC envelope carries no message")
	}
}

// handleMeta applies session transitions for protocol meta messages.
func (h *CpdlcHandler) handleMeta(envelope models.Envelope, acars models.AcarsEnvelope, cpdlc models.CpdlcEnvelope, meta models.CpdlcMeta) (*Result, error) {
	aircraft := acars.Routing.Aircraft
	result := &Result{Destination: cpdlc.Destination, Envelope: &envelope}

	switch m := meta.(type) {
	case models.LogonRequest:
		log.WithFields(log.Fields{
			"aircraft": aircraft.Callsign,
			"station":  m.Station,
		}).Info("Processing logon request")

		station := h.stationEndpoint(m.Station)
		session, err := h.sessions.Update(aircraft.Callsign, func(session *Session) (*Session, error) {
			if session == nil {
				session = NewSession(aircraft)
			}
			if err := session.LogonRequest(station); err != nil {
				return nil, err
			}
			return session, nil
		})
		if err != nil {
			return h.sessionReject(aircraft, cpdlc.Source, err)
		}
		result.Destination = m.Station
		result.Session = session

	case models.LogonResponse:
		session, err := h.sessions.Update(aircraft.Callsign, func(session *Session) (*Session, error) {
			if session == nil {
				return nil, fmt.Errorf("no session for %s", aircraft.Callsign)
			}
			if m.Accepted {
				return session, session.LogonAccepted(cpdlc.Source)
			}
			return session, session.LogonRejected(cpdlc.Source)
		})
		if err != nil {
			return h.sessionReject(aircraft, cpdlc.Source, err)
		}
		result.Session = session

	case models.ConnectionRequest:
		station := h.stationEndpoint(cpdlc.Source)
		session, err := h.sessions.Update(aircraft.Callsign, func(session *Session) (*Session, error) {
			if session == nil {
				return nil, fmt.Errorf("no session for %s", aircraft.Callsign)
			}
			return session, session.ConnectionRequest(station)
		})
		if err != nil {
			return h.sessionReject(aircraft, cpdlc.Source, err)
		}
		result.Session = session

	case models.ConnectionResponse:
		session, err := h.sessions.Update(aircraft.Callsign, func(session *Session) (*Session, error) {
			if session == nil {
				return nil, fmt.Errorf("no session for %s", aircraft.Callsign)
			}
			if m.Accepted {
				return session, session.ConnectionAccepted(cpdlc.Destination)
			}
			return session, session.ConnectionRejected(cpdlc.Destination)
		})
		if err != nil {
			return h.sessionReject(aircraft, cpdlc.Source, err)
		}
		result.Session = session

	case models.NextDataAuthority:
		session, err := h.sessions.Update(aircraft.Callsign, func(session *Session) (*Session, error) {
			if session == nil {
				return nil, fmt.Errorf("no session for %s", aircraft.Callsign)
			}
			session.SetNextDataAuthority(m.NDA.Callsign)
			return session, nil
		})
		if err != nil {
			return h.sessionReject(aircraft, cpdlc.Source, err)
		}
		result.Session = session

	case models.EndService:
		session, err := h.sessions.Update(aircraft.Callsign, func(session *Session) (*Session, error) {
			if session == nil {
				return nil, fmt.Errorf("no session for %s", aircraft.Callsign)
			}
			return session, session.EndService(cpdlc.Source)
		})
		if err != nil {
			return h.sessionReject(aircraft, cpdlc.Source, err)
		}
		result.Session = session

	case models.LogonForward:
		// Ground-to-ground handover; routed transparently to the new
		// station, which reacts with its own logon handling.
		result.Destination = m.NewStation

	case models.SessionUpdate:
		// Server-originated only; a client publishing one is dropped.
		log.WithField("source", cpdlc.Source).Warn("Dropping client-sent SessionUpdate")
		return &Result{}, nil

	default:
		// ContactRequest / ContactResponse / ContactComplete carry no
		// server-side session effect.
	}

	return result, nil
}

// handleApplication authorises, MIN-assigns and forwards an operational
// message, applying the session effects of UM160 and UM161.
func (h *CpdlcHandler) handleApplication(envelope models.Envelope, acars models.AcarsEnvelope, cpdlc models.CpdlcEnvelope, app *models.CpdlcApplicationMessage) (*Result, error) {
	aircraft := acars.Routing.Aircraft

	if cpdlc.Source == aircraft.Callsign {
		return h.handleDownlink(envelope, aircraft, cpdlc, app)
	}
	return h.handleUplink(envelope, aircraft, cpdlc, app)
}

// handleDownlink processes aircraft → station traffic.
func (h *CpdlcHandler) handleDownlink(envelope models.Envelope, aircraft models.AcarsEndpoint, cpdlc models.CpdlcEnvelope, app *models.CpdlcApplicationMessage) (*Result, error) {
	if err := models.ValidateElements(app.Elements, models.Downlink); err != nil {
		return h.errorReject(aircraft, cpdlc.Source, fmt.Sprintf("INVALID MESSAGE: %v", err))
	}

	// The callback may rerun on a lost CAS race; the submitted MIN is
	// restored each attempt so the counter advances exactly once.
	submittedMin := app.Min
	_, err := h.sessions.Update(aircraft.Callsign, func(session *Session) (*Session, error) {
		app.Min = submittedMin
		if session == nil {
			return nil, fmt.Errorf("no CPDLC session")
		}
		connection := session.connectionWith(cpdlc.Destination)
		if connection == nil {
			return nil, fmt.Errorf("no CPDLC connection with %s", cpdlc.Destination)
		}
		if app.Min == 0 {
			app.Min = connection.NextMin(models.Downlink)
		}
		return session, nil
	})
	if err != nil {
		return h.errorReject(aircraft, cpdlc.Source, fmt.Sprintf("%v", err))
	}

	return &Result{Destination: cpdlc.Destination, Envelope: &envelope}, nil
}

// handleUplink processes station → aircraft traffic, rejecting stations
// without data authority.
func (h *CpdlcHandler) handleUplink(envelope models.Envelope, aircraft models.AcarsEndpoint, cpdlc models.CpdlcEnvelope, app *models.CpdlcApplicationMessage) (*Result, error) {
	sender := cpdlc.Source

	if err := models.ValidateElements(app.Elements, models.Uplink); err != nil {
		return h.errorReject(aircraft, sender, fmt.Sprintf("INVALID MESSAGE: %v", err))
	}

	var sessionChanged bool
	submittedMin := app.Min
	session, err := h.sessions.Update(aircraft.Callsign, func(session *Session) (*Session, error) {
		app.Min = submittedMin
		sessionChanged = false
		if session == nil {
			return nil, &authorityError{element: "DM63"}
		}

		switch session.Authority(sender) {
		case AuthorityCDA:
			// Full data authority.
		case AuthorityNDA:
			// Connected next data authority may exchange operational
			// traffic but not steer the session.
			if containsElement(app.Elements, "UM160") || containsElement(app.Elements, "UM161") {
				return nil, fmt.Errorf("%s is next data authority, not current", sender)
			}
		case AuthorityPendingNDA:
			return nil, &authorityError{element: "DM107"}
		default:
			return nil, &authorityError{element: "DM63"}
		}

		connection := session.connectionWith(sender)
		if app.Min == 0 && connection != nil {
			app.Min = connection.NextMin(models.Uplink)
		}

		for _, element := range app.Elements {
			switch element.ID {
			case "UM160":
				if len(element.Args) > 0 {
					session.SetNextDataAuthority(models.Callsign(element.Args[0].String()))
					sessionChanged = true
				}
			case "UM161":
				if err := session.EndService(sender); err != nil {
					return nil, err
				}
				sessionChanged = true
			}
		}
		return session, nil
	})

	if err != nil {
		var authErr *authorityError
		if errors.As(err, &authErr) {
			log.WithFields(log.Fields{
				"sender":   sender,
				"aircraft": aircraft.Callsign,
				"reply":    authErr.element,
			}).Info("Rejecting unauthorised operational traffic")
			return h.elementReject(aircraft, sender, authErr.element)
		}
		return h.errorReject(aircraft, sender, fmt.Sprintf("%v", err))
	}

	result := &Result{Destination: cpdlc.Destination, Envelope: &envelope}
	if sessionChanged {
		result.Session = session
	}
	return result, nil
}

// authorityError marks traffic from a peer without data authority.
type authorityError struct {
	element string
}

func (e *authorityError) Error() string {
	return "sender holds no data authority"
}

// sessionReject maps a failed session transition onto a DM62 reply.
func (h *CpdlcHandler) sessionReject(aircraft models.AcarsEndpoint, sender models.Callsign, err error) (*Result, error) {
	log.WithFields(log.Fields{
		"sender": sender,
		"error":  err,
	}).Info("Session transition refused")
	return h.errorReject(aircraft, sender, fmt.Sprintf("%v", err))
}

// errorReject builds a DM62 ERROR reply payload for the sender.
func (h *CpdlcHandler) errorReject(aircraft models.AcarsEndpoint, sender models.Callsign, text string) (*Result, error) {
	elements := []models.MessageElement{
		models.NewMessageElement("DM62", models.TextArg(models.ArgErrorInfo, text)),
	}
	payload := models.NewCpdlcBuilder(aircraft.Callsign.String(), aircraft.Address.String()).
		From(aircraft.Callsign.String()).
		To(sender.String()).
		Application(elements, nil).
		Build()
	return &Result{Reject: &payload}, nil
}

// elementReject builds a bare single-element reply (DM63 or DM107).
func (h *CpdlcHandler) elementReject(aircraft models.AcarsEndpoint, sender models.Callsign, id string) (*Result, error) {
	elements := []models.MessageElement{models.NewMessageElement(id)}
	payload := models.NewCpdlcBuilder(aircraft.Callsign.String(), aircraft.Address.String()).
		From(aircraft.Callsign.String()).
		To(sender.String()).
		Application(elements, nil).
		Build()
	return &Result{Reject: &payload}, nil
}

// stationEndpoint resolves a callsign to the registered ACARS endpoint,
// falling back to a bare callsign when the station is not registered yet.
func (h *CpdlcHandler) stationEndpoint(callsign models.Callsign) models.AcarsEndpoint {
	if entry, err := h.registry.LookupCallsign(callsign); err == nil && entry != nil {
		return entry.Endpoint
	}
	return models.AcarsEndpoint{Callsign: callsign}
}

// containsElement reports whether any element carries the given id.
func containsElement(elements []models.MessageElement, id string) bool {
	for _, element := range elements {
		if element.ID == id {
			return true
		}
	}
	return false
}
