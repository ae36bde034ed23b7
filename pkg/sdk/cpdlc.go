// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sdk

import (
	"github.com/pluce/openlink/pkg/models"
)

// CPDLC payload helpers. Each returns a ready-to-send payload; pass it to
// Client.SendToServer. Flight plan airports default to "ZZZZ" when a
// caller has none.

// CpdlcLogonRequest builds an aircraft → station logon request.
func CpdlcLogonRequest(aircraftCallsign, aircraftAddress, targetStation, origin, destination string) models.Payload {
	if origin == "" {
		origin = "ZZZZ"
	}
	if destination == "" {
		destination = "ZZZZ"
	}
	return models.NewCpdlcBuilder(aircraftCallsign, aircraftAddress).
		From(aircraftCallsign).
		To(targetStation).
		LogonRequest(targetStation, origin, destination).
		Build()
}

// CpdlcLogonResponse builds a station → aircraft logon response.
func CpdlcLogonResponse(atcCallsign, aircraftCallsign, aircraftAddress string, accepted bool) models.Payload {
	return models.NewCpdlcBuilder(aircraftCallsign, aircraftAddress).
		From(atcCallsign).
		To(aircraftCallsign).
		LogonResponse(accepted).
		Build()
}

// CpdlcConnectionRequest builds a station → aircraft connection request.
func CpdlcConnectionRequest(atcCallsign, aircraftCallsign, aircraftAddress string) models.Payload {
	return models.NewCpdlcBuilder(aircraftCallsign, aircraftAddress).
		From(atcCallsign).
		To(aircraftCallsign).
		ConnectionRequest().
		Build()
}

// CpdlcConnectionResponse builds an aircraft → station connection
// response.
func CpdlcConnectionResponse(aircraftCallsign, aircraftAddress, atcCallsign string, accepted bool) models.Payload {
	return models.NewCpdlcBuilder(aircraftCallsign, aircraftAddress).
		From(aircraftCallsign).
		To(atcCallsign).
		ConnectionResponse(accepted).
		Build()
}

// CpdlcNextDataAuthority builds the UM160 uplink designating the next
// data authority.
func CpdlcNextDataAuthority(atcCallsign, aircraftCallsign, aircraftAddress, ndaCallsign string) models.Payload {
	elements := []models.MessageElement{
		models.NewMessageElement("UM160", models.TextArg(models.ArgFacilityDesignation, ndaCallsign)),
	}
	return CpdlcStationApplication(atcCallsign, aircraftCallsign, aircraftAddress, elements, nil)
}

// CpdlcContactRequest builds the UM117 uplink instructing the aircraft to
// contact another station.
func CpdlcContactRequest(atcCallsign, aircraftCallsign, aircraftAddress, nextStation, frequency string) models.Payload {
	elements := []models.MessageElement{
		models.NewMessageElement("UM117",
			models.TextArg(models.ArgUnitName, nextStation),
			models.TextArg(models.ArgFrequency, frequency)),
	}
	return CpdlcStationApplication(atcCallsign, aircraftCallsign, aircraftAddress, elements, nil)
}

// CpdlcEndService builds the UM161 uplink ending service.
func CpdlcEndService(atcCallsign, aircraftCallsign, aircraftAddress string) models.Payload {
	elements := []models.MessageElement{models.NewMessageElement("UM161")}
	return CpdlcStationApplication(atcCallsign, aircraftCallsign, aircraftAddress, elements, nil)
}

// CpdlcLogonForward builds a ground-to-ground logon forward.
func CpdlcLogonForward(atcCallsign, aircraftCallsign, aircraftAddress, newStation string) models.Payload {
	return models.NewCpdlcBuilder(aircraftCallsign, aircraftAddress).
		From(atcCallsign).
		To(newStation).
		LogonForward(aircraftCallsign, "ZZZZ", "ZZZZ", newStation).
		Build()
}

// CpdlcStationApplication builds a station-originated application message.
func CpdlcStationApplication(stationCallsign, aircraftCallsign, aircraftAddress string, elements []models.MessageElement, mrn *uint8) models.Payload {
	return models.NewCpdlcBuilder(aircraftCallsign, aircraftAddress).
		From(stationCallsign).
		To(aircraftCallsign).
		Application(elements, mrn).
		Build()
}

// CpdlcAircraftApplication builds an aircraft-originated application
// message.
func CpdlcAircraftApplication(aircraftCallsign, aircraftAddress, stationCallsign string, elements []models.MessageElement, mrn *uint8) models.Payload {
	return models.NewCpdlcBuilder(aircraftCallsign, aircraftAddress).
		From(aircraftCallsign).
		To(stationCallsign).
		Application(elements, mrn).
		Build()
}

// CpdlcLogicalAck builds the logical acknowledgement answering the given
// MIN: DM100 when the aircraft acknowledges, UM227 when a station does.
func CpdlcLogicalAck(senderCallsign, aircraftCallsign, aircraftAddress, peerCallsign string, direction models.Direction, mrn uint8) models.Payload {
	return models.NewCpdlcBuilder(aircraftCallsign, aircraftAddress).
		From(senderCallsign).
		To(peerCallsign).
		LogicalAck(direction, mrn).
		Build()
}
