// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package models

import (
	"encoding/json"
	"strconv"
)

// ArgType is the kind of argument a catalog template placeholder expects.
type ArgType string

// The argument kinds used by the CPDLC catalog.
const (
	ArgLevel               ArgType = "Level"
	ArgSpeed               ArgType = "Speed"
	ArgTime                ArgType = "Time"
	ArgPosition            ArgType = "Position"
	ArgDirection           ArgType = "Direction"
	ArgDegrees             ArgType = "Degrees"
	ArgDistance            ArgType = "Distance"
	ArgRouteClearance      ArgType = "RouteClearance"
	ArgProcedureName       ArgType = "ProcedureName"
	ArgUnitName            ArgType = "UnitName"
	ArgFacilityDesignation ArgType = "FacilityDesignation"
	ArgFrequency           ArgType = "Frequency"
	ArgCode                ArgType = "Code"
	ArgAtisCode            ArgType = "AtisCode"
	ArgErrorInfo           ArgType = "ErrorInfo"
	ArgFreeText            ArgType = "FreeText"
	ArgVerticalRate        ArgType = "VerticalRate"
	ArgAltimeter           ArgType = "Altimeter"
	ArgPositionReport      ArgType = "PositionReport"
)

// Argument is a typed value filling one catalog template placeholder.
// Level and Degrees carry numeric values; every other kind carries text.
type Argument struct {
	Type    ArgType
	Level   FlightLevel
	Degrees uint16
	Text    string
}

// LevelArg builds a flight-level argument.
func LevelArg(level FlightLevel) Argument {
	return Argument{Type: ArgLevel, Level: level}
}

// DegreesArg builds a heading argument.
func DegreesArg(degrees uint16) Argument {
	return Argument{Type: ArgDegrees, Degrees: degrees}
}

// TextArg builds an argument of any text-valued kind.
func TextArg(argType ArgType, text string) Argument {
	return Argument{Type: argType, Text: text}
}

// String renders the argument value the way it appears in message text.
func (a Argument) String() string {
	switch a.Type {
	case ArgLevel:
		return a.Level.String()
	case ArgDegrees:
		return strconv.Itoa(int(a.Degrees))
	default:
		return a.Text
	}
}

type argumentWire struct {
	Type  ArgType         `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON emits {"type": "Level", "value": 350} for numeric kinds and
// {"type": "Position", "value": "REKLA"} for text kinds.
func (a Argument) MarshalJSON() ([]byte, error) {
	var value interface{}
	switch a.Type {
	case ArgLevel:
		value = uint16(a.Level)
	case ArgDegrees:
		value = a.Degrees
	default:
		value = a.Text
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(argumentWire{Type: a.Type, Value: raw})
}

// UnmarshalJSON parses the tagged argument form.
func (a *Argument) UnmarshalJSON(data []byte) error {
	var wire argumentWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return malformedJSON(err)
	}

	switch wire.Type {
	case ArgLevel:
		var level uint16
		if err := json.Unmarshal(wire.Value, &level); err != nil {
			return invalidField("value", err)
		}
		*a = LevelArg(FlightLevel(level))
	case ArgDegrees:
		var degrees uint16
		if err := json.Unmarshal(wire.Value, &degrees); err != nil {
			return invalidField("value", err)
		}
		*a = DegreesArg(degrees)
	case ArgSpeed, ArgTime, ArgPosition, ArgDirection, ArgDistance,
		ArgRouteClearance, ArgProcedureName, ArgUnitName,
		ArgFacilityDesignation, ArgFrequency, ArgCode, ArgAtisCode,
		ArgErrorInfo, ArgFreeText, ArgVerticalRate, ArgAltimeter,
		ArgPositionReport:
		var text string
		if err := json.Unmarshal(wire.Value, &text); err != nil {
			return invalidField("value", err)
		}
		*a = TextArg(wire.Type, text)
	default:
		return unknownVariant("Argument", data)
	}
	return nil
}
