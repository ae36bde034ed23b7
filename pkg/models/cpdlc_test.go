// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestICAOAirportCodeParse(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"LFPG", true},
		{"KJFK", true},
		{"EGLL", true},
		{"lfpg", false},
		{"LFP", false},
		{"LFPGA", false},
		{"L1PG", false},
		{"", false},
	}

	for _, test := range tests {
		code, err := ParseICAOAirportCode(test.input)
		if test.valid && err != nil {
			t.Errorf("ParseICAOAirportCode(%q) errored: %v", test.input, err)
		} else if !test.valid && err == nil {
			t.Errorf("ParseICAOAirportCode(%q) should have errored", test.input)
		} else if test.valid && code.String() != test.input {
			t.Errorf("ParseICAOAirportCode(%q) = %q", test.input, code)
		}
	}
}

func TestFlightLevelString(t *testing.T) {
	tests := []struct {
		level    uint16
		expected string
	}{
		{350, "FL350"},
		{0, "FL0"},
		{999, "FL999"},
		{1000, "1000"},
		{35000, "35000"},
	}

	for _, test := range tests {
		if s := NewFlightLevel(test.level).String(); s != test.expected {
			t.Errorf("FlightLevel(%d).String() = %q, expected %q", test.level, s, test.expected)
		}
	}
}

func TestFlightLevelParse(t *testing.T) {
	for _, input := range []string{"FL350", "350"} {
		fl, err := ParseFlightLevel(input)
		if err != nil {
			t.Fatalf("ParseFlightLevel(%q) errored: %v", input, err)
		}
		if fl.Value() != 350 {
			t.Fatalf("ParseFlightLevel(%q) = %d", input, fl.Value())
		}
	}

	if _, err := ParseFlightLevel("FLabc"); err == nil {
		t.Fatal("ParseFlightLevel(\"FLabc\") should have errored")
	}
}

func TestFlightLevelSerialisesAsBareNumber(t *testing.T) {
	raw, err := json.Marshal(NewFlightLevel(350))
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "350" {
		t.Fatalf("FlightLevel marshalled to %s, expected 350", raw)
	}
}

func TestArgumentRoundTrip(t *testing.T) {
	args := []Argument{
		LevelArg(NewFlightLevel(350)),
		DegreesArg(270),
		TextArg(ArgPosition, "REKLA"),
		TextArg(ArgFreeText, "CHECK STUCK MICROPHONE"),
	}

	for _, arg := range args {
		raw, err := json.Marshal(arg)
		if err != nil {
			t.Fatalf("marshalling %v: %v", arg, err)
		}

		var back Argument
		if err := json.Unmarshal(raw, &back); err != nil {
			t.Fatalf("unmarshalling %s: %v", raw, err)
		}
		if back != arg {
			t.Fatalf("argument round trip: got %v, expected %v", back, arg)
		}
	}
}

func TestArgumentWireForm(t *testing.T) {
	raw, err := json.Marshal(LevelArg(NewFlightLevel(350)))
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"type":"Level","value":350}` {
		t.Fatalf("unexpected wire form: %s", raw)
	}

	raw, err = json.Marshal(TextArg(ArgPosition, "REKLA"))
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"type":"Position","value":"REKLA"}` {
		t.Fatalf("unexpected wire form: %s", raw)
	}
}

func TestArgumentUnknownVariant(t *testing.T) {
	var arg Argument
	err := json.Unmarshal([]byte(`{"type":"Banana","value":"x"}`), &arg)
	if !IsWireError(err, UnknownVariant) {
		t.Fatalf("expected UnknownVariant, got %v", err)
	}
}

func TestElementRender(t *testing.T) {
	element := NewMessageElement("UM20", LevelArg(NewFlightLevel(350)))
	if text := element.Render(); text != "CLIMB TO FL350" {
		t.Fatalf("Render() = %q", text)
	}

	unknown := NewMessageElement("XY999")
	if text := unknown.Render(); text != "[UNKNOWN XY999]" {
		t.Fatalf("Render() = %q", text)
	}
}

func TestApplicationMessageRenderMulti(t *testing.T) {
	msg := CpdlcApplicationMessage{
		Min: 2,
		Elements: []MessageElement{
			NewMessageElement("UM20", LevelArg(NewFlightLevel(350))),
			NewMessageElement("UM129", LevelArg(NewFlightLevel(350))),
		},
		Timestamp: time.Now().UTC(),
	}
	expected := "CLIMB TO FL350 / REPORT MAINTAINING FL350"
	if text := msg.Render(); text != expected {
		t.Fatalf("Render() = %q, expected %q", text, expected)
	}
}

func TestEffectiveResponseAttr(t *testing.T) {
	tests := []struct {
		attrs    []ResponseAttribute
		expected ResponseAttribute
	}{
		{[]ResponseAttribute{RespY, RespWU, RespR}, RespWU},
		{[]ResponseAttribute{RespNE, RespR}, RespR},
		{[]ResponseAttribute{RespNE}, RespN},
		{[]ResponseAttribute{}, RespN},
		{[]ResponseAttribute{RespAN, RespR}, RespAN},
	}

	for _, test := range tests {
		if got := EffectiveResponseAttr(test.attrs); got != test.expected {
			t.Errorf("EffectiveResponseAttr(%v) = %v, expected %v", test.attrs, got, test.expected)
		}
	}
}

func TestApplicationMessageEffectiveAttr(t *testing.T) {
	msg := CpdlcApplicationMessage{
		Elements: []MessageElement{
			NewMessageElement("UM20", LevelArg(NewFlightLevel(350))),  // WU
			NewMessageElement("UM129", LevelArg(NewFlightLevel(350))), // R
		},
	}
	if attr := msg.EffectiveResponseAttr(); attr != RespWU {
		t.Fatalf("EffectiveResponseAttr() = %v, expected WU", attr)
	}
}

func TestMetaMessageSummaries(t *testing.T) {
	tests := []struct {
		meta     CpdlcMeta
		expected string
	}{
		{
			LogonRequest{Station: "LFPG", FlightPlanOrigin: "LFPG", FlightPlanDestination: "KJFK"},
			"LOGON REQUEST TO LFPG - FP ORIGIN LFPG DEST KJFK",
		},
		{LogonResponse{Accepted: true}, "LOGON ACCEPTED"},
		{LogonResponse{}, "LOGON REJECTED"},
		{ConnectionRequest{}, "CONNECTION REQUEST"},
		{ConnectionResponse{Accepted: true}, "CONNECTION ACCEPTED"},
		{ContactRequest{Station: "EGLL"}, "CONTACT EGLL"},
		{ContactComplete{}, "CONTACT COMPLETE"},
		{EndService{}, "END SERVICE"},
		{
			NextDataAuthority{NDA: NewAcarsEndpoint("LFPG", "ADDR001")},
			"NEXT DATA AUTHORITY LFPG ADDR001",
		},
	}

	for _, test := range tests {
		if got := test.meta.Summary(); got != test.expected {
			t.Errorf("Summary() = %q, expected %q", got, test.expected)
		}
	}
}

func TestConnectionPhaseAdvance(t *testing.T) {
	if !PhaseLogonPending.CanAdvanceTo(PhaseLoggedOn) {
		t.Error("LogonPending should advance to LoggedOn")
	}
	if !PhaseLoggedOn.CanAdvanceTo(PhaseConnected) {
		t.Error("LoggedOn should advance to Connected")
	}
	if PhaseConnected.CanAdvanceTo(PhaseLoggedOn) {
		t.Error("Connected must not move back to LoggedOn")
	}
	if !PhaseConnected.CanAdvanceTo(PhaseConnected) {
		t.Error("idempotent advance must be allowed")
	}
}
