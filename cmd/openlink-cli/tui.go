// SPDX-FileCopyrightText: 2026 Matthias Axel Kröll
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pluce/openlink/pkg/models"
	"github.com/pluce/openlink/pkg/runtime"
	"github.com/pluce/openlink/pkg/sdk"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive datalink display (DCDU-style for aircraft, pane for ATC)",
	RunE: func(_ *cobra.Command, _ []string) error {
		client, err := connect()
		if err != nil {
			return err
		}
		defer client.Close()

		model := newTuiModel(client)
		program := tea.NewProgram(model, tea.WithAltScreen())
		model.program = program

		if err := model.start(); err != nil {
			return err
		}

		_, err = program.Run()
		return err
	},
}

// Styles shared by both views.
var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	sessionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	uplinkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("221"))
	metaStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// envelopeMsg delivers an inbound envelope into the Bubble Tea loop.
type envelopeMsg models.Envelope

// statusMsg is a local status line.
type statusMsg string

// tuiModel is the terminal UI state: a message log, the projected session
// snapshot, and a command input line.
type tuiModel struct {
	client    *sdk.Client
	responder *sdk.AutoResponder
	program   *tea.Program

	input   textinput.Model
	lines   []string
	session models.SessionView
	width   int
	height  int

	// lastUplink tracks the newest MIN awaiting a short response.
	lastUplink     uint8
	lastUplinkFrom models.Callsign
	intents        []models.ResponseIntent

	cancelPresence func()
}

func newTuiModel(client *sdk.Client) *tuiModel {
	input := textinput.New()
	input.Placeholder = "logon LFPG | wilco | send UM20:350 | quit"
	input.Focus()

	return &tuiModel{
		client:    client,
		responder: sdk.NewAutoResponder(client, !atcMode, callsign, acarsAddress),
		input:     input,
	}
}

// start subscribes the inbox and announces presence before the UI runs.
func (m *tuiModel) start() error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelPresence = cancel

	if err := m.client.StartPresence(ctx, callsign, acarsAddress, 0); err != nil {
		cancel()
		return err
	}

	_, err := m.client.SubscribeInbox(func(envelope models.Envelope) {
		m.responder.Handle(envelope)
		if m.program != nil {
			m.program.Send(envelopeMsg(envelope))
		}
	})
	if err != nil {
		cancel()
	}
	return err
}

func (m *tuiModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case envelopeMsg:
		m.consume(models.Envelope(msg))
		return m, nil

	case statusMsg:
		m.push(metaStyle.Render(string(msg)))
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelPresence()
			return m, tea.Quit
		case tea.KeyEnter:
			command := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if command == "" {
				return m, nil
			}
			if command == "quit" || command == "exit" {
				m.cancelPresence()
				return m, tea.Quit
			}
			m.execute(command)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *tuiModel) View() string {
	var view strings.Builder

	role := "PILOT"
	if atcMode {
		role = "ATC"
	}
	view.WriteString(headerStyle.Render(fmt.Sprintf(" OPENLINK %s  %s/%s @ %s ", role, callsign, acarsAddress, networkID)))
	view.WriteByte('\n')
	view.WriteString(sessionStyle.Render(m.sessionLine()))
	view.WriteString("\n\n")

	visible := m.height - 7
	if visible < 1 {
		visible = 10
	}
	start := 0
	if len(m.lines) > visible {
		start = len(m.lines) - visible
	}
	for _, line := range m.lines[start:] {
		view.WriteString(line)
		view.WriteByte('\n')
	}

	view.WriteByte('\n')
	if len(m.intents) > 0 {
		labels := make([]string, len(m.intents))
		for i, intent := range m.intents {
			labels[i] = intent.Label
		}
		view.WriteString(helpStyle.Render("Reply: " + strings.Join(labels, " / ")))
		view.WriteByte('\n')
	}
	view.WriteString(m.input.View())
	return view.String()
}

// sessionLine renders the projected session snapshot.
func (m *tuiModel) sessionLine() string {
	session := m.responder.Session()

	describe := func(info *models.ConnectionInfo) string {
		if info == nil {
			return "NONE"
		}
		return fmt.Sprintf("%s (%s)", info.Peer, info.Phase)
	}

	nda := "NONE"
	if session.NextDataAuthority != nil {
		nda = session.NextDataAuthority.String()
	}
	return fmt.Sprintf(" ACTIVE %s  INACTIVE %s  NDA %s",
		describe(session.ActiveConnection), describe(session.InactiveConnection), nda)
}

// consume folds one inbound envelope into the log.
func (m *tuiModel) consume(envelope models.Envelope) {
	acars := envelope.Payload.Acars
	if acars == nil || acars.Message.CPDLC == nil {
		return
	}
	cpdlc := acars.Message.CPDLC

	switch {
	case cpdlc.Message.Application != nil:
		app := cpdlc.Message.Application
		m.push(uplinkStyle.Render(fmt.Sprintf("%s: %s", cpdlc.Source, app.Render())))

		if app.Min > 0 && !runtime.MessageContainsLogicalAck(app.Elements) {
			m.lastUplink = app.Min
			m.lastUplinkFrom = cpdlc.Source
			m.intents = runtime.ChooseShortResponseIntents(app.Elements)
		}
	case cpdlc.Message.Meta != nil:
		m.push(metaStyle.Render(fmt.Sprintf("%s: %s", cpdlc.Source, cpdlc.Message.Meta.Summary())))
	}
}

// execute runs one input-line command.
func (m *tuiModel) execute(command string) {
	fields := strings.Fields(command)
	verb := strings.ToLower(fields[0])

	switch verb {
	case "logon":
		if len(fields) < 2 {
			m.fail("usage: logon STATION [ORIGIN DEST]")
			return
		}
		origin, dest := "", ""
		if len(fields) >= 4 {
			origin, dest = fields[2], fields[3]
		}
		m.send(sdk.CpdlcLogonRequest(callsign, acarsAddress, fields[1], origin, dest),
			"logon request to "+fields[1])

	case "wilco", "unable", "standby", "roger", "affirm", "negative":
		m.shortResponse(verb)

	case "send":
		if len(fields) < 2 {
			m.fail("usage: send ID[:args] ...")
			return
		}
		elements, err := parseElements(fields[1:])
		if err != nil {
			m.fail(err.Error())
			return
		}
		var payload models.Payload
		if atcMode {
			payload = sdk.CpdlcStationApplication(callsign, m.peerCallsign(), "", elements, nil)
		} else {
			payload = sdk.CpdlcAircraftApplication(callsign, acarsAddress, m.peerCallsign(), elements, nil)
		}
		m.send(payload, renderText(elements))

	default:
		m.fail("unknown command: " + verb)
	}
}

// shortResponse answers the newest open uplink with one of the offered
// intents.
func (m *tuiModel) shortResponse(verb string) {
	if m.lastUplink == 0 {
		m.fail("no message awaiting a response")
		return
	}

	var element string
	for _, intent := range m.intents {
		if intent.Intent == verb {
			element = intent.DownlinkID
			if atcMode {
				element = intent.UplinkID
			}
			break
		}
	}
	if element == "" {
		m.fail(verb + " is not offered for this message")
		return
	}

	mrn := m.lastUplink
	elements := []models.MessageElement{models.NewMessageElement(element)}
	var payload models.Payload
	if atcMode {
		payload = sdk.CpdlcStationApplication(callsign, m.peerCallsign(), "", elements, &mrn)
	} else {
		payload = sdk.CpdlcAircraftApplication(callsign, acarsAddress, m.lastUplinkFrom.String(), elements, &mrn)
	}

	m.send(payload, strings.ToUpper(verb))
	m.lastUplink = 0
	m.intents = nil
}

// peerCallsign picks the active peer for quick commands.
func (m *tuiModel) peerCallsign() string {
	session := m.responder.Session()
	if session.ActiveConnection != nil {
		return session.ActiveConnection.Peer.String()
	}
	return m.lastUplinkFrom.String()
}

// send publishes a payload and logs the outcome.
func (m *tuiModel) send(payload models.Payload, description string) {
	if err := m.client.SendToServer(payload); err != nil {
		m.fail(err.Error())
		return
	}
	m.push(sessionStyle.Render(callsign + ": " + description))
}

func (m *tuiModel) fail(text string) {
	m.push(errorStyle.Render(text))
}

func (m *tuiModel) push(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > 500 {
		m.lines = m.lines[len(m.lines)-500:]
	}
}
