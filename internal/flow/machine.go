// Package flow drives one donation session: file selection, validation, extraction, review and consent.
//
// Machine is a pure state machine: Step maps the current State and the participant response to the
// next State, the next Request and the donations to make. Session and Runner execute those
// transitions against a donation sink.
package flow

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/goccy/go-json"
	"github.com/ubuntu/ddp-insights/internal/constants"
	"github.com/ubuntu/ddp-insights/internal/extract"
	"github.com/ubuntu/ddp-insights/internal/table"
	"github.com/ubuntu/ddp-insights/internal/validate"
)

// Stage is the position of a session in the flow.
type Stage int

// Stages of a session.
const (
	AwaitingFile Stage = iota
	AwaitingChoice
	AwaitingRetryConfirmation
	AwaitingConsent
	AwaitingQuestionnaire
	Done
)

func (s Stage) String() string {
	switch s {
	case AwaitingFile:
		return "awaiting-file"
	case AwaitingChoice:
		return "awaiting-choice"
	case AwaitingRetryConfirmation:
		return "awaiting-retry-confirmation"
	case AwaitingConsent:
		return "awaiting-consent"
	case AwaitingQuestionnaire:
		return "awaiting-questionnaire"
	case Done:
		return "done"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// State is the resumable state of one session.
type State struct {
	Stage  Stage
	Path   string
	Result validate.Result
	Tables []table.ExtractedTable
}

// Donation is one payload to hand to the donation sink.
type Donation struct {
	Key  string
	Data []byte
}

// Exit is handed back to the host once the session is done.
type Exit struct {
	Code int
	Info string
}

// Transition is the outcome of one step.
type Transition struct {
	State State
	// Request is the next prompt. It is nil once Done.
	Request   *Request
	Donations []Donation
	// FlushTracking asks the driver to donate the session log once Donations are made.
	FlushTracking bool
	// Exit is set once Done.
	Exit *Exit
}

// Machine holds the static configuration of a session.
type Machine struct {
	platform      extract.Platform
	session       string
	questionnaire *Questionnaire

	log *slog.Logger
}

type options struct {
	log           *slog.Logger
	questionnaire *Questionnaire
}

// Options represents an optional function to override Machine default values.
type Options func(*options)

// WithLogger sets the logger used while validating and extracting.
func WithLogger(l *slog.Logger) Options {
	return func(o *options) {
		o.log = l
	}
}

// WithQuestionnaire asks q after the consent step.
func WithQuestionnaire(q Questionnaire) Options {
	return func(o *options) {
		o.questionnaire = &q
	}
}

// NewMachine returns a Machine for platform p and the given session id.
func NewMachine(p extract.Platform, session string, args ...Options) *Machine {
	opts := options{log: slog.Default()}
	for _, opt := range args {
		opt(&opts)
	}

	return &Machine{
		platform:      p,
		session:       session,
		questionnaire: opts.questionnaire,
		log:           opts.log,
	}
}

// Session returns the session id donations are keyed with.
func (m *Machine) Session() string {
	return m.session
}

// Start returns the first transition of a session.
func (m *Machine) Start() Transition {
	m.log.Info("Starting the donation flow", "platform", m.platform.Name())
	return m.awaitFile()
}

// Step returns the transition from s given the response p.
func (m *Machine) Step(s State, p Payload) Transition {
	switch s.Stage {
	case AwaitingFile:
		return m.stepFile(p)
	case AwaitingChoice:
		return m.stepChoice(s, p)
	case AwaitingRetryConfirmation:
		return m.stepRetry(p)
	case AwaitingConsent:
		return m.stepConsent(s, p)
	case AwaitingQuestionnaire:
		return m.stepQuestionnaire(p)
	}
	return m.done()
}

func (m *Machine) stepFile(p Payload) Transition {
	if p.Kind != PayloadString {
		m.log.Info("Skipped at file selection ending flow")
		t := m.done()
		t.Donations = []Donation{m.status(constants.SkipFileSelectionKeySuffix, "SKIP_FILE_SELECTION")}
		return t
	}

	result := m.platform.Validate(m.log, p.Value)
	if !result.OK() {
		m.log.Info("Not a valid package; prompt retry confirmation", "platform", m.platform.Name())
		return Transition{
			State:         State{Stage: AwaitingRetryConfirmation},
			Request:       m.retryRequest(),
			FlushTracking: true,
		}
	}

	m.log.Info("Payload received", "platform", m.platform.Name(), "category", result.Category.ID)
	if choice := m.platform.Choice(m.log, p.Value, result); choice != nil {
		return Transition{
			State:         State{Stage: AwaitingChoice, Path: p.Value, Result: result},
			Request:       m.choiceRequest(choice),
			FlushTracking: true,
		}
	}

	t := m.extract(p.Value, result, "")
	t.FlushTracking = true
	return t
}

func (m *Machine) stepChoice(s State, p Payload) Transition {
	var selection string
	if p.Kind == PayloadString {
		selection = p.Value
	}
	m.log.Info("Selection made", "selected", selection != "")
	return m.extract(s.Path, s.Result, selection)
}

func (m *Machine) stepRetry(p Payload) Transition {
	if p.Kind == PayloadTrue {
		return m.awaitFile()
	}

	m.log.Info("Skipped during retry flow")
	t := m.done()
	t.Donations = []Donation{m.status(constants.SkipRetryFlowKeySuffix, "SKIP_RETRY_FLOW")}
	return t
}

func (m *Machine) stepConsent(s State, p Payload) Transition {
	var donations []Donation
	switch p.Kind {
	case PayloadJSON:
		donations = m.accept(withoutDeleted(m.log, s.Tables, p.Value))
	case PayloadTrue:
		donations = m.accept(s.Tables)
	case PayloadFalse:
		m.log.Info("Data submission declined", "platform", m.platform.Name())
		donations = []Donation{{Key: m.session, Data: []byte(constants.DeclinedStatus)}}
	default:
		m.log.Info("Skipped at consent", "platform", m.platform.Name())
	}

	if m.questionnaire != nil {
		return Transition{
			State:         State{Stage: AwaitingQuestionnaire},
			Request:       &Request{Header: table.T("Questionnaire", "Vragenlijst"), Body: *m.questionnaire},
			Donations:     donations,
			FlushTracking: true,
		}
	}

	t := m.done()
	t.Donations = donations
	return t
}

func (m *Machine) stepQuestionnaire(p Payload) Transition {
	var donations []Donation
	switch {
	case p.Kind != PayloadJSON:
		m.log.Info("Skipped questionnaire", "platform", m.platform.Name())
	case !json.Valid([]byte(p.Value)):
		m.log.Warn("Questionnaire answers are not valid JSON, ignoring them")
	default:
		donations = []Donation{{Key: m.session + constants.QuestionnaireKeySuffix, Data: []byte(p.Value)}}
	}

	t := m.done()
	t.Donations = donations
	return t
}

func (m *Machine) extract(path string, result validate.Result, selection string) Transition {
	tables := m.platform.Extract(m.log, path, result, selection)
	m.log.Info("Prompt consent", "platform", m.platform.Name(), "tables", len(tables))

	return Transition{
		State:   State{Stage: AwaitingConsent, Path: path, Result: result, Tables: tables},
		Request: m.consentRequest(tables),
	}
}

func (m *Machine) accept(tables []table.ExtractedTable) []Donation {
	data, err := table.Donation(tables)
	if err != nil {
		m.log.Error("Could not serialize the donated tables", "error", err)
		return nil
	}
	m.log.Info("Data donated", "platform", m.platform.Name(), "tables", len(tables))
	return []Donation{
		{Key: m.session, Data: data},
		m.status(constants.DonatedKeySuffix, "DONATED"),
	}
}

func (m *Machine) awaitFile() Transition {
	m.log.Info("Prompt for file", "platform", m.platform.Name())
	return Transition{
		State:   State{Stage: AwaitingFile},
		Request: m.fileRequest(),
	}
}

func (m *Machine) done() Transition {
	return Transition{
		State:         State{Stage: Done},
		FlushTracking: true,
		Exit:          &Exit{Code: constants.ExitSuccess, Info: constants.ExitSuccessInfo},
	}
}

func (m *Machine) status(suffix, status string) Donation {
	data, _ := json.Marshal(map[string]string{"status": status})
	return Donation{Key: m.session + suffix, Data: data}
}

// withoutDeleted returns the tables minus the deletable ones listed in the consent answer.
// An answer which is not a JSON object with a "tables" list keeps everything.
func withoutDeleted(log *slog.Logger, tables []table.ExtractedTable, answer string) []table.ExtractedTable {
	var a struct {
		Tables []string `json:"tables"`
	}
	if err := json.Unmarshal([]byte(answer), &a); err != nil {
		log.Warn("Could not read the consent answer, keeping every table", "error", err)
		return tables
	}
	if len(a.Tables) == 0 {
		return tables
	}

	kept := make([]table.ExtractedTable, 0, len(tables))
	for _, t := range tables {
		if t.Deletable && slices.Contains(a.Tables, t.ID) {
			log.Info("Table removed by the participant", "table", t.ID)
			continue
		}
		kept = append(kept, t)
	}
	return kept
}
