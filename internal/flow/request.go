package flow

import (
	"github.com/goccy/go-json"
	"github.com/ubuntu/ddp-insights/internal/table"
)

// Request asks the participant for one response.
type Request struct {
	Header table.Translatable `json:"header"`
	Body   Body               `json:"body"`
}

// Body is the prompt of a request. The set of bodies is closed.
type Body interface {
	// Type is the tag of the body on the wire.
	Type() string
	isBody()
}

// FileInput asks for a data download package.
type FileInput struct {
	Description table.Translatable `json:"description"`
	Extensions  string             `json:"extensions"`
}

// Confirm asks a yes or no question.
type Confirm struct {
	Text   table.Translatable `json:"text"`
	Ok     table.Translatable `json:"ok"`
	Cancel table.Translatable `json:"cancel"`
}

// ConsentForm shows the extracted tables before donation.
type ConsentForm struct {
	Tables         []table.ExtractedTable `json:"tables"`
	Description    table.Translatable     `json:"description"`
	DonateQuestion table.Translatable     `json:"donateQuestion"`
	DonateButton   table.Translatable     `json:"donateButton"`
}

// RadioItem is one option of a Radio prompt.
type RadioItem struct {
	ID    int    `json:"id"`
	Value string `json:"value"`
}

// Radio asks to pick one item.
type Radio struct {
	Title       table.Translatable `json:"title"`
	Description table.Translatable `json:"description"`
	Items       []RadioItem        `json:"items"`
}

// QuestionKind is the kind of answer a question expects.
type QuestionKind string

// Supported question kinds.
const (
	QuestionOpen           QuestionKind = "PropsUIQuestionOpen"
	QuestionMultipleChoice QuestionKind = "PropsUIQuestionMultipleChoice"
	QuestionCheckbox       QuestionKind = "PropsUIQuestionMultipleChoiceCheckbox"
)

// Question is one question of a Questionnaire.
type Question struct {
	ID       int                  `json:"id" yaml:"id"`
	Kind     QuestionKind         `json:"__type__" yaml:"type"`
	Question table.Translatable   `json:"question" yaml:"question"`
	Choices  []table.Translatable `json:"choices,omitempty" yaml:"choices"`
}

// Questionnaire asks a list of questions after the consent step.
type Questionnaire struct {
	Description table.Translatable `json:"description" yaml:"description"`
	Questions   []Question         `json:"questions" yaml:"questions"`
}

func (FileInput) isBody()     {}
func (Confirm) isBody()       {}
func (ConsentForm) isBody()   {}
func (Radio) isBody()         {}
func (Questionnaire) isBody() {}

// Type implements Body.
func (FileInput) Type() string { return "PropsUIPromptFileInput" }

// Type implements Body.
func (Confirm) Type() string { return "PropsUIPromptConfirm" }

// Type implements Body.
func (ConsentForm) Type() string { return "PropsUIPromptConsentFormViz" }

// Type implements Body.
func (Radio) Type() string { return "PropsUIPromptRadioInput" }

// Type implements Body.
func (Questionnaire) Type() string { return "PropsUIPromptQuestionnaire" }

// MarshalJSON encodes b with its type tag.
func (b FileInput) MarshalJSON() ([]byte, error) {
	type alias FileInput
	return tagged(b.Type(), alias(b))
}

// MarshalJSON encodes b with its type tag.
func (b Confirm) MarshalJSON() ([]byte, error) {
	type alias Confirm
	return tagged(b.Type(), alias(b))
}

// MarshalJSON encodes b with its type tag.
func (b ConsentForm) MarshalJSON() ([]byte, error) {
	type alias ConsentForm
	return tagged(b.Type(), alias(b))
}

// MarshalJSON encodes b with its type tag.
func (b Radio) MarshalJSON() ([]byte, error) {
	type alias Radio
	return tagged(b.Type(), alias(b))
}

// MarshalJSON encodes b with its type tag.
func (b Questionnaire) MarshalJSON() ([]byte, error) {
	type alias Questionnaire
	return tagged(b.Type(), alias(b))
}

// tagged prepends the "__type__" key to the JSON object encoding body.
func tagged(tag string, body any) ([]byte, error) {
	obj, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	t, err := json.Marshal(tag)
	if err != nil {
		return nil, err
	}

	out := append([]byte(`{"__type__":`), t...)
	if len(obj) <= 2 {
		return append(out, '}'), nil
	}
	out = append(out, ',')
	return append(out, obj[1:]...), nil
}
