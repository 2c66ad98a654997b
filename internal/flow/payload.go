package flow

import (
	"fmt"

	"github.com/goccy/go-json"
)

// PayloadKind tags the response given to a request.
type PayloadKind string

// Payload kinds understood by the flow. Any other kind is handled like PayloadSkip.
const (
	PayloadString PayloadKind = "PayloadString"
	PayloadTrue   PayloadKind = "PayloadTrue"
	PayloadFalse  PayloadKind = "PayloadFalse"
	PayloadJSON   PayloadKind = "PayloadJSON"
	PayloadSkip   PayloadKind = "PayloadSkip"
)

// Payload is the response of the participant to a request.
type Payload struct {
	Kind  PayloadKind
	Value string
}

// String returns a payload carrying a file path or a selected item.
func String(v string) Payload { return Payload{Kind: PayloadString, Value: v} }

// True returns a positive confirmation payload.
func True() Payload { return Payload{Kind: PayloadTrue} }

// False returns a negative confirmation payload.
func False() Payload { return Payload{Kind: PayloadFalse} }

// JSON returns a payload carrying a JSON document.
func JSON(v string) Payload { return Payload{Kind: PayloadJSON, Value: v} }

// Skip returns a payload skipping the request.
func Skip() Payload { return Payload{Kind: PayloadSkip} }

type wirePayload struct {
	Kind  PayloadKind     `json:"__type__"`
	Value json.RawMessage `json:"value,omitempty"`
}

// MarshalJSON encodes p as {"__type__": kind, "value": value}.
func (p Payload) MarshalJSON() ([]byte, error) {
	w := wirePayload{Kind: p.Kind}
	switch p.Kind {
	case PayloadTrue:
		w.Value = json.RawMessage("true")
	case PayloadFalse:
		w.Value = json.RawMessage("false")
	case PayloadString, PayloadJSON:
		v, err := json.Marshal(p.Value)
		if err != nil {
			return nil, err
		}
		w.Value = v
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes {"__type__": kind, "value": value}.
// A JSON value which is not a string is kept as its raw document.
func (p *Payload) UnmarshalJSON(data []byte) error {
	var w wirePayload
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("invalid payload: %v", err)
	}

	p.Kind = w.Kind
	p.Value = ""
	if len(w.Value) == 0 || string(w.Value) == "null" {
		return nil
	}
	if w.Value[0] == '"' {
		if err := json.Unmarshal(w.Value, &p.Value); err != nil {
			return fmt.Errorf("invalid payload value: %v", err)
		}
		return nil
	}
	p.Value = string(w.Value)
	return nil
}
