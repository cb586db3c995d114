package coverage

import (
	"bytes"
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
)

// Payload is a JSON object returned by the coverage service. The raw bytes
// are kept so key order and number formatting pass through untouched.
type Payload struct {
	raw []byte
}

// NewPayload validates that raw is a single JSON object and wraps it.
func NewPayload(raw []byte) (*Payload, error) {
	raw = bytes.TrimSpace(raw)
	if !gjson.ValidBytes(raw) {
		return nil, eris.New("coverage: decode response: invalid JSON")
	}
	if !gjson.ParseBytes(raw).IsObject() {
		return nil, eris.New("coverage: decode response: not a JSON object")
	}
	cp := make([]byte, len(raw))
	copy(cp, raw)
	return &Payload{raw: cp}, nil
}

// Raw returns the payload bytes as received.
func (p *Payload) Raw() json.RawMessage {
	return json.RawMessage(p.raw)
}

// MarshalJSON emits the payload unchanged.
func (p *Payload) MarshalJSON() ([]byte, error) {
	return p.raw, nil
}

// Map decodes the payload into a generic map. Numbers are kept as json.Number.
func (p *Payload) Map() (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(p.raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, eris.Wrap(err, "coverage: decode payload")
	}
	return m, nil
}

// Get returns the value at a gjson path, e.g. "Orange.4G".
func (p *Payload) Get(path string) gjson.Result {
	return gjson.GetBytes(p.raw, path)
}

// Indent renders the payload as two-space indented JSON.
func (p *Payload) Indent() (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, p.raw, "", "  "); err != nil {
		return "", eris.Wrap(err, "coverage: indent payload")
	}
	return buf.String(), nil
}
