package form

import (
	"github.com/sells-group/coverage-cli/pkg/coverage"
)

// Status strings shown in place of a payload.
const (
	StatusEmptyAddress = "Please enter an address."
	StatusFetchError   = "Error fetching data"
)

// Kind tags which variant an Outcome holds.
type Kind int

// Outcome kinds.
const (
	KindNone Kind = iota
	KindStatus
	KindPayload
)

func (k Kind) String() string {
	switch k {
	case KindStatus:
		return "status"
	case KindPayload:
		return "payload"
	default:
		return "none"
	}
}

// Outcome is the result of one search attempt: nothing yet, a status
// string, or a coverage payload.
type Outcome struct {
	kind    Kind
	status  string
	payload *coverage.Payload
}

// Status builds a status outcome.
func Status(text string) Outcome {
	return Outcome{kind: KindStatus, status: text}
}

// Payload builds a payload outcome.
func Payload(p *coverage.Payload) Outcome {
	return Outcome{kind: KindPayload, payload: p}
}

// Kind returns the variant tag.
func (o Outcome) Kind() Kind { return o.kind }

// Status returns the status text and whether o is a status outcome.
func (o Outcome) Status() (string, bool) {
	return o.status, o.kind == KindStatus
}

// Payload returns the payload and whether o is a payload outcome.
func (o Outcome) Payload() (*coverage.Payload, bool) {
	return o.payload, o.kind == KindPayload
}

// IsZero reports whether no search has completed.
func (o Outcome) IsZero() bool { return o.kind == KindNone }

// Render returns the display text: the status verbatim, the payload as
// indented JSON, or "" when there is nothing to show.
func (o Outcome) Render() string {
	switch o.kind {
	case KindStatus:
		return o.status
	case KindPayload:
		if o.payload == nil {
			return StatusFetchError
		}
		text, err := o.payload.Indent()
		if err != nil {
			return StatusFetchError
		}
		return text
	default:
		return ""
	}
}
