package coverage

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// maxErrorBody caps how much of a non-2xx body is kept on a StatusError.
const maxErrorBody = 512

// StatusError reports a non-2xx response from the coverage service.
type StatusError struct {
	StatusCode int
	// Detail is the "detail" field of a JSON error body when present,
	// otherwise a truncated copy of the raw body.
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("coverage: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("coverage: unexpected status %d: %s", e.StatusCode, e.Detail)
}

func newStatusError(code int, body []byte) *StatusError {
	detail := ""
	if gjson.ValidBytes(body) {
		detail = gjson.GetBytes(body, "detail").String()
	}
	if detail == "" {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		detail = string(body)
	}
	return &StatusError{StatusCode: code, Detail: detail}
}

// IsStatus reports whether err carries a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
