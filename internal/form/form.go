// Package form implements the coverage query form: one address field, a
// search action, and the outcome of the latest search.
package form

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/coverage-cli/pkg/coverage"
)

// Form holds the address being edited and the outcome of the most recently
// issued search that has completed. It is safe for concurrent use.
type Form struct {
	client coverage.Client

	mu      sync.Mutex
	address string
	outcome Outcome
	issued  uint64 // token of the latest search started
	applied uint64 // token that produced outcome
}

// New creates an empty form backed by client.
func New(client coverage.Client) *Form {
	return &Form{client: client}
}

// SetAddress replaces the current address.
func (f *Form) SetAddress(text string) {
	f.mu.Lock()
	f.address = text
	f.mu.Unlock()
}

// Address returns the current address.
func (f *Form) Address() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.address
}

// Outcome returns the outcome of the latest completed search.
func (f *Form) Outcome() Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outcome
}

// Render returns the display text of the current outcome.
func (f *Form) Render() string {
	return f.Outcome().Render()
}

// Search looks up coverage for the current address and returns this
// attempt's outcome. The stored outcome is only replaced if no search issued
// after this one has already completed.
func (f *Form) Search(ctx context.Context) Outcome {
	f.mu.Lock()
	address := f.address
	f.issued++
	token := f.issued
	f.mu.Unlock()

	var out Outcome
	if strings.TrimSpace(address) == "" {
		out = Status(StatusEmptyAddress)
	} else {
		out = f.fetch(ctx, address)
	}

	f.mu.Lock()
	if token > f.applied {
		f.outcome = out
		f.applied = token
	} else {
		zap.L().Debug("form: discarding stale outcome",
			zap.Uint64("token", token),
			zap.Uint64("applied", f.applied),
		)
	}
	f.mu.Unlock()

	return out
}

func (f *Form) fetch(ctx context.Context, address string) (out Outcome) {
	requestID := uuid.New().String()
	log := zap.L().With(zap.String("request_id", requestID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("form: search panicked", zap.String("panic", fmt.Sprint(r)))
			out = Status(StatusFetchError)
		}
	}()

	log.Info("form: search", zap.String("address", address))

	payload := coverage.FetchCoverage(ctx, f.client, address)
	if payload == nil {
		return Status(StatusFetchError)
	}
	return Payload(payload)
}
