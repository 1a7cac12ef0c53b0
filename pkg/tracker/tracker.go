package tracker

import (
	"fmt"
	"net/http"

	"github.com/rollbar/rollbar-go"

	"github.com/Koomefranklin/kise-results-backend/config"
)

// Tracker forwards unexpected server errors to an external error tracker
type Tracker interface {
	Report(r *http.Request, err error, extras map[string]interface{})
	Close() error
}

// New returns a rollbar tracker, or a no-op one when no token is configured
func New(cfg *config.ErrorTrackerConfig) Tracker {
	if cfg == nil || cfg.Token == "" {
		return Nop{}
	}
	client := rollbar.New(cfg.Token, cfg.Environment, cfg.CodeVersion, "", "")
	return &rollbarTracker{client: client}
}

type rollbarTracker struct {
	client *rollbar.Client
}

func (t *rollbarTracker) Report(r *http.Request, err error, extras map[string]interface{}) {
	if userID, ok := extras["user_id"].(string); ok && userID != "" {
		t.client.SetPerson(userID, "", "")
	}
	t.client.RequestErrorWithExtras(rollbar.CRIT, r, err, extras)
}

func (t *rollbarTracker) Close() error {
	t.client.Wait()
	return t.client.Close()
}

// Nop drops every report
type Nop struct{}

// Report does nothing
func (Nop) Report(*http.Request, error, map[string]interface{}) {}

// Close does nothing
func (Nop) Close() error { return nil }

// PanicError wraps a recovered panic value
func PanicError(v interface{}) error {
	if err, ok := v.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", v)
}
