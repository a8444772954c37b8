// Package testutil provides shared helpers for API and engine tests.
package testutil

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/deskforge/automation/internal/api"
	"github.com/deskforge/automation/internal/engine"
	"github.com/deskforge/automation/internal/records"
	"github.com/deskforge/automation/internal/rules"
	"github.com/deskforge/automation/internal/store"
)

// SentMail is one captured SendEmail call.
type SentMail struct {
	Recipient string
	Subject   string
	Body      string
}

// CapturingNotifier records SendEmail calls instead of delivering them.
type CapturingNotifier struct {
	mu   sync.Mutex
	Sent []SentMail
	// Err, when set, is returned by every SendEmail call.
	Err error
}

// SendEmail captures the message.
func (n *CapturingNotifier) SendEmail(ctx context.Context, recipient, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.Sent = append(n.Sent, SentMail{Recipient: recipient, Subject: subject, Body: body})
	return nil
}

// Fixture bundles the in-memory collaborators behind a test server.
type Fixture struct {
	Store    *store.MemoryStore
	Records  *records.MemoryRecords
	Notifier *CapturingNotifier
	Engine   *engine.Engine
}

// NewTestServer creates an API server wired to in-memory collaborators.
func NewTestServer(t *testing.T, adminKey string) (*api.Server, *Fixture) {
	t.Helper()

	f := &Fixture{
		Store:    store.NewMemoryStore(),
		Records:  records.NewMemoryRecords(),
		Notifier: &CapturingNotifier{},
	}

	eng, err := engine.New(f.Store, f.Records, f.Notifier)
	if err != nil {
		t.Fatalf("engine.New() error: %v", err)
	}
	f.Engine = eng

	server, err := api.NewServer(f.Store, eng, adminKey)
	if err != nil {
		t.Fatalf("api.NewServer() error: %v", err)
	}
	return server, f
}

// SeedRules populates the store with test rules.
func SeedRules(t *testing.T, st store.Store, list []rules.Rule) []rules.Rule {
	t.Helper()
	stored := make([]rules.Rule, 0, len(list))
	for _, r := range list {
		created, err := st.CreateRule(context.Background(), r)
		if err != nil {
			t.Fatalf("seed rule %q: %v", r.Name, err)
		}
		stored = append(stored, created)
	}
	return stored
}

// HTTPRequest is a helper for making test HTTP requests.
type HTTPRequest struct {
	Method  string
	Path    string
	Body    string
	Headers map[string]string
}

// Do executes the HTTP request and returns the response recorder.
func (r *HTTPRequest) Do(t *testing.T, handler http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if r.Body != "" {
		body = bytes.NewBufferString(r.Body)
	}
	req := httptest.NewRequest(r.Method, r.Path, body)
	if r.Body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}
