package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deskforge/automation/internal/rules"
)

func TestClient_CreateRule(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/rules" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key-123" {
			t.Errorf("Authorization = %q", got)
		}

		var payload RulePayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}

		stored := rules.Rule{ID: "r-1", Name: payload.Name, TriggerType: payload.TriggerType}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(stored)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-123")
	rule, err := c.CreateRule(context.Background(), RulePayload{
		Name:        "escalate",
		TriggerType: rules.TriggerTicketCreated,
		Actions:     []rules.Action{{Type: rules.ActionSendEmail, Params: map[string]string{"subject": "s"}}},
	})
	if err != nil {
		t.Fatalf("CreateRule() error: %v", err)
	}
	if rule.ID != "r-1" || rule.Name != "escalate" {
		t.Fatalf("unexpected rule: %+v", rule)
	}
}

func TestClient_ListRules(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string][]rules.Rule{
			"rules": {{ID: "r-1"}, {ID: "r-2"}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-123")
	list, err := c.ListRules(context.Background())
	if err != nil {
		t.Fatalf("ListRules() error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d rules, want 2", len(list))
	}
}

func TestClient_DeleteRule(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/v1/rules/r-1" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-123")
	if err := c.DeleteRule(context.Background(), "r-1"); err != nil {
		t.Fatalf("DeleteRule() error: %v", err)
	}
}

func TestClient_APIErrorSurfacesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":"NOT_FOUND"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-123")
	_, err := c.GetRule(context.Background(), "ghost")
	if err == nil {
		t.Fatal("expected an error")
	}
}
