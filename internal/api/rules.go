package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/deskforge/automation/internal/rules"
	"github.com/deskforge/automation/internal/store"
)

// rulePayload is the create/update request body.
type rulePayload struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	TriggerType rules.TriggerType `json:"triggerType"`
	Conditions  []rules.Condition `json:"conditions"`
	Actions     []rules.Action    `json:"actions"`
	Expression  *string           `json:"expression,omitempty"`
	IsActive    *bool             `json:"isActive,omitempty"` // defaults to true
}

func (p rulePayload) toRule(id string) rules.Rule {
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	return rules.Rule{
		ID:          id,
		Name:        p.Name,
		Description: p.Description,
		TriggerType: p.TriggerType,
		Conditions:  p.Conditions,
		Actions:     p.Actions,
		Expression:  p.Expression,
		IsActive:    active,
	}
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListRules(r.Context())
	if err != nil {
		writeError(w, r, http.StatusServiceUnavailable, ErrCodeStoreDown, "rule store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]rules.Rule{"rules": list})
}

func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	rule, err := s.store.GetRule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, ErrCodeNotFound, "rule not found")
			return
		}
		writeError(w, r, http.StatusServiceUnavailable, ErrCodeStoreDown, "rule store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var payload rulePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, http.StatusBadRequest, ErrCodeInvalidJSON, "invalid JSON body")
		return
	}

	rule := payload.toRule("")
	if !s.validateRule(w, r, rule) {
		return
	}

	stored, err := s.store.CreateRule(r.Context(), rule)
	if err != nil {
		s.log.Error().Err(err).Msg("create rule")
		writeError(w, r, http.StatusServiceUnavailable, ErrCodeStoreDown, "rule store unavailable")
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	var payload rulePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, http.StatusBadRequest, ErrCodeInvalidJSON, "invalid JSON body")
		return
	}

	rule := payload.toRule(chi.URLParam(r, "id"))
	if !s.validateRule(w, r, rule) {
		return
	}

	stored, err := s.store.UpdateRule(r.Context(), rule)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, ErrCodeNotFound, "rule not found")
			return
		}
		s.log.Error().Err(err).Str("rule_id", rule.ID).Msg("update rule")
		writeError(w, r, http.StatusServiceUnavailable, ErrCodeStoreDown, "rule store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteRule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, ErrCodeNotFound, "rule not found")
			return
		}
		writeError(w, r, http.StatusServiceUnavailable, ErrCodeStoreDown, "rule store unavailable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// validateRule runs save-time validation, including a compile check of the
// optional CEL expression. Writes the error response itself and reports
// whether the rule is acceptable.
func (s *Server) validateRule(w http.ResponseWriter, r *http.Request, rule rules.Rule) bool {
	if err := rules.Validate(rule); err != nil {
		writeErrorFields(w, r, http.StatusBadRequest, ErrCodeValidation, "rule is invalid",
			map[string]string{"rule": err.Error()})
		return false
	}

	if rule.Expression != nil && *rule.Expression != "" {
		if _, err := s.expressions.Compile(*rule.Expression); err != nil {
			writeErrorFields(w, r, http.StatusBadRequest, ErrCodeValidation, "rule expression does not compile",
				map[string]string{"expression": err.Error()})
			return false
		}
	}
	return true
}
