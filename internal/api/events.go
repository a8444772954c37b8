package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/deskforge/automation/internal/engine"
	"github.com/deskforge/automation/internal/event"
	"github.com/deskforge/automation/internal/history"
	"github.com/deskforge/automation/internal/rules"
	"github.com/deskforge/automation/internal/telemetry"
)

// eventRequest is the domain-event ingestion body, posted by the ticket and
// asset services after a record mutation.
type eventRequest struct {
	TriggerType      rules.TriggerType `json:"triggerType"`
	EntityID         string            `json:"entityId"`
	Snapshot         map[string]any    `json:"snapshot"`
	PreviousSnapshot map[string]any    `json:"previousSnapshot,omitempty"`
}

// handleEvent runs one synchronous automation pass and returns the full run
// report, including non-matching rules, so callers can assert both positive
// and negative matches.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, ErrCodeInvalidJSON, "invalid JSON body")
		return
	}

	if req.TriggerType.Entity() == "" {
		writeErrorFields(w, r, http.StatusBadRequest, ErrCodeValidation, "unknown trigger type",
			map[string]string{"triggerType": string(req.TriggerType)})
		return
	}
	if req.EntityID == "" {
		writeErrorFields(w, r, http.StatusBadRequest, ErrCodeValidation, "entityId is required",
			map[string]string{"entityId": "must not be empty"})
		return
	}
	if req.Snapshot == nil {
		req.Snapshot = map[string]any{}
	}

	ev := event.Event{
		TriggerType:      req.TriggerType,
		EntityID:         req.EntityID,
		Snapshot:         req.Snapshot,
		PreviousSnapshot: req.PreviousSnapshot,
	}

	report, err := s.engine.OnEvent(r.Context(), ev)
	if err != nil {
		// Rules could not even be determined; the caller should retry the
		// whole event later.
		if errors.Is(err, engine.ErrCollaborator) {
			writeError(w, r, http.StatusServiceUnavailable, ErrCodeStoreDown, "rule store unavailable")
			return
		}
		s.log.Error().Err(err).Str("trigger", string(req.TriggerType)).Msg("automation pass failed")
		writeError(w, r, http.StatusInternalServerError, ErrCodeInternal, "automation pass failed")
		return
	}

	observeRun(report)
	if s.recorder != nil {
		s.recorder.Record(report)
	}

	writeJSON(w, http.StatusOK, history.FromReport(report))
}

func observeRun(report *engine.RunReport) {
	telemetry.EventsProcessed.WithLabelValues(string(report.TriggerType)).Inc()
	telemetry.RulesMatched.Add(float64(report.MatchedCount()))
	for _, rr := range report.Reports {
		for _, ar := range rr.ActionResults {
			outcome := "success"
			if !ar.Success {
				outcome = engine.ErrorKind(ar.Err)
			}
			telemetry.ActionResults.WithLabelValues(string(ar.ActionType), outcome).Inc()
		}
	}
}
