package engine

import "errors"

// Error taxonomy for a single automation pass.
//
// ErrConfiguration marks a rule or action that is structurally unusable at
// execution time (missing required param, unresolvable recipient, unknown
// action type). ErrCollaborator marks a downstream dependency failure or
// timeout (rule store, record mutator, notifier). Per-action errors of either
// kind never abort the pass; only a rule-store failure is fatal to a single
// OnEvent call.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrCollaborator  = errors.New("collaborator error")
)

// ErrorKind returns a stable label for an action or evaluation error, for use
// in reports and metrics. Unclassified errors report as "error".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrCollaborator):
		return "collaborator"
	default:
		return "error"
	}
}
