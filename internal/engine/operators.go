package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/deskforge/automation/internal/rules"
)

// OperatorHandler evaluates one condition operator against a snapshot value
// that has already been stringified. Handlers only ever see present fields;
// missing-field semantics live in Matches.
type OperatorHandler interface {
	Check(fieldValue, condValue string) bool
}

var operatorHandlers = map[rules.Operator]OperatorHandler{
	rules.OpEquals:     equalsHandler{},
	rules.OpNotEquals:  notEqualsHandler{},
	rules.OpContains:   containsHandler{},
	rules.OpStartsWith: startsWithHandler{},
	rules.OpEndsWith:   endsWithHandler{},
	rules.OpVersionGT:  semverCompareHandler{cmp: func(a, b *semver.Version) bool { return a.GreaterThan(b) }},
	rules.OpVersionLT:  semverCompareHandler{cmp: func(a, b *semver.Version) bool { return a.LessThan(b) }},
}

type equalsHandler struct{}

// Check is case-sensitive and whitespace-preserving: it matches the literal
// stored value with no coercion beyond the stringification already applied.
func (equalsHandler) Check(fieldValue, condValue string) bool {
	return fieldValue == condValue
}

type notEqualsHandler struct{}

func (notEqualsHandler) Check(fieldValue, condValue string) bool {
	return !equalsHandler{}.Check(fieldValue, condValue)
}

type containsHandler struct{}

func (containsHandler) Check(fieldValue, condValue string) bool {
	return strings.Contains(fieldValue, condValue)
}

type startsWithHandler struct{}

func (startsWithHandler) Check(fieldValue, condValue string) bool {
	return strings.HasPrefix(fieldValue, condValue)
}

type endsWithHandler struct{}

func (endsWithHandler) Check(fieldValue, condValue string) bool {
	return strings.HasSuffix(fieldValue, condValue)
}

type semverCompareHandler struct {
	cmp func(a, b *semver.Version) bool
}

func (h semverCompareHandler) Check(fieldValue, condValue string) bool {
	fieldVer, err := semver.NewVersion(fieldValue)
	if err != nil {
		return false
	}
	condVer, err := semver.NewVersion(condValue)
	if err != nil {
		return false
	}
	return h.cmp(fieldVer, condVer)
}

// stringify converts a snapshot value to its comparison form. Snapshots
// arrive from JSON, so numbers are usually float64; integral floats render
// without a trailing ".0" to match how the admin UI displays them.
func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}
