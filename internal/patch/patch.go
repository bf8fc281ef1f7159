// Package patch turns partial-update payloads into per-column SQL SET
// clauses. Callers flatten only the sub-object fields the request actually
// provided, so sibling columns of an untouched nested field are never
// written.
package patch

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrNoFields = errors.New("no updatable fields")

// Set collects field→value assignments for one update statement.
type Set map[string]any

// Add records an assignment. Nil pointer dereferences are the caller's
// concern; Add is only invoked for fields present in the payload.
func (s Set) Add(field string, value any) { s[field] = value }

// AddString records an assignment when the pointer is non-nil.
func (s Set) AddString(field string, value *string) {
	if value != nil {
		s[field] = *value
	}
}

// Build renders the SET clause using the field→column mapping, with bind
// placeholders starting at $startIdx. Fields missing from the mapping are
// rejected rather than skipped: an unknown field in an update payload is a
// caller bug, not noise to ignore.
func (s Set) Build(columns map[string]string, startIdx int) (string, []any, error) {
	if len(s) == 0 {
		return "", nil, ErrNoFields
	}
	fields := make([]string, 0, len(s))
	for f := range s {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	clauses := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		col, ok := columns[f]
		if !ok {
			return "", nil, fmt.Errorf("field %q is not updatable", f)
		}
		clauses = append(clauses, fmt.Sprintf("%s = $%d", col, startIdx+len(args)))
		args = append(args, s[f])
	}
	return strings.Join(clauses, ", "), args, nil
}
