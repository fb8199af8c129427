// Package refine turns raw oracle output into validated modification
// batches and applies them to a plan.
package refine

import (
	"encoding/json"
	"fmt"
	"strings"

	"planforge/internal/plan"
)

// Batch is a validated refinement response: the ordered modification list
// plus the optional strings that may ride along with it.
type Batch struct {
	Modifications   []plan.Modification
	NewProjectTitle string
	Explanation     string
}

// ParseError is a structural violation of the modification grammar. The
// whole batch is rejected; there is no partial acceptance of a malformed
// response.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid modification response: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid modification response: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// batchWire is the oracle's refinement response envelope.
type batchWire struct {
	Modifications   []plan.Modification `json:"modifications"`
	NewProjectTitle string              `json:"new_project_title"`
	Explanation     string              `json:"explanation"`
}

// Parse validates raw oracle output against the modification grammar.
// The payload must be strict JSON once surrounding code-fence markers are
// stripped, with the ordered list under the "modifications" key. Element
// validation is purely structural; task-id existence and reorder
// permutation-completeness are checked at apply time.
func Parse(raw string) (*Batch, error) {
	stripped := StripCodeFences(raw)
	if stripped == "" {
		return nil, &ParseError{Reason: "empty response"}
	}

	var w batchWire
	if err := json.Unmarshal([]byte(stripped), &w); err != nil {
		return nil, &ParseError{Reason: "not valid JSON", Err: err}
	}
	if w.Modifications == nil {
		return nil, &ParseError{Reason: "missing modifications list"}
	}

	return &Batch{
		Modifications:   w.Modifications,
		NewProjectTitle: strings.TrimSpace(w.NewProjectTitle),
		Explanation:     strings.TrimSpace(w.Explanation),
	}, nil
}

// StripCodeFences removes surrounding markdown code-block markers.
// Models habitually wrap JSON in ```json fences even when told not to.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
