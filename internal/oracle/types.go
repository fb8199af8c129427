// Package oracle is the boundary to the external generation service: the
// plan/refinement request contract, a Gemini-backed client, and the Files
// API storage collaborator used for resumable transfers.
package oracle

import (
	"encoding/json"
	"fmt"

	"planforge/internal/ingest"
)

// EnergyLevel shapes how demanding the generated steps should be.
type EnergyLevel string

const (
	EnergyLow    EnergyLevel = "low"
	EnergyMedium EnergyLevel = "medium"
	EnergyHigh   EnergyLevel = "high"
)

// Granularity controls how finely the goal is broken down.
type Granularity string

const (
	GranularityFocused Granularity = "focused"
	GranularitySmall   Granularity = "small"
	GranularityMicro   Granularity = "micro"
)

// PlanRequest is one generation request. Inline and StoragePaths are
// mutually exclusive: a batch travels either as raw payloads or as
// resolved storage paths, never both.
type PlanRequest struct {
	Goal             string
	AllocatedMinutes int // 0 = unlimited
	Strict           bool
	Energy           EnergyLevel
	Granularity      Granularity
	Inline           []ingest.File
	StoragePaths     []string
}

// RefineRequest asks the oracle to turn a free-form edit command into a
// modification list for the current plan.
type RefineRequest struct {
	Command      string
	ProjectTitle string
	TasksJSON    string // current task list, serialized for the prompt
}

// PlanItem is one proposed step in a generation response. The wire format
// has drifted over time, so Action and EstimatedMinutes each accept an
// alias key.
type PlanItem struct {
	Title            string
	Action           string
	Details          string
	EstimatedMinutes int
}

type planItemWire struct {
	Title              string `json:"title"`
	Action             string `json:"action"`
	SubTaskDescription string `json:"sub_task_description"`
	Details            string `json:"details"`
	EstimatedMinutes   int    `json:"estimated_minutes"`
	EstimatedPerTask   int    `json:"estimated_minutes_per_sub_task"`
}

func (p *PlanItem) UnmarshalJSON(data []byte) error {
	var w planItemWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	p.Title = w.Title
	p.Action = w.Action
	if p.Action == "" {
		p.Action = w.SubTaskDescription
	}
	p.Details = w.Details
	p.EstimatedMinutes = w.EstimatedMinutes
	if p.EstimatedMinutes == 0 {
		p.EstimatedMinutes = w.EstimatedPerTask
	}
	return nil
}

// PlanResponse is the oracle's answer to a PlanRequest.
type PlanResponse struct {
	Success      bool       `json:"success"`
	Plan         []PlanItem `json:"plan"`
	ProjectTitle string     `json:"project_title"`
	TimeWarning  string     `json:"time_warning"`
	Error        string     `json:"error"`
}

// ContractError means the oracle's response violated the expected shape:
// unreachable, empty, or malformed. It is surfaced as a generic failure
// and never retried automatically.
type ContractError struct {
	Reason string
	Err    error
}

func (e *ContractError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("oracle contract violation: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("oracle contract violation: %s", e.Reason)
}

func (e *ContractError) Unwrap() error { return e.Err }
