// Package session drives one plan-generation/refinement session: it owns
// the current plan and the file selection, assembles oracle requests, and
// serializes refinement batches (single-writer discipline).
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"planforge/internal/ingest"
	"planforge/internal/oracle"
	"planforge/internal/plan"
	"planforge/internal/quota"
	"planforge/internal/refine"
	"planforge/internal/telemetry"
	"planforge/internal/upload"
)

// GenerateParams are the free-text parameters of one generation request.
type GenerateParams struct {
	Goal             string
	AllocatedMinutes int // 0 = unlimited
	Strict           bool
	Energy           oracle.EnergyLevel
	Granularity      oracle.Granularity
}

// GenerateResult carries the new plan plus the optional extras the oracle
// may return with it.
type GenerateResult struct {
	Plan        *plan.Plan
	TimeWarning string
}

// RefineResult carries the refined plan and the oracle's explanation.
type RefineResult struct {
	Plan        *plan.Plan
	Explanation string
}

// Session owns one plan. The current plan is mutated only by Generate and
// Refine, which are serialized internally: the refinement engine itself is
// not synchronized against interleaved batches.
type Session struct {
	tier     quota.Tier
	oracle   oracle.Client
	uploads  *upload.Orchestrator
	engine   *refine.Engine
	recorder *telemetry.Recorder
	logger   *zap.Logger

	mu       sync.Mutex
	current  *plan.Plan
	selected []ingest.File
}

// New creates a session. recorder may be nil when telemetry is disabled.
func New(tier quota.Tier, client oracle.Client, uploads *upload.Orchestrator, recorder *telemetry.Recorder, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		tier:     tier,
		oracle:   client,
		uploads:  uploads,
		engine:   refine.NewEngine(logger),
		recorder: recorder,
		logger:   logger,
	}
}

// AttachFiles filters and validates a candidate batch against the quota
// policy and the current selection, then adds the accepted files. When any
// file is rejected the returned error is an *ingest.ValidationError
// collecting every violation; accepted siblings are still added.
func (s *Session) AttachFiles(candidates []ingest.File) ([]ingest.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	typed, rejected := ingest.FilterTypes(candidates)
	res := ingest.Validate(s.selected, typed, rejected, quota.PolicyFor(s.tier))

	s.selected = append(s.selected, res.Accepted...)

	if len(res.Errors) > 0 {
		s.record("files_rejected", map[string]string{
			"violations": strconv.Itoa(len(res.Errors)),
		})
		return res.Accepted, &ingest.ValidationError{Messages: res.Errors}
	}
	return res.Accepted, nil
}

// SelectedFiles returns a copy of the current selection.
func (s *Session) SelectedFiles() []ingest.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ingest.File(nil), s.selected...)
}

// ClearFiles empties the selection.
func (s *Session) ClearFiles() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = nil
}

// Generate runs the full pipeline: pick the transfer strategy for the
// selected files, stage them, call the oracle once, validate its plan list
// and install the new plan. A new attempt supersedes any stale progress
// state; the previous plan survives any failure.
func (s *Session) Generate(ctx context.Context, params GenerateParams) (*GenerateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if params.Goal == "" {
		return nil, fmt.Errorf("goal is required")
	}

	desc := ingest.Describe(s.tier, s.selected)
	s.logger.Info("generating plan",
		zap.String("tier", string(s.tier)),
		zap.Int("files", len(desc.Files)),
		zap.String("strategy", string(desc.Strategy)))

	staged, err := s.uploads.Stage(ctx, desc)
	if err != nil {
		s.record("upload_failed", nil)
		return nil, err
	}

	req := &oracle.PlanRequest{
		Goal:             params.Goal,
		AllocatedMinutes: params.AllocatedMinutes,
		Strict:           params.Strict,
		Energy:           params.Energy,
		Granularity:      params.Granularity,
	}
	switch desc.Strategy {
	case ingest.StrategyInline:
		for _, st := range staged {
			req.Inline = append(req.Inline, st.File)
		}
	case ingest.StrategyResumable:
		for _, st := range staged {
			req.StoragePaths = append(req.StoragePaths, st.StoragePath)
		}
	}

	resp, err := s.oracle.GeneratePlan(ctx, req)
	if err != nil {
		s.record("generation_failed", nil)
		return nil, err
	}
	if resp == nil || len(resp.Plan) == 0 {
		// An empty list is a hard failure, not "no suggestions".
		s.record("generation_failed", nil)
		return nil, &oracle.ContractError{Reason: "response contains no plan items"}
	}

	next := buildPlan(params.Goal, resp)
	s.current = next
	s.record("plan_generated", map[string]string{
		"tasks": strconv.Itoa(len(next.Tasks)),
	})

	return &GenerateResult{Plan: next.Clone(), TimeWarning: resp.TimeWarning}, nil
}

// Refine turns a free-form edit command into a modification batch via the
// oracle and applies it atomically: the current plan is replaced only when
// the whole batch parses and applies cleanly.
func (s *Session) Refine(ctx context.Context, command string) (*RefineResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, fmt.Errorf("no plan to refine; generate one first")
	}
	if command == "" {
		return nil, fmt.Errorf("refinement command is required")
	}

	tasksJSON, err := json.MarshalIndent(s.current.Tasks, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize tasks: %w", err)
	}

	raw, err := s.oracle.ProposeModifications(ctx, &oracle.RefineRequest{
		Command:      command,
		ProjectTitle: s.current.ProjectTitle,
		TasksJSON:    string(tasksJSON),
	})
	if err != nil {
		s.record("refinement_failed", map[string]string{"stage": "oracle"})
		return nil, err
	}

	batch, err := refine.Parse(raw)
	if err != nil {
		s.record("refinement_failed", map[string]string{"stage": "parse"})
		return nil, err
	}

	next, err := s.engine.Apply(s.current, batch)
	if err != nil {
		s.record("refinement_failed", map[string]string{"stage": "apply"})
		return nil, err
	}

	s.current = next
	s.record("plan_refined", map[string]string{
		"operations": strconv.Itoa(len(batch.Modifications)),
	})

	return &RefineResult{Plan: next.Clone(), Explanation: batch.Explanation}, nil
}

// Current returns a copy of the current plan, or nil.
func (s *Session) Current() *plan.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	return s.current.Clone()
}

// SetPlan installs an externally loaded plan (e.g. read from disk by the
// CLI before a refinement run).
func (s *Session) SetPlan(p *plan.Plan) error {
	if p == nil {
		return fmt.Errorf("plan is nil")
	}
	if !p.HasUniqueIDs() {
		return fmt.Errorf("plan has duplicate task ids")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = p.Clone()
	return nil
}

// Reset discards the plan and the file selection.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.selected = nil
}

// buildPlan converts a validated oracle response into a Plan, assigning a
// fresh unique id to every task.
func buildPlan(goal string, resp *oracle.PlanResponse) *plan.Plan {
	title := resp.ProjectTitle
	if title == "" {
		title = goal
	}
	p := &plan.Plan{ProjectTitle: title}
	for _, item := range resp.Plan {
		p.Tasks = append(p.Tasks, plan.SubTask{
			ID:               uuid.NewString(),
			Title:            item.Title,
			Action:           item.Action,
			Details:          item.Details,
			EstimatedMinutes: item.EstimatedMinutes,
		})
	}
	return p
}

func (s *Session) record(name string, fields map[string]string) {
	if s.recorder != nil {
		s.recorder.Record(name, fields)
	}
}
