package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"planforge/internal/ingest"
	"planforge/internal/oracle"
	"planforge/internal/plan"
	"planforge/internal/quota"
	"planforge/internal/refine"
	"planforge/internal/upload"
)

// scriptedOracle returns canned responses and records the requests it saw.
type scriptedOracle struct {
	planResp   *oracle.PlanResponse
	planErr    error
	refineResp string
	refineErr  error

	lastPlanReq   *oracle.PlanRequest
	lastRefineReq *oracle.RefineRequest
}

func (o *scriptedOracle) GeneratePlan(ctx context.Context, req *oracle.PlanRequest) (*oracle.PlanResponse, error) {
	o.lastPlanReq = req
	return o.planResp, o.planErr
}

func (o *scriptedOracle) ProposeModifications(ctx context.Context, req *oracle.RefineRequest) (string, error) {
	o.lastRefineReq = req
	return o.refineResp, o.refineErr
}

type nullStore struct{}

func (nullStore) Upload(ctx context.Context, f ingest.File, onProgress func(upload.Progress)) (string, error) {
	return "files/" + f.Name, nil
}

func newTestSession(tier quota.Tier, o oracle.Client) *Session {
	return New(tier, o, upload.NewOrchestrator(nullStore{}, nil, nil), nil, nil)
}

func TestGenerate_InstallsPlanWithFreshIDs(t *testing.T) {
	orc := &scriptedOracle{planResp: &oracle.PlanResponse{
		Success:      true,
		ProjectTitle: "Learn Go",
		TimeWarning:  "90 minutes is tight",
		Plan: []oracle.PlanItem{
			{Title: "Setup", Action: "install toolchain", EstimatedMinutes: 20},
			{Title: "Practice", Action: "write a small program", EstimatedMinutes: 70},
		},
	}}
	s := newTestSession(quota.TierStandard, orc)

	res, err := s.Generate(context.Background(), GenerateParams{Goal: "learn Go", AllocatedMinutes: 90})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if res.Plan.ProjectTitle != "Learn Go" {
		t.Fatalf("ProjectTitle = %q", res.Plan.ProjectTitle)
	}
	if res.TimeWarning == "" {
		t.Fatal("TimeWarning lost")
	}
	if len(res.Plan.Tasks) != 2 {
		t.Fatalf("tasks = %d, want 2", len(res.Plan.Tasks))
	}
	for _, task := range res.Plan.Tasks {
		if task.ID == "" {
			t.Fatal("task missing generated id")
		}
	}
	if !res.Plan.HasUniqueIDs() {
		t.Fatal("generated ids must be unique")
	}
	if cur := s.Current(); cur == nil || len(cur.Tasks) != 2 {
		t.Fatalf("session did not install the plan: %+v", cur)
	}
}

func TestGenerate_OracleFailureKeepsOldPlan(t *testing.T) {
	orc := &scriptedOracle{planResp: &oracle.PlanResponse{
		Success: true,
		Plan:    []oracle.PlanItem{{Title: "A", Action: "a"}},
	}}
	s := newTestSession(quota.TierStandard, orc)

	if _, err := s.Generate(context.Background(), GenerateParams{Goal: "first"}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	before := s.Current()

	orc.planResp = nil
	orc.planErr = &oracle.ContractError{Reason: "empty completion"}
	if _, err := s.Generate(context.Background(), GenerateParams{Goal: "second"}); err == nil {
		t.Fatal("expected error")
	}

	if diff := cmp.Diff(before, s.Current()); diff != "" {
		t.Fatalf("plan changed after failed generation (-want +got):\n%s", diff)
	}
}

func TestGenerate_EmptyPlanListIsContractError(t *testing.T) {
	orc := &scriptedOracle{planResp: &oracle.PlanResponse{Success: true}}
	s := newTestSession(quota.TierStandard, orc)

	_, err := s.Generate(context.Background(), GenerateParams{Goal: "g"})
	var ce *oracle.ContractError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want *oracle.ContractError", err)
	}
}

func TestGenerate_RequiresGoal(t *testing.T) {
	s := newTestSession(quota.TierStandard, &scriptedOracle{})
	if _, err := s.Generate(context.Background(), GenerateParams{}); err == nil {
		t.Fatal("expected error for empty goal")
	}
}

func TestGenerate_PremiumLargeFilesTravelAsStoragePaths(t *testing.T) {
	orc := &scriptedOracle{planResp: &oracle.PlanResponse{
		Success: true,
		Plan:    []oracle.PlanItem{{Title: "A", Action: "a"}},
	}}
	s := newTestSession(quota.TierPremium, orc)

	// Three 20MB files exceed the inline ceiling, forcing resumable.
	if _, err := s.AttachFiles([]ingest.File{
		{Name: "a.pdf", Size: 20_000_000, ContentType: "application/pdf"},
		{Name: "b.pdf", Size: 20_000_000, ContentType: "application/pdf"},
		{Name: "c.pdf", Size: 20_000_000, ContentType: "application/pdf"},
	}); err != nil {
		t.Fatalf("AttachFiles() error = %v", err)
	}

	if _, err := s.Generate(context.Background(), GenerateParams{Goal: "summarize"}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(orc.lastPlanReq.Inline) != 0 {
		t.Fatalf("request carries %d inline files, want 0", len(orc.lastPlanReq.Inline))
	}
	if len(orc.lastPlanReq.StoragePaths) != 3 {
		t.Fatalf("request carries %d storage paths, want 3", len(orc.lastPlanReq.StoragePaths))
	}
}

func TestGenerate_StandardFilesTravelInline(t *testing.T) {
	orc := &scriptedOracle{planResp: &oracle.PlanResponse{
		Success: true,
		Plan:    []oracle.PlanItem{{Title: "A", Action: "a"}},
	}}
	s := newTestSession(quota.TierStandard, orc)

	if _, err := s.AttachFiles([]ingest.File{
		{Name: "notes.txt", Size: 1000, ContentType: "text/plain"},
	}); err != nil {
		t.Fatalf("AttachFiles() error = %v", err)
	}
	if _, err := s.Generate(context.Background(), GenerateParams{Goal: "plan"}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(orc.lastPlanReq.Inline) != 1 || len(orc.lastPlanReq.StoragePaths) != 0 {
		t.Fatalf("req files = %d inline / %d paths, want 1/0",
			len(orc.lastPlanReq.Inline), len(orc.lastPlanReq.StoragePaths))
	}
}

func TestAttachFiles_PartialAcceptance(t *testing.T) {
	s := newTestSession(quota.TierStandard, &scriptedOracle{})

	accepted, err := s.AttachFiles([]ingest.File{
		{Name: "ok.txt", Size: 1000, ContentType: "text/plain"},
		{Name: "huge.txt", Size: 50_000_000, ContentType: "text/plain"},
	})
	if err == nil {
		t.Fatal("expected ValidationError")
	}
	var ve *ingest.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %T, want *ingest.ValidationError", err)
	}
	if len(accepted) != 1 || accepted[0].Name != "ok.txt" {
		t.Fatalf("accepted = %+v, want ok.txt only", accepted)
	}
	if got := s.SelectedFiles(); len(got) != 1 {
		t.Fatalf("selection = %+v, accepted files must still be added", got)
	}
}

func TestRefine_AppliesBatchAtomically(t *testing.T) {
	orc := &scriptedOracle{
		planResp: &oracle.PlanResponse{
			Success: true,
			Plan: []oracle.PlanItem{
				{Title: "One", Action: "first"},
				{Title: "Two", Action: "second"},
			},
		},
	}
	s := newTestSession(quota.TierStandard, orc)
	if _, err := s.Generate(context.Background(), GenerateParams{Goal: "g"}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	target := s.Current().Tasks[0].ID
	orc.refineResp = "```json\n" +
		`{"modifications":[{"type":"update","task_id":"` + target + `","changes":{"estimated_minutes":10}}],"explanation":"timed the first step"}` +
		"\n```"

	res, err := s.Refine(context.Background(), "make the first task 10 minutes")
	if err != nil {
		t.Fatalf("Refine() error = %v", err)
	}
	if res.Plan.Tasks[0].EstimatedMinutes != 10 {
		t.Fatalf("EstimatedMinutes = %d, want 10", res.Plan.Tasks[0].EstimatedMinutes)
	}
	if res.Explanation != "timed the first step" {
		t.Fatalf("Explanation = %q", res.Explanation)
	}
	if !strings.Contains(orc.lastRefineReq.TasksJSON, target) {
		t.Fatal("refine prompt must carry the current task list")
	}
}

func TestRefine_MalformedBatchKeepsPlan(t *testing.T) {
	orc := &scriptedOracle{
		planResp: &oracle.PlanResponse{
			Success: true,
			Plan:    []oracle.PlanItem{{Title: "One", Action: "first"}},
		},
		refineResp: "I changed the plan for you!",
	}
	s := newTestSession(quota.TierStandard, orc)
	if _, err := s.Generate(context.Background(), GenerateParams{Goal: "g"}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	before := s.Current()

	_, err := s.Refine(context.Background(), "remove everything")
	var pe *refine.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *refine.ParseError", err)
	}
	if diff := cmp.Diff(before, s.Current()); diff != "" {
		t.Fatalf("plan changed after rejected batch (-want +got):\n%s", diff)
	}
}

func TestRefine_WithoutPlanFails(t *testing.T) {
	s := newTestSession(quota.TierStandard, &scriptedOracle{})
	if _, err := s.Refine(context.Background(), "shorten it"); err == nil {
		t.Fatal("expected error without a plan")
	}
}

func TestSetPlan_RejectsDuplicateIDs(t *testing.T) {
	s := newTestSession(quota.TierStandard, &scriptedOracle{})
	err := s.SetPlan(&plan.Plan{Tasks: []plan.SubTask{{ID: "x"}, {ID: "x"}}})
	if err == nil {
		t.Fatal("expected error for duplicate ids")
	}
}

func TestReset_DiscardsPlanAndSelection(t *testing.T) {
	s := newTestSession(quota.TierStandard, &scriptedOracle{})
	if err := s.SetPlan(&plan.Plan{Tasks: []plan.SubTask{{ID: "x"}}}); err != nil {
		t.Fatalf("SetPlan() error = %v", err)
	}
	if _, err := s.AttachFiles([]ingest.File{{Name: "a.txt", Size: 1, ContentType: "text/plain"}}); err != nil {
		t.Fatalf("AttachFiles() error = %v", err)
	}

	s.Reset()
	if s.Current() != nil || len(s.SelectedFiles()) != 0 {
		t.Fatal("Reset must discard plan and selection")
	}
}
