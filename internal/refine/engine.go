package refine

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"planforge/internal/plan"
)

// ApplyError is an unexpected internal failure while applying a validated
// batch. The caller keeps the original plan; the batch is never partially
// applied.
type ApplyError struct {
	Reason string
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("failed to apply modifications: %s", e.Reason)
}

// Engine applies modification batches to a plan. It is not internally
// synchronized: the owning session serializes Apply calls for the same
// plan (single-writer discipline).
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates an engine. A nil logger is replaced with a no-op one.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Apply runs the batch strictly in order against a copy of current and
// returns the resulting plan. current is never mutated: on any error the
// caller's plan is still the pre-batch one.
//
// Degrade-gracefully rules (deliberate no-ops, logged, never fatal):
//   - update/delete of an unknown task id does nothing
//   - add with an unresolved after_task_id appends at the end
//   - add with a colliding task id gets a fresh generated id
//   - reorder ignores unknown ids and drops tasks it omits
func (e *Engine) Apply(current *plan.Plan, batch *Batch) (*plan.Plan, error) {
	if current == nil {
		return nil, &ApplyError{Reason: "no plan to modify"}
	}

	next := current.Clone()
	for i, m := range batch.Modifications {
		switch m.Kind {
		case plan.ModUpdate:
			e.applyUpdate(next, m)
		case plan.ModAdd:
			e.applyAdd(next, m)
		case plan.ModDelete:
			e.applyDelete(next, m)
		case plan.ModReorder:
			e.applyReorder(next, m)
		default:
			// Parse rejects unknown kinds; reaching one here means the
			// batch bypassed validation.
			return nil, &ApplyError{Reason: fmt.Sprintf("operation %d has unknown kind %q", i, m.Kind)}
		}
	}

	if batch.NewProjectTitle != "" {
		next.ProjectTitle = batch.NewProjectTitle
	}

	if !next.HasUniqueIDs() {
		return nil, &ApplyError{Reason: "task id uniqueness violated"}
	}

	return next, nil
}

func (e *Engine) applyUpdate(p *plan.Plan, m plan.Modification) {
	i := p.IndexOf(m.TaskID)
	if i < 0 {
		e.logger.Warn("update for unknown task ignored", zap.String("task_id", m.TaskID))
		return
	}

	t := &p.Tasks[i]
	c := m.Changes
	if c == nil {
		return
	}
	if c.Title != nil {
		t.Title = *c.Title
	}
	if c.Action != nil {
		t.Action = *c.Action
	}
	if c.Details != nil {
		t.Details = *c.Details
	}
	if c.EstimatedMinutes != nil {
		t.EstimatedMinutes = *c.EstimatedMinutes
	}
	if c.Completed != nil {
		t.Completed = *c.Completed
	}
}

func (e *Engine) applyAdd(p *plan.Plan, m plan.Modification) {
	if m.NewTask == nil {
		e.logger.Warn("add without new_task ignored")
		return
	}
	task := *m.NewTask
	if task.ID == "" || p.IndexOf(task.ID) >= 0 {
		old := task.ID
		task.ID = uuid.NewString()
		e.logger.Debug("assigned fresh id to added task",
			zap.String("requested_id", old), zap.String("task_id", task.ID))
	}

	pos := 0
	if m.AfterTaskID != nil {
		if i := p.IndexOf(*m.AfterTaskID); i >= 0 {
			pos = i + 1
		} else {
			pos = len(p.Tasks)
			e.logger.Warn("add after unknown task, appending",
				zap.String("after_task_id", *m.AfterTaskID))
		}
	}

	p.Tasks = append(p.Tasks, plan.SubTask{})
	copy(p.Tasks[pos+1:], p.Tasks[pos:])
	p.Tasks[pos] = task
}

func (e *Engine) applyDelete(p *plan.Plan, m plan.Modification) {
	i := p.IndexOf(m.TaskID)
	if i < 0 {
		e.logger.Warn("delete for unknown task ignored", zap.String("task_id", m.TaskID))
		return
	}
	p.Tasks = append(p.Tasks[:i], p.Tasks[i+1:]...)
}

// applyReorder rebuilds the task list to be exactly the tasks named in
// NewOrder, in that order. Tasks the order omits are dropped and unknown
// ids are skipped: new_order is the new full order, not a partial hint.
func (e *Engine) applyReorder(p *plan.Plan, m plan.Modification) {
	reordered := make([]plan.SubTask, 0, len(p.Tasks))
	for _, id := range m.NewOrder {
		if i := p.IndexOf(id); i >= 0 {
			reordered = append(reordered, p.Tasks[i])
		} else {
			e.logger.Warn("reorder names unknown task, skipping", zap.String("task_id", id))
		}
	}
	if dropped := len(p.Tasks) - len(reordered); dropped > 0 {
		e.logger.Warn("reorder omitted existing tasks, dropping them", zap.Int("dropped", dropped))
	}
	p.Tasks = reordered
}
