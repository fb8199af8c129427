// Package plan holds the task-plan data model shared by the generation and
// refinement paths: SubTask, Plan, and the Modification variant applied by
// the refinement engine.
package plan

// SubTask is one step of a plan. IDs are unique within a plan and stable
// across refinements until the task is deleted. Order in the containing
// slice is the execution order; it is never derived from any field.
type SubTask struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Action           string `json:"action"`
	Details          string `json:"details,omitempty"`
	EstimatedMinutes int    `json:"estimated_minutes,omitempty"`
	Completed        bool   `json:"is_completed,omitempty"`
}

// Plan is a project title plus its ordered steps. A Plan is owned by one
// session and replaced wholesale by generation or refinement; nothing else
// mutates it.
type Plan struct {
	ProjectTitle string    `json:"project_title"`
	Tasks        []SubTask `json:"tasks"`
}

// Clone returns a deep copy. The refinement engine works on a clone so the
// original survives a failed batch untouched.
func (p *Plan) Clone() *Plan {
	c := &Plan{ProjectTitle: p.ProjectTitle}
	if p.Tasks != nil {
		c.Tasks = make([]SubTask, len(p.Tasks))
		copy(c.Tasks, p.Tasks)
	}
	return c
}

// IndexOf returns the position of the task with the given id, or -1.
func (p *Plan) IndexOf(id string) int {
	for i, t := range p.Tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// TaskIDs returns the ids in display order.
func (p *Plan) TaskIDs() []string {
	ids := make([]string, len(p.Tasks))
	for i, t := range p.Tasks {
		ids[i] = t.ID
	}
	return ids
}

// HasUniqueIDs reports whether the id-uniqueness invariant holds.
func (p *Plan) HasUniqueIDs() bool {
	seen := make(map[string]bool, len(p.Tasks))
	for _, t := range p.Tasks {
		if seen[t.ID] {
			return false
		}
		seen[t.ID] = true
	}
	return true
}
