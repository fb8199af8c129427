package oracle

import (
	"fmt"
	"strings"
)

const generateSystemPrompt = `You are a project planning assistant. Break the
user's goal into a step-by-step task plan. Respond with strict JSON only, no
markdown fences, matching:
{
  "success": true,
  "project_title": "short title",
  "plan": [
    {"title": "...", "action": "imperative instruction", "details": "...", "estimated_minutes": 30}
  ],
  "time_warning": "set only when the plan cannot fit the allocated time"
}
Attached documents, if any, are reference material for the plan content.`

const refineSystemPrompt = `You are editing an existing task plan. Translate
the user's command into an ordered list of modification operations. Respond
with strict JSON only, matching:
{
  "modifications": [
    {"type": "update", "task_id": "...", "changes": {"title": "...", "action": "...", "details": "...", "estimated_minutes": 10, "is_completed": false}},
    {"type": "add", "after_task_id": null, "new_task": {"id": "new-1", "title": "...", "action": "...", "details": "", "estimated_minutes": 15}},
    {"type": "delete", "task_id": "..."},
    {"type": "reorder", "new_order": ["id1", "id2"]}
  ],
  "new_project_title": "only when the command renames the project",
  "explanation": "one short sentence describing what changed"
}
Operations apply in order. Only include "changes" fields the command affects.
For "add", after_task_id null means insert first. For "reorder", new_order is
the complete new order of every task that should remain.`

// buildGeneratePrompt renders the user prompt for a PlanRequest. File
// content travels separately as request parts, not in the prompt text.
func buildGeneratePrompt(req *PlanRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n", req.Goal)

	if req.AllocatedMinutes > 0 {
		fmt.Fprintf(&b, "Allocated time: %d minutes", req.AllocatedMinutes)
		if req.Strict {
			b.WriteString(" (hard limit, do not exceed)")
		}
		b.WriteString("\n")
	} else {
		b.WriteString("Allocated time: unlimited\n")
	}

	if req.Energy != "" {
		fmt.Fprintf(&b, "Energy level: %s\n", req.Energy)
	}

	switch req.Granularity {
	case GranularityMicro:
		b.WriteString("Breakdown: micro-steps, each a few minutes at most\n")
	case GranularitySmall:
		b.WriteString("Breakdown: small steps\n")
	case GranularityFocused, "":
		b.WriteString("Breakdown: focused blocks of work\n")
	}

	if len(req.StoragePaths) > 0 || len(req.Inline) > 0 {
		b.WriteString("Use the attached reference documents when planning.\n")
	}
	return b.String()
}

// buildRefinePrompt renders the user prompt for a RefineRequest.
func buildRefinePrompt(req *RefineRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", req.ProjectTitle)
	fmt.Fprintf(&b, "Current tasks:\n%s\n\n", req.TasksJSON)
	fmt.Fprintf(&b, "Command: %s\n", req.Command)
	return b.String()
}
