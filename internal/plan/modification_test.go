package plan

import (
	"encoding/json"
	"testing"
)

func TestModificationUnmarshal_Update(t *testing.T) {
	raw := `{"type":"update","task_id":"t1","changes":{"title":"new","estimated_minutes":10}}`

	var m Modification
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if m.Kind != ModUpdate || m.TaskID != "t1" {
		t.Fatalf("got %+v, want update of t1", m)
	}
	if m.Changes.Title == nil || *m.Changes.Title != "new" {
		t.Fatalf("Changes.Title = %v, want new", m.Changes.Title)
	}
	if m.Changes.EstimatedMinutes == nil || *m.Changes.EstimatedMinutes != 10 {
		t.Fatalf("Changes.EstimatedMinutes = %v, want 10", m.Changes.EstimatedMinutes)
	}
	if m.Changes.Action != nil || m.Changes.Details != nil || m.Changes.Completed != nil {
		t.Fatalf("unmentioned change fields should stay nil: %+v", m.Changes)
	}
}

func TestModificationUnmarshal_UnknownChangeFieldRejected(t *testing.T) {
	raw := `{"type":"update","task_id":"t1","changes":{"priority":"high"}}`

	var m Modification
	if err := json.Unmarshal([]byte(raw), &m); err == nil {
		t.Fatal("expected error for unknown changes field, got nil")
	}
}

func TestModificationUnmarshal_UnknownKindRejected(t *testing.T) {
	var m Modification
	if err := json.Unmarshal([]byte(`{"type":"merge","task_id":"t1"}`), &m); err == nil {
		t.Fatal("expected error for unknown kind, got nil")
	}
}

func TestModificationUnmarshal_MissingFields(t *testing.T) {
	cases := map[string]string{
		"update without task_id": `{"type":"update","changes":{"title":"x"}}`,
		"update without changes": `{"type":"update","task_id":"t1"}`,
		"delete without task_id": `{"type":"delete"}`,
		"add without new_task":   `{"type":"add"}`,
		"reorder empty order":    `{"type":"reorder","new_order":[]}`,
		"missing type":           `{"task_id":"t1"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			var m Modification
			if err := json.Unmarshal([]byte(raw), &m); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestModificationUnmarshal_AddPrependVsAfter(t *testing.T) {
	var prepend Modification
	if err := json.Unmarshal([]byte(`{"type":"add","after_task_id":null,"new_task":{"id":"n1","title":"T","action":"do"}}`), &prepend); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if prepend.AfterTaskID != nil {
		t.Fatalf("AfterTaskID = %v, want nil (prepend)", *prepend.AfterTaskID)
	}

	var after Modification
	if err := json.Unmarshal([]byte(`{"type":"add","after_task_id":"t2","new_task":{"id":"n1","title":"T","action":"do"}}`), &after); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if after.AfterTaskID == nil || *after.AfterTaskID != "t2" {
		t.Fatalf("AfterTaskID = %v, want t2", after.AfterTaskID)
	}
}

func TestPlanClone_Independent(t *testing.T) {
	p := &Plan{ProjectTitle: "P", Tasks: []SubTask{{ID: "a", Title: "A"}}}
	c := p.Clone()
	c.Tasks[0].Title = "changed"
	c.Tasks = append(c.Tasks, SubTask{ID: "b"})

	if p.Tasks[0].Title != "A" || len(p.Tasks) != 1 {
		t.Fatalf("clone mutation leaked into original: %+v", p)
	}
}

func TestPlanHasUniqueIDs(t *testing.T) {
	ok := &Plan{Tasks: []SubTask{{ID: "a"}, {ID: "b"}}}
	if !ok.HasUniqueIDs() {
		t.Fatal("distinct ids reported as duplicate")
	}
	dup := &Plan{Tasks: []SubTask{{ID: "a"}, {ID: "a"}}}
	if dup.HasUniqueIDs() {
		t.Fatal("duplicate ids not detected")
	}
}
