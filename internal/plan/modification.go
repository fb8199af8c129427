package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ModKind discriminates the Modification variant.
type ModKind string

const (
	ModUpdate  ModKind = "update"
	ModAdd     ModKind = "add"
	ModDelete  ModKind = "delete"
	ModReorder ModKind = "reorder"
)

// TaskChanges is the closed set of SubTask fields an update may touch.
// Nil pointers mean "leave the field alone". Unknown fields in the wire
// form are rejected at parse time rather than silently merged.
type TaskChanges struct {
	Title            *string `json:"title,omitempty"`
	Action           *string `json:"action,omitempty"`
	Details          *string `json:"details,omitempty"`
	EstimatedMinutes *int    `json:"estimated_minutes,omitempty"`
	Completed        *bool   `json:"is_completed,omitempty"`
}

// Modification is one edit instruction against a plan. Exactly the fields
// for its Kind are populated:
//
//	update:  TaskID, Changes
//	add:     AfterTaskID (nil = prepend), NewTask
//	delete:  TaskID
//	reorder: NewOrder
//
// A refinement batch is an ordered list of Modifications; later entries may
// depend on the effects of earlier ones, so order is semantic.
type Modification struct {
	Kind        ModKind      `json:"type"`
	TaskID      string       `json:"task_id,omitempty"`
	Changes     *TaskChanges `json:"changes,omitempty"`
	AfterTaskID *string      `json:"after_task_id,omitempty"`
	NewTask     *SubTask     `json:"new_task,omitempty"`
	NewOrder    []string     `json:"new_order,omitempty"`
}

// modificationWire mirrors Modification for strict decoding without
// recursing into UnmarshalJSON.
type modificationWire struct {
	Kind        ModKind          `json:"type"`
	TaskID      string           `json:"task_id"`
	Changes     *json.RawMessage `json:"changes"`
	AfterTaskID *string          `json:"after_task_id"`
	NewTask     *SubTask         `json:"new_task"`
	NewOrder    []string         `json:"new_order"`
}

// UnmarshalJSON decodes one modification, enforcing the operation grammar:
// the kind must be one of the four known operations, update/delete must
// carry a task_id, add must carry a new_task, reorder must carry a
// non-empty new_order, and update changes may only name known fields.
// Existence checks against the live plan are deferred to apply time.
func (m *Modification) UnmarshalJSON(data []byte) error {
	var w modificationWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	switch w.Kind {
	case ModUpdate:
		if w.TaskID == "" {
			return fmt.Errorf("update modification missing task_id")
		}
		if w.Changes == nil {
			return fmt.Errorf("update modification missing changes")
		}
		changes, err := decodeChanges(*w.Changes)
		if err != nil {
			return err
		}
		*m = Modification{Kind: ModUpdate, TaskID: w.TaskID, Changes: changes}

	case ModDelete:
		if w.TaskID == "" {
			return fmt.Errorf("delete modification missing task_id")
		}
		*m = Modification{Kind: ModDelete, TaskID: w.TaskID}

	case ModAdd:
		if w.NewTask == nil {
			return fmt.Errorf("add modification missing new_task")
		}
		*m = Modification{Kind: ModAdd, AfterTaskID: w.AfterTaskID, NewTask: w.NewTask}

	case ModReorder:
		if len(w.NewOrder) == 0 {
			return fmt.Errorf("reorder modification has empty new_order")
		}
		*m = Modification{Kind: ModReorder, NewOrder: w.NewOrder}

	case "":
		return fmt.Errorf("modification missing type")
	default:
		return fmt.Errorf("unknown modification type %q", w.Kind)
	}

	return nil
}

// decodeChanges decodes the changes bag strictly: a field outside the
// closed TaskChanges set fails the whole batch.
func decodeChanges(raw json.RawMessage) (*TaskChanges, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var c TaskChanges
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("invalid changes: %w", err)
	}
	return &c, nil
}
