// Package action turns inbound wire tokens (button callback data) into typed
// values. Parsing happens once at the transport boundary; workflow handlers
// switch on Action.Kind and never see raw strings.
package action

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies what an inbound update asks for.
type Kind string

const (
	// KindText is a plain text message, never produced by Parse.
	KindText Kind = "text"

	KindCancel Kind = "cancel"

	KindSelectVehicle Kind = "select_vehicle"
	KindPriority      Kind = "priority"

	KindSIZODStatusStart Kind = "sizod_status_start"
	KindSIZODStatusEnd   Kind = "sizod_status_end"
	KindSkipNotesStart   Kind = "skip_notes_start"
	KindSkipNotesEnd     Kind = "skip_notes_end"

	KindTogglePersonnel Kind = "toggle_personnel"
	KindPersonnelDone   Kind = "personnel_done"
	KindToggleVehicle   Kind = "toggle_vehicle"
	KindVehiclesDone    Kind = "vehicles_done"
	KindDispatchConfirm Kind = "dispatch_confirm"
	KindDispatchCancel  Kind = "dispatch_cancel"

	KindApprove Kind = "approve"
	KindReject  Kind = "reject"

	KindLogAction Kind = "log_action"
	KindLogSelect Kind = "log_select"

	KindEditSelect Kind = "edit_select"
	KindEditField  Kind = "edit_field"
	KindEditSave   Kind = "edit_save"
	KindEditCancel Kind = "edit_cancel"
	KindEditDone   Kind = "edit_done"

	KindMaintenanceSelect  Kind = "maintenance_select"
	KindMaintenanceSet     Kind = "maintenance_set"
	KindMaintenanceConfirm Kind = "maintenance_confirm"

	KindDispatchView    Kind = "dispatch_view"
	KindDispatchAdvance Kind = "dispatch_advance"

	KindPosition       Kind = "position"
	KindSkipRank       Kind = "skip_rank"
	KindAbsenceConfirm Kind = "absence_confirm"
	KindAbsenceCancel  Kind = "absence_cancel"
)

// Action is one parsed inbound update.
type Action struct {
	Kind  Kind
	ID    int64  // target entity id, when the token carries one
	Value string // status, condition, operation or field name, when present
	Text  string // message body for KindText
}

// Text wraps a plain message into an action.
func Text(body string) Action {
	return Action{Kind: KindText, Text: body}
}

// Log operations accepted in log_action_* and log_select_* tokens.
var logOperations = map[string]bool{
	"taken":    true,
	"returned": true,
	"checked":  true,
}

// Statuses a commander may set from the maintenance menu.
var maintenanceTargets = map[string]bool{
	"available":    true,
	"maintenance":  true,
	"decommission": true,
}

// Statuses a commander may advance an order to from the detail view.
var advanceTargets = map[string]bool{
	"dispatched":  true,
	"in_progress": true,
	"completed":   true,
	"canceled":    true,
}

// Dispatch fields open for post-approval editing.
var editableFields = map[string]bool{
	"victims":    true,
	"fatalities": true,
	"casualties": true,
	"notes":      true,
}

// Parse decodes a callback token. Unknown or malformed tokens return an
// error; callers answer those with a generic "action not recognized" reply
// instead of crashing the conversation.
func Parse(data string) (Action, error) {
	switch data {
	case "universal_cancel":
		return Action{Kind: KindCancel}, nil
	case "skip_sizod_notes_start":
		return Action{Kind: KindSkipNotesStart}, nil
	case "skip_sizod_notes_end":
		return Action{Kind: KindSkipNotesEnd}, nil
	case "dispatch_personnel_done":
		return Action{Kind: KindPersonnelDone}, nil
	case "dispatch_vehicles_done":
		return Action{Kind: KindVehiclesDone}, nil
	case "dispatch_confirm":
		return Action{Kind: KindDispatchConfirm}, nil
	case "dispatch_cancel":
		return Action{Kind: KindDispatchCancel}, nil
	case "skip_rank":
		return Action{Kind: KindSkipRank}, nil
	case "absence_confirm":
		return Action{Kind: KindAbsenceConfirm}, nil
	case "absence_cancel":
		return Action{Kind: KindAbsenceCancel}, nil
	case "maintenance_confirm":
		return Action{Kind: KindMaintenanceConfirm}, nil
	}

	if rest, ok := strings.CutPrefix(data, "start_shift_vehicle_"); ok {
		return withID(KindSelectVehicle, "", rest)
	}
	if rest, ok := strings.CutPrefix(data, "priority_"); ok {
		if rest == "" {
			return Action{}, fmt.Errorf("empty priority in %q", data)
		}
		return Action{Kind: KindPriority, Value: rest}, nil
	}
	if rest, ok := strings.CutPrefix(data, "sizod_status_start_"); ok {
		return withCondition(KindSIZODStatusStart, rest, data)
	}
	if rest, ok := strings.CutPrefix(data, "sizod_status_end_"); ok {
		return withCondition(KindSIZODStatusEnd, rest, data)
	}
	if rest, ok := strings.CutPrefix(data, "dispatch_toggle_personnel_"); ok {
		return withID(KindTogglePersonnel, "", rest)
	}
	if rest, ok := strings.CutPrefix(data, "dispatch_toggle_vehicle_"); ok {
		return withID(KindToggleVehicle, "", rest)
	}
	if rest, ok := strings.CutPrefix(data, "dispatch_approve_"); ok {
		return withID(KindApprove, "", rest)
	}
	if rest, ok := strings.CutPrefix(data, "dispatch_reject_"); ok {
		return withID(KindReject, "", rest)
	}
	if rest, ok := strings.CutPrefix(data, "log_action_"); ok {
		if !logOperations[rest] {
			return Action{}, fmt.Errorf("unknown log operation %q", rest)
		}
		return Action{Kind: KindLogAction, Value: rest}, nil
	}
	if rest, ok := strings.CutPrefix(data, "log_select_"); ok {
		op, idPart, found := strings.Cut(rest, "_")
		if !found || !logOperations[op] {
			return Action{}, fmt.Errorf("malformed log selection %q", data)
		}
		return withID(KindLogSelect, op, idPart)
	}
	if rest, ok := strings.CutPrefix(data, "edit_dispatch_select_"); ok {
		return withID(KindEditSelect, "", rest)
	}
	if rest, ok := strings.CutPrefix(data, "edit_dispatch_save_change_"); ok {
		return withID(KindEditSave, "", rest)
	}
	if rest, ok := strings.CutPrefix(data, "edit_dispatch_cancel_change_"); ok {
		return withID(KindEditCancel, "", rest)
	}
	if rest, ok := strings.CutPrefix(data, "edit_dispatch_done_"); ok {
		return withID(KindEditDone, "", rest)
	}
	if rest, ok := strings.CutPrefix(data, "edit_dispatch_field_"); ok {
		field, idPart, found := strings.Cut(rest, "_")
		if !found || !editableFields[field] {
			return Action{}, fmt.Errorf("malformed edit field token %q", data)
		}
		return withID(KindEditField, field, idPart)
	}
	if rest, ok := strings.CutPrefix(data, "dispatch_view_"); ok {
		return withID(KindDispatchView, "", rest)
	}
	if rest, ok := strings.CutPrefix(data, "dispatch_advance_"); ok {
		// Targets may contain "_" themselves; the id is the last segment.
		idx := strings.LastIndex(rest, "_")
		if idx <= 0 {
			return Action{}, fmt.Errorf("malformed advance token %q", data)
		}
		target := rest[:idx]
		if !advanceTargets[target] {
			return Action{}, fmt.Errorf("unknown advance target %q", target)
		}
		return withID(KindDispatchAdvance, target, rest[idx+1:])
	}
	if rest, ok := strings.CutPrefix(data, "maintenance_select_"); ok {
		return withID(KindMaintenanceSelect, "", rest)
	}
	if rest, ok := strings.CutPrefix(data, "maintenance_set_"); ok {
		// Longest status first: "maintenance" itself contains no "_", so a
		// single Cut on the trailing id is enough.
		idx := strings.LastIndex(rest, "_")
		if idx <= 0 {
			return Action{}, fmt.Errorf("malformed maintenance token %q", data)
		}
		target := rest[:idx]
		if !maintenanceTargets[target] {
			return Action{}, fmt.Errorf("unknown maintenance target %q", target)
		}
		return withID(KindMaintenanceSet, target, rest[idx+1:])
	}
	if rest, ok := strings.CutPrefix(data, "position_"); ok {
		if rest == "" {
			return Action{}, fmt.Errorf("empty position in %q", data)
		}
		return Action{Kind: KindPosition, Value: rest}, nil
	}

	return Action{}, fmt.Errorf("unknown action %q", data)
}

func withID(kind Kind, value, idPart string) (Action, error) {
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return Action{}, fmt.Errorf("bad id in %s token: %w", kind, err)
	}
	return Action{Kind: kind, ID: id, Value: value}, nil
}

func withCondition(kind Kind, condition, raw string) (Action, error) {
	if condition != "serviceable" && condition != "faulty" {
		return Action{}, fmt.Errorf("unknown condition in %q", raw)
	}
	return Action{Kind: kind, Value: condition}, nil
}
