// Package menu projects an employee's role and duty status into the set of
// top-level commands the bot offers them.
package menu

import "github.com/firestation/dutybot/internal/domain/entity"

// Item is one main-menu entry. Command is the wire token the transport sends
// back when the entry is chosen.
type Item struct {
	Command string
	Label   string
}

// Top-level command tokens.
const (
	CmdStartShift       = "start_shift"
	CmdEndShift         = "end_shift"
	CmdCreateDispatch   = "create_dispatch"
	CmdEditDispatch     = "edit_dispatch"
	CmdDispatchReport   = "dispatch_report"
	CmdEquipmentLog     = "equipment_log"
	CmdMaintenance      = "maintenance"
	CmdReportAbsence    = "report_absence"
	CmdToggleReadiness  = "toggle_readiness"
	CmdListDispatches   = "list_dispatches"
	CmdPendingApprovals = "pending_approvals"
	CmdStatusOverview   = "status_overview"
	CmdMenu             = "menu"
)

var labels = map[string]string{
	CmdStartShift:       "Start shift",
	CmdEndShift:         "End shift",
	CmdCreateDispatch:   "Create dispatch",
	CmdEditDispatch:     "Edit dispatch",
	CmdDispatchReport:   "Dispatch report",
	CmdEquipmentLog:     "Equipment log",
	CmdMaintenance:      "Equipment maintenance",
	CmdReportAbsence:    "Report absence",
	CmdToggleReadiness:  "Toggle readiness",
	CmdListDispatches:   "Active dispatches",
	CmdPendingApprovals: "Pending approvals",
	CmdStatusOverview:   "Status overview",
	CmdMenu:             "Main menu",
}

// IsCommand reports whether text is a known top-level command.
func IsCommand(text string) bool {
	_, ok := labels[text]
	return ok
}

// Label returns the display label for a command token.
func Label(command string) string {
	return labels[command]
}

// For returns the menu for an employee, depending on whether they have an
// active shift. Role gating happens again in the handlers; the menu only
// controls what is offered, not what is allowed.
func For(position string, onShift bool) []Item {
	var commands []string

	if onShift {
		commands = append(commands, CmdEndShift)
	} else {
		commands = append(commands, CmdStartShift)
	}

	switch position {
	case entity.PositionDriver, entity.PositionFirefighter:
		commands = append(commands, CmdEquipmentLog, CmdToggleReadiness)
	case entity.PositionDispatcher:
		commands = append(commands, CmdCreateDispatch, CmdEditDispatch, CmdListDispatches, CmdDispatchReport)
	case entity.PositionCommander:
		commands = append(commands, CmdPendingApprovals, CmdListDispatches, CmdStatusOverview, CmdMaintenance, CmdDispatchReport)
	}

	commands = append(commands, CmdReportAbsence)

	items := make([]Item, 0, len(commands))
	for _, c := range commands {
		items = append(items, Item{Command: c, Label: labels[c]})
	}
	return items
}
