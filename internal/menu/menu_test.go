package menu

import (
	"testing"

	"github.com/firestation/dutybot/internal/domain/entity"
)

func commandsOf(items []Item) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it.Command] = true
	}
	return m
}

func TestFor_ShiftEntryDependsOnDutyStatus(t *testing.T) {
	off := commandsOf(For(entity.PositionDriver, false))
	if !off[CmdStartShift] || off[CmdEndShift] {
		t.Fatalf("off-shift menu = %v", off)
	}

	on := commandsOf(For(entity.PositionDriver, true))
	if on[CmdStartShift] || !on[CmdEndShift] {
		t.Fatalf("on-shift menu = %v", on)
	}
}

func TestFor_RoleEntries(t *testing.T) {
	tests := []struct {
		position string
		want     []string
		absent   []string
	}{
		{entity.PositionDriver, []string{CmdEquipmentLog, CmdToggleReadiness, CmdReportAbsence}, []string{CmdCreateDispatch, CmdMaintenance}},
		{entity.PositionFirefighter, []string{CmdEquipmentLog, CmdToggleReadiness}, []string{CmdDispatchReport}},
		{entity.PositionDispatcher, []string{CmdCreateDispatch, CmdEditDispatch, CmdDispatchReport}, []string{CmdEquipmentLog, CmdMaintenance}},
		{entity.PositionCommander, []string{CmdMaintenance, CmdDispatchReport}, []string{CmdCreateDispatch, CmdToggleReadiness}},
	}

	for _, tt := range tests {
		t.Run(tt.position, func(t *testing.T) {
			got := commandsOf(For(tt.position, false))
			for _, c := range tt.want {
				if !got[c] {
					t.Errorf("menu for %s missing %s", tt.position, c)
				}
			}
			for _, c := range tt.absent {
				if got[c] {
					t.Errorf("menu for %s should not offer %s", tt.position, c)
				}
			}
		})
	}
}

func TestIsCommand(t *testing.T) {
	if !IsCommand(CmdStartShift) {
		t.Fatal("start_shift should be a command")
	}
	if IsCommand("random text") {
		t.Fatal("free text misread as command")
	}
}
