package workflow

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/firestation/dutybot/internal/application/service"
	"github.com/firestation/dutybot/internal/application/session"
	"github.com/firestation/dutybot/internal/domain/action"
	"github.com/firestation/dutybot/internal/domain/entity"
)

const (
	chatDriver          = int64(10)
	chatSecondDriver    = int64(20)
	chatFirefighter     = int64(30)
	chatFrank           = int64(40)
	chatDispatcher      = int64(50)
	chatCommander       = int64(60)
	chatSecondCommander = int64(70)
)

func newTestEngine(t *testing.T) (*Engine, *memStore) {
	t.Helper()
	deps, store := newTestDeps(t)
	return NewEngine(deps), store
}

func newTestDeps(t *testing.T) (Deps, *memStore) {
	t.Helper()

	store := newMemStore()
	frankID := int64(4)
	store.state.Employees = map[int64]*entity.Employee{
		1: {ID: 1, ChatID: chatDriver, FullName: "Dan Orlov", Position: entity.PositionDriver, IsReady: true},
		2: {ID: 2, ChatID: chatSecondDriver, FullName: "Oleg Marsh", Position: entity.PositionDriver, IsReady: true},
		3: {ID: 3, ChatID: chatFirefighter, FullName: "Fiona Hale", Position: entity.PositionFirefighter, IsReady: true},
		4: {ID: 4, ChatID: chatFrank, FullName: "Frank Pole", Position: entity.PositionFirefighter, IsReady: true},
		5: {ID: 5, ChatID: chatDispatcher, FullName: "Daria Quinn", Position: entity.PositionDispatcher},
		6: {ID: 6, ChatID: chatCommander, FullName: "Carl Steel", Position: entity.PositionCommander},
		7: {ID: 7, ChatID: chatSecondCommander, FullName: "Cora Flint", Position: entity.PositionCommander},
	}
	store.state.Vehicles = map[int64]*entity.Vehicle{
		101: {ID: 101, Plate: "FD-101", Model: "AC-40", Status: entity.VehicleAvailable},
		102: {ID: 102, Plate: "FD-102", Model: "AL-30", Status: entity.VehicleAvailable},
	}
	store.state.Equipment = map[int64]*entity.Equipment{
		201: {ID: 201, Name: "SIZOD R-30", Type: entity.EquipmentTypeSIZOD, InventoryNumber: "30", Status: entity.EquipmentAvailable},
		202: {ID: 202, Name: "SIZOD R-31", Type: entity.EquipmentTypeSIZOD, InventoryNumber: "31", Status: entity.EquipmentInUse, CurrentHolderID: &frankID},
	}
	store.state.NextID = 1000

	tx := memTx{s: store}
	outbox := memOutbox{s: store}
	dispatches := memDispatches{s: store}
	employees := memEmployees{s: store}
	decider := service.NewDecisionService(dispatches, employees, outbox, tx, zap.NewNop())

	deps := Deps{
		Sessions:      session.NewStore(),
		Employees:     employees,
		Vehicles:      memVehicles{s: store},
		Equipment:     memEquipment{s: store},
		Shifts:        memShifts{s: store},
		Dispatches:    dispatches,
		EquipmentLogs: memLogs{s: store},
		Absences:      memAbsences{s: store},
		Outbox:        outbox,
		TxManager:     tx,
		Decider:       decider,
		Logger:        zap.NewNop(),
	}
	return deps, store
}

func sendText(t *testing.T, e *Engine, chatID int64, text string) Reply {
	t.Helper()
	r, err := e.Handle(context.Background(), chatID, action.Text(text))
	if err != nil {
		t.Fatalf("Handle(%q): %v", text, err)
	}
	return r
}

func sendToken(t *testing.T, e *Engine, chatID int64, token string) Reply {
	t.Helper()
	act, err := action.Parse(token)
	if err != nil {
		t.Fatalf("Parse(%q): %v", token, err)
	}
	r, err := e.Handle(context.Background(), chatID, act)
	if err != nil {
		t.Fatalf("Handle(%q): %v", token, err)
	}
	return r
}

func activeShiftOf(s *memStore, employeeID int64) *entity.ShiftLog {
	for _, sh := range s.state.Shifts {
		if sh.EmployeeID == employeeID && sh.Status == entity.ShiftActive {
			return sh
		}
	}
	return nil
}

func TestDriverShiftLifecycle(t *testing.T) {
	e, store := newTestEngine(t)

	sendText(t, e, chatDriver, "start_shift")
	sendText(t, e, chatDriver, "2")
	sendToken(t, e, chatDriver, "start_shift_vehicle_101")
	sendToken(t, e, chatDriver, "priority_1")
	sendText(t, e, chatDriver, "100")
	r := sendText(t, e, chatDriver, "40")

	if !strings.Contains(r.Text, "Shift 2 started") {
		t.Fatalf("reply = %q", r.Text)
	}
	shift := activeShiftOf(store, 1)
	if shift == nil {
		t.Fatal("no active shift created")
	}
	if shift.VehicleID == nil || *shift.VehicleID != 101 {
		t.Fatalf("shift vehicle = %v", shift.VehicleID)
	}
	if store.state.Vehicles[101].Status != entity.VehicleInUse {
		t.Fatalf("vehicle status = %s", store.state.Vehicles[101].Status)
	}

	sendText(t, e, chatDriver, "end_shift")
	sendText(t, e, chatDriver, "150.5")
	r = sendText(t, e, chatDriver, "30")

	if !strings.Contains(r.Text, "Mileage: 50.5 km") || !strings.Contains(r.Text, "fuel used: 10.0 l") {
		t.Fatalf("summary = %q", r.Text)
	}
	if activeShiftOf(store, 1) != nil {
		t.Fatal("shift still active after end")
	}
	if store.state.Vehicles[101].Status != entity.VehicleAvailable {
		t.Fatalf("vehicle not released: %s", store.state.Vehicles[101].Status)
	}
	if store.state.Vehicles[101].LastCheck == nil {
		t.Fatal("vehicle check not stamped at shift end")
	}
}

func TestDriverShiftStart_RejectsEndBelowStart(t *testing.T) {
	e, _ := newTestEngine(t)

	sendText(t, e, chatDriver, "start_shift")
	sendText(t, e, chatDriver, "1")
	sendToken(t, e, chatDriver, "start_shift_vehicle_101")
	sendToken(t, e, chatDriver, "priority_1")
	sendText(t, e, chatDriver, "100")
	sendText(t, e, chatDriver, "40")

	sendText(t, e, chatDriver, "end_shift")
	r := sendText(t, e, chatDriver, "90")
	if !strings.Contains(r.Text, "below the starting one") {
		t.Fatalf("reply = %q", r.Text)
	}
}

func TestDriverShiftStart_VehicleRace(t *testing.T) {
	e, store := newTestEngine(t)

	// Both drivers walk the flow with the same vehicle.
	for _, chat := range []int64{chatDriver, chatSecondDriver} {
		sendText(t, e, chat, "start_shift")
		sendText(t, e, chat, "1")
		sendToken(t, e, chat, "start_shift_vehicle_101")
		sendToken(t, e, chat, "priority_1")
		sendText(t, e, chat, "100")
	}

	// First driver finalizes and takes the vehicle.
	r := sendText(t, e, chatDriver, "40")
	if !strings.Contains(r.Text, "Shift 1 started") {
		t.Fatalf("first driver reply = %q", r.Text)
	}

	// Second driver's finalize re-checks and is turned away.
	r = sendText(t, e, chatSecondDriver, "40")
	if !strings.Contains(r.Text, "no longer available") {
		t.Fatalf("second driver reply = %q", r.Text)
	}
	if activeShiftOf(store, 2) != nil {
		t.Fatal("second driver must not get a shift")
	}
	if store.state.Vehicles[101].Status != entity.VehicleInUse {
		t.Fatalf("vehicle status = %s", store.state.Vehicles[101].Status)
	}
}

func TestFirefighterShiftStart_SIZODConflict(t *testing.T) {
	e, store := newTestEngine(t)

	sendText(t, e, chatFirefighter, "start_shift")
	sendText(t, e, chatFirefighter, "3")

	// Apparatus 31 is held by Frank; the error names him.
	r := sendText(t, e, chatFirefighter, "31")
	if !strings.Contains(r.Text, "Frank Pole") {
		t.Fatalf("conflict reply = %q", r.Text)
	}

	// The conversation stays at the number prompt, so a free apparatus works.
	sendText(t, e, chatFirefighter, "30")
	r = sendToken(t, e, chatFirefighter, "sizod_status_start_serviceable")
	if !strings.Contains(r.Text, "Shift 3 started") {
		t.Fatalf("reply = %q", r.Text)
	}

	eq := store.state.Equipment[201]
	if eq.Status != entity.EquipmentInUse || !eq.HeldBy(3) {
		t.Fatalf("equipment = %+v", eq)
	}
	shift := activeShiftOf(store, 3)
	if shift == nil || shift.SIZODNumber != "30" {
		t.Fatalf("shift = %+v", shift)
	}
	if len(store.state.Logs) != 1 || store.state.Logs[0].Action != entity.LogActionTaken {
		t.Fatalf("logs = %+v", store.state.Logs)
	}
}

func TestFirefighterShiftStart_OwnHeldSIZODAccepted(t *testing.T) {
	e, store := newTestEngine(t)

	// Frank already holds apparatus 31, taken earlier through the
	// equipment log. Starting a shift with it must succeed.
	sendText(t, e, chatFrank, "start_shift")
	sendText(t, e, chatFrank, "2")
	sendText(t, e, chatFrank, "31")
	r := sendToken(t, e, chatFrank, "sizod_status_start_serviceable")
	if !strings.Contains(r.Text, "Shift 2 started") {
		t.Fatalf("reply = %q", r.Text)
	}

	shift := activeShiftOf(store, 4)
	if shift == nil || shift.SIZODNumber != "31" {
		t.Fatalf("shift = %+v", shift)
	}
	eq := store.state.Equipment[202]
	if eq.Status != entity.EquipmentInUse || !eq.HeldBy(4) {
		t.Fatalf("equipment = %+v", eq)
	}
	if len(store.state.Logs) != 1 || store.state.Logs[0].Action != entity.LogActionTaken {
		t.Fatalf("logs = %+v", store.state.Logs)
	}
}

func TestFirefighterShiftEnd_FaultyRoutesToMaintenance(t *testing.T) {
	e, store := newTestEngine(t)

	sendText(t, e, chatFirefighter, "start_shift")
	sendText(t, e, chatFirefighter, "1")
	sendText(t, e, chatFirefighter, "30")
	sendToken(t, e, chatFirefighter, "sizod_status_start_serviceable")

	sendText(t, e, chatFirefighter, "end_shift")
	sendToken(t, e, chatFirefighter, "sizod_status_end_faulty")
	r := sendText(t, e, chatFirefighter, "regulator leaks")

	if !strings.Contains(r.Text, "routed to maintenance") {
		t.Fatalf("reply = %q", r.Text)
	}
	eq := store.state.Equipment[201]
	if eq.Status != entity.EquipmentMaintenance || eq.CurrentHolderID != nil {
		t.Fatalf("equipment = %+v", eq)
	}
	if activeShiftOf(store, 3) != nil {
		t.Fatal("shift still active")
	}

	var returned *entity.EquipmentLog
	for _, l := range store.state.Logs {
		if l.Action == entity.LogActionReturned {
			returned = l
		}
	}
	if returned == nil || returned.Notes != "regulator leaks" {
		t.Fatalf("return log = %+v", returned)
	}
}

func createDispatch(t *testing.T, e *Engine) Reply {
	t.Helper()
	sendText(t, e, chatDispatcher, "create_dispatch")
	sendText(t, e, chatDispatcher, "12 Oak Street, warehouse")
	sendText(t, e, chatDispatcher, "smoke reported")
	sendToken(t, e, chatDispatcher, "dispatch_toggle_personnel_1")
	sendToken(t, e, chatDispatcher, "dispatch_toggle_personnel_3")
	sendToken(t, e, chatDispatcher, "dispatch_personnel_done")
	sendToken(t, e, chatDispatcher, "dispatch_toggle_vehicle_101")
	sendToken(t, e, chatDispatcher, "dispatch_vehicles_done")
	return sendToken(t, e, chatDispatcher, "dispatch_confirm")
}

func TestDispatchCreateAndDecide(t *testing.T) {
	e, store := newTestEngine(t)

	r := createDispatch(t, e)
	if !strings.Contains(r.Text, "submitted for approval") {
		t.Fatalf("reply = %q", r.Text)
	}

	var order *entity.DispatchOrder
	for _, o := range store.state.Dispatches {
		order = o
	}
	if order == nil || order.Status != entity.DispatchPendingApproval {
		t.Fatalf("order = %+v", order)
	}

	// Both commanders got a decision notification.
	decisionChats := map[int64]bool{}
	for _, n := range store.state.Notifications {
		if n.Kind == entity.NotificationKindDispatchDecision {
			decisionChats[n.RecipientID] = true
			if n.OrderID == nil || *n.OrderID != order.ID {
				t.Fatalf("decision notification order = %v", n.OrderID)
			}
		}
	}
	if !decisionChats[chatCommander] || !decisionChats[chatSecondCommander] {
		t.Fatalf("decision notifications = %v", decisionChats)
	}

	// First commander approves.
	r = sendToken(t, e, chatCommander, "dispatch_approve_"+itoa(order.ID))
	if !strings.Contains(r.Text, "approved") {
		t.Fatalf("approve reply = %q", r.Text)
	}
	if order = store.state.Dispatches[order.ID]; order.Status != entity.DispatchApproved {
		t.Fatalf("order status = %s", order.Status)
	}
	if order.CommanderID == nil || *order.CommanderID != 6 {
		t.Fatal("commander not stamped")
	}

	// Dispatcher and both assigned crew members are notified.
	notified := map[int64]bool{}
	for _, n := range store.state.Notifications {
		if n.Kind == entity.NotificationKindText {
			notified[n.RecipientID] = true
		}
	}
	for _, chat := range []int64{chatDispatcher, chatDriver, chatFirefighter} {
		if !notified[chat] {
			t.Errorf("missing notification for chat %d", chat)
		}
	}

	// The second commander's decision is a no-op.
	r = sendToken(t, e, chatSecondCommander, "dispatch_reject_"+itoa(order.ID))
	if !strings.Contains(r.Text, "already been processed") {
		t.Fatalf("late decision reply = %q", r.Text)
	}
	if store.state.Dispatches[order.ID].Status != entity.DispatchApproved {
		t.Fatal("late rejection must not change the order")
	}
}

func TestDispatchCreate_StaleVehicleRejected(t *testing.T) {
	e, store := newTestEngine(t)

	sendText(t, e, chatDispatcher, "create_dispatch")
	sendText(t, e, chatDispatcher, "12 Oak Street, warehouse")
	sendText(t, e, chatDispatcher, "smoke reported")
	sendToken(t, e, chatDispatcher, "dispatch_toggle_personnel_1")
	sendToken(t, e, chatDispatcher, "dispatch_personnel_done")
	sendToken(t, e, chatDispatcher, "dispatch_toggle_vehicle_101")
	sendToken(t, e, chatDispatcher, "dispatch_vehicles_done")

	// The vehicle leaves while the dispatcher stares at the summary.
	store.state.Vehicles[101].Status = entity.VehicleInUse

	r := sendToken(t, e, chatDispatcher, "dispatch_confirm")
	if !strings.Contains(r.Text, "no longer valid") || !strings.Contains(r.Text, "FD-101") {
		t.Fatalf("reply = %q", r.Text)
	}
	if len(store.state.Dispatches) != 0 {
		t.Fatal("no order must be created")
	}
	if len(store.state.Notifications) != 0 {
		t.Fatal("no notifications must be enqueued")
	}
}

func TestDispatchCreate_RequiresDispatcher(t *testing.T) {
	e, _ := newTestEngine(t)

	r := sendText(t, e, chatDriver, "create_dispatch")
	if !strings.Contains(r.Text, "Only dispatchers") {
		t.Fatalf("reply = %q", r.Text)
	}
}

func TestUniversalCancel_LeavesNoTrace(t *testing.T) {
	e, store := newTestEngine(t)

	sendText(t, e, chatDispatcher, "create_dispatch")
	sendText(t, e, chatDispatcher, "12 Oak Street, warehouse")
	r := sendToken(t, e, chatDispatcher, "universal_cancel")

	if !strings.Contains(r.Text, "canceled") {
		t.Fatalf("reply = %q", r.Text)
	}
	if len(store.state.Dispatches) != 0 {
		t.Fatal("canceled conversation must not write")
	}

	// The user is back at the menu: free text is not consumed by a flow.
	r = sendText(t, e, chatDispatcher, "some address text")
	if !strings.Contains(r.Text, "did not understand") {
		t.Fatalf("reply = %q", r.Text)
	}
}

func TestEquipmentLog_TakeAndReturn(t *testing.T) {
	e, store := newTestEngine(t)

	sendText(t, e, chatFirefighter, "equipment_log")
	sendToken(t, e, chatFirefighter, "log_action_taken")
	r := sendToken(t, e, chatFirefighter, "log_select_taken_201")
	if !strings.Contains(r.Text, "checked out to you") {
		t.Fatalf("take reply = %q", r.Text)
	}
	if !store.state.Equipment[201].HeldBy(3) {
		t.Fatal("holder not set")
	}

	sendToken(t, e, chatFirefighter, "log_action_returned")
	r = sendToken(t, e, chatFirefighter, "log_select_returned_201")
	if !strings.Contains(r.Text, "returned") {
		t.Fatalf("return reply = %q", r.Text)
	}
	eq := store.state.Equipment[201]
	if eq.Status != entity.EquipmentAvailable || eq.CurrentHolderID != nil {
		t.Fatalf("equipment = %+v", eq)
	}
	if len(store.state.Logs) != 2 {
		t.Fatalf("logs = %d, want 2", len(store.state.Logs))
	}
}

func TestEquipmentLog_ReturnNotHeld(t *testing.T) {
	e, store := newTestEngine(t)

	// Apparatus 202 belongs to Frank, Fiona cannot return it.
	r := sendToken(t, e, chatFirefighter, "log_select_returned_202")
	if !strings.Contains(r.Text, "not checked out to you") {
		t.Fatalf("reply = %q", r.Text)
	}
	if !store.state.Equipment[202].HeldBy(4) {
		t.Fatal("holder must not change")
	}
	if len(store.state.Logs) != 0 {
		t.Fatal("no log entry expected")
	}
}

func TestMaintenance_DecommissionClearsHolder(t *testing.T) {
	e, store := newTestEngine(t)

	sendText(t, e, chatCommander, "maintenance")
	sendToken(t, e, chatCommander, "maintenance_select_202")
	r := sendToken(t, e, chatCommander, "maintenance_set_decommission_202")
	if !strings.Contains(r.Text, "Decommission SIZOD R-31?") {
		t.Fatalf("confirm prompt = %q", r.Text)
	}
	if store.state.Equipment[202].Status != entity.EquipmentInUse {
		t.Fatal("nothing may change before confirmation")
	}

	r = sendToken(t, e, chatCommander, "maintenance_confirm")
	if !strings.Contains(r.Text, "decommissioned") {
		t.Fatalf("reply = %q", r.Text)
	}

	eq := store.state.Equipment[202]
	if eq.Status != entity.EquipmentDecommissioned || eq.CurrentHolderID != nil {
		t.Fatalf("equipment = %+v", eq)
	}
	if len(store.state.Logs) != 1 || store.state.Logs[0].Action != entity.LogActionMaintenance {
		t.Fatalf("logs = %+v", store.state.Logs)
	}
}

func TestMaintenance_RequiresCommander(t *testing.T) {
	e, store := newTestEngine(t)

	r := sendToken(t, e, chatDriver, "maintenance_set_available_202")
	if !strings.Contains(r.Text, "Only commanders") {
		t.Fatalf("reply = %q", r.Text)
	}
	if store.state.Equipment[202].Status != entity.EquipmentInUse {
		t.Fatal("equipment must not change")
	}
}

func TestAbsenceFlow_SkippedRank(t *testing.T) {
	e, store := newTestEngine(t)

	sendText(t, e, chatFirefighter, "report_absence")
	r := sendText(t, e, chatFirefighter, "Short")
	if !strings.Contains(r.Text, "at least a last and a first name") {
		t.Fatalf("reply = %q", r.Text)
	}

	sendText(t, e, chatFirefighter, "Igor Valin")
	sendToken(t, e, chatFirefighter, "position_driver")
	sendToken(t, e, chatFirefighter, "skip_rank")
	sendText(t, e, chatFirefighter, "sick leave")
	r = sendToken(t, e, chatFirefighter, "absence_confirm")
	if !strings.Contains(r.Text, "recorded") {
		t.Fatalf("reply = %q", r.Text)
	}

	if len(store.state.Absences) != 1 {
		t.Fatalf("absences = %d", len(store.state.Absences))
	}
	a := store.state.Absences[0]
	if a.AbsentFullName != "Igor Valin" || a.AbsentPosition != entity.PositionDriver {
		t.Fatalf("absence = %+v", a)
	}
	if a.AbsentRank != entity.RankNone {
		t.Fatalf("rank = %q", a.AbsentRank)
	}
	if a.Reason != "sick leave" || a.ReporterID != 3 {
		t.Fatalf("absence = %+v", a)
	}
}

func TestEditDispatch_SaveField(t *testing.T) {
	e, store := newTestEngine(t)

	createDispatch(t, e)
	var orderID int64
	for id := range store.state.Dispatches {
		orderID = id
	}

	sendText(t, e, chatDispatcher, "edit_dispatch")
	sendToken(t, e, chatDispatcher, "edit_dispatch_select_"+itoa(orderID))
	sendToken(t, e, chatDispatcher, "edit_dispatch_field_victims_"+itoa(orderID))
	r := sendText(t, e, chatDispatcher, "three")
	if !strings.Contains(r.Text, "whole number") {
		t.Fatalf("reply = %q", r.Text)
	}

	sendText(t, e, chatDispatcher, "3")
	r = sendToken(t, e, chatDispatcher, "edit_dispatch_save_change_"+itoa(orderID))
	if !strings.Contains(r.Text, "What do you want to change?") {
		t.Fatalf("reply = %q", r.Text)
	}

	order := store.state.Dispatches[orderID]
	if order.VictimsCount != 3 {
		t.Fatalf("victims = %d", order.VictimsCount)
	}
	if order.LastEditedBy == nil || *order.LastEditedBy != 5 || order.LastEditedAt == nil {
		t.Fatal("edit not stamped")
	}
}

func TestEditDispatch_DiscardKeepsOrder(t *testing.T) {
	e, store := newTestEngine(t)

	createDispatch(t, e)
	var orderID int64
	for id := range store.state.Dispatches {
		orderID = id
	}

	sendToken(t, e, chatDispatcher, "edit_dispatch_field_notes_"+itoa(orderID))
	sendText(t, e, chatDispatcher, "wrong note")
	sendToken(t, e, chatDispatcher, "edit_dispatch_cancel_change_"+itoa(orderID))

	if store.state.Dispatches[orderID].Notes != "" {
		t.Fatal("discarded change must not persist")
	}
}

func TestToggleReadiness(t *testing.T) {
	e, store := newTestEngine(t)

	r := sendText(t, e, chatDriver, "toggle_readiness")
	if !strings.Contains(r.Text, "not ready") {
		t.Fatalf("reply = %q", r.Text)
	}
	if store.state.Employees[1].IsReady {
		t.Fatal("readiness not flipped")
	}

	r = sendText(t, e, chatDriver, "toggle_readiness")
	if !strings.Contains(r.Text, "now marked as ready") {
		t.Fatalf("reply = %q", r.Text)
	}
	if !store.state.Employees[1].IsReady {
		t.Fatal("readiness not flipped back")
	}
}

func TestUnregisteredUser(t *testing.T) {
	e, _ := newTestEngine(t)

	r := sendText(t, e, 9999, "start_shift")
	if !strings.Contains(r.Text, "not registered") {
		t.Fatalf("reply = %q", r.Text)
	}
}

func TestReportPeriod_InvalidInput(t *testing.T) {
	e, _ := newTestEngine(t)

	sendText(t, e, chatCommander, "dispatch_report")
	r := sendText(t, e, chatCommander, "whenever")
	if !strings.Contains(r.Text, "could not read that period") {
		t.Fatalf("reply = %q", r.Text)
	}
}

func TestMaintenance_CancelLeavesEquipmentAlone(t *testing.T) {
	e, store := newTestEngine(t)

	sendToken(t, e, chatCommander, "maintenance_set_available_202")
	r := sendToken(t, e, chatCommander, "universal_cancel")
	if !strings.Contains(r.Text, "canceled") {
		t.Fatalf("reply = %q", r.Text)
	}
	if store.state.Equipment[202].Status != entity.EquipmentInUse {
		t.Fatal("equipment must not change on cancel")
	}
}

// unreliableShifts fails GetByID on demand so internal-error handling can be
// exercised mid-conversation.
type unreliableShifts struct {
	memShifts
	fail *bool
}

func (r unreliableShifts) GetByID(ctx context.Context, id int64) (*entity.ShiftLog, error) {
	if *r.fail {
		return nil, errInjected
	}
	return r.memShifts.GetByID(ctx, id)
}

var errInjected = errors.New("storage unavailable")

func TestInternalErrorClearsConversation(t *testing.T) {
	deps, store := newTestDeps(t)
	fail := false
	deps.Shifts = unreliableShifts{memShifts: memShifts{s: store}, fail: &fail}
	e := NewEngine(deps)

	sendText(t, e, chatDriver, "start_shift")
	sendText(t, e, chatDriver, "1")
	sendToken(t, e, chatDriver, "start_shift_vehicle_101")
	sendToken(t, e, chatDriver, "priority_1")
	sendText(t, e, chatDriver, "100")
	sendText(t, e, chatDriver, "40")
	sendText(t, e, chatDriver, "end_shift")

	fail = true
	if _, err := e.Handle(context.Background(), chatDriver, action.Text("160")); !errors.Is(err, errInjected) {
		t.Fatalf("err = %v", err)
	}

	// The failed step must not leave the user stuck at the odometer prompt.
	fail = false
	r := sendText(t, e, chatDriver, "160")
	if !strings.Contains(r.Text, "did not understand") {
		t.Fatalf("reply after failure = %q", r.Text)
	}
}

func TestDispatchCreate_NoCommanderRegistered(t *testing.T) {
	e, store := newTestEngine(t)
	delete(store.state.Employees, 6)
	delete(store.state.Employees, 7)

	r := createDispatch(t, e)
	if !strings.Contains(r.Text, "no commander is registered") {
		t.Fatalf("reply = %q", r.Text)
	}
	for _, n := range store.state.Notifications {
		if n.Kind == entity.NotificationKindDispatchDecision {
			t.Fatalf("unexpected decision notification for %d", n.RecipientID)
		}
	}
}

func TestEquipmentLog_EmptyListKeepsCancelOption(t *testing.T) {
	e, _ := newTestEngine(t)

	// The driver holds nothing, so the returned-items list is empty.
	sendText(t, e, chatDriver, "equipment_log")
	r := sendToken(t, e, chatDriver, "log_action_returned")
	if !strings.Contains(r.Text, "No equipment matches") {
		t.Fatalf("reply = %q", r.Text)
	}
	if len(r.Options) != 1 || r.Options[0].Data != "universal_cancel" {
		t.Fatalf("options = %+v", r.Options)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
