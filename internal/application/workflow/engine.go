// Package workflow implements the conversational core: it routes each
// inbound update to the step the user is at, validates input, and finalizes
// completed conversations in a single transaction.
package workflow

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/firestation/dutybot/internal/application/port"
	"github.com/firestation/dutybot/internal/application/session"
	"github.com/firestation/dutybot/internal/domain/action"
	"github.com/firestation/dutybot/internal/domain/entity"
	"github.com/firestation/dutybot/internal/menu"
)

// Decider resolves commander decisions on dispatch orders.
type Decider interface {
	Decide(ctx context.Context, commander *entity.Employee, orderID int64, approve bool) (string, error)
}

// ReportBuilder produces the dispatch report workbook for a period.
type ReportBuilder interface {
	Build(ctx context.Context, from, to time.Time) (name string, content []byte, err error)
}

// Engine routes inbound updates through per-user conversation state. One
// Engine serves all users; per-user state lives in the session store.
type Engine struct {
	sessions *session.Store

	employees     port.EmployeeRepository
	vehicles      port.VehicleRepository
	equipment     port.EquipmentRepository
	shifts        port.ShiftRepository
	dispatches    port.DispatchRepository
	equipmentLogs port.EquipmentLogRepository
	absences      port.AbsenceRepository
	outbox        port.NotificationRepository
	tx            port.TransactionManager

	decider Decider
	reports ReportBuilder
	logger  *zap.Logger
}

// Deps bundles everything an Engine needs.
type Deps struct {
	Sessions      *session.Store
	Employees     port.EmployeeRepository
	Vehicles      port.VehicleRepository
	Equipment     port.EquipmentRepository
	Shifts        port.ShiftRepository
	Dispatches    port.DispatchRepository
	EquipmentLogs port.EquipmentLogRepository
	Absences      port.AbsenceRepository
	Outbox        port.NotificationRepository
	TxManager     port.TransactionManager
	Decider       Decider
	Reports       ReportBuilder
	Logger        *zap.Logger
}

// NewEngine creates the conversational engine.
func NewEngine(d Deps) *Engine {
	return &Engine{
		sessions:      d.Sessions,
		employees:     d.Employees,
		vehicles:      d.Vehicles,
		equipment:     d.Equipment,
		shifts:        d.Shifts,
		dispatches:    d.Dispatches,
		equipmentLogs: d.EquipmentLogs,
		absences:      d.Absences,
		outbox:        d.Outbox,
		tx:            d.TxManager,
		decider:       d.Decider,
		reports:       d.Reports,
		logger:        d.Logger,
	}
}

// Handle processes one inbound update for one chat and returns the reply.
// Per-chat ordering is the transport's responsibility; updates from
// different chats may run concurrently.
func (e *Engine) Handle(ctx context.Context, chatID int64, act action.Action) (Reply, error) {
	emp, err := e.employees.GetByChatID(ctx, chatID)
	if err != nil {
		return Reply{}, err
	}
	if emp == nil {
		return textReply("You are not registered. Ask your commander to add you."), nil
	}

	// Cancel always works, from any step, and loses only unsaved input.
	if act.Kind == action.KindCancel {
		e.sessions.Clear(chatID)
		return e.menuReply(ctx, emp, "Action canceled.")
	}

	// A top-level command abandons whatever conversation was open.
	if act.Kind == action.KindText && menu.IsCommand(act.Text) {
		e.sessions.Clear(chatID)
		return e.handleCommand(ctx, emp, act.Text)
	}

	// Decision buttons live in commander notifications and can arrive at
	// any time, mid-conversation or not.
	if act.Kind == action.KindApprove || act.Kind == action.KindReject {
		text, err := e.decider.Decide(ctx, emp, act.ID, act.Kind == action.KindApprove)
		if err != nil {
			return Reply{}, err
		}
		return textReply("%s", text), nil
	}

	var reply Reply
	if st := e.sessions.Get(chatID); st != nil {
		reply, err = e.route(ctx, emp, st, act)
	} else {
		reply, err = e.handleStateless(ctx, emp, act)
	}
	if err != nil {
		// An internal failure must not strand the user mid-conversation;
		// the next message starts from the menu.
		e.sessions.Clear(chatID)
		return Reply{}, err
	}
	return reply, nil
}

func (e *Engine) handleCommand(ctx context.Context, emp *entity.Employee, command string) (Reply, error) {
	switch command {
	case menu.CmdMenu:
		return e.menuReply(ctx, emp, "Main menu.")
	case menu.CmdStartShift:
		return e.startShift(ctx, emp)
	case menu.CmdEndShift:
		return e.endShift(ctx, emp)
	case menu.CmdCreateDispatch:
		return e.startDispatchCreate(ctx, emp)
	case menu.CmdEditDispatch:
		return e.startDispatchEdit(ctx, emp)
	case menu.CmdDispatchReport:
		return e.startReport(ctx, emp)
	case menu.CmdEquipmentLog:
		return e.startEquipmentLog(emp)
	case menu.CmdMaintenance:
		return e.startMaintenance(ctx, emp)
	case menu.CmdReportAbsence:
		return e.startAbsence(emp)
	case menu.CmdToggleReadiness:
		return e.toggleReadiness(ctx, emp)
	case menu.CmdListDispatches:
		return e.listDispatches(ctx, emp)
	case menu.CmdPendingApprovals:
		return e.listPendingApprovals(ctx, emp)
	case menu.CmdStatusOverview:
		return e.statusOverview(ctx, emp)
	}
	return e.menuReply(ctx, emp, "Unknown command.")
}

// handleStateless covers button tokens that carry their full context in the
// token itself and need no open conversation.
func (e *Engine) handleStateless(ctx context.Context, emp *entity.Employee, act action.Action) (Reply, error) {
	switch act.Kind {
	case action.KindLogAction:
		return e.listEquipmentForLog(ctx, emp, act.Value)
	case action.KindLogSelect:
		return e.finalizeEquipmentLog(ctx, emp, act.Value, act.ID)
	case action.KindMaintenanceSelect:
		return e.showMaintenanceActions(ctx, emp, act.ID)
	case action.KindMaintenanceSet:
		return e.promptMaintenanceConfirm(ctx, emp, act.Value, act.ID)
	case action.KindDispatchView:
		return e.showDispatchDetails(ctx, emp, act.ID)
	case action.KindDispatchAdvance:
		return e.advanceDispatch(ctx, emp, act.Value, act.ID)
	case action.KindEditSelect:
		return e.showEditFields(ctx, emp, act.ID)
	case action.KindEditField:
		return e.promptEditValue(ctx, emp, act.Value, act.ID)
	case action.KindEditDone:
		e.sessions.Clear(emp.ChatID)
		return e.menuReply(ctx, emp, "Editing finished.")
	case action.KindText:
		return e.menuReply(ctx, emp, "I did not understand that. Pick an action from the menu.")
	}

	e.logger.Warn("action without matching conversation",
		zap.Int64("chat_id", emp.ChatID),
		zap.String("kind", string(act.Kind)))
	return e.menuReply(ctx, emp, "That action is no longer available.")
}

// route dispatches an update to the handler for the user's current step.
func (e *Engine) route(ctx context.Context, emp *entity.Employee, st session.State, act action.Action) (Reply, error) {
	switch s := st.(type) {
	case session.AwaitingShiftNumber:
		return e.onShiftNumber(ctx, emp, act)
	case session.ChoosingVehicle:
		return e.onVehicleChosen(ctx, emp, s, act)
	case session.ChoosingPriority:
		return e.onPriorityChosen(ctx, emp, s, act)
	case session.AwaitingStartOdometer:
		return e.onStartOdometer(ctx, emp, s, act)
	case session.AwaitingStartFuel:
		return e.onStartFuel(ctx, emp, s, act)
	case session.AwaitingSIZODNumber:
		return e.onSIZODNumber(ctx, emp, s, act)
	case session.ChoosingSIZODCondition:
		return e.onSIZODCondition(ctx, emp, s, act)
	case session.AwaitingSIZODNotes:
		return e.onSIZODNotes(ctx, emp, s, act)

	case session.AwaitingEndOdometer:
		return e.onEndOdometer(ctx, emp, s, act)
	case session.AwaitingEndFuel:
		return e.onEndFuel(ctx, emp, s, act)
	case session.ChoosingSIZODEndCondition:
		return e.onSIZODEndCondition(ctx, emp, s, act)
	case session.AwaitingSIZODEndNotes:
		return e.onSIZODEndNotes(ctx, emp, s, act)

	case session.AwaitingDispatchAddress:
		return e.onDispatchAddress(ctx, emp, act)
	case session.AwaitingDispatchReason:
		return e.onDispatchReason(ctx, emp, s, act)
	case session.ChoosingPersonnel:
		return e.onPersonnelToggle(ctx, emp, s, act)
	case session.ChoosingVehicles:
		return e.onVehicleToggle(ctx, emp, s, act)
	case session.ConfirmingDispatch:
		return e.onDispatchConfirm(ctx, emp, s, act)

	case session.ConfirmingMaintenance:
		return e.onMaintenanceConfirm(ctx, emp, s, act)

	case session.AwaitingEditValue:
		return e.onEditValue(ctx, emp, s, act)
	case session.ConfirmingEdit:
		return e.onEditConfirm(ctx, emp, s, act)

	case session.AwaitingAbsentName:
		return e.onAbsentName(ctx, emp, act)
	case session.ChoosingAbsentPosition:
		return e.onAbsentPosition(ctx, emp, s, act)
	case session.AwaitingAbsentRank:
		return e.onAbsentRank(ctx, emp, s, act)
	case session.AwaitingAbsenceReason:
		return e.onAbsenceReason(ctx, emp, s, act)
	case session.ConfirmingAbsence:
		return e.onAbsenceConfirm(ctx, emp, s, act)

	case session.AwaitingReportPeriod:
		return e.onReportPeriod(ctx, emp, act)
	}

	// Unknown state means a stale build or a bug; recover to the menu.
	e.logger.Error("unhandled conversation state", zap.Int64("chat_id", emp.ChatID))
	e.sessions.Clear(emp.ChatID)
	return e.menuReply(ctx, emp, "Something went wrong, starting over.")
}

// menuReply renders the main menu for the employee's role and duty status.
func (e *Engine) menuReply(ctx context.Context, emp *entity.Employee, text string) (Reply, error) {
	shift, err := e.shifts.GetActiveByEmployee(ctx, emp.ID)
	if err != nil {
		return Reply{}, err
	}

	items := menu.For(emp.Position, shift != nil)
	options := make([]port.Option, 0, len(items))
	for _, it := range items {
		options = append(options, port.Option{Label: it.Label, Data: it.Command})
	}
	return optionsReply(text, options), nil
}

// enqueue inserts an outbox row. Called inside finalize transactions so the
// notification commits or rolls back together with the data change.
func (e *Engine) enqueue(ctx context.Context, chatID int64, text string) error {
	return e.outbox.Create(ctx, &entity.Notification{
		RecipientID: chatID,
		Text:        text,
		Kind:        entity.NotificationKindText,
		Status:      entity.NotificationPending,
	})
}

// enqueueDecision inserts an outbox row that the worker renders with
// approve/reject buttons for the given order.
func (e *Engine) enqueueDecision(ctx context.Context, chatID int64, text string, orderID int64) error {
	return e.outbox.Create(ctx, &entity.Notification{
		RecipientID: chatID,
		Text:        text,
		Kind:        entity.NotificationKindDispatchDecision,
		OrderID:     &orderID,
		Status:      entity.NotificationPending,
	})
}

// repeatOrHint answers input that does not fit the current prompt.
func repeatOrHint(prompt string) Reply {
	return textReply("%s\nUse the offered buttons, or cancel to return to the menu.", prompt)
}
