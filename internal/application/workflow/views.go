package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/firestation/dutybot/internal/application/port"
	"github.com/firestation/dutybot/internal/domain/entity"
	domainwf "github.com/firestation/dutybot/internal/domain/workflow"
)

// activeListLimit caps how many orders a chat list shows at once.
const activeListLimit = 10

func canViewDispatches(position string) bool {
	return position == entity.PositionDispatcher || position == entity.PositionCommander
}

// listDispatches shows the active (non-terminal) dispatch orders, newest
// first, each opening its detail view.
func (e *Engine) listDispatches(ctx context.Context, emp *entity.Employee) (Reply, error) {
	if !canViewDispatches(emp.Position) {
		return e.menuReply(ctx, emp, "Dispatch lists are for dispatchers and commanders.")
	}

	orders, err := e.dispatches.ListEditable(ctx, activeListLimit)
	if err != nil {
		return Reply{}, err
	}
	if len(orders) == 0 {
		return e.menuReply(ctx, emp, "No active dispatch orders.")
	}

	options := make([]port.Option, 0, len(orders)+1)
	for _, o := range orders {
		options = append(options, port.Option{
			Label: fmt.Sprintf("#%d %s (%s)", o.ID, o.Address, o.Status),
			Data:  fmt.Sprintf("dispatch_view_%d", o.ID),
		})
	}
	return optionsReply("Active dispatch orders:", withCancel(options)), nil
}

// listPendingApprovals shows the orders awaiting the commander's decision.
func (e *Engine) listPendingApprovals(ctx context.Context, emp *entity.Employee) (Reply, error) {
	if emp.Position != entity.PositionCommander {
		return e.menuReply(ctx, emp, "Only commanders review pending approvals.")
	}

	orders, err := e.dispatches.ListEditable(ctx, activeListLimit)
	if err != nil {
		return Reply{}, err
	}
	var pending []*entity.DispatchOrder
	for _, o := range orders {
		if o.Status == entity.DispatchPendingApproval {
			pending = append(pending, o)
		}
	}
	if len(pending) == 0 {
		return e.menuReply(ctx, emp, "No orders are waiting for a decision.")
	}

	options := make([]port.Option, 0, len(pending)+1)
	for _, o := range pending {
		options = append(options, port.Option{
			Label: fmt.Sprintf("#%d %s", o.ID, o.Address),
			Data:  fmt.Sprintf("dispatch_view_%d", o.ID),
		})
	}
	return optionsReply("Orders awaiting your decision:", withCancel(options)), nil
}

// showDispatchDetails renders one order in full. Commanders additionally get
// the decision buttons on pending orders and the legal status advances on
// decided ones.
func (e *Engine) showDispatchDetails(ctx context.Context, emp *entity.Employee, orderID int64) (Reply, error) {
	if !canViewDispatches(emp.Position) {
		return e.menuReply(ctx, emp, "Dispatch lists are for dispatchers and commanders.")
	}

	order, err := e.dispatches.GetByID(ctx, orderID)
	if err != nil {
		return Reply{}, err
	}
	if order == nil {
		return e.menuReply(ctx, emp, "That order no longer exists.")
	}

	text, err := e.renderDispatchDetails(ctx, order)
	if err != nil {
		return Reply{}, err
	}

	if emp.Position != entity.PositionCommander {
		return textReply("%s", text), nil
	}

	var options []port.Option
	if order.Status == entity.DispatchPendingApproval {
		options = append(options,
			port.Option{Label: "Approve", Data: fmt.Sprintf("dispatch_approve_%d", order.ID)},
			port.Option{Label: "Reject", Data: fmt.Sprintf("dispatch_reject_%d", order.ID)},
		)
	} else {
		options = append(options, advanceOptions(order)...)
	}
	if len(options) == 0 {
		return textReply("%s", text), nil
	}
	return optionsReply(text, options), nil
}

func (e *Engine) renderDispatchDetails(ctx context.Context, order *entity.DispatchOrder) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Dispatch order #%d (%s)\n", order.ID, order.Status)
	fmt.Fprintf(&b, "Address: %s\nReason: %s\n", order.Address, order.Reason)
	fmt.Fprintf(&b, "Created: %s\n", order.CreationTime.Format("02.01.2006 15:04"))

	personnelIDs, err := order.PersonnelIDs()
	if err != nil {
		return "", err
	}
	crew, err := e.employees.ListByIDs(ctx, personnelIDs)
	if err != nil {
		return "", err
	}
	if len(crew) > 0 {
		b.WriteString("Crew:\n")
		for _, c := range crew {
			fmt.Fprintf(&b, "  - %s (%s)\n", c.FullName, c.Position)
		}
	}

	vehicleIDs, err := order.VehicleIDs()
	if err != nil {
		return "", err
	}
	vehicles, err := e.vehicles.ListByIDs(ctx, vehicleIDs)
	if err != nil {
		return "", err
	}
	if len(vehicles) > 0 {
		b.WriteString("Vehicles:\n")
		for _, v := range vehicles {
			fmt.Fprintf(&b, "  - %s (%s)\n", v.Model, v.Plate)
		}
	}

	if order.CommanderID != nil {
		approver, err := e.employees.GetByID(ctx, *order.CommanderID)
		if err != nil {
			return "", err
		}
		if approver != nil {
			fmt.Fprintf(&b, "Decided by: %s\n", approver.FullName)
		}
	}
	if order.VictimsCount > 0 || order.FatalitiesCount > 0 {
		fmt.Fprintf(&b, "Victims: %d, fatalities: %d\n", order.VictimsCount, order.FatalitiesCount)
	}
	if order.CasualtiesDetails != "" {
		fmt.Fprintf(&b, "Casualty details: %s\n", order.CasualtiesDetails)
	}
	if order.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", order.Notes)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// advanceTriggers maps each status a commander may move an order to onto
// the state machine trigger that performs the move.
var advanceTriggers = map[string]domainwf.Trigger{
	entity.DispatchDispatched: domainwf.TriggerDispatch,
	entity.DispatchInProgress: domainwf.TriggerArrive,
	entity.DispatchCompleted:  domainwf.TriggerComplete,
	entity.DispatchCanceled:   domainwf.TriggerCancel,
}

var advanceLabels = map[string]string{
	entity.DispatchDispatched: "Mark dispatched",
	entity.DispatchInProgress: "Mark on scene",
	entity.DispatchCompleted:  "Mark completed",
	entity.DispatchCanceled:   "Cancel order",
}

func advanceOptions(order *entity.DispatchOrder) []port.Option {
	machine := domainwf.NewDispatchMachine(domainwf.State(order.Status))

	var options []port.Option
	for _, target := range []string{
		entity.DispatchDispatched,
		entity.DispatchInProgress,
		entity.DispatchCompleted,
		entity.DispatchCanceled,
	} {
		if machine.CanFire(advanceTriggers[target]) {
			options = append(options, port.Option{
				Label: advanceLabels[target],
				Data:  fmt.Sprintf("dispatch_advance_%s_%d", target, order.ID),
			})
		}
	}
	return options
}

// advanceDispatch moves an order one step along its status machine. The
// current status is re-read inside the transaction so a stale button from an
// old detail view cannot skip a state.
func (e *Engine) advanceDispatch(ctx context.Context, emp *entity.Employee, target string, orderID int64) (Reply, error) {
	if emp.Position != entity.PositionCommander {
		return e.menuReply(ctx, emp, "Only commanders change dispatch status.")
	}

	trigger, ok := advanceTriggers[target]
	if !ok {
		return textReply("Unknown status change."), nil
	}

	var rejected string
	err := e.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		order, err := e.dispatches.GetByID(txCtx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			rejected = "That order no longer exists."
			return errRejected
		}

		machine := domainwf.NewDispatchMachine(domainwf.State(order.Status))
		if err := machine.Fire(txCtx, trigger); err != nil {
			rejected = fmt.Sprintf("Order #%d is %s and cannot become %s.", order.ID, order.Status, target)
			return errRejected
		}
		return e.dispatches.UpdateStatus(txCtx, orderID, machine.State().String())
	})

	if errors.Is(err, errRejected) {
		return e.menuReply(ctx, emp, rejected)
	}
	if err != nil {
		return Reply{}, err
	}
	return e.menuReply(ctx, emp, fmt.Sprintf("Order #%d is now %s.", orderID, target))
}

// statusOverview summarizes personnel, vehicles and today's absences for the
// commander.
func (e *Engine) statusOverview(ctx context.Context, emp *entity.Employee) (Reply, error) {
	if emp.Position != entity.PositionCommander {
		return e.menuReply(ctx, emp, "Only commanders view the status overview.")
	}

	people, err := e.employees.List(ctx)
	if err != nil {
		return Reply{}, err
	}
	vehicles, err := e.vehicles.List(ctx)
	if err != nil {
		return Reply{}, err
	}
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	absences, err := e.absences.ListByPeriod(ctx, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return Reply{}, err
	}

	var b strings.Builder
	b.WriteString("Personnel:\n")
	for _, p := range people {
		shift, err := e.shifts.GetActiveByEmployee(ctx, p.ID)
		if err != nil {
			return Reply{}, err
		}
		marker := "off duty"
		if shift != nil {
			marker = fmt.Sprintf("on shift %d", shift.ShiftNumber)
		}
		line := fmt.Sprintf("  %s (%s): %s", p.FullName, p.Position, marker)
		if isFieldRole(p.Position) && p.IsReady {
			line += ", ready"
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("Vehicles:\n")
	for _, v := range vehicles {
		fmt.Fprintf(&b, "  %s (%s): %s\n", v.Model, v.Plate, v.Status)
	}

	if len(absences) > 0 {
		b.WriteString("Absences reported today:\n")
		for _, a := range absences {
			fmt.Fprintf(&b, "  %s: %s\n", a.AbsentFullName, a.Reason)
		}
	}

	return textReply("%s", strings.TrimRight(b.String(), "\n")), nil
}
