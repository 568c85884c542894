package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/firestation/dutybot/internal/application/port"
	"github.com/firestation/dutybot/internal/application/session"
	"github.com/firestation/dutybot/internal/domain/action"
	"github.com/firestation/dutybot/internal/domain/entity"
	"github.com/firestation/dutybot/pkg/utils"
)

func (e *Engine) startDispatchCreate(ctx context.Context, emp *entity.Employee) (Reply, error) {
	if emp.Position != entity.PositionDispatcher {
		return e.menuReply(ctx, emp, "Only dispatchers can create dispatch orders.")
	}

	e.sessions.Set(emp.ChatID, session.AwaitingDispatchAddress{})
	return optionsReply("Creating a dispatch order. Enter the incident address.", []port.Option{cancelOption()}), nil
}

func (e *Engine) onDispatchAddress(ctx context.Context, emp *entity.Employee, act action.Action) (Reply, error) {
	if act.Kind != action.KindText {
		return repeatOrHint("Send the incident address as text."), nil
	}
	address := utils.SanitizeString(strings.TrimSpace(act.Text))
	if err := utils.ValidateAddress(address); err != nil {
		return textReply("The address is too short, give at least %d characters.", utils.MinAddressLength), nil
	}

	e.sessions.Set(emp.ChatID, session.AwaitingDispatchReason{Address: address})
	return optionsReply("What is the reason for the dispatch?", []port.Option{cancelOption()}), nil
}

func (e *Engine) onDispatchReason(ctx context.Context, emp *entity.Employee, st session.AwaitingDispatchReason, act action.Action) (Reply, error) {
	if act.Kind != action.KindText {
		return repeatOrHint("Send the dispatch reason as text."), nil
	}
	reason := utils.SanitizeString(strings.TrimSpace(act.Text))
	if err := utils.ValidateNotEmpty("reason", reason); err != nil {
		return textReply("The reason must not be empty. Try again."), nil
	}

	next := session.ChoosingPersonnel{
		Address:  st.Address,
		Reason:   reason,
		Selected: map[int64]bool{},
	}
	return e.renderPersonnelChoice(ctx, emp, next)
}

func (e *Engine) renderPersonnelChoice(ctx context.Context, emp *entity.Employee, st session.ChoosingPersonnel) (Reply, error) {
	candidates, err := e.employees.ListDispatchable(ctx)
	if err != nil {
		return Reply{}, err
	}
	if len(candidates) == 0 {
		e.sessions.Clear(emp.ChatID)
		return e.menuReply(ctx, emp, "No personnel are ready for dispatch right now.")
	}

	options := make([]port.Option, 0, len(candidates)+2)
	for _, c := range candidates {
		mark := "[ ]"
		if st.Selected[c.ID] {
			mark = "[x]"
		}
		options = append(options, port.Option{
			Label: fmt.Sprintf("%s %s (%s)", mark, c.FullName, c.Position),
			Data:  fmt.Sprintf("dispatch_toggle_personnel_%d", c.ID),
		})
	}
	options = append(options, port.Option{Label: "Done", Data: "dispatch_personnel_done"})

	e.sessions.Set(emp.ChatID, st)
	return optionsReply("Select the crew (at least one person).", withCancel(options)), nil
}

func (e *Engine) onPersonnelToggle(ctx context.Context, emp *entity.Employee, st session.ChoosingPersonnel, act action.Action) (Reply, error) {
	switch act.Kind {
	case action.KindTogglePersonnel:
		if st.Selected[act.ID] {
			delete(st.Selected, act.ID)
		} else {
			st.Selected[act.ID] = true
		}
		return e.renderPersonnelChoice(ctx, emp, st)

	case action.KindPersonnelDone:
		if len(st.Selected) == 0 {
			return textReply("Select at least one crew member before continuing."), nil
		}
		next := session.ChoosingVehicles{
			Address:          st.Address,
			Reason:           st.Reason,
			Personnel:        sortedIDs(st.Selected),
			SelectedVehicles: map[int64]bool{},
		}
		return e.renderVehicleChoice(ctx, emp, next)
	}
	return repeatOrHint("Toggle crew members or press Done."), nil
}

func (e *Engine) renderVehicleChoice(ctx context.Context, emp *entity.Employee, st session.ChoosingVehicles) (Reply, error) {
	available, err := e.vehicles.ListByStatus(ctx, entity.VehicleAvailable)
	if err != nil {
		return Reply{}, err
	}

	options := make([]port.Option, 0, len(available)+2)
	for _, v := range available {
		mark := "[ ]"
		if st.SelectedVehicles[v.ID] {
			mark = "[x]"
		}
		options = append(options, port.Option{
			Label: fmt.Sprintf("%s %s (%s)", mark, v.Model, v.Plate),
			Data:  fmt.Sprintf("dispatch_toggle_vehicle_%d", v.ID),
		})
	}
	options = append(options, port.Option{Label: "Done", Data: "dispatch_vehicles_done"})

	e.sessions.Set(emp.ChatID, st)
	return optionsReply("Select vehicles for the dispatch.", withCancel(options)), nil
}

func (e *Engine) onVehicleToggle(ctx context.Context, emp *entity.Employee, st session.ChoosingVehicles, act action.Action) (Reply, error) {
	switch act.Kind {
	case action.KindToggleVehicle:
		if st.SelectedVehicles[act.ID] {
			delete(st.SelectedVehicles, act.ID)
		} else {
			st.SelectedVehicles[act.ID] = true
		}
		return e.renderVehicleChoice(ctx, emp, st)

	case action.KindVehiclesDone:
		next := session.ConfirmingDispatch{
			Address:   st.Address,
			Reason:    st.Reason,
			Personnel: st.Personnel,
			Vehicles:  sortedIDs(st.SelectedVehicles),
		}
		return e.renderDispatchSummary(ctx, emp, next)
	}
	return repeatOrHint("Toggle vehicles or press Done."), nil
}

func (e *Engine) renderDispatchSummary(ctx context.Context, emp *entity.Employee, st session.ConfirmingDispatch) (Reply, error) {
	crew, err := e.employees.ListByIDs(ctx, st.Personnel)
	if err != nil {
		return Reply{}, err
	}
	vehicles, err := e.vehicles.ListByIDs(ctx, st.Vehicles)
	if err != nil {
		return Reply{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "New dispatch order:\nAddress: %s\nReason: %s\n", st.Address, st.Reason)
	b.WriteString("Crew:\n")
	for _, c := range crew {
		fmt.Fprintf(&b, "  - %s (%s)\n", c.FullName, c.Position)
	}
	if len(vehicles) == 0 {
		b.WriteString("Vehicles: none\n")
	} else {
		b.WriteString("Vehicles:\n")
		for _, v := range vehicles {
			fmt.Fprintf(&b, "  - %s (%s)\n", v.Model, v.Plate)
		}
	}
	b.WriteString("Submit for approval?")

	e.sessions.Set(emp.ChatID, st)
	return optionsReply(b.String(), []port.Option{
		{Label: "Confirm", Data: "dispatch_confirm"},
		{Label: "Cancel", Data: "dispatch_cancel"},
	}), nil
}

func (e *Engine) onDispatchConfirm(ctx context.Context, emp *entity.Employee, st session.ConfirmingDispatch, act action.Action) (Reply, error) {
	switch act.Kind {
	case action.KindDispatchCancel:
		e.sessions.Clear(emp.ChatID)
		return e.menuReply(ctx, emp, "Dispatch creation canceled.")
	case action.KindDispatchConfirm:
		return e.finalizeDispatchCreate(ctx, emp, st)
	}
	return repeatOrHint("Confirm or cancel the dispatch order."), nil
}

// finalizeDispatchCreate commits the order. Selections are re-validated
// inside the transaction: readiness and vehicle availability may have
// changed while the dispatcher assembled the order.
func (e *Engine) finalizeDispatchCreate(ctx context.Context, emp *entity.Employee, st session.ConfirmingDispatch) (Reply, error) {
	var rejected string
	var orderID int64
	var commandersNotified int

	err := e.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		var stale []string

		crew, err := e.employees.ListByIDs(txCtx, st.Personnel)
		if err != nil {
			return err
		}
		found := make(map[int64]bool, len(crew))
		for _, c := range crew {
			found[c.ID] = true
			if !c.Dispatchable() {
				stale = append(stale, c.FullName)
			}
		}
		for _, id := range st.Personnel {
			if !found[id] {
				stale = append(stale, fmt.Sprintf("employee #%d", id))
			}
		}

		vehicles, err := e.vehicles.ListByIDs(txCtx, st.Vehicles)
		if err != nil {
			return err
		}
		foundVehicles := make(map[int64]bool, len(vehicles))
		for _, v := range vehicles {
			foundVehicles[v.ID] = true
			if v.Status != entity.VehicleAvailable {
				stale = append(stale, fmt.Sprintf("%s (%s)", v.Model, v.Plate))
			}
		}
		for _, id := range st.Vehicles {
			if !foundVehicles[id] {
				stale = append(stale, fmt.Sprintf("vehicle #%d", id))
			}
		}

		if len(stale) > 0 {
			rejected = "These selections are no longer valid: " + strings.Join(stale, ", ") + ". Start the order again."
			return errRejected
		}

		order := &entity.DispatchOrder{
			DispatcherID: emp.ID,
			Address:      st.Address,
			Reason:       st.Reason,
			CreationTime: time.Now(),
			Status:       entity.DispatchPendingApproval,
		}
		if err := order.SetAssignments(st.Personnel, st.Vehicles); err != nil {
			return err
		}
		if err := e.dispatches.Create(txCtx, order); err != nil {
			return err
		}
		orderID = order.ID

		// Commanders get a decision notification once the insert commits.
		everyone, err := e.employees.List(txCtx)
		if err != nil {
			return err
		}
		text := fmt.Sprintf("Dispatch order #%d awaits your decision.\nAddress: %s\nReason: %s", order.ID, st.Address, st.Reason)
		for _, person := range everyone {
			if person.Position != entity.PositionCommander {
				continue
			}
			if err := e.enqueueDecision(txCtx, person.ChatID, text, order.ID); err != nil {
				return err
			}
			commandersNotified++
		}
		return nil
	})

	e.sessions.Clear(emp.ChatID)
	if errors.Is(err, errRejected) {
		return e.menuReply(ctx, emp, rejected)
	}
	if err != nil {
		return Reply{}, err
	}
	if commandersNotified == 0 {
		return e.menuReply(ctx, emp, fmt.Sprintf("Dispatch order #%d recorded, but no commander is registered to approve it.", orderID))
	}
	return e.menuReply(ctx, emp, fmt.Sprintf("Dispatch order #%d submitted for approval.", orderID))
}

func sortedIDs(set map[int64]bool) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
