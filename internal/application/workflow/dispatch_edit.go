package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/firestation/dutybot/internal/application/port"
	"github.com/firestation/dutybot/internal/application/session"
	"github.com/firestation/dutybot/internal/domain/action"
	"github.com/firestation/dutybot/internal/domain/entity"
	"github.com/firestation/dutybot/pkg/utils"
)

const editListLimit = 10

var editFieldLabels = map[string]string{
	"victims":    "Victims count",
	"fatalities": "Fatalities count",
	"casualties": "Details on casualties",
	"notes":      "Notes",
}

func (e *Engine) startDispatchEdit(ctx context.Context, emp *entity.Employee) (Reply, error) {
	if emp.Position != entity.PositionDispatcher {
		return e.menuReply(ctx, emp, "Only dispatchers can edit dispatch orders.")
	}

	orders, err := e.dispatches.ListEditable(ctx, editListLimit)
	if err != nil {
		return Reply{}, err
	}

	options := make([]port.Option, 0, len(orders)+1)
	for _, o := range orders {
		if o.DispatcherID != emp.ID {
			continue
		}
		options = append(options, port.Option{
			Label: fmt.Sprintf("#%d %s (%s)", o.ID, o.Address, o.Status),
			Data:  fmt.Sprintf("edit_dispatch_select_%d", o.ID),
		})
	}
	if len(options) == 0 {
		return e.menuReply(ctx, emp, "You have no orders open for editing.")
	}

	return optionsReply("Which order do you want to edit?", withCancel(options)), nil
}

func (e *Engine) showEditFields(ctx context.Context, emp *entity.Employee, orderID int64) (Reply, error) {
	order, err := e.loadEditableOrder(ctx, emp, orderID)
	if err != nil {
		return Reply{}, err
	}
	if order == nil {
		return e.menuReply(ctx, emp, "That order is no longer open for editing.")
	}

	text := fmt.Sprintf("Order #%d: %s\nVictims: %d, fatalities: %d\nCasualty details: %s\nNotes: %s\nWhat do you want to change?",
		order.ID, order.Address, order.VictimsCount, order.FatalitiesCount,
		orDash(order.CasualtiesDetails), orDash(order.Notes))

	options := []port.Option{
		{Label: editFieldLabels["victims"], Data: fmt.Sprintf("edit_dispatch_field_victims_%d", order.ID)},
		{Label: editFieldLabels["fatalities"], Data: fmt.Sprintf("edit_dispatch_field_fatalities_%d", order.ID)},
		{Label: editFieldLabels["casualties"], Data: fmt.Sprintf("edit_dispatch_field_casualties_%d", order.ID)},
		{Label: editFieldLabels["notes"], Data: fmt.Sprintf("edit_dispatch_field_notes_%d", order.ID)},
		{Label: "Done", Data: fmt.Sprintf("edit_dispatch_done_%d", order.ID)},
	}

	e.sessions.Clear(emp.ChatID)
	return optionsReply(text, options), nil
}

func (e *Engine) promptEditValue(ctx context.Context, emp *entity.Employee, field string, orderID int64) (Reply, error) {
	order, err := e.loadEditableOrder(ctx, emp, orderID)
	if err != nil {
		return Reply{}, err
	}
	if order == nil {
		return e.menuReply(ctx, emp, "That order is no longer open for editing.")
	}

	e.sessions.Set(emp.ChatID, session.AwaitingEditValue{OrderID: orderID, Field: field})
	return optionsReply(fmt.Sprintf("Enter the new value for %q.", editFieldLabels[field]), []port.Option{cancelOption()}), nil
}

func (e *Engine) onEditValue(ctx context.Context, emp *entity.Employee, st session.AwaitingEditValue, act action.Action) (Reply, error) {
	if act.Kind != action.KindText {
		return repeatOrHint("Send the new value as text."), nil
	}

	value := utils.SanitizeString(strings.TrimSpace(act.Text))
	switch st.Field {
	case "victims", "fatalities":
		if _, err := utils.ParseCount(value); err != nil {
			return textReply("The value must be a non-negative whole number. Try again."), nil
		}
	default:
		if err := utils.ValidateNotEmpty(st.Field, value); err != nil {
			return textReply("The value must not be empty. Try again."), nil
		}
	}

	e.sessions.Set(emp.ChatID, session.ConfirmingEdit{OrderID: st.OrderID, Field: st.Field, NewValue: value})
	return optionsReply(
		fmt.Sprintf("Set %q to %q?", editFieldLabels[st.Field], value),
		[]port.Option{
			{Label: "Save", Data: fmt.Sprintf("edit_dispatch_save_change_%d", st.OrderID)},
			{Label: "Discard", Data: fmt.Sprintf("edit_dispatch_cancel_change_%d", st.OrderID)},
		}), nil
}

func (e *Engine) onEditConfirm(ctx context.Context, emp *entity.Employee, st session.ConfirmingEdit, act action.Action) (Reply, error) {
	switch act.Kind {
	case action.KindEditCancel:
		return e.showEditFields(ctx, emp, st.OrderID)
	case action.KindEditSave:
		if act.ID != st.OrderID {
			return repeatOrHint("Save or discard the pending change."), nil
		}
		return e.finalizeEdit(ctx, emp, st)
	}
	return repeatOrHint("Save or discard the pending change."), nil
}

// finalizeEdit applies one field change. Last write wins when two edits
// race; every save stamps who edited and when.
func (e *Engine) finalizeEdit(ctx context.Context, emp *entity.Employee, st session.ConfirmingEdit) (Reply, error) {
	var rejected string

	err := e.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		order, err := e.dispatches.GetByID(txCtx, st.OrderID)
		if err != nil {
			return err
		}
		if order == nil || !order.Editable() || order.DispatcherID != emp.ID {
			rejected = "That order is no longer open for editing."
			return errRejected
		}

		switch st.Field {
		case "victims":
			order.VictimsCount, _ = utils.ParseCount(st.NewValue)
		case "fatalities":
			order.FatalitiesCount, _ = utils.ParseCount(st.NewValue)
		case "casualties":
			order.CasualtiesDetails = st.NewValue
		case "notes":
			order.Notes = st.NewValue
		default:
			return fmt.Errorf("unknown editable field %q", st.Field)
		}

		now := time.Now()
		order.LastEditedBy = &emp.ID
		order.LastEditedAt = &now
		return e.dispatches.Update(txCtx, order)
	})

	if errors.Is(err, errRejected) {
		e.sessions.Clear(emp.ChatID)
		return e.menuReply(ctx, emp, rejected)
	}
	if err != nil {
		return Reply{}, err
	}
	return e.showEditFields(ctx, emp, st.OrderID)
}

// loadEditableOrder returns the order when it exists, is still editable and
// belongs to this dispatcher; nil otherwise.
func (e *Engine) loadEditableOrder(ctx context.Context, emp *entity.Employee, orderID int64) (*entity.DispatchOrder, error) {
	if emp.Position != entity.PositionDispatcher {
		return nil, nil
	}
	order, err := e.dispatches.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || !order.Editable() || order.DispatcherID != emp.ID {
		return nil, nil
	}
	return order, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
