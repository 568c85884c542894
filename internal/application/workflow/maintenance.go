package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firestation/dutybot/internal/application/port"
	"github.com/firestation/dutybot/internal/application/session"
	"github.com/firestation/dutybot/internal/domain/action"
	"github.com/firestation/dutybot/internal/domain/entity"
	"github.com/firestation/dutybot/internal/domain/lifecycle"
)

func (e *Engine) startMaintenance(ctx context.Context, emp *entity.Employee) (Reply, error) {
	if emp.Position != entity.PositionCommander {
		return e.menuReply(ctx, emp, "Only commanders manage equipment maintenance.")
	}

	items, err := e.equipment.ListByStatus(ctx, entity.EquipmentInUse, entity.EquipmentMaintenance)
	if err != nil {
		return Reply{}, err
	}
	if len(items) == 0 {
		return e.menuReply(ctx, emp, "No equipment needs attention right now.")
	}

	options := make([]port.Option, 0, len(items)+1)
	for _, it := range items {
		options = append(options, port.Option{
			Label: fmt.Sprintf("%s (%s)", it.Name, it.Status),
			Data:  fmt.Sprintf("maintenance_select_%d", it.ID),
		})
	}
	return optionsReply("Which item do you want to manage?", withCancel(options)), nil
}

func (e *Engine) showMaintenanceActions(ctx context.Context, emp *entity.Employee, equipmentID int64) (Reply, error) {
	if emp.Position != entity.PositionCommander {
		return e.menuReply(ctx, emp, "Only commanders manage equipment maintenance.")
	}

	eq, err := e.equipment.GetByID(ctx, equipmentID)
	if err != nil {
		return Reply{}, err
	}
	if eq == nil || eq.Status == entity.EquipmentAvailable || eq.Status == entity.EquipmentDecommissioned {
		return e.menuReply(ctx, emp, "That item no longer needs attention.")
	}

	prompt := fmt.Sprintf("%s is currently %s.", eq.Name, eq.Status)
	history, err := e.equipmentLogs.GetByEquipmentID(ctx, eq.ID, 3)
	if err != nil {
		return Reply{}, err
	}
	if len(history) > 0 {
		prompt += "\nRecent log:"
		for _, h := range history {
			line := fmt.Sprintf("\n  %s %s", h.Timestamp.Format("02.01 15:04"), h.Action)
			if h.Notes != "" {
				line += " (" + h.Notes + ")"
			}
			prompt += line
		}
	}
	prompt += "\nNew status?"

	return optionsReply(prompt, withCancel([]port.Option{
		{Label: "Return to service", Data: fmt.Sprintf("maintenance_set_available_%d", eq.ID)},
		{Label: "Send to maintenance", Data: fmt.Sprintf("maintenance_set_maintenance_%d", eq.ID)},
		{Label: "Decommission", Data: fmt.Sprintf("maintenance_set_decommission_%d", eq.ID)},
	})), nil
}

// promptMaintenanceConfirm asks the commander to confirm the status change
// before anything is written. Decommissioning in particular is presented as
// final.
func (e *Engine) promptMaintenanceConfirm(ctx context.Context, emp *entity.Employee, target string, equipmentID int64) (Reply, error) {
	if emp.Position != entity.PositionCommander {
		return e.menuReply(ctx, emp, "Only commanders manage equipment maintenance.")
	}

	eq, err := e.equipment.GetByID(ctx, equipmentID)
	if err != nil {
		return Reply{}, err
	}
	if eq == nil {
		return e.menuReply(ctx, emp, "That item is no longer registered.")
	}

	var prompt string
	switch target {
	case "available":
		prompt = fmt.Sprintf("Return %s to service?", eq.Name)
	case "maintenance":
		prompt = fmt.Sprintf("Send %s to maintenance?", eq.Name)
	case "decommission":
		prompt = fmt.Sprintf("Decommission %s? This removes it from service for good.", eq.Name)
	default:
		return textReply("Unknown maintenance action."), nil
	}

	e.sessions.Set(emp.ChatID, session.ConfirmingMaintenance{EquipmentID: equipmentID, Target: target})
	return optionsReply(prompt, []port.Option{
		{Label: "Confirm", Data: "maintenance_confirm"},
		cancelOption(),
	}), nil
}

func (e *Engine) onMaintenanceConfirm(ctx context.Context, emp *entity.Employee, st session.ConfirmingMaintenance, act action.Action) (Reply, error) {
	if act.Kind != action.KindMaintenanceConfirm {
		return repeatOrHint("Confirm the status change or cancel."), nil
	}
	e.sessions.Clear(emp.ChatID)
	return e.finalizeMaintenance(ctx, emp, st.Target, st.EquipmentID)
}

// finalizeMaintenance applies a commander decision. Returning an item to
// service or decommissioning it clears the holder.
func (e *Engine) finalizeMaintenance(ctx context.Context, emp *entity.Employee, target string, equipmentID int64) (Reply, error) {
	if emp.Position != entity.PositionCommander {
		return e.menuReply(ctx, emp, "Only commanders manage equipment maintenance.")
	}

	var event string
	switch target {
	case "available":
		event = lifecycle.EventRestore
	case "maintenance":
		event = lifecycle.EventSendMaintenance
	case "decommission":
		event = lifecycle.EventDecommission
	default:
		return textReply("Unknown maintenance action."), nil
	}

	var rejected string
	var itemName, newStatus string

	err := e.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		eq, err := e.equipment.GetByID(txCtx, equipmentID)
		if err != nil {
			return err
		}
		if eq == nil {
			rejected = "That item is no longer registered."
			return errRejected
		}
		itemName = eq.Name

		machine := lifecycle.NewEquipment(eq.Status)
		if err := machine.Apply(txCtx, event); err != nil {
			rejected = fmt.Sprintf("%s cannot change from %s that way.", eq.Name, eq.Status)
			return errRejected
		}
		newStatus = machine.Status()

		if err := e.equipment.SetStatus(txCtx, eq.ID, newStatus); err != nil {
			return err
		}
		if newStatus != entity.EquipmentMaintenance && eq.CurrentHolderID != nil {
			if err := e.equipment.SetHolder(txCtx, eq.ID, nil); err != nil {
				return err
			}
		}

		return e.equipmentLogs.Create(txCtx, &entity.EquipmentLog{
			EmployeeID:  emp.ID,
			EquipmentID: eq.ID,
			Action:      entity.LogActionMaintenance,
			Notes:       fmt.Sprintf("status set to %s", newStatus),
			Timestamp:   time.Now(),
		})
	})

	if errors.Is(err, errRejected) {
		return e.menuReply(ctx, emp, rejected)
	}
	if err != nil {
		return Reply{}, err
	}
	return e.menuReply(ctx, emp, fmt.Sprintf("%s is now %s.", itemName, newStatus))
}
