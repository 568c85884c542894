package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firestation/dutybot/internal/application/port"
	"github.com/firestation/dutybot/internal/domain/entity"
	"github.com/firestation/dutybot/internal/domain/lifecycle"
)

func isFieldRole(position string) bool {
	return position == entity.PositionDriver || position == entity.PositionFirefighter
}

func (e *Engine) startEquipmentLog(emp *entity.Employee) (Reply, error) {
	if !isFieldRole(emp.Position) {
		return textReply("The equipment log is for drivers and firefighters."), nil
	}

	return optionsReply("Equipment log. What did you do?", withCancel([]port.Option{
		{Label: "Took an item", Data: "log_action_taken"},
		{Label: "Returned an item", Data: "log_action_returned"},
		{Label: "Checked an item", Data: "log_action_checked"},
	})), nil
}

func (e *Engine) listEquipmentForLog(ctx context.Context, emp *entity.Employee, op string) (Reply, error) {
	if !isFieldRole(emp.Position) {
		return textReply("The equipment log is for drivers and firefighters."), nil
	}

	var items []*entity.Equipment
	var err error
	switch op {
	case entity.LogActionTaken:
		items, err = e.equipment.ListByStatus(ctx, entity.EquipmentAvailable)
	case entity.LogActionReturned:
		var held []*entity.Equipment
		held, err = e.equipment.ListByStatus(ctx, entity.EquipmentInUse)
		for _, it := range held {
			if it.HeldBy(emp.ID) {
				items = append(items, it)
			}
		}
	case entity.LogActionChecked:
		items, err = e.equipment.ListServiceable(ctx)
	default:
		return textReply("Unknown equipment operation."), nil
	}
	if err != nil {
		return Reply{}, err
	}
	if len(items) == 0 {
		return optionsReply("No equipment matches that operation right now.", []port.Option{cancelOption()}), nil
	}

	options := make([]port.Option, 0, len(items)+1)
	for _, it := range items {
		label := it.Name
		if it.InventoryNumber != "" {
			label = fmt.Sprintf("%s (%s)", it.Name, it.InventoryNumber)
		}
		options = append(options, port.Option{
			Label: label,
			Data:  fmt.Sprintf("log_select_%s_%d", op, it.ID),
		})
	}
	return optionsReply("Which item?", withCancel(options)), nil
}

// finalizeEquipmentLog applies the operation and appends the audit entry in
// one transaction. Preconditions are re-checked against current data, since
// the list the user picked from may be stale.
func (e *Engine) finalizeEquipmentLog(ctx context.Context, emp *entity.Employee, op string, equipmentID int64) (Reply, error) {
	if !isFieldRole(emp.Position) {
		return textReply("The equipment log is for drivers and firefighters."), nil
	}

	var rejected string
	var itemName string

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

		switch op {
		case entity.LogActionTaken:
			machine := lifecycle.NewEquipment(eq.Status)
			if err := machine.Apply(txCtx, lifecycle.EventTake); err != nil {
				held, err := e.guardEquipmentUnheld(txCtx, eq, emp.ID)
				if err != nil {
					return err
				}
				rejected = held
				if rejected == "" {
					rejected = fmt.Sprintf("%s cannot be taken right now (status: %s).", eq.Name, eq.Status)
				}
				return errRejected
			}
			if err := e.equipment.SetStatus(txCtx, eq.ID, machine.Status()); err != nil {
				return err
			}
			if err := e.equipment.SetHolder(txCtx, eq.ID, &emp.ID); err != nil {
				return err
			}

		case entity.LogActionReturned:
			if !eq.HeldBy(emp.ID) {
				rejected = fmt.Sprintf("%s is not checked out to you.", eq.Name)
				return errRejected
			}
			machine := lifecycle.NewEquipment(eq.Status)
			if err := machine.Apply(txCtx, lifecycle.EventReturn); err != nil {
				rejected = fmt.Sprintf("%s cannot be returned right now (status: %s).", eq.Name, eq.Status)
				return errRejected
			}
			if err := e.equipment.SetStatus(txCtx, eq.ID, machine.Status()); err != nil {
				return err
			}
			if err := e.equipment.SetHolder(txCtx, eq.ID, nil); err != nil {
				return err
			}

		case entity.LogActionChecked:
			if eq.Status == entity.EquipmentDecommissioned {
				rejected = fmt.Sprintf("%s is decommissioned.", eq.Name)
				return errRejected
			}

		default:
			return fmt.Errorf("unknown equipment operation %q", op)
		}

		// Checked items performed on shift reference that shift.
		shift, err := e.shifts.GetActiveByEmployee(txCtx, emp.ID)
		if err != nil {
			return err
		}
		var shiftID *int64
		if shift != nil {
			shiftID = &shift.ID
		}

		return e.equipmentLogs.Create(txCtx, &entity.EquipmentLog{
			EmployeeID:  emp.ID,
			EquipmentID: equipmentID,
			Action:      op,
			ShiftLogID:  shiftID,
			Timestamp:   time.Now(),
		})
	})

	if errors.Is(err, errRejected) {
		return e.menuReply(ctx, emp, rejected)
	}
	if err != nil {
		return Reply{}, err
	}

	var msg string
	switch op {
	case entity.LogActionTaken:
		msg = fmt.Sprintf("%s checked out to you.", itemName)
	case entity.LogActionReturned:
		msg = fmt.Sprintf("%s returned.", itemName)
	default:
		msg = fmt.Sprintf("Check of %s recorded.", itemName)
	}
	return e.menuReply(ctx, emp, msg)
}
