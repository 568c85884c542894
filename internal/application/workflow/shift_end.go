package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/firestation/dutybot/internal/application/port"
	"github.com/firestation/dutybot/internal/application/session"
	"github.com/firestation/dutybot/internal/domain/action"
	"github.com/firestation/dutybot/internal/domain/entity"
	"github.com/firestation/dutybot/internal/domain/lifecycle"
	"github.com/firestation/dutybot/pkg/utils"
)

func (e *Engine) endShift(ctx context.Context, emp *entity.Employee) (Reply, error) {
	shift, err := e.shifts.GetActiveByEmployee(ctx, emp.ID)
	if err != nil {
		return Reply{}, err
	}
	if shift == nil {
		return e.menuReply(ctx, emp, "You have no active shift.")
	}

	switch {
	case shift.VehicleID != nil:
		e.sessions.Set(emp.ChatID, session.AwaitingEndOdometer{ShiftID: shift.ID})
		return optionsReply("Ending your shift. Enter the final odometer reading (km).", []port.Option{cancelOption()}), nil
	case shift.SIZODNumber != "":
		e.sessions.Set(emp.ChatID, session.ChoosingSIZODEndCondition{ShiftID: shift.ID})
		return optionsReply(fmt.Sprintf("Ending your shift. What condition is SIZOD %s in?", shift.SIZODNumber), withCancel([]port.Option{
			{Label: "Serviceable", Data: "sizod_status_end_serviceable"},
			{Label: "Faulty", Data: "sizod_status_end_faulty"},
		})), nil
	default:
		return e.finalizePlainEnd(ctx, emp, shift.ID)
	}
}

func (e *Engine) onEndOdometer(ctx context.Context, emp *entity.Employee, st session.AwaitingEndOdometer, act action.Action) (Reply, error) {
	if act.Kind != action.KindText {
		return repeatOrHint("Send the final odometer reading as a number."), nil
	}
	odometer, err := utils.ParseReading(act.Text)
	if err != nil {
		return textReply("The odometer reading must be a non-negative number. Try again."), nil
	}

	shift, err := e.shifts.GetByID(ctx, st.ShiftID)
	if err != nil {
		return Reply{}, err
	}
	if shift == nil || shift.Status != entity.ShiftActive {
		e.sessions.Clear(emp.ChatID)
		return e.menuReply(ctx, emp, "That shift is no longer active.")
	}
	if shift.StartOdometer != nil && odometer < *shift.StartOdometer {
		return textReply("The final reading (%.1f) is below the starting one (%.1f). Try again.", odometer, *shift.StartOdometer), nil
	}

	e.sessions.Set(emp.ChatID, session.AwaitingEndFuel{ShiftID: st.ShiftID, EndOdometer: odometer})
	return optionsReply("Enter the remaining fuel level (liters).", []port.Option{cancelOption()}), nil
}

func (e *Engine) onEndFuel(ctx context.Context, emp *entity.Employee, st session.AwaitingEndFuel, act action.Action) (Reply, error) {
	if act.Kind != action.KindText {
		return repeatOrHint("Send the fuel level as a number."), nil
	}
	fuel, err := utils.ParseReading(act.Text)
	if err != nil {
		return textReply("The fuel level must be a non-negative number. Try again."), nil
	}

	return e.finalizeDriverEnd(ctx, emp, st, fuel)
}

// finalizeDriverEnd closes a driver shift and releases the vehicle.
func (e *Engine) finalizeDriverEnd(ctx context.Context, emp *entity.Employee, st session.AwaitingEndFuel, fuel float64) (Reply, error) {
	var rejected string
	var summary string

	err := e.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		shift, msg, err := e.guardOwnActiveShift(txCtx, st.ShiftID, emp.ID)
		if err != nil {
			return err
		}
		if msg != "" {
			rejected = msg
			return errRejected
		}
		if shift.StartOdometer != nil && st.EndOdometer < *shift.StartOdometer {
			rejected = "The final odometer reading is below the starting one."
			return errRejected
		}

		now := time.Now()
		endOdometer := st.EndOdometer
		endFuel := fuel
		shift.EndOdometer = &endOdometer
		shift.EndFuelLevel = &endFuel
		shift.EndTime = &now
		shift.Status = entity.ShiftCompleted
		if err := e.shifts.Update(txCtx, shift); err != nil {
			return err
		}

		if shift.VehicleID != nil {
			if err := e.vehicles.UpdateStatus(txCtx, *shift.VehicleID, entity.VehicleAvailable); err != nil {
				return err
			}
			// The driver just verified odometer and fuel; record it as the
			// vehicle's latest check.
			if err := e.vehicles.SetLastCheck(txCtx, *shift.VehicleID, now); err != nil {
				return err
			}
		}

		summary = fmt.Sprintf("Shift %d completed. Mileage: %.1f km, fuel used: %.1f l. Vehicle released.",
			shift.ShiftNumber, shift.Distance(), shift.FuelDelta())
		return nil
	})

	e.sessions.Clear(emp.ChatID)
	if errors.Is(err, errRejected) {
		return e.menuReply(ctx, emp, rejected)
	}
	if err != nil {
		return Reply{}, err
	}
	return e.menuReply(ctx, emp, summary)
}

func (e *Engine) onSIZODEndCondition(ctx context.Context, emp *entity.Employee, st session.ChoosingSIZODEndCondition, act action.Action) (Reply, error) {
	if act.Kind != action.KindSIZODStatusEnd {
		return repeatOrHint("Choose the apparatus condition."), nil
	}

	if act.Value == entity.ConditionFaulty {
		e.sessions.Set(emp.ChatID, session.AwaitingSIZODEndNotes{ShiftID: st.ShiftID, Condition: act.Value})
		return optionsReply("Describe the fault.", withCancel([]port.Option{
			{Label: "Skip", Data: "skip_sizod_notes_end"},
		})), nil
	}
	return e.finalizeFirefighterEnd(ctx, emp, st.ShiftID, act.Value, "")
}

func (e *Engine) onSIZODEndNotes(ctx context.Context, emp *entity.Employee, st session.AwaitingSIZODEndNotes, act action.Action) (Reply, error) {
	switch act.Kind {
	case action.KindText:
		return e.finalizeFirefighterEnd(ctx, emp, st.ShiftID, st.Condition, utils.SanitizeString(act.Text))
	case action.KindSkipNotesEnd:
		return e.finalizeFirefighterEnd(ctx, emp, st.ShiftID, st.Condition, "")
	}
	return repeatOrHint("Describe the fault or skip."), nil
}

// finalizeFirefighterEnd closes a firefighter shift and returns the
// apparatus. A holder mismatch (the item was reassigned by a commander
// mid-shift) is logged and tolerated; the shift still closes.
func (e *Engine) finalizeFirefighterEnd(ctx context.Context, emp *entity.Employee, shiftID int64, condition, notes string) (Reply, error) {
	var rejected string
	var summary string

	err := e.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		shift, msg, err := e.guardOwnActiveShift(txCtx, shiftID, emp.ID)
		if err != nil {
			return err
		}
		if msg != "" {
			rejected = msg
			return errRejected
		}

		now := time.Now()
		shift.SIZODConditionEnd = condition
		shift.SIZODNotesEnd = notes
		shift.EndTime = &now
		shift.Status = entity.ShiftCompleted
		if err := e.shifts.Update(txCtx, shift); err != nil {
			return err
		}

		eq, err := e.equipment.GetByInventoryNumber(txCtx, entity.EquipmentTypeSIZOD, shift.SIZODNumber)
		if err != nil {
			return err
		}

		summary = fmt.Sprintf("Shift %d completed.", shift.ShiftNumber)
		switch {
		case eq == nil:
			e.logger.Warn("shift-end apparatus not found",
				zap.Int64("shift_id", shift.ID),
				zap.String("sizod_number", shift.SIZODNumber))
		case !eq.HeldBy(emp.ID):
			e.logger.Warn("shift-end holder mismatch",
				zap.Int64("shift_id", shift.ID),
				zap.Int64("equipment_id", eq.ID))
		default:
			event := lifecycle.EventReturn
			if condition == entity.ConditionFaulty {
				event = lifecycle.EventReturnFaulty
			}
			machine := lifecycle.NewEquipment(eq.Status)
			if err := machine.Apply(txCtx, event); err != nil {
				return fmt.Errorf("return apparatus %d: %w", eq.ID, err)
			}
			if err := e.equipment.SetStatus(txCtx, eq.ID, machine.Status()); err != nil {
				return err
			}
			if err := e.equipment.SetHolder(txCtx, eq.ID, nil); err != nil {
				return err
			}
			if err := e.equipmentLogs.Create(txCtx, &entity.EquipmentLog{
				EmployeeID:  emp.ID,
				EquipmentID: eq.ID,
				Action:      entity.LogActionReturned,
				Notes:       notes,
				ShiftLogID:  &shift.ID,
				Timestamp:   now,
			}); err != nil {
				return err
			}

			summary += fmt.Sprintf(" SIZOD %s returned.", shift.SIZODNumber)
			if condition == entity.ConditionFaulty {
				summary += " It was routed to maintenance."
			}
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
	return e.menuReply(ctx, emp, summary)
}

func (e *Engine) finalizePlainEnd(ctx context.Context, emp *entity.Employee, shiftID int64) (Reply, error) {
	var rejected string
	var number int

	err := e.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		shift, msg, err := e.guardOwnActiveShift(txCtx, shiftID, emp.ID)
		if err != nil {
			return err
		}
		if msg != "" {
			rejected = msg
			return errRejected
		}

		now := time.Now()
		shift.EndTime = &now
		shift.Status = entity.ShiftCompleted
		number = shift.ShiftNumber
		return e.shifts.Update(txCtx, shift)
	})

	e.sessions.Clear(emp.ChatID)
	if errors.Is(err, errRejected) {
		return e.menuReply(ctx, emp, rejected)
	}
	if err != nil {
		return Reply{}, err
	}
	return e.menuReply(ctx, emp, fmt.Sprintf("Shift %d completed.", number))
}
