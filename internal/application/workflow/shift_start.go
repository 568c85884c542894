package workflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/firestation/dutybot/internal/application/port"
	"github.com/firestation/dutybot/internal/application/session"
	"github.com/firestation/dutybot/internal/domain/action"
	"github.com/firestation/dutybot/internal/domain/entity"
	"github.com/firestation/dutybot/internal/domain/lifecycle"
	"github.com/firestation/dutybot/pkg/utils"
)

func (e *Engine) startShift(ctx context.Context, emp *entity.Employee) (Reply, error) {
	shift, err := e.shifts.GetActiveByEmployee(ctx, emp.ID)
	if err != nil {
		return Reply{}, err
	}
	if shift != nil {
		return e.menuReply(ctx, emp, fmt.Sprintf("You already have an active shift (number %d). End it first.", shift.ShiftNumber))
	}

	e.sessions.Set(emp.ChatID, session.AwaitingShiftNumber{})
	return optionsReply("Starting a shift. Which duty shift number (1-4)?", []port.Option{cancelOption()}), nil
}

func (e *Engine) onShiftNumber(ctx context.Context, emp *entity.Employee, act action.Action) (Reply, error) {
	if act.Kind != action.KindText {
		return repeatOrHint("Send the duty shift number, 1 to 4."), nil
	}

	number, err := utils.ParseShiftNumber(act.Text)
	if err != nil {
		return textReply("Shift number must be a digit from 1 to 4. Try again."), nil
	}

	switch emp.Position {
	case entity.PositionDriver:
		return e.offerVehicles(ctx, emp, number)
	case entity.PositionFirefighter:
		e.sessions.Set(emp.ChatID, session.AwaitingSIZODNumber{ShiftNumber: number})
		return optionsReply("Enter your SIZOD inventory number.", []port.Option{cancelOption()}), nil
	default:
		// Dispatchers and commanders carry no role payload.
		return e.finalizePlainStart(ctx, emp, number)
	}
}

func (e *Engine) offerVehicles(ctx context.Context, emp *entity.Employee, number int) (Reply, error) {
	available, err := e.vehicles.ListByStatus(ctx, entity.VehicleAvailable)
	if err != nil {
		return Reply{}, err
	}
	if len(available) == 0 {
		e.sessions.Clear(emp.ChatID)
		return e.menuReply(ctx, emp, "No vehicles are available right now.")
	}

	options := make([]port.Option, 0, len(available)+1)
	for _, v := range available {
		options = append(options, port.Option{
			Label: fmt.Sprintf("%s (%s)", v.Model, v.Plate),
			Data:  fmt.Sprintf("start_shift_vehicle_%d", v.ID),
		})
	}

	e.sessions.Set(emp.ChatID, session.ChoosingVehicle{ShiftNumber: number})
	return optionsReply("Choose your vehicle.", withCancel(options)), nil
}

func (e *Engine) onVehicleChosen(ctx context.Context, emp *entity.Employee, st session.ChoosingVehicle, act action.Action) (Reply, error) {
	if act.Kind != action.KindSelectVehicle {
		return repeatOrHint("Choose a vehicle from the list."), nil
	}

	vehicle, err := e.vehicles.GetByID(ctx, act.ID)
	if err != nil {
		return Reply{}, err
	}
	if vehicle == nil || vehicle.Status != entity.VehicleAvailable {
		return e.offerVehicles(ctx, emp, st.ShiftNumber)
	}

	e.sessions.Set(emp.ChatID, session.ChoosingPriority{ShiftNumber: st.ShiftNumber, VehicleID: act.ID})
	return optionsReply("Departure priority for this vehicle?", withCancel([]port.Option{
		{Label: "First departure", Data: "priority_1"},
		{Label: "Second departure", Data: "priority_2"},
	})), nil
}

func (e *Engine) onPriorityChosen(ctx context.Context, emp *entity.Employee, st session.ChoosingPriority, act action.Action) (Reply, error) {
	if act.Kind != action.KindPriority {
		return repeatOrHint("Choose the departure priority."), nil
	}
	priority, err := strconv.Atoi(act.Value)
	if err != nil || priority < 1 {
		return repeatOrHint("Choose the departure priority."), nil
	}

	e.sessions.Set(emp.ChatID, session.AwaitingStartOdometer{
		ShiftNumber: st.ShiftNumber,
		VehicleID:   st.VehicleID,
		Priority:    priority,
	})
	return optionsReply("Enter the current odometer reading (km).", []port.Option{cancelOption()}), nil
}

func (e *Engine) onStartOdometer(ctx context.Context, emp *entity.Employee, st session.AwaitingStartOdometer, act action.Action) (Reply, error) {
	if act.Kind != action.KindText {
		return repeatOrHint("Send the odometer reading as a number."), nil
	}
	odometer, err := utils.ParseReading(act.Text)
	if err != nil {
		return textReply("The odometer reading must be a non-negative number. Try again."), nil
	}

	e.sessions.Set(emp.ChatID, session.AwaitingStartFuel{
		ShiftNumber:   st.ShiftNumber,
		VehicleID:     st.VehicleID,
		Priority:      st.Priority,
		StartOdometer: odometer,
	})
	return optionsReply("Enter the current fuel level (liters).", []port.Option{cancelOption()}), nil
}

func (e *Engine) onStartFuel(ctx context.Context, emp *entity.Employee, st session.AwaitingStartFuel, act action.Action) (Reply, error) {
	if act.Kind != action.KindText {
		return repeatOrHint("Send the fuel level as a number."), nil
	}
	fuel, err := utils.ParseReading(act.Text)
	if err != nil {
		return textReply("The fuel level must be a non-negative number. Try again."), nil
	}

	return e.finalizeDriverStart(ctx, emp, st, fuel)
}

// finalizeDriverStart commits a driver shift: the vehicle's availability is
// re-checked inside the transaction, since it may have been taken while the
// driver was typing.
func (e *Engine) finalizeDriverStart(ctx context.Context, emp *entity.Employee, st session.AwaitingStartFuel, fuel float64) (Reply, error) {
	var rejected string

	err := e.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		msg, err := e.guardNoActiveShift(txCtx, emp.ID)
		if err != nil {
			return err
		}
		if msg != "" {
			rejected = msg
			return errRejected
		}

		vehicle, msg, err := e.guardVehicleAvailable(txCtx, st.VehicleID)
		if err != nil {
			return err
		}
		if msg != "" {
			rejected = msg
			return errRejected
		}

		if err := e.vehicles.UpdateStatus(txCtx, vehicle.ID, entity.VehicleInUse); err != nil {
			return err
		}

		priority := st.Priority
		odometer := st.StartOdometer
		fuelLevel := fuel
		shift := &entity.ShiftLog{
			EmployeeID:          emp.ID,
			ShiftNumber:         st.ShiftNumber,
			StartTime:           time.Now(),
			Status:              entity.ShiftActive,
			VehicleID:           &vehicle.ID,
			OperationalPriority: &priority,
			StartOdometer:       &odometer,
			StartFuelLevel:      &fuelLevel,
		}
		return e.shifts.Create(txCtx, shift)
	})

	e.sessions.Clear(emp.ChatID)
	if errors.Is(err, errRejected) {
		return e.menuReply(ctx, emp, rejected)
	}
	if err != nil {
		return Reply{}, err
	}
	return e.menuReply(ctx, emp, fmt.Sprintf("Shift %d started. Vehicle is now in use, safe duty!", st.ShiftNumber))
}

func (e *Engine) finalizePlainStart(ctx context.Context, emp *entity.Employee, number int) (Reply, error) {
	var rejected string

	err := e.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		msg, err := e.guardNoActiveShift(txCtx, emp.ID)
		if err != nil {
			return err
		}
		if msg != "" {
			rejected = msg
			return errRejected
		}

		return e.shifts.Create(txCtx, &entity.ShiftLog{
			EmployeeID:  emp.ID,
			ShiftNumber: number,
			StartTime:   time.Now(),
			Status:      entity.ShiftActive,
		})
	})

	e.sessions.Clear(emp.ChatID)
	if errors.Is(err, errRejected) {
		return e.menuReply(ctx, emp, rejected)
	}
	if err != nil {
		return Reply{}, err
	}
	return e.menuReply(ctx, emp, fmt.Sprintf("Shift %d started.", number))
}

func (e *Engine) onSIZODNumber(ctx context.Context, emp *entity.Employee, st session.AwaitingSIZODNumber, act action.Action) (Reply, error) {
	if act.Kind != action.KindText {
		return repeatOrHint("Send your SIZOD inventory number."), nil
	}

	number := strings.TrimSpace(act.Text)
	if number == "" {
		return textReply("The inventory number must not be empty. Try again."), nil
	}

	eq, err := e.equipment.GetByInventoryNumber(ctx, entity.EquipmentTypeSIZOD, number)
	if err != nil {
		return Reply{}, err
	}
	if eq == nil {
		return textReply("No SIZOD with inventory number %s is registered. Check the number and try again.", number), nil
	}
	if eq.Status == entity.EquipmentDecommissioned {
		return textReply("SIZOD %s is decommissioned and cannot be taken. Enter another number.", number), nil
	}
	if held, err := e.guardEquipmentUnheld(ctx, eq, emp.ID); err != nil {
		return Reply{}, err
	} else if held != "" {
		return textReply("%s Enter another number.", held), nil
	}

	e.sessions.Set(emp.ChatID, session.ChoosingSIZODCondition{
		ShiftNumber: st.ShiftNumber,
		EquipmentID: eq.ID,
		SIZODNumber: number,
	})
	return optionsReply(fmt.Sprintf("SIZOD %s found. What condition is it in?", number), withCancel([]port.Option{
		{Label: "Serviceable", Data: "sizod_status_start_serviceable"},
		{Label: "Faulty", Data: "sizod_status_start_faulty"},
	})), nil
}

func (e *Engine) onSIZODCondition(ctx context.Context, emp *entity.Employee, st session.ChoosingSIZODCondition, act action.Action) (Reply, error) {
	if act.Kind != action.KindSIZODStatusStart {
		return repeatOrHint("Choose the apparatus condition."), nil
	}

	if act.Value == entity.ConditionFaulty {
		e.sessions.Set(emp.ChatID, session.AwaitingSIZODNotes{
			ShiftNumber: st.ShiftNumber,
			EquipmentID: st.EquipmentID,
			SIZODNumber: st.SIZODNumber,
			Condition:   act.Value,
		})
		return optionsReply("Describe the fault.", withCancel([]port.Option{
			{Label: "Skip", Data: "skip_sizod_notes_start"},
		})), nil
	}

	return e.finalizeFirefighterStart(ctx, emp, session.AwaitingSIZODNotes{
		ShiftNumber: st.ShiftNumber,
		EquipmentID: st.EquipmentID,
		SIZODNumber: st.SIZODNumber,
		Condition:   act.Value,
	}, "")
}

func (e *Engine) onSIZODNotes(ctx context.Context, emp *entity.Employee, st session.AwaitingSIZODNotes, act action.Action) (Reply, error) {
	switch act.Kind {
	case action.KindText:
		return e.finalizeFirefighterStart(ctx, emp, st, utils.SanitizeString(act.Text))
	case action.KindSkipNotesStart:
		return e.finalizeFirefighterStart(ctx, emp, st, "")
	}
	return repeatOrHint("Describe the fault or skip."), nil
}

// finalizeFirefighterStart commits a firefighter shift: the apparatus is
// re-checked and checked out inside the transaction, and a taken entry is
// appended to the equipment log.
func (e *Engine) finalizeFirefighterStart(ctx context.Context, emp *entity.Employee, st session.AwaitingSIZODNotes, notes string) (Reply, error) {
	var rejected string

	err := e.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		msg, err := e.guardNoActiveShift(txCtx, emp.ID)
		if err != nil {
			return err
		}
		if msg != "" {
			rejected = msg
			return errRejected
		}

		eq, err := e.equipment.GetByID(txCtx, st.EquipmentID)
		if err != nil {
			return err
		}
		if eq == nil {
			rejected = "That SIZOD is no longer registered."
			return errRejected
		}
		held, err := e.guardEquipmentUnheld(txCtx, eq, emp.ID)
		if err != nil {
			return err
		}
		if held != "" {
			rejected = held + " Start over."
			return errRejected
		}

		// An apparatus the firefighter already holds (taken earlier via the
		// equipment log) needs no take event; holder and status are correct.
		if !eq.HeldBy(emp.ID) {
			machine := lifecycle.NewEquipment(eq.Status)
			if err := machine.Apply(txCtx, lifecycle.EventTake); err != nil {
				rejected = fmt.Sprintf("SIZOD %s cannot be taken right now (status: %s). Start over.", st.SIZODNumber, eq.Status)
				return errRejected
			}
			if err := e.equipment.SetStatus(txCtx, eq.ID, machine.Status()); err != nil {
				return err
			}
			if err := e.equipment.SetHolder(txCtx, eq.ID, &emp.ID); err != nil {
				return err
			}
		}

		shift := &entity.ShiftLog{
			EmployeeID:          emp.ID,
			ShiftNumber:         st.ShiftNumber,
			StartTime:           time.Now(),
			Status:              entity.ShiftActive,
			SIZODNumber:         st.SIZODNumber,
			SIZODConditionStart: st.Condition,
			SIZODNotesStart:     notes,
		}
		if err := e.shifts.Create(txCtx, shift); err != nil {
			return err
		}

		return e.equipmentLogs.Create(txCtx, &entity.EquipmentLog{
			EmployeeID:  emp.ID,
			EquipmentID: eq.ID,
			Action:      entity.LogActionTaken,
			Notes:       notes,
			ShiftLogID:  &shift.ID,
			Timestamp:   time.Now(),
		})
	})

	e.sessions.Clear(emp.ChatID)
	if errors.Is(err, errRejected) {
		return e.menuReply(ctx, emp, rejected)
	}
	if err != nil {
		return Reply{}, err
	}

	msg := fmt.Sprintf("Shift %d started. SIZOD %s checked out to you.", st.ShiftNumber, st.SIZODNumber)
	if st.Condition == entity.ConditionFaulty {
		msg += " The reported fault has been recorded."
	}
	return e.menuReply(ctx, emp, msg)
}
