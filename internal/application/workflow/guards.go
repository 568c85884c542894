package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/firestation/dutybot/internal/domain/entity"
)

// errRejected marks a finalize transaction aborted by a business check. The
// caller turns the accompanying message into a normal reply; nothing is
// committed.
var errRejected = errors.New("finalize rejected")

// The guards below are the invariant checks that finalize transactions
// re-run on shared resources right before committing. Each returns a
// non-empty rejection message when the check fails; the caller sets the
// message aside and returns errRejected.

// guardNoActiveShift rejects when the employee already has an active shift.
func (e *Engine) guardNoActiveShift(ctx context.Context, employeeID int64) (string, error) {
	active, err := e.shifts.GetActiveByEmployee(ctx, employeeID)
	if err != nil {
		return "", err
	}
	if active != nil {
		return "You already have an active shift.", nil
	}
	return "", nil
}

// guardOwnActiveShift loads a shift and rejects unless it is still active
// and belongs to the employee.
func (e *Engine) guardOwnActiveShift(ctx context.Context, shiftID, employeeID int64) (*entity.ShiftLog, string, error) {
	shift, err := e.shifts.GetByID(ctx, shiftID)
	if err != nil {
		return nil, "", err
	}
	if shift == nil || shift.Status != entity.ShiftActive || shift.EmployeeID != employeeID {
		return nil, "That shift is no longer active.", nil
	}
	return shift, "", nil
}

// guardVehicleAvailable loads a vehicle and rejects unless it can still be
// claimed. Another driver may have taken it since it was offered.
func (e *Engine) guardVehicleAvailable(ctx context.Context, vehicleID int64) (*entity.Vehicle, string, error) {
	vehicle, err := e.vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, "", err
	}
	if vehicle == nil || vehicle.Status != entity.VehicleAvailable {
		return nil, "That vehicle is no longer available. Start over and pick another one.", nil
	}
	return vehicle, "", nil
}

// guardEquipmentUnheld rejects when the equipment is checked out to someone
// other than the employee. The rejection names the holder.
func (e *Engine) guardEquipmentUnheld(ctx context.Context, eq *entity.Equipment, employeeID int64) (string, error) {
	if eq.CurrentHolderID == nil || eq.HeldBy(employeeID) {
		return "", nil
	}
	name, err := e.holderName(ctx, *eq.CurrentHolderID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s is currently held by %s.", eq.Name, name), nil
}

// holderName resolves an employee id to a display name for rejection
// messages, falling back when the record is gone.
func (e *Engine) holderName(ctx context.Context, employeeID int64) (string, error) {
	holder, err := e.employees.GetByID(ctx, employeeID)
	if err != nil {
		return "", err
	}
	if holder == nil {
		return "another employee", nil
	}
	return holder.FullName, nil
}
