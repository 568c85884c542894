// Package lifecycle guards equipment status transitions. Finalize
// transactions run status changes through this machine instead of assigning
// the column directly, so an illegal hop (e.g. decommissioned item checked
// out) fails before any write happens.
package lifecycle

import (
	"context"
	"errors"

	"github.com/looplab/fsm"

	"github.com/firestation/dutybot/internal/domain/entity"
)

const (
	// EventTake checks an available item out to a holder.
	EventTake = "take"
	// EventReturn hands a serviceable item back.
	EventReturn = "return"
	// EventReturnFaulty hands an item back in a condition that needs service.
	EventReturnFaulty = "return_faulty"
	// EventRestore puts an item back in service (commander action).
	EventRestore = "restore"
	// EventSendMaintenance routes an item to service (commander action).
	EventSendMaintenance = "send_maintenance"
	// EventDecommission retires an item (commander action). Reactivation via
	// EventRestore stays possible at this layer; the maintenance workflow
	// never lists decommissioned items, matching source behavior.
	EventDecommission = "decommission"
)

// Equipment wraps a looplab FSM positioned at an item's current status.
type Equipment struct {
	*fsm.FSM
}

// NewEquipment builds the status machine for one equipment item.
func NewEquipment(status string) *Equipment {
	e := &Equipment{}

	events := fsm.Events{
		{Name: EventTake, Src: []string{entity.EquipmentAvailable}, Dst: entity.EquipmentInUse},
		{Name: EventReturn, Src: []string{entity.EquipmentInUse}, Dst: entity.EquipmentAvailable},
		{Name: EventReturnFaulty, Src: []string{entity.EquipmentInUse}, Dst: entity.EquipmentMaintenance},

		{Name: EventRestore, Src: []string{entity.EquipmentInUse, entity.EquipmentMaintenance, entity.EquipmentDecommissioned}, Dst: entity.EquipmentAvailable},
		{Name: EventSendMaintenance, Src: []string{entity.EquipmentInUse, entity.EquipmentMaintenance}, Dst: entity.EquipmentMaintenance},
		{Name: EventDecommission, Src: []string{entity.EquipmentInUse, entity.EquipmentMaintenance}, Dst: entity.EquipmentDecommissioned},
	}

	e.FSM = fsm.NewFSM(status, events, fsm.Callbacks{})
	return e
}

// Apply fires the event and reports only real failures: a same-state event
// (e.g. "send to maintenance" on an item already in maintenance) is a no-op
// success.
func (e *Equipment) Apply(ctx context.Context, event string) error {
	err := e.Event(ctx, event)
	if err == nil || !isRealError(err) {
		return nil
	}
	return err
}

// Status returns the status after any applied events.
func (e *Equipment) Status() string {
	return e.Current()
}

func isRealError(err error) bool {
	var noTransition fsm.NoTransitionError
	var canceled fsm.CanceledError

	if errors.As(err, &noTransition) || errors.As(err, &canceled) {
		return false
	}
	return true
}
