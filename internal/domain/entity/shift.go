package entity

import "time"

// ShiftLog is one duty period of one employee. At most one active ShiftLog
// exists per employee at any time; records are completed, never deleted.
//
// The role-specific payload is flat nullable columns, as in the source
// schema: vehicle/odometer/fuel fields for drivers, SIZOD fields for
// firefighters, all empty for dispatchers and commanders.
type ShiftLog struct {
	ID          int64      `json:"id"`
	EmployeeID  int64      `json:"employee_id"`
	ShiftNumber int        `json:"shift_number"` // duty watch number, 1..4
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Status      string     `json:"status"`

	// Driver payload
	VehicleID           *int64   `json:"vehicle_id,omitempty"`
	OperationalPriority *int     `json:"operational_priority,omitempty"`
	StartOdometer       *float64 `json:"start_odometer,omitempty"`
	StartFuelLevel      *float64 `json:"start_fuel_level,omitempty"`
	EndOdometer         *float64 `json:"end_odometer,omitempty"`
	EndFuelLevel        *float64 `json:"end_fuel_level,omitempty"`

	// Firefighter payload
	SIZODNumber         string `json:"sizod_number,omitempty"`
	SIZODConditionStart string `json:"sizod_condition_start,omitempty"`
	SIZODNotesStart     string `json:"sizod_notes_start,omitempty"`
	SIZODConditionEnd   string `json:"sizod_condition_end,omitempty"`
	SIZODNotesEnd       string `json:"sizod_notes_end,omitempty"`
}

// Distance returns end minus start odometer. Valid only after a completed
// driver shift; callers must have validated end ≥ start on input.
func (s *ShiftLog) Distance() float64 {
	if s.StartOdometer == nil || s.EndOdometer == nil {
		return 0
	}
	return *s.EndOdometer - *s.StartOdometer
}

// FuelDelta returns start minus end fuel level for a completed driver shift.
func (s *ShiftLog) FuelDelta() float64 {
	if s.StartFuelLevel == nil || s.EndFuelLevel == nil {
		return 0
	}
	return *s.StartFuelLevel - *s.EndFuelLevel
}
