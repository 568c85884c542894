// Package session tracks where each user stands in a multi-step
// conversation. Every prompt the bot can be waiting at is its own struct
// carrying exactly the data collected so far, so a handler never reads a
// field some other workflow populated.
package session

// State marks a conversation position. A user with no stored state is at the
// main menu.
type State interface {
	isState()
}

// ---- shift start ----

// AwaitingShiftNumber waits for the duty shift number (1..4).
type AwaitingShiftNumber struct{}

// ChoosingVehicle waits for a driver to pick an available vehicle.
type ChoosingVehicle struct {
	ShiftNumber int
}

// ChoosingPriority waits for the departure priority of the chosen vehicle.
type ChoosingPriority struct {
	ShiftNumber int
	VehicleID   int64
}

// AwaitingStartOdometer waits for the odometer reading at shift start.
type AwaitingStartOdometer struct {
	ShiftNumber int
	VehicleID   int64
	Priority    int
}

// AwaitingStartFuel waits for the fuel level at shift start.
type AwaitingStartFuel struct {
	ShiftNumber   int
	VehicleID     int64
	Priority      int
	StartOdometer float64
}

// AwaitingSIZODNumber waits for a firefighter's breathing-apparatus
// inventory number.
type AwaitingSIZODNumber struct {
	ShiftNumber int
}

// ChoosingSIZODCondition waits for the serviceable/faulty verdict on the
// identified apparatus.
type ChoosingSIZODCondition struct {
	ShiftNumber int
	EquipmentID int64
	SIZODNumber string
}

// AwaitingSIZODNotes waits for the fault description, skippable.
type AwaitingSIZODNotes struct {
	ShiftNumber int
	EquipmentID int64
	SIZODNumber string
	Condition   string
}

// ---- shift end ----

// AwaitingEndOdometer waits for the odometer reading closing a driver shift.
type AwaitingEndOdometer struct {
	ShiftID int64
}

// AwaitingEndFuel waits for the fuel level closing a driver shift.
type AwaitingEndFuel struct {
	ShiftID     int64
	EndOdometer float64
}

// ChoosingSIZODEndCondition waits for the apparatus verdict closing a
// firefighter shift.
type ChoosingSIZODEndCondition struct {
	ShiftID int64
}

// AwaitingSIZODEndNotes waits for the end-of-shift fault description,
// skippable.
type AwaitingSIZODEndNotes struct {
	ShiftID   int64
	Condition string
}

// ---- dispatch creation ----

// AwaitingDispatchAddress waits for the incident address.
type AwaitingDispatchAddress struct{}

// AwaitingDispatchReason waits for the dispatch reason.
type AwaitingDispatchReason struct {
	Address string
}

// ChoosingPersonnel waits while the dispatcher toggles crew members.
type ChoosingPersonnel struct {
	Address  string
	Reason   string
	Selected map[int64]bool
}

// ChoosingVehicles waits while the dispatcher toggles vehicles.
type ChoosingVehicles struct {
	Address          string
	Reason           string
	Personnel        []int64
	SelectedVehicles map[int64]bool
}

// ConfirmingDispatch shows the assembled order and waits for confirm or
// cancel.
type ConfirmingDispatch struct {
	Address   string
	Reason    string
	Personnel []int64
	Vehicles  []int64
}

// ---- dispatch editing ----

// AwaitingEditValue waits for the new value of one dispatch field.
type AwaitingEditValue struct {
	OrderID int64
	Field   string
}

// ConfirmingEdit shows the pending field change and waits for save or
// discard.
type ConfirmingEdit struct {
	OrderID  int64
	Field    string
	NewValue string
}

// ---- maintenance ----

// ConfirmingMaintenance shows the pending status change and waits for the
// commander to confirm it.
type ConfirmingMaintenance struct {
	EquipmentID int64
	Target      string
}

// ---- absence ----

// AwaitingAbsentName waits for the absent person's full name.
type AwaitingAbsentName struct{}

// ChoosingAbsentPosition waits for the absent person's position.
type ChoosingAbsentPosition struct {
	FullName string
}

// AwaitingAbsentRank waits for the rank, skippable.
type AwaitingAbsentRank struct {
	FullName string
	Position string
}

// AwaitingAbsenceReason waits for the absence reason.
type AwaitingAbsenceReason struct {
	FullName string
	Position string
	Rank     string
}

// ConfirmingAbsence shows the collected report and waits for confirm or
// cancel.
type ConfirmingAbsence struct {
	FullName string
	Position string
	Rank     string
	Reason   string
}

// ---- report ----

// AwaitingReportPeriod waits for a report period keyword or date range.
type AwaitingReportPeriod struct{}

func (AwaitingShiftNumber) isState()      {}
func (ChoosingVehicle) isState()          {}
func (ChoosingPriority) isState()         {}
func (AwaitingStartOdometer) isState()    {}
func (AwaitingStartFuel) isState()        {}
func (AwaitingSIZODNumber) isState()      {}
func (ChoosingSIZODCondition) isState()   {}
func (AwaitingSIZODNotes) isState()       {}
func (AwaitingEndOdometer) isState()      {}
func (AwaitingEndFuel) isState()          {}
func (ChoosingSIZODEndCondition) isState() {}
func (AwaitingSIZODEndNotes) isState()    {}
func (AwaitingDispatchAddress) isState()  {}
func (AwaitingDispatchReason) isState()   {}
func (ChoosingPersonnel) isState()        {}
func (ChoosingVehicles) isState()         {}
func (ConfirmingDispatch) isState()       {}
func (ConfirmingMaintenance) isState()    {}
func (AwaitingEditValue) isState()        {}
func (ConfirmingEdit) isState()           {}
func (AwaitingAbsentName) isState()       {}
func (ChoosingAbsentPosition) isState()   {}
func (AwaitingAbsentRank) isState()       {}
func (AwaitingAbsenceReason) isState()    {}
func (ConfirmingAbsence) isState()        {}
func (AwaitingReportPeriod) isState()     {}
