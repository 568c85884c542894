package entity

// Position constants for Employee
const (
	PositionDriver      = "driver"
	PositionFirefighter = "firefighter"
	PositionDispatcher  = "dispatcher"
	PositionCommander   = "commander"
)

// Status constants for Vehicle
const (
	VehicleAvailable   = "available"
	VehicleInUse       = "in_use"
	VehicleMaintenance = "maintenance"
	VehicleRepair      = "repair"
)

// Status constants for Equipment
const (
	EquipmentAvailable      = "available"
	EquipmentInUse          = "in_use"
	EquipmentMaintenance    = "maintenance"
	EquipmentDecommissioned = "decommissioned"
)

// EquipmentTypeSIZOD is the tracked breathing-apparatus category. Shift-start
// for firefighters accepts only this type.
const EquipmentTypeSIZOD = "SIZOD"

// Status constants for ShiftLog
const (
	ShiftActive    = "active"
	ShiftCompleted = "completed"
)

// Equipment condition values reported at shift start/end
const (
	ConditionServiceable = "serviceable"
	ConditionFaulty      = "faulty"
)

// Status constants for DispatchOrder
const (
	DispatchPendingApproval = "pending_approval"
	DispatchApproved        = "approved"
	DispatchRejected        = "rejected"
	DispatchDispatched      = "dispatched"
	DispatchInProgress      = "in_progress"
	DispatchCompleted       = "completed"
	DispatchCanceled        = "canceled"
)

// Action constants for EquipmentLog
const (
	LogActionTaken       = "taken"
	LogActionReturned    = "returned"
	LogActionChecked     = "checked"
	LogActionMaintenance = "maintenance"
)

// Status constants for outbox Notification
const (
	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
)

// Kind constants for outbox Notification
const (
	NotificationKindText             = "text"
	NotificationKindDispatchDecision = "dispatch_decision"
)

// RankNone is the sentinel recorded when no rank was supplied.
const RankNone = "no rank"
