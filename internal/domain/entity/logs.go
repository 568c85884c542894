package entity

import "time"

// EquipmentLog is one append-only audit entry for an equipment action. When
// the action happened during a duty period the entry references that shift.
// Entries are never mutated after creation.
type EquipmentLog struct {
	ID          int64     `json:"id"`
	EmployeeID  int64     `json:"employee_id"`
	EquipmentID int64     `json:"equipment_id"`
	Action      string    `json:"action"`
	Notes       string    `json:"notes,omitempty"`
	ShiftLogID  *int64    `json:"shift_log_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// AbsenceLog records a person absent from duty. The absent party is captured
// as free text; they may not have an account in the system at all.
type AbsenceLog struct {
	ID             int64     `json:"id"`
	ReporterID     int64     `json:"reporter_id"`
	ShiftNumber    *int      `json:"shift_number,omitempty"` // nil means general/today
	AbsentFullName string    `json:"absent_full_name"`
	AbsentPosition string    `json:"absent_position"`
	AbsentRank     string    `json:"absent_rank"`
	Reason         string    `json:"reason"`
	ReportedAt     time.Time `json:"reported_at"`
}
