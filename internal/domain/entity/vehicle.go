package entity

import "time"

// Vehicle represents a fire truck or other station vehicle. Status flips
// available↔in_use exclusively through shift-start/shift-end finalize
// transactions; while in_use exactly one active ShiftLog references it.
type Vehicle struct {
	ID        int64      `json:"id"`
	Plate     string     `json:"plate"` // unique
	Model     string     `json:"model"`
	FuelRate  float64    `json:"fuel_rate"` // consumption, l/100km
	Status    string     `json:"status"`
	LastCheck *time.Time `json:"last_check,omitempty"`
}
