package entity

import "time"

// Employee represents a registered station member. Records are created by the
// registration flow (outside this core) and are never deleted in normal
// operation; only the readiness flag is mutated afterwards, by the employee.
type Employee struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chat_id"` // transport identity, unique
	FullName  string    `json:"full_name"`
	Position  string    `json:"position"`
	Rank      string    `json:"rank"`
	Contacts  string    `json:"contacts"`
	IsReady   bool      `json:"is_ready"`
	CreatedAt time.Time `json:"created_at"`
}

// Dispatchable reports whether the employee can be assigned to a dispatch
// order: firefighters and drivers that flagged themselves ready.
func (e *Employee) Dispatchable() bool {
	return e.IsReady && (e.Position == PositionFirefighter || e.Position == PositionDriver)
}
