package entity

// Equipment represents a tracked protective item (SIZOD, helmet, turnout
// gear). Invariant: CurrentHolderID is set iff Status is in_use.
type Equipment struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"` // unique
	Type            string `json:"type"`
	InventoryNumber string `json:"inventory_number"` // unique, may be empty
	Status          string `json:"status"`
	CurrentHolderID *int64 `json:"current_holder_id,omitempty"`
}

// HeldBy reports whether the item is currently checked out to the given
// employee.
func (e *Equipment) HeldBy(employeeID int64) bool {
	return e.CurrentHolderID != nil && *e.CurrentHolderID == employeeID
}
