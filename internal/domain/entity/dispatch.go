package entity

import (
	"encoding/json"
	"time"
)

// DispatchOrder is an incident response request. Created by a dispatcher in
// pending_approval, decided by a commander, then driven through the one-way
// status machine in the workflow package. Terminal orders are archived, not
// deleted.
type DispatchOrder struct {
	ID           int64      `json:"id"`
	DispatcherID int64      `json:"dispatcher_id"`
	Address      string     `json:"address"`
	Reason       string     `json:"reason"`
	CreationTime time.Time  `json:"creation_time"`
	Status       string     `json:"status"`
	CommanderID  *int64     `json:"commander_id,omitempty"`
	ApprovalTime *time.Time `json:"approval_time,omitempty"`

	// JSON-serialized id lists, as stored
	AssignedPersonnel string `json:"assigned_personnel"`
	AssignedVehicles  string `json:"assigned_vehicles"`

	VictimsCount      int    `json:"victims_count"`
	FatalitiesCount   int    `json:"fatalities_count"`
	CasualtiesDetails string `json:"casualties_details,omitempty"`
	Notes             string `json:"notes,omitempty"`

	LastEditedBy *int64     `json:"last_edited_by,omitempty"`
	LastEditedAt *time.Time `json:"last_edited_at,omitempty"`
}

// PersonnelIDs decodes the serialized assigned-personnel list. An empty
// column decodes as an empty list.
func (d *DispatchOrder) PersonnelIDs() ([]int64, error) {
	return decodeIDList(d.AssignedPersonnel)
}

// VehicleIDs decodes the serialized assigned-vehicle list.
func (d *DispatchOrder) VehicleIDs() ([]int64, error) {
	return decodeIDList(d.AssignedVehicles)
}

// SetAssignments serializes the personnel and vehicle id lists.
func (d *DispatchOrder) SetAssignments(personnel, vehicles []int64) error {
	p, err := encodeIDList(personnel)
	if err != nil {
		return err
	}
	v, err := encodeIDList(vehicles)
	if err != nil {
		return err
	}
	d.AssignedPersonnel = p
	d.AssignedVehicles = v
	return nil
}

// Editable reports whether the order may still be modified by its creating
// dispatcher.
func (d *DispatchOrder) Editable() bool {
	switch d.Status {
	case DispatchPendingApproval, DispatchApproved, DispatchDispatched, DispatchInProgress:
		return true
	}
	return false
}

func decodeIDList(raw string) ([]int64, error) {
	if raw == "" {
		return []int64{}, nil
	}
	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func encodeIDList(ids []int64) (string, error) {
	if ids == nil {
		ids = []int64{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
