package workflow

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/firestation/dutybot/internal/domain/entity"
)

// memStore is a shared in-memory database for engine tests. Its transaction
// manager snapshots the whole state and restores it when the callback fails,
// so rollback behavior can be asserted without a real database.
type memStore struct {
	state memState
}

type memState struct {
	Employees     map[int64]*entity.Employee
	Vehicles      map[int64]*entity.Vehicle
	Equipment     map[int64]*entity.Equipment
	Shifts        map[int64]*entity.ShiftLog
	Dispatches    map[int64]*entity.DispatchOrder
	Logs          []*entity.EquipmentLog
	Absences      []*entity.AbsenceLog
	Notifications []*entity.Notification
	NextID        int64
}

func newMemStore() *memStore {
	return &memStore{state: memState{
		Employees:  map[int64]*entity.Employee{},
		Vehicles:   map[int64]*entity.Vehicle{},
		Equipment:  map[int64]*entity.Equipment{},
		Shifts:     map[int64]*entity.ShiftLog{},
		Dispatches: map[int64]*entity.DispatchOrder{},
		NextID:     1,
	}}
}

func (s *memStore) nextID() int64 {
	id := s.state.NextID
	s.state.NextID++
	return id
}

func (s *memStore) snapshot() []byte {
	b, err := json.Marshal(s.state)
	if err != nil {
		panic(err)
	}
	return b
}

func (s *memStore) restore(snap []byte) {
	var st memState
	if err := json.Unmarshal(snap, &st); err != nil {
		panic(err)
	}
	s.state = st
}

type memTx struct{ s *memStore }

func (t memTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := t.s.snapshot()
	if err := fn(ctx); err != nil {
		t.s.restore(snap)
		return err
	}
	return nil
}

// ---- repositories over memStore ----

type memEmployees struct{ s *memStore }

func (r memEmployees) GetByID(ctx context.Context, id int64) (*entity.Employee, error) {
	return r.s.state.Employees[id], nil
}

func (r memEmployees) GetByChatID(ctx context.Context, chatID int64) (*entity.Employee, error) {
	for _, e := range r.s.state.Employees {
		if e.ChatID == chatID {
			return e, nil
		}
	}
	return nil, nil
}

func (r memEmployees) List(ctx context.Context) ([]*entity.Employee, error) {
	out := make([]*entity.Employee, 0, len(r.s.state.Employees))
	for _, e := range r.s.state.Employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memEmployees) ListDispatchable(ctx context.Context) ([]*entity.Employee, error) {
	all, _ := r.List(ctx)
	var out []*entity.Employee
	for _, e := range all {
		if e.Dispatchable() {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r memEmployees) ListByIDs(ctx context.Context, ids []int64) ([]*entity.Employee, error) {
	var out []*entity.Employee
	for _, id := range ids {
		if e, ok := r.s.state.Employees[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r memEmployees) SetReadiness(ctx context.Context, id int64, ready bool) error {
	if e, ok := r.s.state.Employees[id]; ok {
		e.IsReady = ready
	}
	return nil
}

type memVehicles struct{ s *memStore }

func (r memVehicles) GetByID(ctx context.Context, id int64) (*entity.Vehicle, error) {
	return r.s.state.Vehicles[id], nil
}

func (r memVehicles) List(ctx context.Context) ([]*entity.Vehicle, error) {
	out := make([]*entity.Vehicle, 0, len(r.s.state.Vehicles))
	for _, v := range r.s.state.Vehicles {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memVehicles) ListByStatus(ctx context.Context, status string) ([]*entity.Vehicle, error) {
	all, _ := r.List(ctx)
	var out []*entity.Vehicle
	for _, v := range all {
		if v.Status == status {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r memVehicles) ListByIDs(ctx context.Context, ids []int64) ([]*entity.Vehicle, error) {
	var out []*entity.Vehicle
	for _, id := range ids {
		if v, ok := r.s.state.Vehicles[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r memVehicles) UpdateStatus(ctx context.Context, id int64, status string) error {
	if v, ok := r.s.state.Vehicles[id]; ok {
		v.Status = status
	}
	return nil
}

func (r memVehicles) SetLastCheck(ctx context.Context, id int64, t time.Time) error {
	if v, ok := r.s.state.Vehicles[id]; ok {
		v.LastCheck = &t
	}
	return nil
}

type memEquipment struct{ s *memStore }

func (r memEquipment) GetByID(ctx context.Context, id int64) (*entity.Equipment, error) {
	return r.s.state.Equipment[id], nil
}

func (r memEquipment) GetByInventoryNumber(ctx context.Context, equipmentType, number string) (*entity.Equipment, error) {
	for _, eq := range r.s.state.Equipment {
		if eq.Type == equipmentType && eq.InventoryNumber == number {
			return eq, nil
		}
	}
	return nil, nil
}

func (r memEquipment) ListByStatus(ctx context.Context, statuses ...string) ([]*entity.Equipment, error) {
	want := map[string]bool{}
	for _, st := range statuses {
		want[st] = true
	}
	var out []*entity.Equipment
	for _, eq := range r.s.state.Equipment {
		if want[eq.Status] {
			out = append(out, eq)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memEquipment) ListServiceable(ctx context.Context) ([]*entity.Equipment, error) {
	var out []*entity.Equipment
	for _, eq := range r.s.state.Equipment {
		if eq.Status != entity.EquipmentDecommissioned {
			out = append(out, eq)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memEquipment) SetStatus(ctx context.Context, id int64, status string) error {
	if eq, ok := r.s.state.Equipment[id]; ok {
		eq.Status = status
	}
	return nil
}

func (r memEquipment) SetHolder(ctx context.Context, id int64, holderID *int64) error {
	if eq, ok := r.s.state.Equipment[id]; ok {
		eq.CurrentHolderID = holderID
	}
	return nil
}

func (r memEquipment) Update(ctx context.Context, eq *entity.Equipment) error {
	r.s.state.Equipment[eq.ID] = eq
	return nil
}

type memShifts struct{ s *memStore }

func (r memShifts) Create(ctx context.Context, shift *entity.ShiftLog) error {
	shift.ID = r.s.nextID()
	r.s.state.Shifts[shift.ID] = shift
	return nil
}

func (r memShifts) GetByID(ctx context.Context, id int64) (*entity.ShiftLog, error) {
	return r.s.state.Shifts[id], nil
}

func (r memShifts) GetActiveByEmployee(ctx context.Context, employeeID int64) (*entity.ShiftLog, error) {
	for _, sh := range r.s.state.Shifts {
		if sh.EmployeeID == employeeID && sh.Status == entity.ShiftActive {
			return sh, nil
		}
	}
	return nil, nil
}

func (r memShifts) Update(ctx context.Context, shift *entity.ShiftLog) error {
	r.s.state.Shifts[shift.ID] = shift
	return nil
}

type memDispatches struct{ s *memStore }

func (r memDispatches) Create(ctx context.Context, order *entity.DispatchOrder) error {
	order.ID = r.s.nextID()
	r.s.state.Dispatches[order.ID] = order
	return nil
}

func (r memDispatches) GetByID(ctx context.Context, id int64) (*entity.DispatchOrder, error) {
	return r.s.state.Dispatches[id], nil
}

func (r memDispatches) Update(ctx context.Context, order *entity.DispatchOrder) error {
	r.s.state.Dispatches[order.ID] = order
	return nil
}

func (r memDispatches) UpdateStatus(ctx context.Context, id int64, status string) error {
	if o, ok := r.s.state.Dispatches[id]; ok {
		o.Status = status
	}
	return nil
}

func (r memDispatches) ListEditable(ctx context.Context, limit int) ([]*entity.DispatchOrder, error) {
	var out []*entity.DispatchOrder
	for _, o := range r.s.state.Dispatches {
		if o.Editable() {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memDispatches) ListByPeriod(ctx context.Context, from, to time.Time) ([]*entity.DispatchOrder, error) {
	var out []*entity.DispatchOrder
	for _, o := range r.s.state.Dispatches {
		if !o.CreationTime.Before(from) && o.CreationTime.Before(to) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memLogs struct{ s *memStore }

func (r memLogs) Create(ctx context.Context, log *entity.EquipmentLog) error {
	log.ID = r.s.nextID()
	r.s.state.Logs = append(r.s.state.Logs, log)
	return nil
}

func (r memLogs) GetByEquipmentID(ctx context.Context, equipmentID int64, limit int) ([]*entity.EquipmentLog, error) {
	var out []*entity.EquipmentLog
	for _, l := range r.s.state.Logs {
		if l.EquipmentID == equipmentID {
			out = append(out, l)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type memAbsences struct{ s *memStore }

func (r memAbsences) Create(ctx context.Context, absence *entity.AbsenceLog) error {
	absence.ID = r.s.nextID()
	r.s.state.Absences = append(r.s.state.Absences, absence)
	return nil
}

func (r memAbsences) ListByPeriod(ctx context.Context, from, to time.Time) ([]*entity.AbsenceLog, error) {
	var out []*entity.AbsenceLog
	for _, a := range r.s.state.Absences {
		if !a.ReportedAt.Before(from) && a.ReportedAt.Before(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

type memOutbox struct{ s *memStore }

func (r memOutbox) Create(ctx context.Context, n *entity.Notification) error {
	n.ID = r.s.nextID()
	n.CreatedAt = time.Now()
	r.s.state.Notifications = append(r.s.state.Notifications, n)
	return nil
}

func (r memOutbox) GetPending(ctx context.Context, limit int) ([]*entity.Notification, error) {
	var out []*entity.Notification
	for _, n := range r.s.state.Notifications {
		if n.Status == entity.NotificationPending {
			out = append(out, n)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r memOutbox) MarkSent(ctx context.Context, id int64) error {
	for _, n := range r.s.state.Notifications {
		if n.ID == id {
			now := time.Now()
			n.Status = entity.NotificationSent
			n.SentAt = &now
		}
	}
	return nil
}

func (r memOutbox) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	for _, n := range r.s.state.Notifications {
		if n.ID == id {
			n.Status = entity.NotificationFailed
			n.ErrorMessage = errMsg
			n.Attempts++
		}
	}
	return nil
}
