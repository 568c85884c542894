package port

import (
	"context"
	"time"

	"github.com/firestation/dutybot/internal/domain/entity"
)

// EmployeeRepository defines persistence operations for Employee
type EmployeeRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Employee, error)
	GetByChatID(ctx context.Context, chatID int64) (*entity.Employee, error)
	List(ctx context.Context) ([]*entity.Employee, error)

	// ListDispatchable returns ready firefighters and drivers, the only
	// candidates a dispatcher may assign to an order.
	ListDispatchable(ctx context.Context) ([]*entity.Employee, error)

	ListByIDs(ctx context.Context, ids []int64) ([]*entity.Employee, error)
	SetReadiness(ctx context.Context, id int64, ready bool) error
}

// VehicleRepository defines persistence operations for Vehicle
type VehicleRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Vehicle, error)
	List(ctx context.Context) ([]*entity.Vehicle, error)
	ListByStatus(ctx context.Context, status string) ([]*entity.Vehicle, error)
	ListByIDs(ctx context.Context, ids []int64) ([]*entity.Vehicle, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	SetLastCheck(ctx context.Context, id int64, t time.Time) error
}

// EquipmentRepository defines persistence operations for Equipment
type EquipmentRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Equipment, error)

	// GetByInventoryNumber looks an item up within one equipment type;
	// inventory numbers are unique per type, not globally.
	GetByInventoryNumber(ctx context.Context, equipmentType, number string) (*entity.Equipment, error)

	ListByStatus(ctx context.Context, statuses ...string) ([]*entity.Equipment, error)

	// ListServiceable returns every item not decommissioned.
	ListServiceable(ctx context.Context) ([]*entity.Equipment, error)

	SetStatus(ctx context.Context, id int64, status string) error
	SetHolder(ctx context.Context, id int64, holderID *int64) error
	Update(ctx context.Context, eq *entity.Equipment) error
}

// ShiftRepository defines persistence operations for ShiftLog
type ShiftRepository interface {
	Create(ctx context.Context, shift *entity.ShiftLog) error
	GetByID(ctx context.Context, id int64) (*entity.ShiftLog, error)

	// GetActiveByEmployee returns the employee's active shift, or nil
	// when none exists.
	GetActiveByEmployee(ctx context.Context, employeeID int64) (*entity.ShiftLog, error)

	Update(ctx context.Context, shift *entity.ShiftLog) error
}

// DispatchRepository defines persistence operations for DispatchOrder
type DispatchRepository interface {
	Create(ctx context.Context, order *entity.DispatchOrder) error
	GetByID(ctx context.Context, id int64) (*entity.DispatchOrder, error)
	Update(ctx context.Context, order *entity.DispatchOrder) error
	UpdateStatus(ctx context.Context, id int64, status string) error

	// ListEditable returns orders in a status that still accepts field
	// edits, newest first.
	ListEditable(ctx context.Context, limit int) ([]*entity.DispatchOrder, error)

	// ListByPeriod returns orders created within [from, to), oldest first.
	ListByPeriod(ctx context.Context, from, to time.Time) ([]*entity.DispatchOrder, error)
}

// EquipmentLogRepository defines persistence operations for EquipmentLog
type EquipmentLogRepository interface {
	Create(ctx context.Context, log *entity.EquipmentLog) error
	GetByEquipmentID(ctx context.Context, equipmentID int64, limit int) ([]*entity.EquipmentLog, error)
}

// AbsenceRepository defines persistence operations for AbsenceLog
type AbsenceRepository interface {
	Create(ctx context.Context, absence *entity.AbsenceLog) error
	ListByPeriod(ctx context.Context, from, to time.Time) ([]*entity.AbsenceLog, error)
}

// NotificationRepository defines persistence operations for the outbound
// message outbox.
type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	GetPending(ctx context.Context, limit int) ([]*entity.Notification, error)
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, errorMsg string) error
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
