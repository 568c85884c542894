package workflow

import (
	"context"

	"github.com/firestation/dutybot/internal/domain/entity"
)

// toggleReadiness flips the employee's dispatch-readiness flag. Only field
// roles carry the flag; readiness has no meaning for dispatchers and
// commanders.
func (e *Engine) toggleReadiness(ctx context.Context, emp *entity.Employee) (Reply, error) {
	if !isFieldRole(emp.Position) {
		return e.menuReply(ctx, emp, "Readiness applies to drivers and firefighters only.")
	}

	ready := !emp.IsReady
	if err := e.employees.SetReadiness(ctx, emp.ID, ready); err != nil {
		return Reply{}, err
	}

	if ready {
		return e.menuReply(ctx, emp, "You are now marked as ready for dispatch.")
	}
	return e.menuReply(ctx, emp, "You are now marked as not ready for dispatch.")
}
