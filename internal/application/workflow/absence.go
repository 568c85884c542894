package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/firestation/dutybot/internal/application/port"
	"github.com/firestation/dutybot/internal/application/session"
	"github.com/firestation/dutybot/internal/domain/action"
	"github.com/firestation/dutybot/internal/domain/entity"
	"github.com/firestation/dutybot/pkg/utils"
)

var absentPositions = []string{
	entity.PositionFirefighter,
	entity.PositionDriver,
	entity.PositionDispatcher,
	entity.PositionCommander,
}

func (e *Engine) startAbsence(emp *entity.Employee) (Reply, error) {
	e.sessions.Set(emp.ChatID, session.AwaitingAbsentName{})
	return optionsReply("Reporting an absence. Enter the absent person's full name.", []port.Option{cancelOption()}), nil
}

func (e *Engine) onAbsentName(ctx context.Context, emp *entity.Employee, act action.Action) (Reply, error) {
	if act.Kind != action.KindText {
		return repeatOrHint("Send the full name as text."), nil
	}

	name := utils.SanitizeString(strings.TrimSpace(act.Text))
	if err := utils.ValidateFullName(name); err != nil {
		return textReply("The full name must contain at least a last and a first name. Try again."), nil
	}

	options := make([]port.Option, 0, len(absentPositions)+1)
	for _, p := range absentPositions {
		options = append(options, port.Option{Label: p, Data: "position_" + p})
	}

	e.sessions.Set(emp.ChatID, session.ChoosingAbsentPosition{FullName: name})
	return optionsReply("What is their position?", withCancel(options)), nil
}

func (e *Engine) onAbsentPosition(ctx context.Context, emp *entity.Employee, st session.ChoosingAbsentPosition, act action.Action) (Reply, error) {
	if act.Kind != action.KindPosition {
		return repeatOrHint("Choose the position from the list."), nil
	}

	valid := false
	for _, p := range absentPositions {
		if act.Value == p {
			valid = true
			break
		}
	}
	if !valid {
		return repeatOrHint("Choose the position from the list."), nil
	}

	e.sessions.Set(emp.ChatID, session.AwaitingAbsentRank{FullName: st.FullName, Position: act.Value})
	return optionsReply("Enter their rank, or skip.", withCancel([]port.Option{
		{Label: "Skip", Data: "skip_rank"},
	})), nil
}

func (e *Engine) onAbsentRank(ctx context.Context, emp *entity.Employee, st session.AwaitingAbsentRank, act action.Action) (Reply, error) {
	var rank string
	switch act.Kind {
	case action.KindText:
		rank = utils.SanitizeString(strings.TrimSpace(act.Text))
		if rank == "" {
			rank = entity.RankNone
		}
	case action.KindSkipRank:
		rank = entity.RankNone
	default:
		return repeatOrHint("Enter the rank or skip."), nil
	}

	e.sessions.Set(emp.ChatID, session.AwaitingAbsenceReason{
		FullName: st.FullName,
		Position: st.Position,
		Rank:     rank,
	})
	return optionsReply("What is the reason for the absence?", []port.Option{cancelOption()}), nil
}

func (e *Engine) onAbsenceReason(ctx context.Context, emp *entity.Employee, st session.AwaitingAbsenceReason, act action.Action) (Reply, error) {
	if act.Kind != action.KindText {
		return repeatOrHint("Send the reason as text."), nil
	}
	reason := utils.SanitizeString(strings.TrimSpace(act.Text))
	if err := utils.ValidateNotEmpty("reason", reason); err != nil {
		return textReply("The reason must not be empty. Try again."), nil
	}

	next := session.ConfirmingAbsence{
		FullName: st.FullName,
		Position: st.Position,
		Rank:     st.Rank,
		Reason:   reason,
	}
	e.sessions.Set(emp.ChatID, next)
	return optionsReply(
		fmt.Sprintf("Absence report:\nName: %s\nPosition: %s\nRank: %s\nReason: %s\nSave it?",
			next.FullName, next.Position, next.Rank, next.Reason),
		[]port.Option{
			{Label: "Confirm", Data: "absence_confirm"},
			{Label: "Cancel", Data: "absence_cancel"},
		}), nil
}

func (e *Engine) onAbsenceConfirm(ctx context.Context, emp *entity.Employee, st session.ConfirmingAbsence, act action.Action) (Reply, error) {
	switch act.Kind {
	case action.KindAbsenceCancel:
		e.sessions.Clear(emp.ChatID)
		return e.menuReply(ctx, emp, "Absence report discarded.")
	case action.KindAbsenceConfirm:
	default:
		return repeatOrHint("Confirm or cancel the absence report."), nil
	}

	err := e.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		// The reporter's active shift, if any, scopes the report.
		shift, err := e.shifts.GetActiveByEmployee(txCtx, emp.ID)
		if err != nil {
			return err
		}
		var shiftNumber *int
		if shift != nil {
			n := shift.ShiftNumber
			shiftNumber = &n
		}

		return e.absences.Create(txCtx, &entity.AbsenceLog{
			ReporterID:     emp.ID,
			ShiftNumber:    shiftNumber,
			AbsentFullName: st.FullName,
			AbsentPosition: st.Position,
			AbsentRank:     st.Rank,
			Reason:         st.Reason,
			ReportedAt:     time.Now(),
		})
	})

	e.sessions.Clear(emp.ChatID)
	if err != nil {
		return Reply{}, err
	}
	return e.menuReply(ctx, emp, fmt.Sprintf("Absence of %s recorded.", st.FullName))
}
