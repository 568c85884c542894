package workflow

import (
	"context"
	"time"

	"github.com/firestation/dutybot/internal/application/port"
	"github.com/firestation/dutybot/internal/application/session"
	"github.com/firestation/dutybot/internal/domain/action"
	"github.com/firestation/dutybot/internal/domain/entity"
	"github.com/firestation/dutybot/internal/report"
)

func (e *Engine) startReport(ctx context.Context, emp *entity.Employee) (Reply, error) {
	if emp.Position != entity.PositionDispatcher && emp.Position != entity.PositionCommander {
		return e.menuReply(ctx, emp, "Dispatch reports are for dispatchers and commanders.")
	}

	e.sessions.Set(emp.ChatID, session.AwaitingReportPeriod{})
	return optionsReply(
		"For which period? Send one of: today, yesterday, week, month, or a range like 01.05.2025-15.05.2025.",
		[]port.Option{cancelOption()}), nil
}

func (e *Engine) onReportPeriod(ctx context.Context, emp *entity.Employee, act action.Action) (Reply, error) {
	if act.Kind != action.KindText {
		return repeatOrHint("Send the report period as text."), nil
	}

	from, to, err := report.ParsePeriod(act.Text, time.Now())
	if err != nil {
		return textReply("I could not read that period. Send today, yesterday, week, month, or DD.MM.YYYY-DD.MM.YYYY."), nil
	}

	name, content, err := e.reports.Build(ctx, from, to)
	if err != nil {
		return Reply{}, err
	}

	e.sessions.Clear(emp.ChatID)
	return Reply{
		Text: "Dispatch report for the requested period.",
		File: &File{Name: name, Content: content},
	}, nil
}
