// Package service holds application services that are not conversational:
// operations triggered by a single button press rather than a dialogue.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/firestation/dutybot/internal/application/port"
	"github.com/firestation/dutybot/internal/domain/entity"
	domainwf "github.com/firestation/dutybot/internal/domain/workflow"
)

// errDecided aborts the transaction without treating it as a failure: the
// order was already decided by another commander and nothing should change.
var errDecided = errors.New("order already decided")

// DecisionService resolves commander decisions on pending dispatch orders.
// Decisions are idempotent: the first commander to act wins, later decisions
// get an "already processed" reply.
type DecisionService struct {
	dispatches port.DispatchRepository
	employees  port.EmployeeRepository
	outbox     port.NotificationRepository
	tx         port.TransactionManager
	logger     *zap.Logger
}

// NewDecisionService creates a DecisionService.
func NewDecisionService(
	dispatches port.DispatchRepository,
	employees port.EmployeeRepository,
	outbox port.NotificationRepository,
	tx port.TransactionManager,
	logger *zap.Logger,
) *DecisionService {
	return &DecisionService{
		dispatches: dispatches,
		employees:  employees,
		outbox:     outbox,
		tx:         tx,
		logger:     logger,
	}
}

// Decide applies an approve or reject decision and returns the reply text
// for the deciding commander. Notification rows for the dispatcher and, on
// approval, the assigned crew are inserted in the same transaction.
func (s *DecisionService) Decide(ctx context.Context, commander *entity.Employee, orderID int64, approve bool) (string, error) {
	if commander.Position != entity.PositionCommander {
		return "Only commanders decide dispatch orders.", nil
	}

	trigger := domainwf.TriggerReject
	verdict := "rejected"
	if approve {
		trigger = domainwf.TriggerApprove
		verdict = "approved"
	}

	var already string

	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		order, err := s.dispatches.GetByID(txCtx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			already = fmt.Sprintf("Order #%d does not exist.", orderID)
			return errDecided
		}
		if order.Status != entity.DispatchPendingApproval {
			already = fmt.Sprintf("Order #%d has already been processed (%s).", order.ID, order.Status)
			return errDecided
		}

		machine := domainwf.NewDispatchMachine(domainwf.State(order.Status))
		if err := machine.Fire(txCtx, trigger); err != nil {
			return fmt.Errorf("decide order %d: %w", order.ID, err)
		}

		now := time.Now()
		order.Status = machine.State().String()
		order.CommanderID = &commander.ID
		order.ApprovalTime = &now
		if err := s.dispatches.Update(txCtx, order); err != nil {
			return err
		}

		if err := s.notifyDispatcher(txCtx, order, verdict); err != nil {
			return err
		}
		if approve {
			if err := s.notifyCrew(txCtx, order); err != nil {
				return err
			}
		}
		return nil
	})

	if errors.Is(err, errDecided) {
		return already, nil
	}
	if err != nil {
		return "", err
	}

	s.logger.Info("dispatch order decided",
		zap.Int64("order_id", orderID),
		zap.Int64("commander_id", commander.ID),
		zap.String("verdict", verdict))
	return fmt.Sprintf("Order #%d %s.", orderID, verdict), nil
}

func (s *DecisionService) notifyDispatcher(ctx context.Context, order *entity.DispatchOrder, verdict string) error {
	dispatcher, err := s.employees.GetByID(ctx, order.DispatcherID)
	if err != nil {
		return err
	}
	if dispatcher == nil {
		s.logger.Warn("order dispatcher missing", zap.Int64("order_id", order.ID))
		return nil
	}
	return s.outbox.Create(ctx, &entity.Notification{
		RecipientID: dispatcher.ChatID,
		Text:        fmt.Sprintf("Your dispatch order #%d was %s.", order.ID, verdict),
		Kind:        entity.NotificationKindText,
		Status:      entity.NotificationPending,
	})
}

func (s *DecisionService) notifyCrew(ctx context.Context, order *entity.DispatchOrder) error {
	ids, err := order.PersonnelIDs()
	if err != nil {
		return fmt.Errorf("order %d personnel: %w", order.ID, err)
	}
	if len(ids) == 0 {
		return nil
	}

	crew, err := s.employees.ListByIDs(ctx, ids)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("You are assigned to dispatch #%d.\nAddress: %s\nReason: %s", order.ID, order.Address, order.Reason)
	for _, member := range crew {
		if err := s.outbox.Create(ctx, &entity.Notification{
			RecipientID: member.ChatID,
			Text:        text,
			Kind:        entity.NotificationKindText,
			Status:      entity.NotificationPending,
		}); err != nil {
			return err
		}
	}
	return nil
}
