package services

import (
	"context"
	"fmt"
	"log/slog"

	"splitledger/internal/amqp"
	"splitledger/internal/core"
)

// ExpenseInput is the caller-editable part of an expense. Participants carry
// the per-split inputs; shares are always recomputed from them.
type ExpenseInput struct {
	GroupID      *core.GroupID
	Description  string
	Amount       core.Money
	SplitType    core.SplitType
	Participants []core.SplitInput
}

// ExpenseService validates, splits and stores expenses, then invalidates
// cached ledger plans and announces the change.
type ExpenseService struct {
	store   ExpenseStore
	members MembershipChecker
	plans   PlanInvalidator
	events  EventPublisher
}

func NewExpenseService(store ExpenseStore, members MembershipChecker, plans PlanInvalidator, events EventPublisher) *ExpenseService {
	return &ExpenseService{
		store:   store,
		members: members,
		plans:   plans,
		events:  events,
	}
}

func (s *ExpenseService) requireMember(ctx context.Context, groupID core.GroupID, userID core.UserID) error {
	ok, err := s.members.IsMember(ctx, groupID, userID)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if !ok {
		return ErrNotMember
	}
	return nil
}

// build validates in and produces the expense with computed participations.
// In a group every participant must be a member.
func (s *ExpenseService) build(ctx context.Context, payer core.UserID, in ExpenseInput) (core.Expense, error) {
	shares, err := core.ComputeShares(in.Amount, in.SplitType, in.Participants)
	if err != nil {
		return core.Expense{}, invalid(err)
	}
	e := core.Expense{
		GroupID:      in.GroupID,
		Description:  in.Description,
		Amount:       in.Amount,
		SplitType:    in.SplitType,
		PaidBy:       payer,
		Participants: core.Participations(0, payer, in.Participants, shares),
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, invalid(err)
	}
	if in.GroupID != nil {
		for _, p := range in.Participants {
			ok, err := s.members.IsMember(ctx, *in.GroupID, p.UserID)
			if err != nil {
				return core.Expense{}, fmt.Errorf("check participant membership: %w", err)
			}
			if !ok {
				return core.Expense{}, invalid(fmt.Errorf("participant %d is not a group member", p.UserID))
			}
		}
	}
	return e, nil
}

// CreateExpense records an expense paid by the caller.
func (s *ExpenseService) CreateExpense(ctx context.Context, caller core.UserID, in ExpenseInput) (core.Expense, error) {
	if in.GroupID != nil {
		if err := s.requireMember(ctx, *in.GroupID, caller); err != nil {
			return core.Expense{}, err
		}
	}
	e, err := s.build(ctx, caller, in)
	if err != nil {
		return core.Expense{}, err
	}
	e.CreatedBy = caller

	created, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, storeErr("create expense", err)
	}
	s.changed(ctx, amqp.KindExpenseCreated, created, caller)
	return created, nil
}

// GetExpense returns one expense. Group expenses are visible to members;
// personal ones to their payer, creator and participants.
func (s *ExpenseService) GetExpense(ctx context.Context, caller core.UserID, id core.ExpenseID) (core.Expense, error) {
	e, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, storeErr("get expense", err)
	}
	if e.GroupID != nil {
		if err := s.requireMember(ctx, *e.GroupID, caller); err != nil {
			return core.Expense{}, err
		}
		return e, nil
	}
	if e.CanEdit(caller) {
		return e, nil
	}
	for _, p := range e.Participants {
		if p.ParticipantID == caller {
			return e, nil
		}
	}
	return core.Expense{}, ErrForbidden
}

// ListGroupExpenses returns the group's expenses newest first.
func (s *ExpenseService) ListGroupExpenses(ctx context.Context, caller core.UserID, groupID core.GroupID) ([]core.Expense, error) {
	if err := s.requireMember(ctx, groupID, caller); err != nil {
		return nil, err
	}
	expenses, err := s.store.ListGroupExpenses(ctx, groupID)
	if err != nil {
		return nil, storeErr("list group expenses", err)
	}
	return expenses, nil
}

// UpdateExpense replaces description, amount and split of an expense. Only its
// creator or payer may do so. The group and payer never change.
func (s *ExpenseService) UpdateExpense(ctx context.Context, caller core.UserID, id core.ExpenseID, in ExpenseInput) (core.Expense, error) {
	current, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, storeErr("get expense", err)
	}
	if !current.CanEdit(caller) {
		return core.Expense{}, ErrForbidden
	}

	in.GroupID = current.GroupID
	e, err := s.build(ctx, current.PaidBy, in)
	if err != nil {
		return core.Expense{}, err
	}
	e.ID = current.ID
	e.CreatedBy = current.CreatedBy
	for i := range e.Participants {
		e.Participants[i].ExpenseID = current.ID
	}

	updated, err := s.store.UpdateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, storeErr("update expense", err)
	}
	s.changed(ctx, amqp.KindExpenseUpdated, updated, caller)
	return updated, nil
}

// DeleteExpense removes an expense and its participations. Only its creator
// or payer may do so.
func (s *ExpenseService) DeleteExpense(ctx context.Context, caller core.UserID, id core.ExpenseID) error {
	current, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return storeErr("get expense", err)
	}
	if !current.CanEdit(caller) {
		return ErrForbidden
	}
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return storeErr("delete expense", err)
	}
	s.changed(ctx, amqp.KindExpenseDeleted, current, caller)
	return nil
}

func (s *ExpenseService) changed(ctx context.Context, kind string, e core.Expense, actor core.UserID) {
	if s.plans != nil {
		s.plans.Invalidate(e.GroupID)
	}
	slog.InfoContext(ctx, "Expense changed",
		"kind", kind,
		"expense_id", e.ID,
		"amount_cents", e.Amount.Cents,
		"actor_id", actor)

	msg := amqp.NewLedgerChangedMessage(kind, groupRef(e.GroupID), int64(actor))
	msg.ExpenseID = int64(e.ID)
	publish(ctx, s.events, msg)
}
