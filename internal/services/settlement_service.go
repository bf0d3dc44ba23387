package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"splitledger/internal/amqp"
	"splitledger/internal/core"
)

type SettlementInput struct {
	GroupID *core.GroupID
	PayeeID core.UserID
	Amount  core.Money
	Note    string
}

// SettlementService records direct payments between two people.
type SettlementService struct {
	store   SettlementStore
	members MembershipChecker
	plans   PlanInvalidator
	events  EventPublisher
}

func NewSettlementService(store SettlementStore, members MembershipChecker, plans PlanInvalidator, events EventPublisher) *SettlementService {
	return &SettlementService{
		store:   store,
		members: members,
		plans:   plans,
		events:  events,
	}
}

// CreateSettlement records that the caller paid in.PayeeID. In a group both
// sides must be members.
func (s *SettlementService) CreateSettlement(ctx context.Context, caller core.UserID, in SettlementInput) (core.Settlement, error) {
	st := core.Settlement{
		GroupID: in.GroupID,
		PayerID: caller,
		PayeeID: in.PayeeID,
		Amount:  in.Amount,
		Note:    strings.TrimSpace(in.Note),
	}
	if err := st.Validate(); err != nil {
		if errors.Is(err, core.ErrSelfSettlement) {
			return core.Settlement{}, ErrSelfSettlement
		}
		return core.Settlement{}, invalid(err)
	}

	if in.GroupID != nil {
		for _, id := range []core.UserID{caller, in.PayeeID} {
			ok, err := s.members.IsMember(ctx, *in.GroupID, id)
			if err != nil {
				return core.Settlement{}, fmt.Errorf("check membership: %w", err)
			}
			if !ok {
				return core.Settlement{}, fmt.Errorf("both users must be members of the group: %w", ErrForbidden)
			}
		}
	}

	created, err := s.store.CreateSettlement(ctx, st)
	if err != nil {
		return core.Settlement{}, storeErr("create settlement", err)
	}

	if s.plans != nil {
		s.plans.Invalidate(created.GroupID)
	}
	slog.InfoContext(ctx, "Settlement recorded",
		"settlement_id", created.ID,
		"payer_id", created.PayerID,
		"payee_id", created.PayeeID,
		"amount_cents", created.Amount.Cents)

	msg := amqp.NewLedgerChangedMessage(amqp.KindSettlementCreated, groupRef(created.GroupID), int64(caller))
	msg.SettlementID = int64(created.ID)
	publish(ctx, s.events, msg)

	return created, nil
}

// ListGroupSettlements returns the group's settlement history, newest first.
func (s *SettlementService) ListGroupSettlements(ctx context.Context, caller core.UserID, groupID core.GroupID) ([]core.Settlement, error) {
	ok, err := s.members.IsMember(ctx, groupID, caller)
	if err != nil {
		return nil, fmt.Errorf("check membership: %w", err)
	}
	if !ok {
		return nil, ErrNotMember
	}
	history, err := s.store.ListGroupSettlements(ctx, groupID)
	if err != nil {
		return nil, storeErr("list group settlements", err)
	}
	return history, nil
}
