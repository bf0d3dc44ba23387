package services

import (
	"context"
	"errors"

	"splitledger/internal/amqp"
	"splitledger/internal/core"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrNotMember      = errors.New("not a member of this group")
	ErrForbidden      = errors.New("not allowed")
	ErrSelfSettlement = core.ErrSelfSettlement
	ErrAlreadyMember  = errors.New("user is already a member of this group")
	ErrInvalidInput   = errors.New("invalid input")
)

// RecordSource supplies the raw ledger records for a scope.
//
//go:generate mockgen -destination=mocks/mock_ports.go -source=ports.go
type RecordSource interface {
	ListParticipations(ctx context.Context, scope core.Scope) ([]core.Participation, error)
	ListSettlements(ctx context.Context, scope core.Scope) ([]core.Settlement, error)
}

// MembershipChecker answers whether a user belongs to a group.
type MembershipChecker interface {
	IsMember(ctx context.Context, groupID core.GroupID, userID core.UserID) (bool, error)
}

// EventPublisher announces ledger writes to downstream consumers.
type EventPublisher interface {
	PublishLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error
}

// PlanInvalidator drops cached ledger results affected by a write.
type PlanInvalidator interface {
	Invalidate(groupID *core.GroupID)
}

type UserStore interface {
	CreateUser(ctx context.Context, u core.User) (core.User, error)
	GetUser(ctx context.Context, id core.UserID) (core.User, error)
}

type GroupStore interface {
	MembershipChecker
	CreateGroup(ctx context.Context, g core.Group) (core.Group, error)
	GetGroup(ctx context.Context, id core.GroupID) (core.Group, error)
	ListGroupsForUser(ctx context.Context, userID core.UserID) ([]core.GroupMembership, error)
	GetMember(ctx context.Context, groupID core.GroupID, userID core.UserID) (core.Member, error)
	AddMember(ctx context.Context, groupID core.GroupID, userID core.UserID, role core.Role) (core.Member, error)
	RemoveMember(ctx context.Context, groupID core.GroupID, userID core.UserID) error
	ListMembers(ctx context.Context, groupID core.GroupID) ([]core.MemberProfile, error)
}

type ExpenseStore interface {
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	GetExpense(ctx context.Context, id core.ExpenseID) (core.Expense, error)
	UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	DeleteExpense(ctx context.Context, id core.ExpenseID) error
	ListGroupExpenses(ctx context.Context, groupID core.GroupID) ([]core.Expense, error)
}

type SettlementStore interface {
	CreateSettlement(ctx context.Context, s core.Settlement) (core.Settlement, error)
	ListGroupSettlements(ctx context.Context, groupID core.GroupID) ([]core.Settlement, error)
}
