package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"splitledger/internal/cache"
	"splitledger/internal/core"
	"splitledger/internal/ledger"
)

// LedgerService feeds stored records to the ledger package and gates group
// scoped results on membership. Computed plans are cached per scope and must
// be treated as read-only by callers.
type LedgerService struct {
	records RecordSource
	members MembershipChecker
	plans   cache.Cache[ledger.Plan]

	// mu guards generation and orders cache stores against Invalidate. A plan
	// is stored only if no invalidation happened since its inputs were read.
	mu         sync.Mutex
	generation uint64
}

// NewLedgerService builds the service. plans may be nil to disable caching.
func NewLedgerService(records RecordSource, members MembershipChecker, plans cache.Cache[ledger.Plan]) *LedgerService {
	return &LedgerService{
		records: records,
		members: members,
		plans:   plans,
	}
}

// Plan evaluates the ledger for scope. Participations and settlements are
// fetched concurrently by separate queries, so a write landing between them
// can be half visible in the result. Callers needing a consistent snapshot
// must serialize writes against the read. A plan that overlaps a write is
// not left in the cache: the write's Invalidate either bumps the generation
// before the store or deletes the entry after it.
func (s *LedgerService) Plan(ctx context.Context, scope core.Scope) (ledger.Plan, error) {
	key := scope.Key()
	if s.plans != nil {
		if plan, ok := s.plans.Get(key); ok {
			slog.DebugContext(ctx, "Ledger plan cache hit", "scope", key)
			return plan, nil
		}
	}
	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	var (
		parts       []core.Participation
		settlements []core.Settlement
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		parts, err = s.records.ListParticipations(gctx, scope)
		if err != nil {
			return fmt.Errorf("list participations: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		settlements, err = s.records.ListSettlements(gctx, scope)
		if err != nil {
			return fmt.Errorf("list settlements: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return ledger.Plan{}, fmt.Errorf("load ledger %s: %w", key, err)
	}

	plan := ledger.Settle(parts, settlements)
	slog.DebugContext(ctx, "Ledger evaluated",
		"scope", key,
		"participations", len(parts),
		"settlements", len(settlements),
		"transfers", len(plan.Transfers))

	if s.plans != nil {
		s.mu.Lock()
		if s.generation == gen {
			s.plans.Set(key, plan)
		}
		s.mu.Unlock()
	}
	return plan, nil
}

// Invalidate drops the cached plans a write to groupID can affect: the group
// scope, if any, and the global scope.
func (s *LedgerService) Invalidate(groupID *core.GroupID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if s.plans == nil {
		return
	}
	s.plans.Delete(core.AllScope().Key())
	if groupID != nil {
		s.plans.Delete(core.GroupScope(*groupID).Key())
	}
}

func (s *LedgerService) requireMember(ctx context.Context, groupID core.GroupID, userID core.UserID) error {
	ok, err := s.members.IsMember(ctx, groupID, userID)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if !ok {
		return ErrNotMember
	}
	return nil
}

// UserBalances returns what userID owes each counterparty across all records.
// Only the user's own debtor row is reported; amounts owed to the user appear
// in the other users' rows.
func (s *LedgerService) UserBalances(ctx context.Context, userID core.UserID) (map[core.UserID]core.Money, error) {
	plan, err := s.Plan(ctx, core.AllScope())
	if err != nil {
		return nil, err
	}
	return plan.Balances.Owed(userID), nil
}

// GroupBalances returns the full pairwise balance map of a group.
func (s *LedgerService) GroupBalances(ctx context.Context, groupID core.GroupID, userID core.UserID) (ledger.Balances, error) {
	if err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	plan, err := s.Plan(ctx, core.GroupScope(groupID))
	if err != nil {
		return nil, err
	}
	return plan.Balances, nil
}

// SimplifiedDebts returns the minimized transfer list over all records.
func (s *LedgerService) SimplifiedDebts(ctx context.Context) ([]core.Transfer, error) {
	plan, err := s.Plan(ctx, core.AllScope())
	if err != nil {
		return nil, err
	}
	return plan.Transfers, nil
}

// GroupSimplifiedDebts returns the minimized transfer list of one group.
func (s *LedgerService) GroupSimplifiedDebts(ctx context.Context, groupID core.GroupID, userID core.UserID) ([]core.Transfer, error) {
	if err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	plan, err := s.Plan(ctx, core.GroupScope(groupID))
	if err != nil {
		return nil, err
	}
	return plan.Transfers, nil
}
