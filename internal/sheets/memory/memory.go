// Package memory keeps exported plans in process. It backs the worker when no
// spreadsheet is configured and serves as a test double.
package memory

import (
	"context"
	"sort"
	"sync"

	"splitledger/internal/core"
	"splitledger/internal/sheets"
)

type Store struct {
	mu     sync.Mutex
	plans  map[core.GroupID]sheets.GroupPlan
	writes int
}

var _ sheets.PlanWriter = (*Store)(nil)

func New() *Store {
	return &Store{plans: make(map[core.GroupID]sheets.GroupPlan)}
}

// WritePlan stores a copy of plan, replacing any earlier one for the group.
func (s *Store) WritePlan(_ context.Context, plan sheets.GroupPlan) error {
	plan.Transfers = append([]core.Transfer(nil), plan.Transfers...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[plan.GroupID] = plan
	s.writes++
	return nil
}

func (s *Store) Plan(groupID core.GroupID) (sheets.GroupPlan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[groupID]
	return p, ok
}

// Groups lists the groups with an exported plan in ascending order.
func (s *Store) Groups() []core.GroupID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.GroupID, 0, len(s.plans))
	for id := range s.plans {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Writes counts every WritePlan call.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
