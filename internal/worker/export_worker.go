package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"splitledger/internal/amqp"
	"splitledger/internal/core"
	"splitledger/internal/ledger"
	"splitledger/internal/sheets"
)

// PlanSource evaluates the ledger for a scope.
type PlanSource interface {
	Plan(ctx context.Context, scope core.Scope) (ledger.Plan, error)
}

// GroupDirectory resolves the group metadata printed next to a plan.
type GroupDirectory interface {
	GetGroup(ctx context.Context, id core.GroupID) (core.Group, error)
	ListMembers(ctx context.Context, groupID core.GroupID) ([]core.MemberProfile, error)
	ListGroupIDs(ctx context.Context) ([]core.GroupID, error)
}

// ExportWorker keeps the exported settle-up plan of every group current.
type ExportWorker struct {
	plans  PlanSource
	groups GroupDirectory
	writer sheets.PlanWriter
	now    func() time.Time
}

func NewExportWorker(plans PlanSource, groups GroupDirectory, writer sheets.PlanWriter) *ExportWorker {
	return &ExportWorker{
		plans:  plans,
		groups: groups,
		writer: writer,
		now:    time.Now,
	}
}

// HandleLedgerChanged re-exports the group touched by a ledger write.
// Personal records have no tab of their own and are skipped.
func (w *ExportWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	if msg.GroupID == nil {
		slog.DebugContext(ctx, "Skipping ledger change outside any group",
			"message_id", msg.ID,
			"kind", msg.Kind)
		return nil
	}

	slog.InfoContext(ctx, "Processing ledger change",
		"message_id", msg.ID,
		"kind", msg.Kind,
		"group_id", *msg.GroupID)

	if err := w.ExportGroup(ctx, core.GroupID(*msg.GroupID)); err != nil {
		return fmt.Errorf("export group %d: %w", *msg.GroupID, err)
	}
	return nil
}

// ExportGroup recomputes the plan of one group and writes it out.
func (w *ExportWorker) ExportGroup(ctx context.Context, groupID core.GroupID) error {
	group, err := w.groups.GetGroup(ctx, groupID)
	if err != nil {
		return fmt.Errorf("get group: %w", err)
	}
	members, err := w.groups.ListMembers(ctx, groupID)
	if err != nil {
		return fmt.Errorf("list members: %w", err)
	}
	plan, err := w.plans.Plan(ctx, core.GroupScope(groupID))
	if err != nil {
		return fmt.Errorf("compute plan: %w", err)
	}

	names := make(map[core.UserID]string, len(members))
	for _, m := range members {
		names[m.UserID] = m.Name
	}

	return w.writer.WritePlan(ctx, sheets.GroupPlan{
		GroupID:     groupID,
		GroupName:   group.Name,
		Names:       names,
		Transfers:   plan.Transfers,
		GeneratedAt: w.now(),
	})
}

// SweepAll re-exports every group. It is the fallback for lost messages and
// keeps going past individual failures, reporting them together.
func (w *ExportWorker) SweepAll(ctx context.Context) error {
	ids, err := w.groups.ListGroupIDs(ctx)
	if err != nil {
		return fmt.Errorf("list groups: %w", err)
	}

	var errs []error
	exported := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.ExportGroup(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to export group", "group_id", id, "error", err)
			errs = append(errs, fmt.Errorf("group %d: %w", id, err))
			continue
		}
		exported++
	}

	slog.InfoContext(ctx, "Export sweep completed",
		"total", len(ids),
		"exported", exported,
		"errors", len(errs))
	return errors.Join(errs...)
}

// Run sweeps once at startup and then every interval until ctx is done.
func (w *ExportWorker) Run(ctx context.Context, interval time.Duration) {
	if err := w.SweepAll(ctx); err != nil {
		slog.WarnContext(ctx, "Startup export sweep had failures", "error", err)
	}
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.SweepAll(ctx); err != nil {
				slog.WarnContext(ctx, "Periodic export sweep had failures", "error", err)
			}
		}
	}
}
