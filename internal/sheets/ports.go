package sheets

import (
	"context"
	"time"

	"splitledger/internal/core"
)

// GroupPlan is the settle-up plan of one group as exported to a spreadsheet.
type GroupPlan struct {
	GroupID     core.GroupID
	GroupName   string
	Names       map[core.UserID]string
	Transfers   []core.Transfer
	GeneratedAt time.Time
}

// DisplayName renders a participant as "Name (#id)", or "#id" when the name
// is unknown.
func (p GroupPlan) DisplayName(id core.UserID) string {
	if name, ok := p.Names[id]; ok && name != "" {
		return name + " (#" + itoa(int64(id)) + ")"
	}
	return "#" + itoa(int64(id))
}

// Ports for outbound adapters.
type (
	// PlanWriter replaces the exported plan of a group.
	PlanWriter interface {
		WritePlan(ctx context.Context, plan GroupPlan) error
	}
)
