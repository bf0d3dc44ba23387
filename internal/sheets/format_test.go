package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"splitledger/internal/core"
)

func TestGroupPlanRows(t *testing.T) {
	p := GroupPlan{
		GroupID:     4,
		GroupName:   "Flat",
		Names:       map[core.UserID]string{1: "Alice"},
		GeneratedAt: time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC),
		Transfers: []core.Transfer{
			{From: 2, To: 1, Amount: core.Money{Cents: 1250}},
		},
	}

	assert.Equal(t, [][]interface{}{
		{"Flat", "Updated", "2026-05-01 09:30:00"},
		{"From", "To", "Amount"},
		{"#2", "Alice (#1)", 12.5},
	}, p.Rows())
	assert.Equal(t, "Group 4", TabName(4))
}
