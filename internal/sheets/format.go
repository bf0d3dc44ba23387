package sheets

import (
	"fmt"
	"strconv"
)

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

// TabName is the sheet tab holding a group's plan.
func TabName(groupID int64) string {
	return fmt.Sprintf("Group %d", groupID)
}

// Rows lays out a plan as a header row followed by one From, To, Amount row
// per transfer. Amounts are decimal units, not cents.
func (p GroupPlan) Rows() [][]interface{} {
	rows := make([][]interface{}, 0, len(p.Transfers)+2)
	rows = append(rows,
		[]interface{}{p.GroupName, "Updated", p.GeneratedAt.UTC().Format("2006-01-02 15:04:05")},
		[]interface{}{"From", "To", "Amount"},
	)
	for _, t := range p.Transfers {
		rows = append(rows, []interface{}{p.DisplayName(t.From), p.DisplayName(t.To), t.Amount.Float()})
	}
	return rows
}
