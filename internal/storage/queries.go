package storage

import (
	"context"
	"database/sql"
)

const createUser = `
INSERT INTO users (name, email, created_at)
VALUES (?, ?, ?)
RETURNING id, name, email, created_at
`

type CreateUserParams struct {
	Name      string
	Email     string
	CreatedAt int64
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser, arg.Name, arg.Email, arg.CreatedAt)
	var i User
	err := row.Scan(&i.ID, &i.Name, &i.Email, &i.CreatedAt)
	return i, err
}

const getUser = `
SELECT id, name, email, created_at FROM users WHERE id = ?
`

func (q *Queries) GetUser(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx, getUser, id)
	var i User
	err := row.Scan(&i.ID, &i.Name, &i.Email, &i.CreatedAt)
	return i, err
}

const createGroup = `
INSERT INTO expense_groups (name, description, created_by, created_at)
VALUES (?, ?, ?, ?)
RETURNING id, name, description, created_by, created_at
`

type CreateGroupParams struct {
	Name        string
	Description string
	CreatedBy   int64
	CreatedAt   int64
}

func (q *Queries) CreateGroup(ctx context.Context, arg CreateGroupParams) (ExpenseGroup, error) {
	row := q.db.QueryRowContext(ctx, createGroup, arg.Name, arg.Description, arg.CreatedBy, arg.CreatedAt)
	var i ExpenseGroup
	err := row.Scan(&i.ID, &i.Name, &i.Description, &i.CreatedBy, &i.CreatedAt)
	return i, err
}

const getGroup = `
SELECT id, name, description, created_by, created_at FROM expense_groups WHERE id = ?
`

func (q *Queries) GetGroup(ctx context.Context, id int64) (ExpenseGroup, error) {
	row := q.db.QueryRowContext(ctx, getGroup, id)
	var i ExpenseGroup
	err := row.Scan(&i.ID, &i.Name, &i.Description, &i.CreatedBy, &i.CreatedAt)
	return i, err
}

const listGroupIDs = `
SELECT id FROM expense_groups ORDER BY id
`

func (q *Queries) ListGroupIDs(ctx context.Context) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, listGroupIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listGroupsForUser = `
SELECT g.id, g.name, g.description, g.created_by, g.created_at, m.role, m.joined_at
FROM expense_groups g
JOIN group_members m ON m.group_id = g.id
WHERE m.user_id = ?
ORDER BY g.id
`

type ListGroupsForUserRow struct {
	ExpenseGroup
	Role     string
	JoinedAt int64
}

func (q *Queries) ListGroupsForUser(ctx context.Context, userID int64) ([]ListGroupsForUserRow, error) {
	rows, err := q.db.QueryContext(ctx, listGroupsForUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListGroupsForUserRow
	for rows.Next() {
		var i ListGroupsForUserRow
		if err := rows.Scan(&i.ID, &i.Name, &i.Description, &i.CreatedBy, &i.CreatedAt, &i.Role, &i.JoinedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const addGroupMember = `
INSERT INTO group_members (group_id, user_id, role, joined_at)
VALUES (?, ?, ?, ?)
RETURNING group_id, user_id, role, joined_at
`

type AddGroupMemberParams struct {
	GroupID  int64
	UserID   int64
	Role     string
	JoinedAt int64
}

func (q *Queries) AddGroupMember(ctx context.Context, arg AddGroupMemberParams) (GroupMember, error) {
	row := q.db.QueryRowContext(ctx, addGroupMember, arg.GroupID, arg.UserID, arg.Role, arg.JoinedAt)
	var i GroupMember
	err := row.Scan(&i.GroupID, &i.UserID, &i.Role, &i.JoinedAt)
	return i, err
}

const getGroupMember = `
SELECT group_id, user_id, role, joined_at FROM group_members
WHERE group_id = ? AND user_id = ?
`

func (q *Queries) GetGroupMember(ctx context.Context, groupID, userID int64) (GroupMember, error) {
	row := q.db.QueryRowContext(ctx, getGroupMember, groupID, userID)
	var i GroupMember
	err := row.Scan(&i.GroupID, &i.UserID, &i.Role, &i.JoinedAt)
	return i, err
}

const deleteGroupMember = `
DELETE FROM group_members WHERE group_id = ? AND user_id = ?
`

func (q *Queries) DeleteGroupMember(ctx context.Context, groupID, userID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteGroupMember, groupID, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listGroupMembers = `
SELECT m.group_id, m.user_id, m.role, m.joined_at, u.name, u.email
FROM group_members m
JOIN users u ON u.id = m.user_id
WHERE m.group_id = ?
ORDER BY m.joined_at, m.user_id
`

type ListGroupMembersRow struct {
	GroupMember
	Name  string
	Email string
}

func (q *Queries) ListGroupMembers(ctx context.Context, groupID int64) ([]ListGroupMembersRow, error) {
	rows, err := q.db.QueryContext(ctx, listGroupMembers, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListGroupMembersRow
	for rows.Next() {
		var i ListGroupMembersRow
		if err := rows.Scan(&i.GroupID, &i.UserID, &i.Role, &i.JoinedAt, &i.Name, &i.Email); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const expenseColumns = `id, group_id, description, amount_cents, split_type, paid_by, created_by, created_at, updated_at`

func scanExpense(s interface{ Scan(...interface{}) error }) (Expense, error) {
	var i Expense
	err := s.Scan(&i.ID, &i.GroupID, &i.Description, &i.AmountCents, &i.SplitType,
		&i.PaidBy, &i.CreatedBy, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const createExpense = `
INSERT INTO expenses (group_id, description, amount_cents, split_type, paid_by, created_by, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + expenseColumns

type CreateExpenseParams struct {
	GroupID     sql.NullInt64
	Description string
	AmountCents int64
	SplitType   string
	PaidBy      int64
	CreatedBy   int64
	CreatedAt   int64
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (Expense, error) {
	row := q.db.QueryRowContext(ctx, createExpense,
		arg.GroupID, arg.Description, arg.AmountCents, arg.SplitType,
		arg.PaidBy, arg.CreatedBy, arg.CreatedAt, arg.CreatedAt)
	return scanExpense(row)
}

const getExpense = `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`

func (q *Queries) GetExpense(ctx context.Context, id int64) (Expense, error) {
	return scanExpense(q.db.QueryRowContext(ctx, getExpense, id))
}

const updateExpense = `
UPDATE expenses
SET description = ?, amount_cents = ?, split_type = ?, updated_at = ?
WHERE id = ?
RETURNING ` + expenseColumns

type UpdateExpenseParams struct {
	ID          int64
	Description string
	AmountCents int64
	SplitType   string
	UpdatedAt   int64
}

func (q *Queries) UpdateExpense(ctx context.Context, arg UpdateExpenseParams) (Expense, error) {
	row := q.db.QueryRowContext(ctx, updateExpense,
		arg.Description, arg.AmountCents, arg.SplitType, arg.UpdatedAt, arg.ID)
	return scanExpense(row)
}

const deleteExpense = `DELETE FROM expenses WHERE id = ?`

func (q *Queries) DeleteExpense(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteExpense, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listExpensesByGroup = `
SELECT ` + expenseColumns + ` FROM expenses
WHERE group_id = ?
ORDER BY created_at DESC, id DESC
`

func (q *Queries) ListExpensesByGroup(ctx context.Context, groupID int64) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpensesByGroup, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		i, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertParticipant = `
INSERT INTO expense_participants (expense_id, user_id, share_cents) VALUES (?, ?, ?)
`

type InsertParticipantParams struct {
	ExpenseID  int64
	UserID     int64
	ShareCents int64
}

func (q *Queries) InsertParticipant(ctx context.Context, arg InsertParticipantParams) error {
	_, err := q.db.ExecContext(ctx, insertParticipant, arg.ExpenseID, arg.UserID, arg.ShareCents)
	return err
}

const deleteParticipants = `DELETE FROM expense_participants WHERE expense_id = ?`

func (q *Queries) DeleteParticipants(ctx context.Context, expenseID int64) error {
	_, err := q.db.ExecContext(ctx, deleteParticipants, expenseID)
	return err
}

const listParticipantsByExpense = `
SELECT expense_id, user_id, share_cents FROM expense_participants
WHERE expense_id = ?
ORDER BY user_id
`

func (q *Queries) ListParticipantsByExpense(ctx context.Context, expenseID int64) ([]ExpenseParticipant, error) {
	return q.listParticipants(ctx, listParticipantsByExpense, expenseID)
}

const listParticipantsByGroup = `
SELECT p.expense_id, p.user_id, p.share_cents
FROM expense_participants p
JOIN expenses e ON e.id = p.expense_id
WHERE e.group_id = ?
ORDER BY p.expense_id, p.user_id
`

func (q *Queries) ListParticipantsByGroup(ctx context.Context, groupID int64) ([]ExpenseParticipant, error) {
	return q.listParticipants(ctx, listParticipantsByGroup, groupID)
}

func (q *Queries) listParticipants(ctx context.Context, query string, arg int64) ([]ExpenseParticipant, error) {
	rows, err := q.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ExpenseParticipant
	for rows.Next() {
		var i ExpenseParticipant
		if err := rows.Scan(&i.ExpenseID, &i.UserID, &i.ShareCents); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ParticipationRow joins a participant share with the payer of its expense.
type ParticipationRow struct {
	ExpenseID     int64
	PaidBy        int64
	ParticipantID int64
	ShareCents    int64
}

const listAllParticipations = `
SELECT p.expense_id, e.paid_by, p.user_id, p.share_cents
FROM expense_participants p
JOIN expenses e ON e.id = p.expense_id
ORDER BY p.expense_id, p.user_id
`

const listGroupParticipations = `
SELECT p.expense_id, e.paid_by, p.user_id, p.share_cents
FROM expense_participants p
JOIN expenses e ON e.id = p.expense_id
WHERE e.group_id = ?
ORDER BY p.expense_id, p.user_id
`

func (q *Queries) ListAllParticipations(ctx context.Context) ([]ParticipationRow, error) {
	return q.listParticipations(ctx, listAllParticipations)
}

func (q *Queries) ListGroupParticipations(ctx context.Context, groupID int64) ([]ParticipationRow, error) {
	return q.listParticipations(ctx, listGroupParticipations, groupID)
}

func (q *Queries) listParticipations(ctx context.Context, query string, args ...interface{}) ([]ParticipationRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ParticipationRow
	for rows.Next() {
		var i ParticipationRow
		if err := rows.Scan(&i.ExpenseID, &i.PaidBy, &i.ParticipantID, &i.ShareCents); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const settlementColumns = `id, group_id, paid_by, paid_to, amount_cents, note, created_at`

const createSettlement = `
INSERT INTO settlements (group_id, paid_by, paid_to, amount_cents, note, created_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + settlementColumns

type CreateSettlementParams struct {
	GroupID     sql.NullInt64
	PaidBy      int64
	PaidTo      int64
	AmountCents int64
	Note        string
	CreatedAt   int64
}

func (q *Queries) CreateSettlement(ctx context.Context, arg CreateSettlementParams) (Settlement, error) {
	row := q.db.QueryRowContext(ctx, createSettlement,
		arg.GroupID, arg.PaidBy, arg.PaidTo, arg.AmountCents, arg.Note, arg.CreatedAt)
	var i Settlement
	err := row.Scan(&i.ID, &i.GroupID, &i.PaidBy, &i.PaidTo, &i.AmountCents, &i.Note, &i.CreatedAt)
	return i, err
}

const listAllSettlements = `
SELECT ` + settlementColumns + ` FROM settlements
ORDER BY created_at DESC, id DESC
`

const listGroupSettlements = `
SELECT ` + settlementColumns + ` FROM settlements
WHERE group_id = ?
ORDER BY created_at DESC, id DESC
`

func (q *Queries) ListAllSettlements(ctx context.Context) ([]Settlement, error) {
	return q.listSettlements(ctx, listAllSettlements)
}

func (q *Queries) ListGroupSettlements(ctx context.Context, groupID int64) ([]Settlement, error) {
	return q.listSettlements(ctx, listGroupSettlements, groupID)
}

func (q *Queries) listSettlements(ctx context.Context, query string, args ...interface{}) ([]Settlement, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Settlement
	for rows.Next() {
		var i Settlement
		if err := rows.Scan(&i.ID, &i.GroupID, &i.PaidBy, &i.PaidTo, &i.AmountCents, &i.Note, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
