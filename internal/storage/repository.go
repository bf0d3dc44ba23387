package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"splitledger/internal/core"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

// DSN builds the modernc connection string for a database file with foreign
// keys enforced on every pooled connection.
func DSN(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping is used by the readiness probe.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) nowMillis() int64 {
	return r.now().UTC().UnixMilli()
}

// wrap adds operation context and maps driver errors onto the package sentinels.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return fmt.Errorf("%s: %w", op, ErrConflict)
	case strings.Contains(err.Error(), "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%s: referenced record missing: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullGroup(id *core.GroupID) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}

func groupPtr(n sql.NullInt64) *core.GroupID {
	if !n.Valid {
		return nil
	}
	id := core.GroupID(n.Int64)
	return &id
}

func toUser(u User) core.User {
	return core.User{
		ID:        core.UserID(u.ID),
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: fromMillis(u.CreatedAt),
	}
}

func toGroup(g ExpenseGroup) core.Group {
	return core.Group{
		ID:          core.GroupID(g.ID),
		Name:        g.Name,
		Description: g.Description,
		CreatedBy:   core.UserID(g.CreatedBy),
		CreatedAt:   fromMillis(g.CreatedAt),
	}
}

func toMember(m GroupMember) core.Member {
	return core.Member{
		GroupID:  core.GroupID(m.GroupID),
		UserID:   core.UserID(m.UserID),
		Role:     core.Role(m.Role),
		JoinedAt: fromMillis(m.JoinedAt),
	}
}

func toExpense(e Expense, parts []ExpenseParticipant) core.Expense {
	out := core.Expense{
		ID:           core.ExpenseID(e.ID),
		GroupID:      groupPtr(e.GroupID),
		Description:  e.Description,
		Amount:       core.Money{Cents: e.AmountCents},
		SplitType:    core.SplitType(e.SplitType),
		PaidBy:       core.UserID(e.PaidBy),
		CreatedBy:    core.UserID(e.CreatedBy),
		CreatedAt:    fromMillis(e.CreatedAt),
		Participants: make([]core.Participation, 0, len(parts)),
	}
	for _, p := range parts {
		out.Participants = append(out.Participants, core.Participation{
			ExpenseID:     core.ExpenseID(p.ExpenseID),
			PayerID:       core.UserID(e.PaidBy),
			ParticipantID: core.UserID(p.UserID),
			Share:         core.Money{Cents: p.ShareCents},
		})
	}
	return out
}

func toSettlement(s Settlement) core.Settlement {
	return core.Settlement{
		ID:        core.SettlementID(s.ID),
		GroupID:   groupPtr(s.GroupID),
		PayerID:   core.UserID(s.PaidBy),
		PayeeID:   core.UserID(s.PaidTo),
		Amount:    core.Money{Cents: s.AmountCents},
		Note:      s.Note,
		CreatedAt: fromMillis(s.CreatedAt),
	}
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	row, err := r.queries.CreateUser(ctx, CreateUserParams{
		Name:      u.Name,
		Email:     strings.ToLower(strings.TrimSpace(u.Email)),
		CreatedAt: r.nowMillis(),
	})
	if err != nil {
		return core.User{}, wrap("create user", err)
	}
	slog.InfoContext(ctx, "User saved to SQLite", "user_id", row.ID)
	return toUser(row), nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id core.UserID) (core.User, error) {
	row, err := r.queries.GetUser(ctx, int64(id))
	if err != nil {
		return core.User{}, wrap("get user", err)
	}
	return toUser(row), nil
}

// CreateGroup stores the group and enrolls its creator as admin atomically.
func (r *SQLiteRepository) CreateGroup(ctx context.Context, g core.Group) (core.Group, error) {
	var created ExpenseGroup
	err := r.withTx(ctx, func(q *Queries) error {
		now := r.nowMillis()
		var err error
		created, err = q.CreateGroup(ctx, CreateGroupParams{
			Name:        g.Name,
			Description: g.Description,
			CreatedBy:   int64(g.CreatedBy),
			CreatedAt:   now,
		})
		if err != nil {
			return wrap("create group", err)
		}
		_, err = q.AddGroupMember(ctx, AddGroupMemberParams{
			GroupID:  created.ID,
			UserID:   int64(g.CreatedBy),
			Role:     string(core.RoleAdmin),
			JoinedAt: now,
		})
		return wrap("add group creator", err)
	})
	if err != nil {
		return core.Group{}, err
	}
	slog.InfoContext(ctx, "Group saved to SQLite", "group_id", created.ID, "created_by", created.CreatedBy)
	return toGroup(created), nil
}

func (r *SQLiteRepository) GetGroup(ctx context.Context, id core.GroupID) (core.Group, error) {
	row, err := r.queries.GetGroup(ctx, int64(id))
	if err != nil {
		return core.Group{}, wrap("get group", err)
	}
	return toGroup(row), nil
}

func (r *SQLiteRepository) ListGroupIDs(ctx context.Context) ([]core.GroupID, error) {
	rows, err := r.queries.ListGroupIDs(ctx)
	if err != nil {
		return nil, wrap("list group ids", err)
	}
	ids := make([]core.GroupID, len(rows))
	for i, id := range rows {
		ids[i] = core.GroupID(id)
	}
	return ids, nil
}

func (r *SQLiteRepository) ListGroupsForUser(ctx context.Context, userID core.UserID) ([]core.GroupMembership, error) {
	rows, err := r.queries.ListGroupsForUser(ctx, int64(userID))
	if err != nil {
		return nil, wrap("list groups for user", err)
	}
	out := make([]core.GroupMembership, len(rows))
	for i, row := range rows {
		out[i] = core.GroupMembership{
			Group:    toGroup(row.ExpenseGroup),
			Role:     core.Role(row.Role),
			JoinedAt: fromMillis(row.JoinedAt),
		}
	}
	return out, nil
}

func (r *SQLiteRepository) GetMember(ctx context.Context, groupID core.GroupID, userID core.UserID) (core.Member, error) {
	row, err := r.queries.GetGroupMember(ctx, int64(groupID), int64(userID))
	if err != nil {
		return core.Member{}, wrap("get group member", err)
	}
	return toMember(row), nil
}

func (r *SQLiteRepository) IsMember(ctx context.Context, groupID core.GroupID, userID core.UserID) (bool, error) {
	_, err := r.GetMember(ctx, groupID, userID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (r *SQLiteRepository) AddMember(ctx context.Context, groupID core.GroupID, userID core.UserID, role core.Role) (core.Member, error) {
	row, err := r.queries.AddGroupMember(ctx, AddGroupMemberParams{
		GroupID:  int64(groupID),
		UserID:   int64(userID),
		Role:     string(role),
		JoinedAt: r.nowMillis(),
	})
	if err != nil {
		return core.Member{}, wrap("add group member", err)
	}
	slog.InfoContext(ctx, "Group member added", "group_id", groupID, "user_id", userID, "role", role)
	return toMember(row), nil
}

func (r *SQLiteRepository) RemoveMember(ctx context.Context, groupID core.GroupID, userID core.UserID) error {
	n, err := r.queries.DeleteGroupMember(ctx, int64(groupID), int64(userID))
	if err != nil {
		return wrap("remove group member", err)
	}
	if n == 0 {
		return fmt.Errorf("remove group member: %w", ErrNotFound)
	}
	slog.InfoContext(ctx, "Group member removed", "group_id", groupID, "user_id", userID)
	return nil
}

func (r *SQLiteRepository) ListMembers(ctx context.Context, groupID core.GroupID) ([]core.MemberProfile, error) {
	rows, err := r.queries.ListGroupMembers(ctx, int64(groupID))
	if err != nil {
		return nil, wrap("list group members", err)
	}
	out := make([]core.MemberProfile, len(rows))
	for i, row := range rows {
		out[i] = core.MemberProfile{
			Member: toMember(row.GroupMember),
			Name:   row.Name,
			Email:  row.Email,
		}
	}
	return out, nil
}

func insertParticipants(ctx context.Context, q *Queries, expenseID int64, parts []core.Participation) error {
	for _, p := range parts {
		err := q.InsertParticipant(ctx, InsertParticipantParams{
			ExpenseID:  expenseID,
			UserID:     int64(p.ParticipantID),
			ShareCents: p.Share.Cents,
		})
		if err != nil {
			return wrap("insert participant", err)
		}
	}
	return nil
}

// CreateExpense stores the expense and its participant shares in one
// transaction. Shares must already be computed.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	var (
		row   Expense
		parts []ExpenseParticipant
	)
	err := r.withTx(ctx, func(q *Queries) error {
		var err error
		row, err = q.CreateExpense(ctx, CreateExpenseParams{
			GroupID:     nullGroup(e.GroupID),
			Description: e.Description,
			AmountCents: e.Amount.Cents,
			SplitType:   string(e.SplitType),
			PaidBy:      int64(e.PaidBy),
			CreatedBy:   int64(e.CreatedBy),
			CreatedAt:   r.nowMillis(),
		})
		if err != nil {
			return wrap("create expense", err)
		}
		if err := insertParticipants(ctx, q, row.ID, e.Participants); err != nil {
			return err
		}
		parts, err = q.ListParticipantsByExpense(ctx, row.ID)
		return wrap("list participants", err)
	})
	if err != nil {
		return core.Expense{}, err
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", row.ID,
		"amount_cents", row.AmountCents,
		"split_type", row.SplitType,
		"participants", len(parts))

	return toExpense(row, parts), nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id core.ExpenseID) (core.Expense, error) {
	row, err := r.queries.GetExpense(ctx, int64(id))
	if err != nil {
		return core.Expense{}, wrap("get expense", err)
	}
	parts, err := r.queries.ListParticipantsByExpense(ctx, row.ID)
	if err != nil {
		return core.Expense{}, wrap("list participants", err)
	}
	return toExpense(row, parts), nil
}

// UpdateExpense rewrites the description, amount and split of an expense and
// replaces its participant shares.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	var (
		row   Expense
		parts []ExpenseParticipant
	)
	err := r.withTx(ctx, func(q *Queries) error {
		var err error
		row, err = q.UpdateExpense(ctx, UpdateExpenseParams{
			ID:          int64(e.ID),
			Description: e.Description,
			AmountCents: e.Amount.Cents,
			SplitType:   string(e.SplitType),
			UpdatedAt:   r.nowMillis(),
		})
		if err != nil {
			return wrap("update expense", err)
		}
		if err := q.DeleteParticipants(ctx, row.ID); err != nil {
			return wrap("delete participants", err)
		}
		if err := insertParticipants(ctx, q, row.ID, e.Participants); err != nil {
			return err
		}
		parts, err = q.ListParticipantsByExpense(ctx, row.ID)
		return wrap("list participants", err)
	})
	if err != nil {
		return core.Expense{}, err
	}
	slog.InfoContext(ctx, "Expense updated", "id", row.ID, "amount_cents", row.AmountCents)
	return toExpense(row, parts), nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id core.ExpenseID) error {
	return r.withTx(ctx, func(q *Queries) error {
		if err := q.DeleteParticipants(ctx, int64(id)); err != nil {
			return wrap("delete participants", err)
		}
		n, err := q.DeleteExpense(ctx, int64(id))
		if err != nil {
			return wrap("delete expense", err)
		}
		if n == 0 {
			return fmt.Errorf("delete expense: %w", ErrNotFound)
		}
		slog.InfoContext(ctx, "Expense deleted", "id", id)
		return nil
	})
}

// ListGroupExpenses returns the group's expenses newest first, each with its
// participant shares.
func (r *SQLiteRepository) ListGroupExpenses(ctx context.Context, groupID core.GroupID) ([]core.Expense, error) {
	rows, err := r.queries.ListExpensesByGroup(ctx, int64(groupID))
	if err != nil {
		return nil, wrap("list group expenses", err)
	}
	parts, err := r.queries.ListParticipantsByGroup(ctx, int64(groupID))
	if err != nil {
		return nil, wrap("list group participants", err)
	}
	byExpense := make(map[int64][]ExpenseParticipant, len(rows))
	for _, p := range parts {
		byExpense[p.ExpenseID] = append(byExpense[p.ExpenseID], p)
	}
	out := make([]core.Expense, len(rows))
	for i, row := range rows {
		out[i] = toExpense(row, byExpense[row.ID])
	}
	return out, nil
}

func (r *SQLiteRepository) CreateSettlement(ctx context.Context, s core.Settlement) (core.Settlement, error) {
	row, err := r.queries.CreateSettlement(ctx, CreateSettlementParams{
		GroupID:     nullGroup(s.GroupID),
		PaidBy:      int64(s.PayerID),
		PaidTo:      int64(s.PayeeID),
		AmountCents: s.Amount.Cents,
		Note:        s.Note,
		CreatedAt:   r.nowMillis(),
	})
	if err != nil {
		return core.Settlement{}, wrap("create settlement", err)
	}
	slog.InfoContext(ctx, "Settlement saved to SQLite",
		"id", row.ID,
		"paid_by", row.PaidBy,
		"paid_to", row.PaidTo,
		"amount_cents", row.AmountCents)
	return toSettlement(row), nil
}

// ListGroupSettlements returns the group's settlement history newest first.
func (r *SQLiteRepository) ListGroupSettlements(ctx context.Context, groupID core.GroupID) ([]core.Settlement, error) {
	return r.ListSettlements(ctx, core.GroupScope(groupID))
}

// ListParticipations returns every participation record in scope, each joined
// with the payer of its expense.
func (r *SQLiteRepository) ListParticipations(ctx context.Context, scope core.Scope) ([]core.Participation, error) {
	var (
		rows []ParticipationRow
		err  error
	)
	if id, ok := scope.Group(); ok {
		rows, err = r.queries.ListGroupParticipations(ctx, int64(id))
	} else {
		rows, err = r.queries.ListAllParticipations(ctx)
	}
	if err != nil {
		return nil, wrap("list participations "+scope.Key(), err)
	}
	out := make([]core.Participation, len(rows))
	for i, row := range rows {
		out[i] = core.Participation{
			ExpenseID:     core.ExpenseID(row.ExpenseID),
			PayerID:       core.UserID(row.PaidBy),
			ParticipantID: core.UserID(row.ParticipantID),
			Share:         core.Money{Cents: row.ShareCents},
		}
	}
	return out, nil
}

// ListSettlements returns every settlement in scope, newest first.
func (r *SQLiteRepository) ListSettlements(ctx context.Context, scope core.Scope) ([]core.Settlement, error) {
	var (
		rows []Settlement
		err  error
	)
	if id, ok := scope.Group(); ok {
		rows, err = r.queries.ListGroupSettlements(ctx, int64(id))
	} else {
		rows, err = r.queries.ListAllSettlements(ctx)
	}
	if err != nil {
		return nil, wrap("list settlements "+scope.Key(), err)
	}
	out := make([]core.Settlement, len(rows))
	for i, row := range rows {
		out[i] = toSettlement(row)
	}
	return out, nil
}
