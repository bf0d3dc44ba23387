package storage

import "database/sql"

// Timestamps are stored as unix milliseconds.

type User struct {
	ID        int64
	Name      string
	Email     string
	CreatedAt int64
}

type ExpenseGroup struct {
	ID          int64
	Name        string
	Description string
	CreatedBy   int64
	CreatedAt   int64
}

type GroupMember struct {
	GroupID  int64
	UserID   int64
	Role     string
	JoinedAt int64
}

type Expense struct {
	ID          int64
	GroupID     sql.NullInt64
	Description string
	AmountCents int64
	SplitType   string
	PaidBy      int64
	CreatedBy   int64
	CreatedAt   int64
	UpdatedAt   int64
}

type ExpenseParticipant struct {
	ExpenseID  int64
	UserID     int64
	ShareCents int64
}

type Settlement struct {
	ID          int64
	GroupID     sql.NullInt64
	PaidBy      int64
	PaidTo      int64
	AmountCents int64
	Note        string
	CreatedAt   int64
}
