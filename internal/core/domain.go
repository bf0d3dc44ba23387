package core

import (
	"errors"
	"strings"
	"time"
)

const (
	SplitEqual   SplitType = "EQUAL"
	SplitExact   SplitType = "EXACT"
	SplitPercent SplitType = "PERCENT"
)

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

type (
	UserID       int64
	GroupID      int64
	ExpenseID    int64
	SettlementID int64

	SplitType string
	Role      string

	Money struct {
		Cents int64
	}

	User struct {
		ID        UserID
		Name      string
		Email     string
		CreatedAt time.Time
	}

	Group struct {
		ID          GroupID
		Name        string
		Description string
		CreatedBy   UserID
		CreatedAt   time.Time
	}

	Member struct {
		GroupID  GroupID
		UserID   UserID
		Role     Role
		JoinedAt time.Time
	}

	// Participation records that ParticipantID owes Share of an expense paid by PayerID.
	Participation struct {
		ExpenseID     ExpenseID
		PayerID       UserID
		ParticipantID UserID
		Share         Money
	}

	Expense struct {
		ID           ExpenseID
		GroupID      *GroupID
		Description  string
		Amount       Money
		SplitType    SplitType
		PaidBy       UserID
		CreatedBy    UserID
		CreatedAt    time.Time
		Participants []Participation
	}

	// Settlement is a real payment from PayerID to PayeeID.
	Settlement struct {
		ID        SettlementID
		GroupID   *GroupID
		PayerID   UserID
		PayeeID   UserID
		Amount    Money
		Note      string
		CreatedAt time.Time
	}

	// MemberProfile is a membership joined with the member's user record.
	MemberProfile struct {
		Member
		Name  string
		Email string
	}

	// GroupMembership is a group seen from one of its members.
	GroupMembership struct {
		Group
		Role     Role
		JoinedAt time.Time
	}

	// Transfer is one recommended payment of a simplified plan.
	Transfer struct {
		From   UserID
		To     UserID
		Amount Money
	}
)

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrEmptyDescription     = errors.New("empty description")
	ErrEmptyName            = errors.New("empty name")
	ErrInvalidSplitType     = errors.New("invalid split type")
	ErrNoParticipants       = errors.New("no participants")
	ErrDuplicateParticipant = errors.New("duplicate participant")
	ErrInvalidShare         = errors.New("invalid share")
	ErrSplitMismatch        = errors.New("EXACT split does not sum correctly")
	ErrPercentTotal         = errors.New("PERCENT must total 100")
	ErrSelfSettlement       = errors.New("cannot settle with yourself")
)

// MaxAmountCents bounds every stored amount (100 billion units) so that
// percentage arithmetic in basis points stays inside int64.
const MaxAmountCents int64 = 10_000_000_000_000

func (m Money) Validate() error {
	if m.Cents <= 0 || m.Cents > MaxAmountCents {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) Neg() Money        { return Money{Cents: -m.Cents} }
func (m Money) IsZero() bool      { return m.Cents == 0 }

func (t SplitType) IsValid() bool {
	switch t {
	case SplitEqual, SplitExact, SplitPercent:
		return true
	default:
		return false
	}
}

// ParseSplitType accepts the split type case-insensitively.
func ParseSplitType(s string) (SplitType, error) {
	t := SplitType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", ErrInvalidSplitType
	}
	return t, nil
}

func (g Group) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if len(g.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	if !strings.Contains(u.Email, "@") {
		return errors.New("invalid email")
	}
	return nil
}

func (e Expense) Validate() error {
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !e.SplitType.IsValid() {
		return ErrInvalidSplitType
	}
	if len(e.Participants) == 0 {
		return ErrNoParticipants
	}
	return nil
}

func (s Settlement) Validate() error {
	if s.PayerID == s.PayeeID {
		return ErrSelfSettlement
	}
	return s.Amount.Validate()
}

// CanEdit reports whether userID may modify or delete the expense.
func (e Expense) CanEdit(userID UserID) bool {
	return e.CreatedBy == userID || e.PaidBy == userID
}
