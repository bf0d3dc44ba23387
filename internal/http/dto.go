package http

import (
	"encoding/json"
	"strconv"
	"time"

	"splitledger/internal/core"
	"splitledger/internal/ledger"
	"splitledger/internal/services"
)

// Requests. Amounts arrive as JSON numbers and are parsed to cents from their
// decimal text, never through float64.

type registerUserRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email"`
}

type createGroupRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type addMemberRequest struct {
	UserID int64 `json:"userId" validate:"required,gt=0"`
}

type participantRequest struct {
	UserID  int64       `json:"userId" validate:"required,gt=0"`
	Share   json.Number `json:"share,omitempty"`
	Percent json.Number `json:"percent,omitempty"`
}

type expenseRequest struct {
	Description  string               `json:"description" validate:"required,max=200"`
	Amount       json.Number          `json:"amount" validate:"required"`
	SplitType    string               `json:"splitType" validate:"required"`
	GroupID      *int64               `json:"groupId,omitempty" validate:"omitempty,gt=0"`
	Participants []participantRequest `json:"participants" validate:"required,min=1,dive"`
}

type settlementRequest struct {
	PaidToID int64       `json:"paidToId" validate:"required,gt=0"`
	Amount   json.Number `json:"amount" validate:"required"`
	GroupID  *int64      `json:"groupId,omitempty" validate:"omitempty,gt=0"`
	Note     string      `json:"note,omitempty" validate:"max=500"`
}

func groupIDPtr(id *int64) *core.GroupID {
	if id == nil {
		return nil
	}
	g := core.GroupID(*id)
	return &g
}

func parseAmount(field string, n json.Number) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(n.String())
	if err != nil {
		return core.Money{}, &validationError{msg: field + " must be a positive decimal amount"}
	}
	return core.Money{Cents: cents}, nil
}

// toInput converts the request into service input. Split-specific fields are
// only parsed for the split type that reads them.
func (req expenseRequest) toInput() (services.ExpenseInput, error) {
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		return services.ExpenseInput{}, err
	}
	splitType, err := core.ParseSplitType(req.SplitType)
	if err != nil {
		return services.ExpenseInput{}, &validationError{msg: "splitType must be one of: EQUAL EXACT PERCENT"}
	}

	parts := make([]core.SplitInput, 0, len(req.Participants))
	for i, p := range req.Participants {
		in := core.SplitInput{UserID: core.UserID(p.UserID)}
		switch splitType {
		case core.SplitExact:
			if p.Share == "" {
				return services.ExpenseInput{}, &validationError{msg: "participants[" + strconv.Itoa(i) + "].share is required for EXACT splits"}
			}
			cents, err := core.ParseShareToCents(p.Share.String())
			if err != nil {
				return services.ExpenseInput{}, &validationError{msg: "participants[" + strconv.Itoa(i) + "].share is invalid"}
			}
			in.Share = core.Money{Cents: cents}
		case core.SplitPercent:
			if p.Percent == "" {
				return services.ExpenseInput{}, &validationError{msg: "participants[" + strconv.Itoa(i) + "].percent is required for PERCENT splits"}
			}
			bp, err := core.ParsePercentToBasisPoints(p.Percent.String())
			if err != nil {
				return services.ExpenseInput{}, &validationError{msg: "participants[" + strconv.Itoa(i) + "].percent is invalid"}
			}
			in.PercentBP = bp
		}
		parts = append(parts, in)
	}

	return services.ExpenseInput{
		GroupID:      groupIDPtr(req.GroupID),
		Description:  req.Description,
		Amount:       amount,
		SplitType:    splitType,
		Participants: parts,
	}, nil
}

func (req settlementRequest) toInput() (services.SettlementInput, error) {
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		return services.SettlementInput{}, err
	}
	return services.SettlementInput{
		GroupID: groupIDPtr(req.GroupID),
		PayeeID: core.UserID(req.PaidToID),
		Amount:  amount,
		Note:    req.Note,
	}, nil
}

// Responses.

type userResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func newUserResponse(u core.User) userResponse {
	return userResponse{ID: int64(u.ID), Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

type memberResponse struct {
	UserID   int64     `json:"userId"`
	Name     string    `json:"name,omitempty"`
	Email    string    `json:"email,omitempty"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}

func newMemberResponse(m core.Member) memberResponse {
	return memberResponse{UserID: int64(m.UserID), Role: string(m.Role), JoinedAt: m.JoinedAt}
}

func newMemberProfiles(ms []core.MemberProfile) []memberResponse {
	out := make([]memberResponse, 0, len(ms))
	for _, m := range ms {
		r := newMemberResponse(m.Member)
		r.Name, r.Email = m.Name, m.Email
		out = append(out, r)
	}
	return out
}

type groupResponse struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	CreatedBy   int64            `json:"createdBy"`
	CreatedAt   time.Time        `json:"createdAt"`
	Role        string           `json:"role,omitempty"`
	JoinedAt    *time.Time       `json:"joinedAt,omitempty"`
	Members     []memberResponse `json:"members,omitempty"`
}

func newGroupResponse(g core.Group) groupResponse {
	return groupResponse{
		ID:          int64(g.ID),
		Name:        g.Name,
		Description: g.Description,
		CreatedBy:   int64(g.CreatedBy),
		CreatedAt:   g.CreatedAt,
	}
}

func newMembershipResponses(gs []core.GroupMembership) []groupResponse {
	out := make([]groupResponse, 0, len(gs))
	for _, g := range gs {
		r := newGroupResponse(g.Group)
		joined := g.JoinedAt
		r.Role, r.JoinedAt = string(g.Role), &joined
		out = append(out, r)
	}
	return out
}

type shareResponse struct {
	UserID int64   `json:"userId"`
	Share  float64 `json:"share"`
}

type expenseResponse struct {
	ID           int64           `json:"id"`
	GroupID      *int64          `json:"groupId"`
	Description  string          `json:"description"`
	Amount       float64         `json:"amount"`
	SplitType    string          `json:"splitType"`
	PaidBy       int64           `json:"paidBy"`
	CreatedBy    int64           `json:"createdBy"`
	CreatedAt    time.Time       `json:"createdAt"`
	Participants []shareResponse `json:"participants"`
}

func int64Ptr(id *core.GroupID) *int64 {
	if id == nil {
		return nil
	}
	v := int64(*id)
	return &v
}

func newExpenseResponse(e core.Expense) expenseResponse {
	parts := make([]shareResponse, 0, len(e.Participants))
	for _, p := range e.Participants {
		parts = append(parts, shareResponse{UserID: int64(p.ParticipantID), Share: p.Share.Float()})
	}
	return expenseResponse{
		ID:           int64(e.ID),
		GroupID:      int64Ptr(e.GroupID),
		Description:  e.Description,
		Amount:       e.Amount.Float(),
		SplitType:    string(e.SplitType),
		PaidBy:       int64(e.PaidBy),
		CreatedBy:    int64(e.CreatedBy),
		CreatedAt:    e.CreatedAt,
		Participants: parts,
	}
}

func newExpenseResponses(es []core.Expense) []expenseResponse {
	out := make([]expenseResponse, 0, len(es))
	for _, e := range es {
		out = append(out, newExpenseResponse(e))
	}
	return out
}

type settlementResponse struct {
	ID        int64     `json:"id"`
	GroupID   *int64    `json:"groupId"`
	PaidBy    int64     `json:"paidBy"`
	PaidTo    int64     `json:"paidTo"`
	Amount    float64   `json:"amount"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func newSettlementResponse(s core.Settlement) settlementResponse {
	return settlementResponse{
		ID:        int64(s.ID),
		GroupID:   int64Ptr(s.GroupID),
		PaidBy:    int64(s.PayerID),
		PaidTo:    int64(s.PayeeID),
		Amount:    s.Amount.Float(),
		Note:      s.Note,
		CreatedAt: s.CreatedAt,
	}
}

func newSettlementResponses(ss []core.Settlement) []settlementResponse {
	out := make([]settlementResponse, 0, len(ss))
	for _, s := range ss {
		out = append(out, newSettlementResponse(s))
	}
	return out
}

type transferResponse struct {
	From   int64   `json:"from"`
	To     int64   `json:"to"`
	Amount float64 `json:"amount"`
}

func newTransferResponses(ts []core.Transfer) []transferResponse {
	out := make([]transferResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, transferResponse{From: int64(t.From), To: int64(t.To), Amount: t.Amount.Float()})
	}
	return out
}

// owedResponse renders one debtor row keyed by creditor id.
func owedResponse(row map[core.UserID]core.Money) map[string]float64 {
	out := make(map[string]float64, len(row))
	for creditor, m := range row {
		out[strconv.FormatInt(int64(creditor), 10)] = m.Float()
	}
	return out
}

func balancesResponse(b ledger.Balances) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(b))
	for debtor, row := range b {
		out[strconv.FormatInt(int64(debtor), 10)] = owedResponse(row)
	}
	return out
}
