package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kinds of ledger change carried by LedgerChangedMessage.
const (
	KindExpenseCreated    = "expense.created"
	KindExpenseUpdated    = "expense.updated"
	KindExpenseDeleted    = "expense.deleted"
	KindSettlementCreated = "settlement.created"
)

// LedgerChangedMessage announces that the records behind a ledger scope
// changed. GroupID is nil for changes outside any group. Consumers recompute
// what they need from storage; the message carries only identifiers.
type LedgerChangedMessage struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	GroupID      *int64    `json:"groupId,omitempty"`
	ExpenseID    int64     `json:"expenseId,omitempty"`
	SettlementID int64     `json:"settlementId,omitempty"`
	ActorID      int64     `json:"actorId"`
	Timestamp    time.Time `json:"timestamp"`
}

func NewLedgerChangedMessage(kind string, groupID *int64, actorID int64) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		ID:        uuid.NewString(),
		Kind:      kind,
		GroupID:   groupID,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
	}
}

func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
