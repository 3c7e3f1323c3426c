package events

import (
	"encoding/json"
	"time"
)

// Scopes name the record collection a change happened in. Consumers
// use them to decide which cached aggregations to drop.
const (
	ScopeCards       = "cartoes"
	ScopeSpecs       = "cartoes_specs"
	ScopeExpenses    = "despesas"
	ScopeFixed       = "fixos"
	ScopePendencias  = "pendencias"
	ScopeEntries     = "entradas"
	ScopeBalance     = "saldo"
	ScopeInvestments = "investimentos"
)

// DataChangedMessage announces that a user's records changed. It
// carries only coordinates; consumers reload whatever they need.
type DataChangedMessage struct {
	UserID    string    `json:"user_id"`
	Scope     string    `json:"scope"`
	YearMonth string    `json:"year_month,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewDataChangedMessage creates a change notification for a scope,
// optionally pinned to a year-month.
func NewDataChangedMessage(userID, scope, yearMonth string) *DataChangedMessage {
	return &DataChangedMessage{
		UserID:    userID,
		Scope:     scope,
		YearMonth: yearMonth,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *DataChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DataChangedMessageFromJSON creates a message from JSON bytes
func DataChangedMessageFromJSON(data []byte) (*DataChangedMessage, error) {
	var msg DataChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
