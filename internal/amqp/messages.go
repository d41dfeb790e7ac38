package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

type EventType string

const (
	EventBudgetUpserted     EventType = "budget.upserted"
	EventCategoryCreated    EventType = "category.created"
	EventCategoryUpdated    EventType = "category.updated"
	EventCategoryDeleted    EventType = "category.deleted"
	EventTransactionCreated EventType = "transaction.created"
	EventTransactionUpdated EventType = "transaction.updated"
	EventTransactionDeleted EventType = "transaction.deleted"
)

// BudgetEvent announces that a user's budget data changed.
// It carries ids only; consumers reload whatever they need.
type BudgetEvent struct {
	Type      EventType `json:"type"`
	UserID    string    `json:"user_id"`
	EntityID  string    `json:"entity_id,omitempty"`
	Date      string    `json:"date,omitempty"` // business date of the change, YYYY-MM-DD
	Timestamp time.Time `json:"timestamp"`
}

func NewBudgetEvent(t EventType, userID, entityID, date string) *BudgetEvent {
	return &BudgetEvent{
		Type:      t,
		UserID:    userID,
		EntityID:  entityID,
		Date:      date,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *BudgetEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BudgetEventFromJSON decodes an event and rejects ones without a type or user.
func BudgetEventFromJSON(data []byte) (*BudgetEvent, error) {
	var msg BudgetEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type == "" || msg.UserID == "" {
		return nil, errors.New("event requires type and user_id")
	}
	return &msg, nil
}
