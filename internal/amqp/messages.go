package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"taskfin/internal/store"
)

// ChangeMessage announces that a table changed for a user. It carries no
// row data; receivers re-fetch the table from the backend.
type ChangeMessage struct {
	Table     store.Table `json:"table"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewChangeMessage(table store.Table, userID string) *ChangeMessage {
	return &ChangeMessage{
		Table:     table,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
}

func messageOf(ch store.Change) *ChangeMessage {
	at := ch.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return &ChangeMessage{Table: ch.Table, UserID: ch.UserID, Timestamp: at}
}

// Change converts the message back into the store's notification type.
func (m *ChangeMessage) Change() store.Change {
	return store.Change{Table: m.Table, UserID: m.UserID, At: m.Timestamp}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes a message and rejects unknown tables or a
// missing user.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Table.Valid() {
		return nil, fmt.Errorf("unknown table %q", msg.Table)
	}
	if msg.UserID == "" {
		return nil, fmt.Errorf("missing user_id")
	}
	return &msg, nil
}
