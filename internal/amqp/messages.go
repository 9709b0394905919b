package amqp

import (
	"encoding/json"
	"time"
)

// TransactionArchiveMessage asks the worker to copy one transaction into
// the statement ledger. It carries only identifiers; the worker reads the
// full row from the database so the ledger never sees stale payloads.
type TransactionArchiveMessage struct {
	UserID        string    `json:"user_id"`
	TransactionID string    `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionArchiveMessage(userID, transactionID string) *TransactionArchiveMessage {
	return &TransactionArchiveMessage{
		UserID:        userID,
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	}
}

func (m *TransactionArchiveMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionArchiveMessageFromJSON(data []byte) (*TransactionArchiveMessage, error) {
	var msg TransactionArchiveMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
