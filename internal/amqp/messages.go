package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventAnalysisCompleted is the message type and default routing key.
const EventAnalysisCompleted = "analysis.completed"

// AnalysisCompletedMessage announces that a dataset was analyzed and is now
// the active session. It carries only top-line figures.
type AnalysisCompletedMessage struct {
	Event         string          `json:"event"`
	SessionID     uuid.UUID       `json:"session_id"`
	Source        string          `json:"source"`
	RowsIn        int             `json:"rows_in"`
	RowsKept      int             `json:"rows_kept"`
	TotalIncome   decimal.Decimal `json:"total_income"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetSavings    decimal.Decimal `json:"net_savings"`
	Timestamp     time.Time       `json:"timestamp"`
}

func NewAnalysisCompletedMessage(sessionID uuid.UUID, source string, rowsIn, rowsKept int, income, expenses, net decimal.Decimal) *AnalysisCompletedMessage {
	return &AnalysisCompletedMessage{
		Event:         EventAnalysisCompleted,
		SessionID:     sessionID,
		Source:        source,
		RowsIn:        rowsIn,
		RowsKept:      rowsKept,
		TotalIncome:   income,
		TotalExpenses: expenses,
		NetSavings:    net,
		Timestamp:     time.Now().UTC(),
	}
}

func (m *AnalysisCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func AnalysisCompletedMessageFromJSON(data []byte) (*AnalysisCompletedMessage, error) {
	var msg AnalysisCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
