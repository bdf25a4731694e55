package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "Income"
	Expense TransactionType = "Expense"
)

type (
	TransactionType string

	// MonthKey identifies a calendar month. It orders chronologically
	// regardless of how it is rendered.
	MonthKey struct {
		Year  int
		Month time.Month
	}

	// RawRow is one untrusted input record as delivered by an ingestion source.
	RawRow struct {
		Date     string
		Amount   string
		Type     string
		Category string
	}

	// Transaction is a validated ledger record. Values are never mutated after cleaning.
	Transaction struct {
		Date           time.Time
		Amount         decimal.Decimal
		AbsoluteAmount decimal.Decimal
		Type           TransactionType
		Category       string // category for expenses, source for income
		MonthKey       MonthKey
		Quarter        int
		DayOfWeek      time.Weekday
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("invalid transaction type")

	ErrNoActiveSession = errors.New("no data available")
	ErrUnknownChart    = errors.New("invalid chart type")
)

// ParseTransactionType accepts exactly "Income" or "Expense" after trimming.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(strings.TrimSpace(s)); t {
	case Income, Expense:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
}

func (t TransactionType) String() string {
	return string(t)
}

// MonthKeyOf returns the calendar month containing t.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// ParseMonthKey parses the "2006-01" form produced by String.
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return MonthKey{}, fmt.Errorf("parse month key %q: %w", s, err)
	}
	return MonthKeyOf(t), nil
}

// Compare returns -1, 0 or +1 depending on whether k is before, equal to or after o.
func (k MonthKey) Compare(o MonthKey) int {
	switch {
	case k.Year < o.Year:
		return -1
	case k.Year > o.Year:
		return 1
	case k.Month < o.Month:
		return -1
	case k.Month > o.Month:
		return 1
	default:
		return 0
	}
}

func (k MonthKey) Before(o MonthKey) bool {
	return k.Compare(o) < 0
}

// Start returns midnight UTC on the first day of the month.
func (k MonthKey) Start() time.Time {
	return time.Date(k.Year, k.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (k MonthKey) String() string {
	return strconv.Itoa(k.Year) + "-" + fmt.Sprintf("%02d", int(k.Month))
}

func (k MonthKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *MonthKey) UnmarshalText(b []byte) error {
	parsed, err := ParseMonthKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// NewTransaction builds a Transaction and eagerly computes its derived fields.
func NewTransaction(date time.Time, amount decimal.Decimal, typ TransactionType, category string) Transaction {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return Transaction{
		Date:           day,
		Amount:         amount,
		AbsoluteAmount: amount.Abs(),
		Type:           typ,
		Category:       category,
		MonthKey:       MonthKeyOf(day),
		Quarter:        (int(day.Month())-1)/3 + 1,
		DayOfWeek:      day.Weekday(),
	}
}

// Raw converts the transaction back into the input shape accepted by the cleaner.
func (t Transaction) Raw() RawRow {
	return RawRow{
		Date:     t.Date.Format("2006-01-02"),
		Amount:   t.Amount.String(),
		Type:     t.Type.String(),
		Category: t.Category,
	}
}
