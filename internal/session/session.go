// Package session holds the single active analysis snapshot served to
// clients. A new upload replaces the snapshot wholesale; readers always
// observe either the previous or the next complete session.
package session

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"finsight/internal/core"
)

// Session is one analyzed dataset. It is immutable once published.
type Session struct {
	ID           uuid.UUID
	Source       string
	CreatedAt    time.Time
	RowsIn       int
	Transactions []core.Transaction
	Report       core.AnalysisReport
}

// RowsKept is the number of rows that survived cleaning.
func (s *Session) RowsKept() int {
	return len(s.Transactions)
}

// New builds a session with a fresh identifier.
func New(source string, rowsIn int, txs []core.Transaction, report core.AnalysisReport) *Session {
	return &Session{
		ID:           uuid.New(),
		Source:       source,
		CreatedAt:    time.Now().UTC(),
		RowsIn:       rowsIn,
		Transactions: txs,
		Report:       report,
	}
}

// Store publishes the active session.
type Store struct {
	current atomic.Pointer[Session]
}

func NewStore() *Store {
	return &Store{}
}

// Replace installs s as the active session and returns the one it displaced, if any.
func (st *Store) Replace(s *Session) *Session {
	return st.current.Swap(s)
}

// Clear drops the active session.
func (st *Store) Clear() {
	st.current.Store(nil)
}

// Current returns core.ErrNoActiveSession before the first upload.
func (st *Store) Current() (*Session, error) {
	s := st.current.Load()
	if s == nil {
		return nil, core.ErrNoActiveSession
	}
	return s, nil
}

// Report returns the active summary.
func (st *Store) Report() (core.AnalysisReport, error) {
	s, err := st.Current()
	if err != nil {
		return core.AnalysisReport{}, err
	}
	return s.Report, nil
}

// Chart returns the table backing the named chart, along with the session
// it was read from. A missing session is reported before an unknown name.
func (st *Store) Chart(name string) (core.ChartTable, *Session, error) {
	s, err := st.Current()
	if err != nil {
		return core.ChartTable{}, nil, err
	}
	kind, err := core.ParseChartKind(name)
	if err != nil {
		return core.ChartTable{}, nil, err
	}
	return core.TableFor(s.Report, kind), s, nil
}
