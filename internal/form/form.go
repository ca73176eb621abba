// Package form manages the editable list of draft trade rows on the entry
// page: add/remove rows, validation, save-as-draft and submission through
// the trade store. Row contents persist to a SessionState so navigating
// away and back does not lose work in progress.
package form

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/biocap/tradedesk-api/internal/store"
	"github.com/biocap/tradedesk-api/internal/types"
)

// Row is one editable trade line. Prices are kept as raw input text;
// validation accepts anything decimal-parseable.
type Row struct {
	Ticker       string    `json:"ticker"`
	Direction    string    `json:"trade"`
	Strategies   []string  `json:"strategy"`
	Funds        []string  `json:"funds"`
	CurrentPrice string    `json:"current_price"`
	TargetPrice  string    `json:"target_price"`
	ExpectedExit time.Time `json:"expected_exit,omitempty"`
	IsDraft      bool      `json:"is_draft"`
}

func emptyRow() Row {
	return Row{
		Direction:  types.DirectionBuy,
		Strategies: []string{},
		Funds:      []string{},
	}
}

// SessionState holds unsaved form rows for the current session. It is an
// explicitly constructed service object: create one at session start and
// hand it to every Controller that should share it.
type SessionState struct {
	mu   sync.Mutex
	rows []Row
}

func NewSessionState() *SessionState {
	return &SessionState{}
}

// Rows returns a copy of the saved rows, nil when nothing is saved.
func (s *SessionState) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rows == nil {
		return nil
	}
	return append([]Row(nil), s.rows...)
}

func (s *SessionState) SetRows(rows []Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append([]Row(nil), rows...)
}

func (s *SessionState) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = nil
}

// Controller drives the trade entry form. The form always contains at
// least one row.
type Controller struct {
	mu         sync.Mutex
	rows       []Row
	store      *store.TradeStore
	state      *SessionState
	submitting bool
}

// NewController builds a controller bound to the given store and session
// state, restoring any rows persisted earlier in the session.
func NewController(st *store.TradeStore, state *SessionState) *Controller {
	rows := state.Rows()
	if len(rows) == 0 {
		rows = []Row{emptyRow()}
	}
	return &Controller{
		rows:  rows,
		store: st,
		state: state,
	}
}

// Rows returns a copy of the current form rows.
func (c *Controller) Rows() []Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Row(nil), c.rows...)
}

// SetRow replaces the row at the given index, ignoring out-of-range
// indexes.
func (c *Controller) SetRow(index int, row Row) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.rows) {
		return
	}
	c.rows[index] = row
	c.persistLocked()
}

// AddRow appends an empty row.
func (c *Controller) AddRow() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = append(c.rows, emptyRow())
	c.persistLocked()
}

// RemoveRow removes the row at the given index. Removing the last
// remaining row is a no-op.
func (c *Controller) RemoveRow(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.rows) <= 1 || index < 0 || index >= len(c.rows) {
		return
	}
	c.rows = append(c.rows[:index], c.rows[index+1:]...)
	c.persistLocked()
}

// ClearAll resets the form to a single empty row and clears the persisted
// session rows.
func (c *Controller) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = []Row{emptyRow()}
	c.state.Clear()
}

// ValidTrades filters rows to complete entries: ticker set, at least one
// strategy and fund, and both prices positive decimals.
func (c *Controller) ValidTrades() []types.TradeEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []types.TradeEntry
	for _, row := range c.rows {
		current, okCur := parsePrice(row.CurrentPrice)
		target, okTgt := parsePrice(row.TargetPrice)

		if row.Ticker == "" || len(row.Strategies) == 0 || len(row.Funds) == 0 || !okCur || !okTgt {
			continue
		}

		out = append(out, types.TradeEntry{
			Ticker:       row.Ticker,
			Direction:    row.Direction,
			Strategies:   append([]string(nil), row.Strategies...),
			Funds:        append([]string(nil), row.Funds...),
			CurrentPrice: current,
			TargetPrice:  target,
			ExpectedExit: row.ExpectedExit,
		})
	}
	return out
}

// SaveDraft flags the row at the given index as a draft, keeps it on the
// form, and appends a fresh empty row so there is always an editable tail.
func (c *Controller) SaveDraft(index int) *store.SubmitResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.rows) {
		return &store.SubmitResult{Success: false, Message: "No such row."}
	}
	c.rows[index].IsDraft = true
	c.rows = append(c.rows, emptyRow())
	c.persistLocked()
	return &store.SubmitResult{Success: true, Message: "Draft saved successfully"}
}

// SubmitTrades validates the form and submits the valid rows through the
// store's bulk add. On success the form resets to a single empty row and
// the persisted session rows are cleared.
func (c *Controller) SubmitTrades(ctx context.Context) (*store.SubmitResult, error) {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return &store.SubmitResult{Success: false, Message: "Submission already in progress."}, nil
	}
	c.submitting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	entries := c.ValidTrades()
	if len(entries) == 0 {
		return &store.SubmitResult{Success: false, Message: "Please complete at least one trade before submitting."}, nil
	}

	result, err := c.store.AddTrade(ctx, entries)
	if err != nil {
		return nil, err
	}
	if result.Success {
		c.ClearAll()
	}
	return result, nil
}

// Submitting reports whether a submission is in flight.
func (c *Controller) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

func (c *Controller) persistLocked() {
	c.state.SetRows(c.rows)
}

// parsePrice accepts numeric text ("122.45") and reports whether it is a
// positive decimal.
func parsePrice(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return d, d.Sign() > 0
}
