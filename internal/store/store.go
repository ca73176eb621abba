// Package store holds the session-scoped trade collection behind the entry
// and review pages. It is the sole owner of the canonical in-memory
// recommendation list: callers only ever see snapshots, and every mutation
// notifies subscribers with the full updated collection.
package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/biocap/tradedesk-api/internal/types"
)

var ErrMalformedEntry = errors.New("failed to submit trades")

// Default latencies mirroring the remote API round-trip.
const (
	defaultSubmitDelay = 800 * time.Millisecond
	defaultDraftDelay  = 500 * time.Millisecond
)

// SubmitResult reports the outcome of a submission.
type SubmitResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Listener receives the full updated collection after every mutation.
type Listener func(trades []types.Recommendation)

type subscriber struct {
	id int64
	fn Listener
}

// TradeStore is an observable, concurrency-safe holder of the
// recommendation collection. Construct one per session with NewTradeStore;
// there is no package-level instance.
type TradeStore struct {
	mu          sync.Mutex
	trades      []types.Recommendation
	subscribers []subscriber
	nextSubID   int64
	nextID      int64
	rng         *rand.Rand

	submitDelay time.Duration
	draftDelay  time.Duration
}

// Option configures a TradeStore.
type Option func(*TradeStore)

// WithLatency overrides the simulated round-trip delays. Tests pass zero.
func WithLatency(submit, draft time.Duration) Option {
	return func(s *TradeStore) {
		s.submitDelay = submit
		s.draftDelay = draft
	}
}

// NewTradeStore creates a store pre-loaded with the fixture collection.
func NewTradeStore(opts ...Option) *TradeStore {
	s := &TradeStore{
		trades:      fixtureTrades(),
		nextID:      fixtureNextID,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		submitDelay: defaultSubmitDelay,
		draftDelay:  defaultDraftDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Trades returns a defensive copy of the current collection snapshot.
func (s *TradeStore) Trades() []types.Recommendation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Pending returns the snapshot filtered to recommendations awaiting PM
// review.
func (s *TradeStore) Pending() []types.Recommendation {
	all := s.Trades()
	out := all[:0]
	for _, t := range all {
		if t.Status == types.StatusProposed {
			out = append(out, t)
		}
	}
	return out
}

// Subscribe registers a listener invoked after every mutation, in
// subscription order. The returned function removes exactly that listener.
// A listener added during another listener's invocation does not see the
// in-flight notification.
func (s *TradeStore) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subscribers {
			if sub.id == id {
				s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}

// AddTrade converts validated entries into Proposed recommendations and
// prepends them to the collection, most recent first. IDs are reserved
// atomically at call time, before the simulated latency, so overlapping
// calls never collide. Entries without a ticker are rejected.
func (s *TradeStore) AddTrade(ctx context.Context, entries []types.TradeEntry) (*SubmitResult, error) {
	records, err := s.buildRecords(entries, types.StatusProposed, false)
	if err != nil {
		return nil, err
	}

	if err := s.wait(ctx, s.submitDelay); err != nil {
		return nil, err
	}

	s.prepend(records)

	return &SubmitResult{
		Success: true,
		Message: fmt.Sprintf("Successfully submitted %d trade(s) for approval.", len(records)),
	}, nil
}

// AddDraft saves a single entry as a Draft recommendation.
func (s *TradeStore) AddDraft(ctx context.Context, entry types.TradeEntry) (*SubmitResult, error) {
	records, err := s.buildRecords([]types.TradeEntry{entry}, types.StatusDraft, true)
	if err != nil {
		return nil, err
	}

	if err := s.wait(ctx, s.draftDelay); err != nil {
		return nil, err
	}

	s.prepend(records)

	return &SubmitResult{
		Success: true,
		Message: "Trade saved as draft successfully.",
	}, nil
}

// UpdateTradeStatus replaces the status of the record with the given id and
// refreshes its updated_at. Unknown ids are a silent no-op: nothing changes
// and no notification fires.
func (s *TradeStore) UpdateTradeStatus(id int64, status string) {
	s.mu.Lock()
	idx := -1
	for i := range s.trades {
		if s.trades[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		return
	}
	s.trades[idx].Status = status
	s.trades[idx].UpdatedAt = time.Now()
	snapshot, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, snapshot)
}

// DeleteDraft removes the record with the given id. Returns whether a
// removal occurred; subscribers are notified only when it did.
func (s *TradeStore) DeleteDraft(id int64) bool {
	s.mu.Lock()
	before := len(s.trades)
	kept := s.trades[:0]
	for _, t := range s.trades {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.trades = kept
	removed := len(s.trades) < before
	if !removed {
		s.mu.Unlock()
		return false
	}
	snapshot, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, snapshot)
	return true
}

// ClearTrades empties the collection.
func (s *TradeStore) ClearTrades() {
	s.mu.Lock()
	s.trades = nil
	snapshot, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, snapshot)
}

// ResetToMockData restores the fixture collection and resets the id counter
// so the next insert resumes from the fixtures' next value.
func (s *TradeStore) ResetToMockData() {
	s.mu.Lock()
	s.trades = fixtureTrades()
	s.nextID = fixtureNextID
	snapshot, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, snapshot)
}

// buildRecords reserves ids and assembles records under the lock. The id
// counter advances here, at call time, never after the latency wait.
func (s *TradeStore) buildRecords(entries []types.TradeEntry, status string, isDraft bool) ([]types.Recommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	records := make([]types.Recommendation, 0, len(entries))
	for _, entry := range entries {
		if entry.Ticker == "" {
			return nil, ErrMalformedEntry
		}

		tradeID := s.nextID
		s.nextID++
		securityID := s.nextID
		s.nextID++

		exit := entry.ExpectedExit
		if exit.IsZero() {
			exit = now.Add(90 * 24 * time.Hour)
		}

		strategies := make([]types.Strategy, 0, len(entry.Strategies))
		for _, name := range entry.Strategies {
			strategyID := s.nextID
			s.nextID++
			strategies = append(strategies, types.Strategy{
				ID:              strategyID,
				Name:            name,
				Description:     name + " strategy",
				IsActive:        true,
				IsSystemDefault: true,
			})
		}

		funds := entry.Funds
		if funds == nil {
			funds = []string{}
		}

		records = append(records, types.Recommendation{
			ID:               tradeID,
			AnalystID:        1,
			SecurityID:       securityID,
			TradeDirection:   entry.Direction,
			CurrentPrice:     entry.CurrentPrice,
			TargetPrice:      entry.TargetPrice,
			TimeHorizon:      horizonLabel(entry.ExpectedExit, now),
			ExpectedExitDate: exit,
			AnalystScore:     s.rng.Intn(5) + 5,
			Notes:            fmt.Sprintf("%s recommendation for %s", entry.Direction, entry.Ticker),
			Status:           status,
			IsDraft:          isDraft,
			CreatedAt:        now,
			UpdatedAt:        now,
			Funds:            append([]string(nil), funds...),
			Security: &types.Security{
				ID:           securityID,
				Ticker:       entry.Ticker,
				Name:         entry.Ticker + " Company",
				SourceType:   "manual",
				IsActive:     true,
				CurrentPrice: entry.CurrentPrice,
			},
			Strategies: strategies,
		})
	}
	return records, nil
}

func (s *TradeStore) prepend(records []types.Recommendation) {
	s.mu.Lock()
	s.trades = append(append([]types.Recommendation{}, records...), s.trades...)
	snapshot, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, snapshot)
}

func (s *TradeStore) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func (s *TradeStore) snapshotLocked() []types.Recommendation {
	out := make([]types.Recommendation, 0, len(s.trades))
	for _, t := range s.trades {
		out = append(out, t.Clone())
	}
	return out
}

func (s *TradeStore) subscribersLocked() []subscriber {
	return append([]subscriber(nil), s.subscribers...)
}

// notify invokes listeners synchronously, in subscription order, each with
// its own copy of the collection.
func notify(subs []subscriber, snapshot []types.Recommendation) {
	for _, sub := range subs {
		own := make([]types.Recommendation, 0, len(snapshot))
		for _, t := range snapshot {
			own = append(own, t.Clone())
		}
		sub.fn(own)
	}
}

// horizonLabel derives a month-granularity label from the expected exit
// date. Missing dates default to the fixed 90-day horizon; dates in the
// past are never rejected, matching the entry form's leniency.
func horizonLabel(exit time.Time, now time.Time) string {
	if exit.IsZero() {
		return "3 months"
	}
	months := int(math.Ceil(exit.Sub(now).Hours() / 24 / 30))
	return fmt.Sprintf("%d months", months)
}
