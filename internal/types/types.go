package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade directions accepted on a recommendation.
const (
	DirectionBuy        = "Buy"
	DirectionSell       = "Sell"
	DirectionSellShort  = "Sell Short"
	DirectionCoverShort = "Cover Short"
)

// Workflow statuses. A recommendation starts as a Draft, is submitted for
// review as Proposed, and receives a PM disposition of Approved or Rejected.
const (
	StatusDraft    = "Draft"
	StatusProposed = "Proposed"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

// ValidDirection reports whether s is one of the accepted trade directions.
func ValidDirection(s string) bool {
	switch s {
	case DirectionBuy, DirectionSell, DirectionSellShort, DirectionCoverShort:
		return true
	}
	return false
}

// ValidStatus reports whether s is one of the workflow statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusProposed, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Security is the nested security payload on a recommendation.
type Security struct {
	ID           int64           `json:"id"`
	Ticker       string          `json:"ticker"`
	Name         string          `json:"name"`
	SourceType   string          `json:"source_type"`
	IsActive     bool            `json:"is_active"`
	CurrentPrice decimal.Decimal `json:"current_price"`
}

// Strategy is a strategy tag payload.
type Strategy struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	IsActive        bool   `json:"is_active"`
	IsSystemDefault bool   `json:"is_system_default"`
}

// Fund is a fund catalog entry.
type Fund struct {
	ID       int64  `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// Recommendation is the wire representation of a trade recommendation,
// shared by the REST layer, the in-memory store and the API client.
type Recommendation struct {
	ID               int64           `json:"id"`
	AnalystID        int64           `json:"analyst_id"`
	SecurityID       int64           `json:"security_id"`
	TradeDirection   string          `json:"trade_direction"`
	CurrentPrice     decimal.Decimal `json:"current_price"`
	TargetPrice      decimal.Decimal `json:"target_price"`
	TimeHorizon      string          `json:"time_horizon"`
	ExpectedExitDate time.Time       `json:"expected_exit_date"`
	AnalystScore     int             `json:"analyst_score"`
	Notes            string          `json:"notes,omitempty"`
	Status           string          `json:"status"`
	IsDraft          bool            `json:"is_draft"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	Funds            []string        `json:"funds"`
	Security         *Security       `json:"security,omitempty"`
	Strategies       []Strategy      `json:"strategies"`
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing internal slices.
func (r Recommendation) Clone() Recommendation {
	out := r
	if r.Funds != nil {
		out.Funds = append([]string(nil), r.Funds...)
	}
	if r.Strategies != nil {
		out.Strategies = append([]Strategy(nil), r.Strategies...)
	}
	if r.Security != nil {
		sec := *r.Security
		out.Security = &sec
	}
	return out
}

// TradeEntry is a validated trade submission produced by the entry form.
// ExpectedExit may be zero; the store derives a default horizon from it.
type TradeEntry struct {
	Ticker       string          `json:"ticker"`
	Direction    string          `json:"trade"`
	Strategies   []string        `json:"strategy"`
	Funds        []string        `json:"funds"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	TargetPrice  decimal.Decimal `json:"target_price"`
	ExpectedExit time.Time       `json:"expected_exit,omitempty"`
}
