package recommendations

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TradeRecommendation is the persisted recommendation record. Strategy and
// fund links live in join tables so a recommendation can carry several of
// each.
type TradeRecommendation struct {
	ID               int64 `gorm:"primaryKey"`
	AnalystID        int64 `gorm:"index"`
	SecurityID       int64 `gorm:"index"`
	TradeDirection   string
	CurrentPrice     decimal.Decimal `gorm:"type:numeric"`
	TargetPrice      decimal.Decimal `gorm:"type:numeric"`
	TimeHorizon      string
	ExpectedExitDate time.Time
	AnalystScore     int
	Notes            string
	Status           string `gorm:"index"`
	IsDraft          bool
	ApprovedBy       int64
	ApprovedAt       *time.Time
	ApprovalNotes    string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type RecommendationStrategy struct {
	ID               int64 `gorm:"primaryKey"`
	RecommendationID int64 `gorm:"index"`
	StrategyID       int64
}

type RecommendationFund struct {
	ID               int64 `gorm:"primaryKey"`
	RecommendationID int64 `gorm:"index"`
	FundID           int64
}

// IdempotencyRecord maps an Idempotency-Key header to the recommendation it
// created, so replayed POSTs return the original resource.
type IdempotencyRecord struct {
	gorm.Model
	IdempotencyKey string `gorm:"uniqueIndex"`
	ResourceID     int64
	ResourceType   string
	ExpiresAt      time.Time
}
