package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/biocap/tradedesk-api/internal/funds"
	"github.com/biocap/tradedesk-api/internal/recommendations"
	"github.com/biocap/tradedesk-api/internal/securities"
	"github.com/biocap/tradedesk-api/internal/strategies"
)

// NewDatabase initializes and returns a new GORM DB connection
func NewDatabase(path string) (*gorm.DB, error) {
	if path == "" {
		path = "tradedesk.db"
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&recommendations.TradeRecommendation{},
		&recommendations.RecommendationStrategy{},
		&recommendations.RecommendationFund{},
		&recommendations.IdempotencyRecord{},
		&securities.Security{},
		&strategies.Strategy{},
		&funds.Fund{},
	)
	if err != nil {
		return nil, err
	}

	if err := Seed(db); err != nil {
		return nil, fmt.Errorf("failed to seed catalogs: %w", err)
	}

	return db, nil
}
