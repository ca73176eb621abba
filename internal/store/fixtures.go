package store

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/biocap/tradedesk-api/internal/types"
)

// fixtureNextID is the first id handed out after the fixture set.
const fixtureNextID = 6

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fixtureTrades returns a fresh copy of the seed collection shown on the
// history page before any submissions.
func fixtureTrades() []types.Recommendation {
	return []types.Recommendation{
		{
			ID:               1,
			AnalystID:        1,
			SecurityID:       1,
			TradeDirection:   types.DirectionBuy,
			CurrentPrice:     dec("122.45"),
			TargetPrice:      dec("180.00"),
			TimeHorizon:      "6 months",
			ExpectedExitDate: mustTime("2025-12-10T10:30:00Z"),
			AnalystScore:     8,
			Notes:            "Strong pipeline with upcoming Phase 3 results expected in Q4. Potential for significant upside.",
			Status:           types.StatusApproved,
			IsDraft:          false,
			CreatedAt:        mustTime("2025-06-10T10:30:00Z"),
			UpdatedAt:        mustTime("2025-06-12T14:20:00Z"),
			Funds:            []string{"BioTech Growth Fund", "Healthcare Innovation Fund"},
			Security: &types.Security{
				ID: 1, Ticker: "MRNA", Name: "Moderna Inc.",
				SourceType: "manual", IsActive: true, CurrentPrice: dec("122.45"),
			},
			Strategies: []types.Strategy{
				{ID: 1, Name: "Clinical Catalyst", Description: "Clinical catalyst strategy", IsActive: true, IsSystemDefault: true},
				{ID: 2, Name: "Drug/Product Launch", Description: "Drug launch strategy", IsActive: true, IsSystemDefault: true},
			},
		},
		{
			ID:               2,
			AnalystID:        1,
			SecurityID:       3,
			TradeDirection:   types.DirectionSell,
			CurrentPrice:     dec("842.76"),
			TargetPrice:      dec("790.00"),
			TimeHorizon:      "2 months",
			ExpectedExitDate: mustTime("2025-09-01T16:20:00Z"),
			AnalystScore:     4,
			Notes:            "Overvalued at current levels, technical indicators suggest downward pressure.",
			Status:           types.StatusApproved,
			IsDraft:          false,
			CreatedAt:        mustTime("2025-07-01T16:20:00Z"),
			UpdatedAt:        mustTime("2025-07-02T09:10:00Z"),
			Funds:            []string{"Value Fund", "Defensive Healthcare Fund"},
			Security: &types.Security{
				ID: 3, Ticker: "REGN", Name: "Regeneron Pharmaceuticals",
				SourceType: "manual", IsActive: true, CurrentPrice: dec("842.76"),
			},
			Strategies: []types.Strategy{
				{ID: 5, Name: "Valuation", Description: "Valuation strategy", IsActive: true, IsSystemDefault: true},
				{ID: 6, Name: "Technical Analysis", Description: "Technical analysis strategy", IsActive: true, IsSystemDefault: true},
			},
		},
		{
			ID:               3,
			AnalystID:        1,
			SecurityID:       10,
			TradeDirection:   types.DirectionSellShort,
			CurrentPrice:     dec("252.18"),
			TargetPrice:      dec("200.00"),
			TimeHorizon:      "2 months",
			ExpectedExitDate: mustTime("2025-07-28T15:30:00Z"),
			AnalystScore:     5,
			Notes:            "Portfolio rebalancing requires reduction in exposure.",
			Status:           types.StatusProposed,
			IsDraft:          false,
			CreatedAt:        mustTime("2025-05-28T15:30:00Z"),
			UpdatedAt:        mustTime("2025-05-29T08:45:00Z"),
			Funds:            []string{"Hedge Fund Alpha"},
			Security: &types.Security{
				ID: 10, Ticker: "BIIB", Name: "Biogen Inc.",
				SourceType: "manual", IsActive: true, CurrentPrice: dec("252.18"),
			},
			Strategies: []types.Strategy{
				{ID: 18, Name: "PM Rebalance", Description: "Portfolio rebalance strategy", IsActive: true, IsSystemDefault: true},
			},
		},
		{
			ID:               4,
			AnalystID:        1,
			SecurityID:       13,
			TradeDirection:   types.DirectionCoverShort,
			CurrentPrice:     dec("90.00"),
			TargetPrice:      dec("122.45"),
			TimeHorizon:      "1 month",
			ExpectedExitDate: mustTime("2025-08-20T16:45:00Z"),
			AnalystScore:     6,
			Notes:            "Covering short position as target reached, expecting potential reversal.",
			Status:           types.StatusApproved,
			IsDraft:          false,
			CreatedAt:        mustTime("2025-07-20T16:45:00Z"),
			UpdatedAt:        mustTime("2025-07-21T11:30:00Z"),
			Funds:            []string{"Hedge Fund Alpha", "Short Strategy Fund"},
			Security: &types.Security{
				ID: 13, Ticker: "MRNA", Name: "Moderna Inc.",
				SourceType: "manual", IsActive: true, CurrentPrice: dec("90.00"),
			},
			Strategies: []types.Strategy{
				{ID: 23, Name: "Risk Management", Description: "Risk management strategy", IsActive: true, IsSystemDefault: true},
			},
		},
		{
			ID:               5,
			AnalystID:        1,
			SecurityID:       6,
			TradeDirection:   types.DirectionBuy,
			CurrentPrice:     dec("75.64"),
			TargetPrice:      dec("85.00"),
			TimeHorizon:      "6 months",
			ExpectedExitDate: mustTime("2025-09-05T11:20:00Z"),
			AnalystScore:     7,
			Notes:            "Attractive M&A target, solid fundamentals support higher valuation.",
			Status:           types.StatusRejected,
			IsDraft:          false,
			CreatedAt:        mustTime("2025-03-05T11:20:00Z"),
			UpdatedAt:        mustTime("2025-03-06T15:40:00Z"),
			Funds:            []string{"Growth Fund", "M&A Opportunity Fund"},
			Security: &types.Security{
				ID: 6, Ticker: "GILD", Name: "Gilead Sciences",
				SourceType: "manual", IsActive: true, CurrentPrice: dec("75.64"),
			},
			Strategies: []types.Strategy{
				{ID: 10, Name: "M&A Speculation", Description: "M&A speculation strategy", IsActive: true, IsSystemDefault: true},
				{ID: 11, Name: "Valuation", Description: "Valuation strategy", IsActive: true, IsSystemDefault: true},
			},
		},
	}
}
