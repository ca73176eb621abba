package database

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/biocap/tradedesk-api/internal/funds"
	"github.com/biocap/tradedesk-api/internal/securities"
	"github.com/biocap/tradedesk-api/internal/strategies"
)

var defaultStrategies = []string{
	"Earnings",
	"Merger Arb",
	"Special Situation",
	"Valuation",
	"Commercial Outlook",
	"Clinical Catalyst",
	"Earnings Beat/Miss",
	"Drug/Product Launch",
	"Technical Analysis",
	"M&A Speculation",
	"Political Trade",
	"Thematic Baskets",
	"PM Rebalance",
	"Macro",
	"Close Position",
	"Close Theoretical",
	"Risk Management",
}

var defaultFunds = []funds.Fund{
	{Code: "WHT", Name: "Worldwide Healthcare Trust", IsActive: true},
	{Code: "BGT", Name: "Biotech Growth Trust", IsActive: true},
	{Code: "GEN", Name: "Genesis Fund", IsActive: true},
	{Code: "OPF", Name: "OrbiMed Partners Fund", IsActive: true},
}

var defaultSecurities = []struct {
	Ticker string
	Name   string
	Price  string
}{
	{"MRNA", "Moderna Inc.", "122.45"},
	{"NVAX", "Novavax Inc.", "68.32"},
	{"REGN", "Regeneron Pharmaceuticals", "842.76"},
	{"BNTX", "BioNTech SE", "143.52"},
	{"VRTX", "Vertex Pharmaceuticals", "367.90"},
	{"GILD", "Gilead Sciences", "75.64"},
	{"BIIB", "Biogen Inc.", "252.18"},
	{"AMGN", "Amgen Inc.", "284.54"},
	{"ILMN", "Illumina Inc.", "143.89"},
}

// Seed populates the strategy, fund and security catalogs on first start.
// Already-seeded databases are left untouched.
func Seed(db *gorm.DB) error {
	if n, err := strategies.NewDatabase(db).Count(); err != nil {
		return err
	} else if n == 0 {
		for _, name := range defaultStrategies {
			s := strategies.Strategy{
				Name:            name,
				Description:     name + " strategy",
				IsActive:        true,
				IsSystemDefault: true,
			}
			if err := db.Create(&s).Error; err != nil {
				return err
			}
		}
	}

	if n, err := funds.NewDatabase(db).Count(); err != nil {
		return err
	} else if n == 0 {
		for i := range defaultFunds {
			f := defaultFunds[i]
			if err := db.Create(&f).Error; err != nil {
				return err
			}
		}
	}

	if n, err := securities.NewDatabase(db).Count(); err != nil {
		return err
	} else if n == 0 {
		for _, row := range defaultSecurities {
			price, err := decimal.NewFromString(row.Price)
			if err != nil {
				return err
			}
			s := securities.Security{
				Ticker:       row.Ticker,
				Name:         row.Name,
				SourceType:   "catalog",
				IsActive:     true,
				CurrentPrice: price,
			}
			if err := db.Create(&s).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
