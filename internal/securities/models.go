package securities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Security is a tradeable instrument in the coverage universe.
type Security struct {
	ID           int64  `gorm:"primaryKey"`
	Ticker       string `gorm:"uniqueIndex"`
	Name         string
	SourceType   string // catalog or manual
	IsActive     bool
	CurrentPrice decimal.Decimal `gorm:"type:numeric"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
