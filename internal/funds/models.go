package funds

import "time"

// Fund is a portfolio a recommendation can be allocated to.
type Fund struct {
	ID        int64  `gorm:"primaryKey"`
	Code      string `gorm:"uniqueIndex"`
	Name      string `gorm:"uniqueIndex"`
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
