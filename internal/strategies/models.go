package strategies

import "time"

// Strategy is a strategy tag available to analysts when classifying a trade.
type Strategy struct {
	ID              int64  `gorm:"primaryKey"`
	Name            string `gorm:"uniqueIndex"`
	Description     string
	IsActive        bool
	IsSystemDefault bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
