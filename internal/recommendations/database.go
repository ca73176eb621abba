package recommendations

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) GetByID(id int64) (*TradeRecommendation, error) {
	var rec TradeRecommendation
	if err := d.db.First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (d *Database) ListAll() ([]TradeRecommendation, error) {
	var out []TradeRecommendation
	err := d.db.Order("created_at DESC").Find(&out).Error
	return out, err
}

func (d *Database) ListByAnalyst(analystID int64) ([]TradeRecommendation, error) {
	var out []TradeRecommendation
	err := d.db.Where("analyst_id = ?", analystID).Order("created_at DESC").Find(&out).Error
	return out, err
}

func (d *Database) ListBySecurity(securityID int64) ([]TradeRecommendation, error) {
	var out []TradeRecommendation
	err := d.db.Where("security_id = ?", securityID).Order("created_at DESC").Find(&out).Error
	return out, err
}

// ListDrafts returns draft recommendations, optionally filtered by analyst.
func (d *Database) ListDrafts(analystID int64) ([]TradeRecommendation, error) {
	q := d.db.Where("is_draft = ? AND status = ?", true, "Draft")
	if analystID > 0 {
		q = q.Where("analyst_id = ?", analystID)
	}
	var out []TradeRecommendation
	err := q.Order("created_at DESC").Find(&out).Error
	return out, err
}

// ListStaleDrafts returns drafts untouched since the cutoff, for the
// retention sweep.
func (d *Database) ListStaleDrafts(cutoff time.Time) ([]TradeRecommendation, error) {
	var out []TradeRecommendation
	err := d.db.
		Where("is_draft = ? AND updated_at < ?", true, cutoff).
		Find(&out).Error
	return out, err
}

func (d *Database) Update(rec *TradeRecommendation) error {
	return d.db.Save(rec).Error
}

// CreateWithIdempotency creates a recommendation plus its strategy and fund
// links and an idempotency record in one transaction.
func (d *Database) CreateWithIdempotency(rec *TradeRecommendation, strategyIDs, fundIDs []int64, idempotencyKey string) error {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(rec).Error; err != nil {
		tx.Rollback()
		return err
	}

	for _, sid := range strategyIDs {
		if err := tx.Create(&RecommendationStrategy{RecommendationID: rec.ID, StrategyID: sid}).Error; err != nil {
			tx.Rollback()
			return err
		}
	}
	for _, fid := range fundIDs {
		if err := tx.Create(&RecommendationFund{RecommendationID: rec.ID, FundID: fid}).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	record := IdempotencyRecord{
		IdempotencyKey: idempotencyKey,
		ResourceID:     rec.ID,
		ResourceType:   "recommendation",
		ExpiresAt:      time.Now().Add(24 * time.Hour),
	}
	if err := tx.Create(&record).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// Delete removes a recommendation and its links in one transaction.
func (d *Database) Delete(id int64) error {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("recommendation_id = ?", id).Delete(&RecommendationStrategy{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Where("recommendation_id = ?", id).Delete(&RecommendationFund{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Delete(&TradeRecommendation{}, id).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// GetIdempotencyRecord retrieves an idempotency record by key
func (d *Database) GetIdempotencyRecord(key string) (*IdempotencyRecord, error) {
	var record IdempotencyRecord
	if err := d.db.Where("idempotency_key = ?", key).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (d *Database) StrategyIDs(recommendationID int64) ([]int64, error) {
	var links []RecommendationStrategy
	if err := d.db.Where("recommendation_id = ?", recommendationID).Order("id").Find(&links).Error; err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.StrategyID)
	}
	return ids, nil
}

func (d *Database) FundIDs(recommendationID int64) ([]int64, error) {
	var links []RecommendationFund
	if err := d.db.Where("recommendation_id = ?", recommendationID).Order("id").Find(&links).Error; err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.FundID)
	}
	return ids, nil
}

// CountByStatus returns recommendation counts grouped by workflow status.
func (d *Database) CountByStatus() (map[string]int64, error) {
	type row struct {
		Status string
		N      int64
	}
	var rows []row
	err := d.db.Model(&TradeRecommendation{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}

// CountByDirection returns recommendation counts grouped by trade direction.
func (d *Database) CountByDirection() (map[string]int64, error) {
	type row struct {
		TradeDirection string
		N              int64
	}
	var rows []row
	err := d.db.Model(&TradeRecommendation{}).
		Select("trade_direction, COUNT(*) AS n").
		Group("trade_direction").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.TradeDirection] = r.N
	}
	return out, nil
}
