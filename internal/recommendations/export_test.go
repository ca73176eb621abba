package recommendations

import "time"

// Backdate rewinds a recommendation's updated_at so retention behaviour can
// be exercised from tests.
func (s *Service) Backdate(id int64, to time.Time) error {
	return s.db.db.Model(&TradeRecommendation{}).
		Where("id = ?", id).
		Update("updated_at", to).Error
}
