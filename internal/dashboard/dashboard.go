package dashboard

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/biocap/tradedesk-api/internal/recommendations"
	"github.com/biocap/tradedesk-api/pkg/response"
)

// PerformanceSummary is the analyst performance card payload.
type PerformanceSummary struct {
	YTD          float64       `json:"ytd"`
	FYTD         float64       `json:"fytd"`
	HitRate      float64       `json:"hit_rate"`
	SharpeRatio  float64       `json:"sharpe_ratio"`
	Sortino      float64       `json:"sortino"`
	MaxDrawdown  float64       `json:"max_drawdown"`
	WinLoss      float64       `json:"win_loss"`
	BestTrade    TradeHighlight `json:"best_trade"`
	WorstTrade   TradeHighlight `json:"worst_trade"`
}

// TradeHighlight names a single best/worst trade on the performance card.
type TradeHighlight struct {
	Ticker string  `json:"ticker"`
	PnL    float64 `json:"pnl"`
	Date   string  `json:"date"`
}

// ExposureSlice is one segment of an exposure breakdown.
type ExposureSlice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Exposure groups the portfolio exposure breakdowns rendered as charts.
type Exposure struct {
	Sector            []ExposureSlice `json:"sector"`
	BiotechSubsectors []ExposureSlice `json:"biotech_subsectors"`
	Geography         []ExposureSlice `json:"geography"`
	MarketCap         []ExposureSlice `json:"market_cap"`
	FactorExposure    []ExposureSlice `json:"factor_exposure"`
}

// Statistics summarizes the recommendation book by workflow state and
// direction.
type Statistics struct {
	Total       int64            `json:"total"`
	Pending     int64            `json:"pending"`
	ByStatus    map[string]int64 `json:"by_status"`
	ByDirection map[string]int64 `json:"by_direction"`
}

// Service produces dashboard payloads. Performance and exposure come from
// the analytics snapshot; statistics are computed live from the
// recommendation book.
type Service struct {
	db *recommendations.Database
}

// NewService creates a new dashboard service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{db: recommendations.NewDatabase(gormDB)}
}

// Performance returns the current analyst performance snapshot.
func (s *Service) Performance() PerformanceSummary {
	return performanceSnapshot
}

// ExposureBreakdown returns the current portfolio exposure snapshot.
func (s *Service) ExposureBreakdown() Exposure {
	return exposureSnapshot
}

// Statistics aggregates the recommendation book.
func (s *Service) Statistics() (*Statistics, error) {
	byStatus, err := s.db.CountByStatus()
	if err != nil {
		return nil, err
	}
	byDirection, err := s.db.CountByDirection()
	if err != nil {
		return nil, err
	}

	var total int64
	for _, n := range byStatus {
		total += n
	}

	return &Statistics{
		Total:       total,
		Pending:     byStatus["Proposed"],
		ByStatus:    byStatus,
		ByDirection: byDirection,
	}, nil
}

// GinHandlers contains HTTP handlers for dashboard endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// PerformanceHandler handles GET requests for the performance summary
func (h *GinHandlers) PerformanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, h.service.Performance())
	}
}

// ExposureHandler handles GET requests for exposure breakdowns
func (h *GinHandlers) ExposureHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, h.service.ExposureBreakdown())
	}
}

// StatisticsHandler handles GET requests for recommendation book statistics
func (h *GinHandlers) StatisticsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := h.service.Statistics()
		response.Handle(c, stats, err)
	}
}
