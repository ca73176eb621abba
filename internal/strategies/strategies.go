package strategies

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/biocap/tradedesk-api/internal/types"
	"github.com/biocap/tradedesk-api/pkg/response"
)

// Service exposes the strategy catalog
type Service struct {
	db *Database
}

// NewService creates a new strategy service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{db: NewDatabase(gormDB)}
}

// List returns all active strategies
func (s *Service) List() ([]types.Strategy, error) {
	rows, err := s.db.List()
	if err != nil {
		return nil, err
	}
	out := make([]types.Strategy, 0, len(rows))
	for _, row := range rows {
		out = append(out, toResponse(row))
	}
	return out, nil
}

// Get returns the strategy with the given id, nil when absent
func (s *Service) Get(id int64) (*types.Strategy, error) {
	row, err := s.db.GetByID(id)
	if err != nil || row == nil {
		return nil, err
	}
	resp := toResponse(*row)
	return &resp, nil
}

// GetByIDs resolves a set of strategy ids to wire records
func (s *Service) GetByIDs(ids []int64) ([]types.Strategy, error) {
	rows, err := s.db.GetByIDs(ids)
	if err != nil {
		return nil, err
	}
	out := make([]types.Strategy, 0, len(rows))
	for _, row := range rows {
		out = append(out, toResponse(row))
	}
	return out, nil
}

func toResponse(s Strategy) types.Strategy {
	return types.Strategy{
		ID:              s.ID,
		Name:            s.Name,
		Description:     s.Description,
		IsActive:        s.IsActive,
		IsSystemDefault: s.IsSystemDefault,
	}
}

// GinHandlers contains HTTP handlers for strategy endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// ListHandler handles GET requests for the strategy catalog
func (h *GinHandlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := h.service.List()
		response.Handle(c, list, err)
	}
}

// GetHandler handles GET requests for a single strategy
// URL parameter: strategy_id
func (h *GinHandlers) GetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("strategy_id"), 10, 64)
		if err != nil {
			response.BadRequest(c, "Invalid strategy ID")
			return
		}

		strategy, err := h.service.Get(id)
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}
		if strategy == nil {
			response.NotFound(c, "Strategy not found")
			return
		}
		response.Success(c, strategy)
	}
}
