package funds

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/biocap/tradedesk-api/internal/types"
	"github.com/biocap/tradedesk-api/pkg/response"
)

// Service exposes the fund catalog
type Service struct {
	db *Database
}

// NewService creates a new fund service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{db: NewDatabase(gormDB)}
}

// List returns all active funds
func (s *Service) List() ([]types.Fund, error) {
	rows, err := s.db.List()
	if err != nil {
		return nil, err
	}
	out := make([]types.Fund, 0, len(rows))
	for _, row := range rows {
		out = append(out, toResponse(row))
	}
	return out, nil
}

// Get returns the fund with the given id, nil when absent
func (s *Service) Get(id int64) (*types.Fund, error) {
	row, err := s.db.GetByID(id)
	if err != nil || row == nil {
		return nil, err
	}
	resp := toResponse(*row)
	return &resp, nil
}

// GetByIDs resolves a set of fund ids to wire records
func (s *Service) GetByIDs(ids []int64) ([]types.Fund, error) {
	rows, err := s.db.GetByIDs(ids)
	if err != nil {
		return nil, err
	}
	out := make([]types.Fund, 0, len(rows))
	for _, row := range rows {
		out = append(out, toResponse(row))
	}
	return out, nil
}

// GetByCode returns the fund with the given short code, nil when absent
func (s *Service) GetByCode(code string) (*types.Fund, error) {
	row, err := s.db.GetByCode(code)
	if err != nil || row == nil {
		return nil, err
	}
	resp := toResponse(*row)
	return &resp, nil
}

func toResponse(f Fund) types.Fund {
	return types.Fund{
		ID:       f.ID,
		Code:     f.Code,
		Name:     f.Name,
		IsActive: f.IsActive,
	}
}

// GinHandlers contains HTTP handlers for fund endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// ListHandler handles GET requests for the fund catalog
func (h *GinHandlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := h.service.List()
		response.Handle(c, list, err)
	}
}

// GetHandler handles GET requests for a single fund
// URL parameter: fund_id
func (h *GinHandlers) GetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("fund_id"), 10, 64)
		if err != nil {
			response.BadRequest(c, "Invalid fund ID")
			return
		}

		fund, err := h.service.Get(id)
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}
		if fund == nil {
			response.NotFound(c, "Fund not found")
			return
		}
		response.Success(c, fund)
	}
}

// GetByCodeHandler handles GET requests for a fund by short code
// URL parameter: code
func (h *GinHandlers) GetByCodeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Param("code")
		if code == "" {
			response.BadRequest(c, "Fund code is required")
			return
		}

		fund, err := h.service.GetByCode(code)
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}
		if fund == nil {
			response.NotFound(c, "Fund not found")
			return
		}
		response.Success(c, fund)
	}
}
