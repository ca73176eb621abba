package securities

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/biocap/tradedesk-api/internal/types"
	"github.com/biocap/tradedesk-api/pkg/response"
)

// Service exposes the security catalog and ticker search
type Service struct {
	db *Database
}

// NewService creates a new securities service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{db: NewDatabase(gormDB)}
}

// List returns all active securities
func (s *Service) List() ([]types.Security, error) {
	rows, err := s.db.List()
	if err != nil {
		return nil, err
	}
	return toResponses(rows), nil
}

// Get returns the security with the given id, nil when absent
func (s *Service) Get(id int64) (*types.Security, error) {
	row, err := s.db.GetByID(id)
	if err != nil || row == nil {
		return nil, err
	}
	resp := toResponse(*row)
	return &resp, nil
}

// GetByTicker returns the security with the given ticker, nil when absent
func (s *Service) GetByTicker(ticker string) (*types.Security, error) {
	row, err := s.db.GetByTicker(ticker)
	if err != nil || row == nil {
		return nil, err
	}
	resp := toResponse(*row)
	return &resp, nil
}

// Search matches securities by ticker or name substring
func (s *Service) Search(query string) ([]types.Security, error) {
	rows, err := s.db.Search(query)
	if err != nil {
		return nil, err
	}
	return toResponses(rows), nil
}

func toResponse(s Security) types.Security {
	return types.Security{
		ID:           s.ID,
		Ticker:       s.Ticker,
		Name:         s.Name,
		SourceType:   s.SourceType,
		IsActive:     s.IsActive,
		CurrentPrice: s.CurrentPrice,
	}
}

func toResponses(rows []Security) []types.Security {
	out := make([]types.Security, 0, len(rows))
	for _, row := range rows {
		out = append(out, toResponse(row))
	}
	return out
}

// GinHandlers contains HTTP handlers for security endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// ListHandler handles GET requests for the security catalog
func (h *GinHandlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := h.service.List()
		response.Handle(c, list, err)
	}
}

// GetHandler handles GET requests for a single security
// URL parameter: security_id
func (h *GinHandlers) GetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("security_id"), 10, 64)
		if err != nil {
			response.BadRequest(c, "Invalid security ID")
			return
		}

		security, err := h.service.Get(id)
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}
		if security == nil {
			response.NotFound(c, "Security not found")
			return
		}
		response.Success(c, security)
	}
}

// GetByTickerHandler handles GET requests for a security by ticker
// URL parameter: ticker
func (h *GinHandlers) GetByTickerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ticker := strings.TrimSpace(c.Param("ticker"))
		if ticker == "" {
			response.BadRequest(c, "Ticker is required")
			return
		}

		security, err := h.service.GetByTicker(ticker)
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}
		if security == nil {
			response.NotFound(c, "Security not found")
			return
		}
		response.Success(c, security)
	}
}

// SearchHandler handles GET requests to search securities
// Query parameter: query
func (h *GinHandlers) SearchHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		query := strings.TrimSpace(c.Query("query"))
		if query == "" {
			response.BadRequest(c, "Query parameter is required")
			return
		}

		list, err := h.service.Search(query)
		response.Handle(c, list, err)
	}
}
