package recommendations

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/biocap/tradedesk-api/internal/auth"
	"github.com/biocap/tradedesk-api/internal/funds"
	"github.com/biocap/tradedesk-api/internal/securities"
	"github.com/biocap/tradedesk-api/internal/strategies"
	"github.com/biocap/tradedesk-api/internal/types"
	"github.com/biocap/tradedesk-api/pkg/response"
)

var (
	ErrNotFound      = errors.New("recommendation not found")
	ErrNotDraft      = errors.New("only draft recommendations can be modified")
	ErrNotOwner      = errors.New("recommendation belongs to another analyst")
	ErrPMRequired    = errors.New("portfolio manager role required")
	ErrBadTransition = errors.New("invalid status transition")
)

// ValidationError carries per-field validation messages for a 400 response.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// CreateRequest is the payload for creating a recommendation. New
// recommendations always start as drafts.
type CreateRequest struct {
	SecurityID       int64           `json:"security_id"`
	TradeDirection   string          `json:"trade_direction"`
	CurrentPrice     decimal.Decimal `json:"current_price"`
	TargetPrice      decimal.Decimal `json:"target_price"`
	TimeHorizon      string          `json:"time_horizon"`
	ExpectedExitDate *time.Time      `json:"expected_exit_date"`
	AnalystScore     int             `json:"analyst_score"`
	Notes            string          `json:"notes"`
	StrategyIDs      []int64         `json:"strategy_ids"`
	FundIDs          []int64         `json:"fund_ids"`
}

// UpdateRequest is the partial-update payload; nil fields are left unchanged.
type UpdateRequest struct {
	TradeDirection   *string          `json:"trade_direction"`
	CurrentPrice     *decimal.Decimal `json:"current_price"`
	TargetPrice      *decimal.Decimal `json:"target_price"`
	TimeHorizon      *string          `json:"time_horizon"`
	ExpectedExitDate *time.Time       `json:"expected_exit_date"`
	AnalystScore     *int             `json:"analyst_score"`
	Notes            *string          `json:"notes"`
}

// StatusRequest drives the workflow transition endpoint.
type StatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// Service handles the recommendation workflow: draft creation, editing,
// submission and PM disposition.
type Service struct {
	db         *Database
	securities *securities.Service
	strategies *strategies.Service
	funds      *funds.Service
}

// NewService creates a new recommendation service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db:         NewDatabase(gormDB),
		securities: securities.NewService(gormDB),
		strategies: strategies.NewService(gormDB),
		funds:      funds.NewService(gormDB),
	}
}

// List returns recommendations newest-first, optionally filtered by analyst
// or security.
func (s *Service) List(analystID, securityID int64) ([]types.Recommendation, error) {
	var (
		rows []TradeRecommendation
		err  error
	)
	switch {
	case analystID > 0:
		rows, err = s.db.ListByAnalyst(analystID)
	case securityID > 0:
		rows, err = s.db.ListBySecurity(securityID)
	default:
		rows, err = s.db.ListAll()
	}
	if err != nil {
		return nil, err
	}
	return s.assemble(rows)
}

// Drafts returns draft recommendations, optionally filtered by analyst.
func (s *Service) Drafts(analystID int64) ([]types.Recommendation, error) {
	rows, err := s.db.ListDrafts(analystID)
	if err != nil {
		return nil, err
	}
	return s.assemble(rows)
}

// Get returns a single recommendation with its related records.
func (s *Service) Get(id int64) (*types.Recommendation, error) {
	rec, err := s.db.GetByID(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	out, err := s.toResponse(*rec)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Create creates a new draft recommendation with idempotency support.
// A replayed idempotency key returns the originally created record.
func (s *Service) Create(req CreateRequest, analystID int64, idempotencyKey string) (*types.Recommendation, error) {
	record, err := s.db.GetIdempotencyRecord(idempotencyKey)
	if err != nil {
		return nil, err
	}
	if record != nil && record.ExpiresAt.After(time.Now()) {
		return s.Get(record.ResourceID)
	}

	if err := s.validateCreate(req); err != nil {
		return nil, err
	}

	now := time.Now()
	exit := now.Add(90 * 24 * time.Hour)
	if req.ExpectedExitDate != nil {
		exit = *req.ExpectedExitDate
	}

	rec := TradeRecommendation{
		AnalystID:        analystID,
		SecurityID:       req.SecurityID,
		TradeDirection:   req.TradeDirection,
		CurrentPrice:     req.CurrentPrice,
		TargetPrice:      req.TargetPrice,
		TimeHorizon:      req.TimeHorizon,
		ExpectedExitDate: exit,
		AnalystScore:     req.AnalystScore,
		Notes:            req.Notes,
		Status:           types.StatusDraft,
		IsDraft:          true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.db.CreateWithIdempotency(&rec, req.StrategyIDs, req.FundIDs, idempotencyKey); err != nil {
		return nil, err
	}

	log.Info().
		Int64("recommendation_id", rec.ID).
		Int64("analyst_id", analystID).
		Int64("security_id", rec.SecurityID).
		Str("direction", rec.TradeDirection).
		Msg("Recommendation created")

	return s.Get(rec.ID)
}

// Update applies a partial update. Only drafts owned by the calling analyst
// can be updated.
func (s *Service) Update(id int64, req UpdateRequest, analystID int64) (*types.Recommendation, error) {
	rec, err := s.db.GetByID(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	if !rec.IsDraft {
		return nil, ErrNotDraft
	}
	if analystID > 0 && rec.AnalystID != analystID {
		return nil, ErrNotOwner
	}

	fields := map[string]string{}
	if req.TradeDirection != nil {
		if !types.ValidDirection(*req.TradeDirection) {
			fields["trade_direction"] = "must be one of Buy, Sell, Sell Short, Cover Short"
		} else {
			rec.TradeDirection = *req.TradeDirection
		}
	}
	if req.TargetPrice != nil {
		if req.TargetPrice.Sign() <= 0 {
			fields["target_price"] = "must be positive"
		} else {
			rec.TargetPrice = *req.TargetPrice
		}
	}
	if req.CurrentPrice != nil {
		rec.CurrentPrice = *req.CurrentPrice
	}
	if req.TimeHorizon != nil {
		rec.TimeHorizon = *req.TimeHorizon
	}
	if req.ExpectedExitDate != nil {
		rec.ExpectedExitDate = *req.ExpectedExitDate
	}
	if req.AnalystScore != nil {
		if *req.AnalystScore < 0 || *req.AnalystScore > 10 {
			fields["analyst_score"] = "must be between 0 and 10"
		} else {
			rec.AnalystScore = *req.AnalystScore
		}
	}
	if req.Notes != nil {
		rec.Notes = *req.Notes
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	rec.UpdatedAt = time.Now()
	if err := s.db.Update(rec); err != nil {
		return nil, err
	}
	return s.Get(rec.ID)
}

// Delete removes a draft owned by the calling analyst. Submitted, approved
// and rejected records are immutable.
func (s *Service) Delete(id, analystID int64) error {
	rec, err := s.db.GetByID(id)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrNotFound
	}
	if !rec.IsDraft {
		return ErrNotDraft
	}
	if analystID > 0 && rec.AnalystID != analystID {
		return ErrNotOwner
	}
	return s.db.Delete(id)
}

// UpdateStatus drives the workflow: Draft -> Proposed (submission, clears
// is_draft), Proposed -> Approved/Rejected (PM disposition). Every
// transition advances updated_at.
func (s *Service) UpdateStatus(id int64, newStatus, notes string, actorID int64, actorRole string) (*types.Recommendation, error) {
	if !types.ValidStatus(newStatus) {
		return nil, &ValidationError{Fields: map[string]string{"status": "unknown status"}}
	}

	rec, err := s.db.GetByID(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotFound
	}

	switch {
	case rec.Status == types.StatusDraft && newStatus == types.StatusProposed:
		if actorID > 0 && rec.AnalystID != actorID {
			return nil, ErrNotOwner
		}
		rec.IsDraft = false
	case rec.Status == types.StatusProposed &&
		(newStatus == types.StatusApproved || newStatus == types.StatusRejected):
		if actorRole != auth.RolePM {
			return nil, ErrPMRequired
		}
		now := time.Now()
		rec.ApprovedBy = actorID
		rec.ApprovedAt = &now
		rec.ApprovalNotes = notes
	default:
		return nil, ErrBadTransition
	}

	rec.Status = newStatus
	rec.UpdatedAt = time.Now()
	if err := s.db.Update(rec); err != nil {
		return nil, err
	}

	log.Info().
		Int64("recommendation_id", rec.ID).
		Str("status", newStatus).
		Int64("actor_id", actorID).
		Msg("Recommendation status updated")

	return s.Get(rec.ID)
}

// SweepStaleDrafts deletes drafts untouched for longer than the retention
// period. Returns the number of drafts removed.
func (s *Service) SweepStaleDrafts(retention time.Duration) (int, error) {
	if retention <= 0 {
		return 0, nil
	}
	stale, err := s.db.ListStaleDrafts(time.Now().Add(-retention))
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, rec := range stale {
		if err := s.db.Delete(rec.ID); err != nil {
			return removed, err
		}
		removed++
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Msg("Stale drafts swept")
	}
	return removed, nil
}

// GetDB exposes the database wrapper for the dashboard aggregations.
func (s *Service) GetDB() *Database {
	return s.db
}

func (s *Service) validateCreate(req CreateRequest) error {
	fields := map[string]string{}

	if !types.ValidDirection(req.TradeDirection) {
		fields["trade_direction"] = "must be one of Buy, Sell, Sell Short, Cover Short"
	}
	if req.TargetPrice.Sign() <= 0 {
		fields["target_price"] = "must be positive"
	}
	if req.AnalystScore < 0 || req.AnalystScore > 10 {
		fields["analyst_score"] = "must be between 0 and 10"
	}
	if len(req.StrategyIDs) == 0 {
		fields["strategy_ids"] = "at least one strategy is required"
	}
	if len(req.FundIDs) == 0 {
		fields["fund_ids"] = "at least one fund is required"
	}

	if sec, err := s.securities.Get(req.SecurityID); err != nil {
		return err
	} else if sec == nil {
		fields["security_id"] = fmt.Sprintf("security %d not found", req.SecurityID)
	}

	if len(req.StrategyIDs) > 0 {
		found, err := s.strategies.GetByIDs(req.StrategyIDs)
		if err != nil {
			return err
		}
		if len(found) != len(req.StrategyIDs) {
			fields["strategy_ids"] = "one or more strategy IDs are invalid"
		}
	}

	if len(req.FundIDs) > 0 {
		found, err := s.funds.GetByIDs(req.FundIDs)
		if err != nil {
			return err
		}
		if len(found) != len(req.FundIDs) {
			fields["fund_ids"] = "one or more fund IDs are invalid"
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (s *Service) assemble(rows []TradeRecommendation) ([]types.Recommendation, error) {
	out := make([]types.Recommendation, 0, len(rows))
	for _, row := range rows {
		resp, err := s.toResponse(row)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

func (s *Service) toResponse(rec TradeRecommendation) (types.Recommendation, error) {
	out := types.Recommendation{
		ID:               rec.ID,
		AnalystID:        rec.AnalystID,
		SecurityID:       rec.SecurityID,
		TradeDirection:   rec.TradeDirection,
		CurrentPrice:     rec.CurrentPrice,
		TargetPrice:      rec.TargetPrice,
		TimeHorizon:      rec.TimeHorizon,
		ExpectedExitDate: rec.ExpectedExitDate,
		AnalystScore:     rec.AnalystScore,
		Notes:            rec.Notes,
		Status:           rec.Status,
		IsDraft:          rec.IsDraft,
		CreatedAt:        rec.CreatedAt,
		UpdatedAt:        rec.UpdatedAt,
		Funds:            []string{},
		Strategies:       []types.Strategy{},
	}

	if sec, err := s.securities.Get(rec.SecurityID); err != nil {
		return out, err
	} else if sec != nil {
		out.Security = sec
	}

	strategyIDs, err := s.db.StrategyIDs(rec.ID)
	if err != nil {
		return out, err
	}
	if strats, err := s.strategies.GetByIDs(strategyIDs); err != nil {
		return out, err
	} else if strats != nil {
		out.Strategies = strats
	}

	fundIDs, err := s.db.FundIDs(rec.ID)
	if err != nil {
		return out, err
	}
	for _, fid := range fundIDs {
		f, err := s.funds.Get(fid)
		if err != nil {
			return out, err
		}
		if f != nil {
			out.Funds = append(out.Funds, f.Name)
		}
	}

	return out, nil
}

// GinHandlers contains HTTP handlers for recommendation endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for recommendation endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// ListHandler handles GET requests for recommendations
// Optional query parameters: analyst_id, security_id
func (h *GinHandlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		analystID, _ := strconv.ParseInt(c.Query("analyst_id"), 10, 64)
		securityID, _ := strconv.ParseInt(c.Query("security_id"), 10, 64)

		list, err := h.service.List(analystID, securityID)
		response.Handle(c, list, err)
	}
}

// DraftsHandler handles GET requests for draft recommendations
func (h *GinHandlers) DraftsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		analystID, _ := strconv.ParseInt(c.Query("analyst_id"), 10, 64)

		list, err := h.service.Drafts(analystID)
		response.Handle(c, list, err)
	}
}

// GetHandler handles GET requests for a single recommendation
// URL parameter: recommendation_id
func (h *GinHandlers) GetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("recommendation_id"), 10, 64)
		if err != nil {
			response.BadRequest(c, "Invalid recommendation ID")
			return
		}

		rec, err := h.service.Get(id)
		h.respond(c, rec, err)
	}
}

// CreateHandler handles POST requests to create draft recommendations
// Requires a valid JWT token and idempotency key in headers
func (h *GinHandlers) CreateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		idempotencyKey := c.GetHeader("Idempotency-Key")
		if idempotencyKey == "" {
			response.BadRequest(c, "Idempotency-Key header is required")
			return
		}

		var req CreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		rec, err := h.service.Create(req, auth.AnalystID(c), idempotencyKey)
		h.respond(c, rec, err)
	}
}

// UpdateHandler handles PUT requests to update draft recommendations
// URL parameter: recommendation_id
func (h *GinHandlers) UpdateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("recommendation_id"), 10, 64)
		if err != nil {
			response.BadRequest(c, "Invalid recommendation ID")
			return
		}

		var req UpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		rec, err := h.service.Update(id, req, auth.AnalystID(c))
		h.respond(c, rec, err)
	}
}

// DeleteHandler handles DELETE requests for draft recommendations
// URL parameter: recommendation_id
func (h *GinHandlers) DeleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("recommendation_id"), 10, 64)
		if err != nil {
			response.BadRequest(c, "Invalid recommendation ID")
			return
		}

		if err := h.service.Delete(id, auth.AnalystID(c)); err != nil {
			h.respond(c, nil, err)
			return
		}
		response.Success(c, gin.H{"message": "Recommendation deleted successfully"})
	}
}

// StatusHandler handles PUT requests to transition workflow status
// URL parameter: recommendation_id
func (h *GinHandlers) StatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("recommendation_id"), 10, 64)
		if err != nil {
			response.BadRequest(c, "Invalid recommendation ID")
			return
		}

		var req StatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		rec, err := h.service.UpdateStatus(id, req.Status, req.Notes, auth.AnalystID(c), auth.Role(c))
		h.respond(c, rec, err)
	}
}

func (h *GinHandlers) respond(c *gin.Context, data interface{}, err error) {
	var vErr *ValidationError
	switch {
	case err == nil:
		response.Success(c, data)
	case errors.As(err, &vErr):
		response.ValidationFailed(c, "Validation failed", vErr.Fields)
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "Recommendation not found")
	case errors.Is(err, ErrNotDraft), errors.Is(err, ErrBadTransition):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrNotOwner), errors.Is(err, ErrPMRequired):
		response.Forbidden(c, err.Error())
	default:
		response.InternalError(c, err.Error())
	}
}
