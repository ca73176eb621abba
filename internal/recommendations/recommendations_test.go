package recommendations_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biocap/tradedesk-api/internal/auth"
	"github.com/biocap/tradedesk-api/internal/database"
	"github.com/biocap/tradedesk-api/internal/recommendations"
	"github.com/biocap/tradedesk-api/internal/types"
)

const (
	analystID      = int64(1)
	otherAnalystID = int64(7)
	pmID           = int64(2)
)

func newTestService(t *testing.T) *recommendations.Service {
	t.Helper()
	db, err := database.NewDatabase(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	return recommendations.NewService(db)
}

func createRequest() recommendations.CreateRequest {
	return recommendations.CreateRequest{
		SecurityID:     1,
		TradeDirection: types.DirectionBuy,
		CurrentPrice:   decimal.RequireFromString("122.45"),
		TargetPrice:    decimal.RequireFromString("180.00"),
		TimeHorizon:    "6 months",
		AnalystScore:   8,
		Notes:          "Strong pipeline",
		StrategyIDs:    []int64{1},
		FundIDs:        []int64{1},
	}
}

func mustCreate(t *testing.T, s *recommendations.Service, key string) *types.Recommendation {
	t.Helper()
	rec, err := s.Create(createRequest(), analystID, key)
	require.NoError(t, err)
	return rec
}

func TestCreateStartsAsDraft(t *testing.T) {
	s := newTestService(t)

	rec := mustCreate(t, s, "key-1")
	assert.Equal(t, types.StatusDraft, rec.Status)
	assert.True(t, rec.IsDraft)
	assert.Equal(t, analystID, rec.AnalystID)
	require.NotNil(t, rec.Security)
	assert.NotEmpty(t, rec.Security.Ticker)
	require.Len(t, rec.Strategies, 1)
	require.Len(t, rec.Funds, 1)
	// Default exit date is 90 days out when none is given
	assert.WithinDuration(t, time.Now().Add(90*24*time.Hour), rec.ExpectedExitDate, time.Minute)
}

func TestCreateIsIdempotent(t *testing.T) {
	s := newTestService(t)

	first := mustCreate(t, s, "same-key")
	second, err := s.Create(createRequest(), analystID, "same-key")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	all, err := s.List(0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreateValidation(t *testing.T) {
	s := newTestService(t)

	cases := []struct {
		name   string
		mutate func(*recommendations.CreateRequest)
		field  string
	}{
		{"bad direction", func(r *recommendations.CreateRequest) { r.TradeDirection = "Hold" }, "trade_direction"},
		{"zero target", func(r *recommendations.CreateRequest) { r.TargetPrice = decimal.Zero }, "target_price"},
		{"score out of range", func(r *recommendations.CreateRequest) { r.AnalystScore = 11 }, "analyst_score"},
		{"no strategies", func(r *recommendations.CreateRequest) { r.StrategyIDs = nil }, "strategy_ids"},
		{"no funds", func(r *recommendations.CreateRequest) { r.FundIDs = nil }, "fund_ids"},
		{"unknown fund", func(r *recommendations.CreateRequest) { r.FundIDs = []int64{9999} }, "fund_ids"},
		{"unknown strategy", func(r *recommendations.CreateRequest) { r.StrategyIDs = []int64{9999} }, "strategy_ids"},
		{"unknown security", func(r *recommendations.CreateRequest) { r.SecurityID = 9999 }, "security_id"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := createRequest()
			tc.mutate(&req)
			_, err := s.Create(req, analystID, "key-"+tc.name)
			var vErr *recommendations.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.Fields, tc.field)
		})
	}

	// No records were created along the way
	all, err := s.List(0, 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpdateDraft(t *testing.T) {
	s := newTestService(t)
	rec := mustCreate(t, s, "key-1")

	target := decimal.RequireFromString("210.00")
	updated, err := s.Update(rec.ID, recommendations.UpdateRequest{TargetPrice: &target}, analystID)
	require.NoError(t, err)
	assert.True(t, target.Equal(updated.TargetPrice))
	// Untouched fields survive partial updates
	assert.Equal(t, rec.TradeDirection, updated.TradeDirection)
}

func TestUpdateRejectsOtherAnalyst(t *testing.T) {
	s := newTestService(t)
	rec := mustCreate(t, s, "key-1")

	notes := "hijack"
	_, err := s.Update(rec.ID, recommendations.UpdateRequest{Notes: &notes}, otherAnalystID)
	assert.ErrorIs(t, err, recommendations.ErrNotOwner)
}

func TestUpdateRejectsNonDraft(t *testing.T) {
	s := newTestService(t)
	rec := mustCreate(t, s, "key-1")

	_, err := s.UpdateStatus(rec.ID, types.StatusProposed, "", analystID, auth.RoleAnalyst)
	require.NoError(t, err)

	notes := "too late"
	_, err = s.Update(rec.ID, recommendations.UpdateRequest{Notes: &notes}, analystID)
	assert.ErrorIs(t, err, recommendations.ErrNotDraft)
}

func TestDeleteDraftOnly(t *testing.T) {
	s := newTestService(t)
	rec := mustCreate(t, s, "key-1")

	require.ErrorIs(t, s.Delete(rec.ID, otherAnalystID), recommendations.ErrNotOwner)
	require.NoError(t, s.Delete(rec.ID, analystID))

	_, err := s.Get(rec.ID)
	assert.ErrorIs(t, err, recommendations.ErrNotFound)

	assert.ErrorIs(t, s.Delete(rec.ID, analystID), recommendations.ErrNotFound)
}

func TestWorkflowTransitions(t *testing.T) {
	s := newTestService(t)
	rec := mustCreate(t, s, "key-1")

	// Draft -> Proposed by the analyst
	proposed, err := s.UpdateStatus(rec.ID, types.StatusProposed, "", analystID, auth.RoleAnalyst)
	require.NoError(t, err)
	assert.Equal(t, types.StatusProposed, proposed.Status)
	assert.False(t, proposed.IsDraft)

	// Approval requires the pm role
	_, err = s.UpdateStatus(rec.ID, types.StatusApproved, "", analystID, auth.RoleAnalyst)
	require.ErrorIs(t, err, recommendations.ErrPMRequired)

	approved, err := s.UpdateStatus(rec.ID, types.StatusApproved, "Looks good", pmID, auth.RolePM)
	require.NoError(t, err)
	assert.Equal(t, types.StatusApproved, approved.Status)

	// Approved is terminal
	_, err = s.UpdateStatus(rec.ID, types.StatusProposed, "", analystID, auth.RoleAnalyst)
	assert.ErrorIs(t, err, recommendations.ErrBadTransition)
}

func TestSubmitRequiresOwnership(t *testing.T) {
	s := newTestService(t)
	rec := mustCreate(t, s, "key-1")

	_, err := s.UpdateStatus(rec.ID, types.StatusProposed, "", otherAnalystID, auth.RoleAnalyst)
	assert.ErrorIs(t, err, recommendations.ErrNotOwner)
}

func TestRejectTransition(t *testing.T) {
	s := newTestService(t)
	rec := mustCreate(t, s, "key-1")

	_, err := s.UpdateStatus(rec.ID, types.StatusProposed, "", analystID, auth.RoleAnalyst)
	require.NoError(t, err)

	rejected, err := s.UpdateStatus(rec.ID, types.StatusRejected, "Thesis not convincing", pmID, auth.RolePM)
	require.NoError(t, err)
	assert.Equal(t, types.StatusRejected, rejected.Status)
}

func TestListNewestFirstWithFilters(t *testing.T) {
	s := newTestService(t)

	first := mustCreate(t, s, "key-1")
	time.Sleep(10 * time.Millisecond)

	req := createRequest()
	req.SecurityID = 2
	second, err := s.Create(req, otherAnalystID, "key-2")
	require.NoError(t, err)

	all, err := s.List(0, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)

	mine, err := s.List(analystID, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].ID)

	bySecurity, err := s.List(0, 2)
	require.NoError(t, err)
	require.Len(t, bySecurity, 1)
	assert.Equal(t, second.ID, bySecurity[0].ID)
}

func TestDraftsListing(t *testing.T) {
	s := newTestService(t)

	draft := mustCreate(t, s, "key-1")
	submitted := mustCreate(t, s, "key-2")
	_, err := s.UpdateStatus(submitted.ID, types.StatusProposed, "", analystID, auth.RoleAnalyst)
	require.NoError(t, err)

	drafts, err := s.Drafts(analystID)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, draft.ID, drafts[0].ID)
}

func TestSweepStaleDrafts(t *testing.T) {
	s := newTestService(t)

	stale := mustCreate(t, s, "key-1")
	mustCreate(t, s, "key-2")

	// Age the first draft past the retention window
	old := time.Now().Add(-120 * 24 * time.Hour)
	require.NoError(t, s.Backdate(stale.ID, old))

	removed, err := s.SweepStaleDrafts(90 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	drafts, err := s.Drafts(0)
	require.NoError(t, err)
	assert.Len(t, drafts, 1)

	// Zero retention disables the sweep
	removed, err = s.SweepStaleDrafts(0)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
