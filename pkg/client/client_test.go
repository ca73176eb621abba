package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biocap/tradedesk-api/internal/types"
)

func writeEnvelope(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": status < 400,
		"data":    data,
	})
}

func writeError(w http.ResponseWriter, status int, code, message string, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

func fastClient(baseURL string) *Client {
	return New(baseURL, WithRetryWait(time.Millisecond, 5*time.Millisecond))
}

func TestRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "boom", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, []types.Strategy{{ID: 1, Name: "Earnings"}})
	}))
	defer srv.Close()

	strategies, err := fastClient(srv.URL).Strategies()
	require.NoError(t, err)
	require.Len(t, strategies, 1)
	assert.Equal(t, "Earnings", strategies[0].Name)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDoesNotRetryUnauthorized(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token", nil)
	}))
	defer srv.Close()

	_, err := fastClient(srv.URL).Strategies()
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "UNAUTHORIZED", apiErr.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAPIErrorCarriesDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed",
			map[string]string{"target_price": "must be greater than zero"})
	}))
	defer srv.Close()

	_, err := fastClient(srv.URL).DraftRecommendations()
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	assert.Equal(t, "must be greater than zero", apiErr.Details["target_price"])
}

func TestLoginInstallsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/token":
			writeEnvelope(w, http.StatusOK, map[string]interface{}{
				"jwt_token":  "test-token",
				"expiration": time.Now().Add(time.Hour),
			})
		case "/api/v1/funds":
			require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			writeEnvelope(w, http.StatusOK, []types.Fund{{ID: 1, Code: "BGT", Name: "BioTech Growth Fund"}})
		default:
			writeError(w, http.StatusNotFound, "NOT_FOUND", "no route", nil)
		}
	}))
	defer srv.Close()

	c := fastClient(srv.URL)
	token, err := c.Login("key", "secret")
	require.NoError(t, err)
	assert.Equal(t, "test-token", token.Token)

	funds, err := c.Funds()
	require.NoError(t, err)
	require.Len(t, funds, 1)
}

func TestCreateRecommendationSendsIdempotencyKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NotEmpty(t, r.Header.Get("Idempotency-Key"))
		writeEnvelope(w, http.StatusCreated, types.Recommendation{ID: 6, Status: types.StatusDraft})
	}))
	defer srv.Close()

	rec, err := fastClient(srv.URL).CreateRecommendation(CreateRecommendationRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(6), rec.ID)
}

func TestLookupsCacheUntilStale(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeEnvelope(w, http.StatusOK, []types.Strategy{{ID: 1, Name: "Earnings"}})
	}))
	defer srv.Close()

	lookups := NewLookups(fastClient(srv.URL), time.Minute)

	for i := 0; i < 3; i++ {
		strategies, err := lookups.Strategies()
		require.NoError(t, err)
		require.Len(t, strategies, 1)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	lookups.Invalidate()
	_, err := lookups.Strategies()
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestLookupsExpireAfterTTL(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeEnvelope(w, http.StatusOK, []types.Fund{{ID: 1, Code: "BGT", Name: "BioTech Growth Fund"}})
	}))
	defer srv.Close()

	lookups := NewLookups(fastClient(srv.URL), 20*time.Millisecond)

	_, err := lookups.Funds()
	require.NoError(t, err)
	time.Sleep(40 * time.Millisecond)
	_, err = lookups.Funds()
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestOptionLabels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/securities":
			writeEnvelope(w, http.StatusOK, []types.Security{{ID: 1, Ticker: "MRNA", Name: "Moderna Inc."}})
		case "/api/v1/funds":
			writeEnvelope(w, http.StatusOK, []types.Fund{{ID: 1, Code: "BGT", Name: "BioTech Growth Fund"}})
		default:
			writeError(w, http.StatusNotFound, "NOT_FOUND", "no route", nil)
		}
	}))
	defer srv.Close()

	lookups := NewLookups(fastClient(srv.URL), time.Minute)

	secs, err := lookups.SecurityOptions()
	require.NoError(t, err)
	require.Len(t, secs, 1)
	assert.Equal(t, "MRNA - Moderna Inc.", secs[0].Label)
	assert.Equal(t, "MRNA", secs[0].Value)

	funds, err := lookups.FundOptions()
	require.NoError(t, err)
	assert.Equal(t, "BGT - BioTech Growth Fund", funds[0].Label)
	assert.Equal(t, "BioTech Growth Fund", funds[0].Value)

	directions := DirectionOptions()
	require.Len(t, directions, 4)
	assert.Equal(t, types.DirectionBuy, directions[0].Value)
}
