// Package client is a typed client for the tradedesk REST API. Read
// requests are retried up to three times with backoff; authorization
// failures are never retried. Every API failure surfaces as an *APIError.
package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/biocap/tradedesk-api/internal/auth"
	"github.com/biocap/tradedesk-api/internal/types"
)

// APIError carries the HTTP status and the error payload of a failed call.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

// Client wraps the REST API behind typed methods.
type Client struct {
	http *resty.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// WithRetryWait overrides the retry backoff window.
func WithRetryWait(min, max time.Duration) Option {
	return func(c *Client) {
		c.http.SetRetryWaitTime(min)
		c.http.SetRetryMaxWaitTime(max)
	}
}

// New creates a client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	r := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			if resp == nil {
				return false
			}
			// Never retry auth failures
			if resp.StatusCode() == http.StatusUnauthorized {
				return false
			}
			return resp.StatusCode() >= http.StatusInternalServerError
		})

	c := &Client{http: r}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken installs a bearer token for subsequent requests.
func (c *Client) SetToken(token string) {
	c.http.SetAuthToken(token)
}

// Login exchanges API credentials for a JWT and installs it on the client.
func (c *Client) Login(apiKey, apiSecret string) (*auth.TokenResponse, error) {
	var out auth.TokenResponse
	err := c.call(c.http.R().SetBody(auth.Credentials{APIKey: apiKey, APISecret: apiSecret}),
		http.MethodPost, "/api/v1/auth/token", &out)
	if err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// CreateRecommendationRequest is the POST /recommendations payload.
type CreateRecommendationRequest struct {
	SecurityID       int64           `json:"security_id"`
	TradeDirection   string          `json:"trade_direction"`
	CurrentPrice     decimal.Decimal `json:"current_price"`
	TargetPrice      decimal.Decimal `json:"target_price"`
	TimeHorizon      string          `json:"time_horizon"`
	ExpectedExitDate *time.Time      `json:"expected_exit_date,omitempty"`
	AnalystScore     int             `json:"analyst_score"`
	Notes            string          `json:"notes,omitempty"`
	StrategyIDs      []int64         `json:"strategy_ids"`
	FundIDs          []int64         `json:"fund_ids"`
}

// UpdateRecommendationRequest is the partial PUT /recommendations payload.
type UpdateRecommendationRequest struct {
	TradeDirection   *string          `json:"trade_direction,omitempty"`
	CurrentPrice     *decimal.Decimal `json:"current_price,omitempty"`
	TargetPrice      *decimal.Decimal `json:"target_price,omitempty"`
	TimeHorizon      *string          `json:"time_horizon,omitempty"`
	ExpectedExitDate *time.Time       `json:"expected_exit_date,omitempty"`
	AnalystScore     *int             `json:"analyst_score,omitempty"`
	Notes            *string          `json:"notes,omitempty"`
}

// Recommendations lists recommendations, optionally filtered by analyst or
// security.
func (c *Client) Recommendations(analystID, securityID int64) ([]types.Recommendation, error) {
	req := c.http.R()
	if analystID > 0 {
		req.SetQueryParam("analyst_id", strconv.FormatInt(analystID, 10))
	}
	if securityID > 0 {
		req.SetQueryParam("security_id", strconv.FormatInt(securityID, 10))
	}
	var out []types.Recommendation
	return out, c.call(req, http.MethodGet, "/api/v1/recommendations", &out)
}

// DraftRecommendations lists draft recommendations.
func (c *Client) DraftRecommendations() ([]types.Recommendation, error) {
	var out []types.Recommendation
	return out, c.call(c.http.R(), http.MethodGet, "/api/v1/recommendations/drafts", &out)
}

// Recommendation fetches a single recommendation.
func (c *Client) Recommendation(id int64) (*types.Recommendation, error) {
	var out types.Recommendation
	err := c.call(c.http.R(), http.MethodGet, fmt.Sprintf("/api/v1/recommendations/%d", id), &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateRecommendation creates a new draft recommendation. An idempotency
// key is generated for the request.
func (c *Client) CreateRecommendation(req CreateRecommendationRequest) (*types.Recommendation, error) {
	var out types.Recommendation
	r := c.http.R().
		SetHeader("Idempotency-Key", uuid.New().String()).
		SetBody(req)
	if err := c.call(r, http.MethodPost, "/api/v1/recommendations", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateRecommendation applies a partial update to a draft.
func (c *Client) UpdateRecommendation(id int64, req UpdateRecommendationRequest) (*types.Recommendation, error) {
	var out types.Recommendation
	r := c.http.R().SetBody(req)
	if err := c.call(r, http.MethodPut, fmt.Sprintf("/api/v1/recommendations/%d", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteRecommendation deletes a draft.
func (c *Client) DeleteRecommendation(id int64) error {
	return c.call(c.http.R(), http.MethodDelete, fmt.Sprintf("/api/v1/recommendations/%d", id), nil)
}

// UpdateStatus transitions a recommendation through the workflow.
func (c *Client) UpdateStatus(id int64, status, notes string) (*types.Recommendation, error) {
	var out types.Recommendation
	r := c.http.R().SetBody(map[string]string{"status": status, "notes": notes})
	if err := c.call(r, http.MethodPut, fmt.Sprintf("/api/v1/recommendations/%d/status", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Strategies lists the strategy catalog.
func (c *Client) Strategies() ([]types.Strategy, error) {
	var out []types.Strategy
	return out, c.call(c.http.R(), http.MethodGet, "/api/v1/strategies", &out)
}

// Securities lists the security catalog.
func (c *Client) Securities() ([]types.Security, error) {
	var out []types.Security
	return out, c.call(c.http.R(), http.MethodGet, "/api/v1/securities", &out)
}

// SearchSecurities matches securities by ticker or name substring.
func (c *Client) SearchSecurities(query string) ([]types.Security, error) {
	var out []types.Security
	req := c.http.R().SetQueryParam("query", query)
	return out, c.call(req, http.MethodGet, "/api/v1/securities/search", &out)
}

// SecurityByTicker fetches a security by its exact ticker.
func (c *Client) SecurityByTicker(ticker string) (*types.Security, error) {
	var out types.Security
	if err := c.call(c.http.R(), http.MethodGet, "/api/v1/securities/ticker/"+ticker, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Funds lists the fund catalog.
func (c *Client) Funds() ([]types.Fund, error) {
	var out []types.Fund
	return out, c.call(c.http.R(), http.MethodGet, "/api/v1/funds", &out)
}

// FundByCode fetches a fund by its short code.
func (c *Client) FundByCode(code string) (*types.Fund, error) {
	var out types.Fund
	if err := c.call(c.http.R(), http.MethodGet, "/api/v1/funds/code/"+code, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

// call executes the request and decodes the response envelope into out.
func (c *Client) call(req *resty.Request, method, path string, out interface{}) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return fmt.Errorf("%s %s: decoding response: %w", method, path, err)
	}

	if resp.StatusCode() >= 400 || !env.Success {
		apiErr := &APIError{
			Status:  resp.StatusCode(),
			Code:    "UNKNOWN",
			Message: http.StatusText(resp.StatusCode()),
		}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.Details = env.Error.Details
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s %s: decoding payload: %w", method, path, err)
	}
	return nil
}
