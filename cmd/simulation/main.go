package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/biocap/tradedesk-api/internal/auth"
	"github.com/biocap/tradedesk-api/internal/dashboard"
	"github.com/biocap/tradedesk-api/internal/database"
	"github.com/biocap/tradedesk-api/internal/funds"
	"github.com/biocap/tradedesk-api/internal/recommendations"
	"github.com/biocap/tradedesk-api/internal/securities"
	"github.com/biocap/tradedesk-api/internal/strategies"
	"github.com/biocap/tradedesk-api/internal/types"
	"github.com/biocap/tradedesk-api/pkg/client"
	"github.com/biocap/tradedesk-api/pkg/middleware"
)

const (
	minRecommendations = 15
	maxRecommendations = 60
	numAnalysts        = 5
	serverAddress      = "http://localhost:8080"
	jwtSecret          = "tradedesk-secret-key"
)

var directions = []string{
	types.DirectionBuy,
	types.DirectionSell,
	types.DirectionSellShort,
	types.DirectionCoverShort,
}

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	// Configure pretty logging
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// routeStats tracks performance statistics for an API endpoint
type routeStats struct {
	name       string
	mu         sync.Mutex
	durations  []time.Duration
	totalCalls int
	failures   int
}

// record captures a duration measurement and the call outcome
func (rs *routeStats) record(d time.Duration, err error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.durations = append(rs.durations, d)
	rs.totalCalls++
	if err != nil {
		rs.failures++
	}
}

// calculate computes performance statistics from recorded durations
// Returns min, max, mean, median, 95th percentile, and 99th percentile durations
func (rs *routeStats) calculate() (min, max, mean, median, p95, p99 time.Duration) {
	if len(rs.durations) == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	// Sort durations for percentile calculations
	sort.Slice(rs.durations, func(i, j int) bool {
		return rs.durations[i] < rs.durations[j]
	})

	min = rs.durations[0]
	max = rs.durations[len(rs.durations)-1]

	// Calculate mean
	var sum time.Duration
	for _, d := range rs.durations {
		sum += d
	}
	mean = sum / time.Duration(len(rs.durations))

	// Calculate median
	median = rs.durations[len(rs.durations)/2]

	// Calculate percentiles
	p95idx := int(math.Ceil(float64(len(rs.durations))*0.95)) - 1
	p99idx := int(math.Ceil(float64(len(rs.durations))*0.99)) - 1
	p95 = rs.durations[p95idx]
	p99 = rs.durations[p99idx]

	return
}

// statsTable groups per-endpoint stats for the whole simulation run
type statsTable struct {
	routes map[string]*routeStats
}

func newStatsTable() *statsTable {
	return &statsTable{
		routes: map[string]*routeStats{
			"auth":    {name: "Authentication"},
			"create":  {name: "Create Draft"},
			"update":  {name: "Update Draft"},
			"submit":  {name: "Submit Draft"},
			"approve": {name: "Approve"},
			"reject":  {name: "Reject"},
			"delete":  {name: "Delete Draft"},
			"catalog": {name: "Catalog Lookup"},
		},
	}
}

// timed runs fn and records its duration against the named route
func (st *statsTable) timed(route string, fn func() error) error {
	start := time.Now()
	err := fn()
	st.routes[route].record(time.Since(start), err)
	return err
}

// print outputs formatted performance statistics for all API endpoints
func (st *statsTable) print() {
	fmt.Println("\nAPI Performance Statistics")
	fmt.Println(strings.Repeat("-", 100))
	fmt.Printf("%-20s %10s %10s %10s %10s %10s %10s %10s %10s\n",
		"Endpoint", "Calls", "Errors", "Min", "Max", "Mean", "Median", "P95", "P99")
	fmt.Println(strings.Repeat("-", 100))

	for _, stats := range st.routes {
		min, max, mean, median, p95, p99 := stats.calculate()
		fmt.Printf("%-20s %10d %10d %10s %10s %10s %10s %10s %10s\n",
			stats.name,
			stats.totalCalls,
			stats.failures,
			min.Round(time.Millisecond),
			max.Round(time.Millisecond),
			mean.Round(time.Millisecond),
			median.Round(time.Millisecond),
			p95.Round(time.Millisecond),
			p99.Round(time.Millisecond))
	}
	fmt.Println(strings.Repeat("-", 100))
}

// main runs the recommendation workflow simulation
// It starts a local API server, drives concurrent analyst clients through
// the draft/submit workflow and a PM client through disposition
func main() {
	// Start the server in a goroutine
	go func() {
		if err := startServer(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for server to start
	time.Sleep(2 * time.Second)

	stats := newStatsTable()

	// Authenticate the analyst client
	analystClient := client.New(serverAddress)
	err := stats.timed("auth", func() error {
		_, err := analystClient.Login(auth.TestAnalystKey, auth.TestAnalystSecret)
		return err
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Analyst authentication failed")
	}

	// Authenticate the PM client
	pmClient := client.New(serverAddress)
	err = stats.timed("auth", func() error {
		_, err := pmClient.Login(auth.TestPMKey, auth.TestPMSecret)
		return err
	})
	if err != nil {
		log.Fatal().Err(err).Msg("PM authentication failed")
	}

	// Load catalogs through the cached lookup layer
	lookups := client.NewLookups(analystClient, 10*time.Minute)
	var (
		securityList []types.Security
		strategyList []types.Strategy
		fundList     []types.Fund
	)
	err = stats.timed("catalog", func() error {
		var err error
		if securityList, err = lookups.Securities(); err != nil {
			return err
		}
		if strategyList, err = lookups.Strategies(); err != nil {
			return err
		}
		fundList, err = lookups.Funds()
		return err
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load catalogs")
	}

	targetRecs := rand.Intn(maxRecommendations-minRecommendations) + minRecommendations
	log.Info().Int("target_recommendations", targetRecs).Msg("Starting simulation")

	// Channel to collect created recommendation IDs
	recsChan := make(chan int64, targetRecs)
	var wg sync.WaitGroup

	// Start analyst worker goroutines
	for i := 0; i < numAnalysts; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			createDrafts(workerID, targetRecs/numAnalysts, analystClient, stats,
				securityList, strategyList, fundList, recsChan)
		}(i)
	}

	// Wait for all drafts to be created
	wg.Wait()
	close(recsChan)

	var recIDs []int64
	for id := range recsChan {
		recIDs = append(recIDs, id)
	}

	log.Info().Int("drafts_created", len(recIDs)).Msg("All drafts created")

	summary := struct {
		TotalDrafts  int
		Submitted    int
		Approved     int
		Rejected     int
		Deleted      int
		FailedSubmit int
		FailedReview int
		StartTime    time.Time
		Tickers      map[string]int
		Directions   map[string]int
	}{
		StartTime:  time.Now(),
		Tickers:    make(map[string]int),
		Directions: make(map[string]int),
	}
	summary.TotalDrafts = len(recIDs)

	// Submit most drafts for approval; delete the rest to exercise the
	// draft lifecycle
	var proposed []int64
	for _, id := range recIDs {
		if rand.Intn(10) == 0 {
			err := stats.timed("delete", func() error {
				return analystClient.DeleteRecommendation(id)
			})
			if err != nil {
				log.Error().Err(err).Int64("recommendation_id", id).Msg("Failed to delete draft")
				continue
			}
			summary.Deleted++
			continue
		}

		var rec *types.Recommendation
		err := stats.timed("submit", func() error {
			var err error
			rec, err = analystClient.UpdateStatus(id, types.StatusProposed, "")
			return err
		})
		if err != nil {
			log.Error().Err(err).Int64("recommendation_id", id).Msg("Failed to submit draft")
			summary.FailedSubmit++
			continue
		}
		proposed = append(proposed, id)
		summary.Submitted++
		summary.Tickers[rec.Security.Ticker]++
		summary.Directions[rec.TradeDirection]++

		log.Info().
			Int64("recommendation_id", id).
			Str("ticker", rec.Security.Ticker).
			Str("direction", rec.TradeDirection).
			Msg("Draft submitted for approval")
	}

	// PM disposition pass: approve roughly three out of four
	for _, id := range proposed {
		approve := rand.Intn(4) != 0
		route, status, notes := "approve", types.StatusApproved, "Looks good"
		if !approve {
			route, status, notes = "reject", types.StatusRejected, "Thesis not convincing"
		}

		var rec *types.Recommendation
		err := stats.timed(route, func() error {
			var err error
			rec, err = pmClient.UpdateStatus(id, status, notes)
			return err
		})
		if err != nil {
			log.Error().Err(err).Int64("recommendation_id", id).Msg("Failed to review recommendation")
			summary.FailedReview++
			continue
		}
		if approve {
			summary.Approved++
		} else {
			summary.Rejected++
		}

		log.Info().
			Int64("recommendation_id", id).
			Str("ticker", rec.Security.Ticker).
			Str("status", rec.Status).
			Msg("Recommendation reviewed")
	}

	// Print summary
	duration := time.Since(summary.StartTime)
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("RECOMMENDATION WORKFLOW SIMULATION SUMMARY")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Printf(`
Workflow Statistics
-------------------
Total Drafts:    %d
Submitted:       %d
Approved:        %d
Rejected:        %d
Deleted:         %d
Failed Submit:   %d
Failed Review:   %d
Duration:        %v

Ticker Distribution
-------------------
`, summary.TotalDrafts, summary.Submitted, summary.Approved, summary.Rejected,
		summary.Deleted, summary.FailedSubmit, summary.FailedReview,
		duration.Round(time.Millisecond))

	// Print ticker distribution with simple ASCII bar chart
	maxTickerCount := 0
	for _, count := range summary.Tickers {
		if count > maxTickerCount {
			maxTickerCount = count
		}
	}

	for ticker, count := range summary.Tickers {
		barLength := int(float64(count) / float64(maxTickerCount) * 20)
		bar := strings.Repeat("#", barLength)
		fmt.Printf("%-6s: %s (%d)\n", ticker, bar, count)
	}

	fmt.Println("\nDirection Distribution")
	fmt.Println("----------------------")
	for direction, count := range summary.Directions {
		barLength := int(float64(count) / float64(summary.Submitted) * 20)
		bar := strings.Repeat("#", barLength)
		fmt.Printf("%-12s: %s (%d)\n", direction, bar, count)
	}

	fmt.Println("\n" + strings.Repeat("=", 80))

	approvalRate := 0.0
	if summary.Submitted > 0 {
		approvalRate = float64(summary.Approved) / float64(summary.Submitted) * 100
	}
	log.Info().
		Float64("approval_rate", approvalRate).
		Int("total_drafts", summary.TotalDrafts).
		Int("approved", summary.Approved).
		Dur("duration", duration).
		Msg("Simulation completed")

	stats.print()
}

// createDrafts generates and submits random draft recommendations
// Runs as a worker goroutine, sending created IDs to recsChan
func createDrafts(
	workerID, numDrafts int,
	apiClient *client.Client,
	stats *statsTable,
	securityList []types.Security,
	strategyList []types.Strategy,
	fundList []types.Fund,
	recsChan chan<- int64,
) {
	for i := 0; i < numDrafts; i++ {
		security := securityList[rand.Intn(len(securityList))]
		direction := directions[rand.Intn(len(directions))]
		current := security.CurrentPrice
		if current.IsZero() {
			current = decimal.NewFromInt(int64(rand.Intn(400) + 20))
		}
		// Target within +-30% of current
		drift := decimal.NewFromFloat(0.7 + rand.Float64()*0.6)
		target := current.Mul(drift).Round(2)

		req := client.CreateRecommendationRequest{
			SecurityID:     security.ID,
			TradeDirection: direction,
			CurrentPrice:   current,
			TargetPrice:    target,
			TimeHorizon:    fmt.Sprintf("%d months", rand.Intn(11)+1),
			AnalystScore:   rand.Intn(5) + 5,
			Notes:          fmt.Sprintf("%s recommendation for %s", direction, security.Ticker),
			StrategyIDs:    []int64{strategyList[rand.Intn(len(strategyList))].ID},
			FundIDs:        []int64{fundList[rand.Intn(len(fundList))].ID},
		}

		var rec *types.Recommendation
		err := stats.timed("create", func() error {
			var err error
			rec, err = apiClient.CreateRecommendation(req)
			return err
		})
		if err != nil {
			log.Error().Err(err).
				Int("worker_id", workerID).
				Str("ticker", security.Ticker).
				Msg("Failed to create draft")
			continue
		}

		// Occasionally revise the draft before submission
		if rand.Intn(3) == 0 {
			revised := target.Mul(decimal.NewFromFloat(1.05)).Round(2)
			err := stats.timed("update", func() error {
				_, err := apiClient.UpdateRecommendation(rec.ID, client.UpdateRecommendationRequest{
					TargetPrice: &revised,
				})
				return err
			})
			if err != nil {
				log.Error().Err(err).
					Int64("recommendation_id", rec.ID).
					Msg("Failed to update draft")
			}
		}

		recsChan <- rec.ID
		log.Info().
			Int("worker_id", workerID).
			Int64("recommendation_id", rec.ID).
			Str("ticker", security.Ticker).
			Str("direction", direction).
			Str("target_price", target.String()).
			Msg("Draft created")

		// Random sleep between drafts
		time.Sleep(time.Duration(rand.Intn(500)) * time.Millisecond)
	}
}

// startServer initializes and starts the recommendation API server
// Sets up all required services, handlers and routes
func startServer() error {
	// Initialize database
	db, err := database.NewDatabase("file:simulation?mode=memory&cache=shared")
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize services
	authService := auth.NewService(jwtSecret, 24*time.Hour)
	recommendationService := recommendations.NewService(db)

	// Register test credentials
	authService.RegisterAPICredentials(auth.TestAnalystKey, auth.TestAnalystSecret, 1, auth.RoleAnalyst)
	authService.RegisterAPICredentials(auth.TestPMKey, auth.TestPMSecret, 2, auth.RolePM)

	// Initialize router
	router := gin.Default()
	authHandlers := auth.NewGinHandlers(authService)
	recommendationHandlers := recommendations.NewGinHandlers(recommendationService)
	strategyHandlers := strategies.NewGinHandlers(strategies.NewService(db))
	securityHandlers := securities.NewGinHandlers(securities.NewService(db))
	fundHandlers := funds.NewGinHandlers(funds.NewService(db))
	dashboardHandlers := dashboard.NewGinHandlers(dashboard.NewService(db))

	// Setup routes
	setupRoutes(router, authHandlers, recommendationHandlers,
		strategyHandlers, securityHandlers, fundHandlers, dashboardHandlers)

	// Start the server
	return router.Run(":8080")
}

// setupRoutes configures all API endpoints and their handlers
// Groups routes by functionality and applies appropriate middleware
func setupRoutes(
	router *gin.Engine,
	authHandlers *auth.GinHandlers,
	recommendationHandlers *recommendations.GinHandlers,
	strategyHandlers *strategies.GinHandlers,
	securityHandlers *securities.GinHandlers,
	fundHandlers *funds.GinHandlers,
	dashboardHandlers *dashboard.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/token", authHandlers.GenerateTokenHandler())
		}

		// Recommendation routes
		recs := v1.Group("/recommendations")
		recs.Use(middleware.JWTAuth(jwtSecret))
		{
			recs.GET("", recommendationHandlers.ListHandler())
			recs.GET("/drafts", recommendationHandlers.DraftsHandler())
			recs.GET("/:recommendation_id", recommendationHandlers.GetHandler())
			recs.POST("", recommendationHandlers.CreateHandler())
			recs.PUT("/:recommendation_id", recommendationHandlers.UpdateHandler())
			recs.DELETE("/:recommendation_id", recommendationHandlers.DeleteHandler())
			recs.PUT("/:recommendation_id/status", recommendationHandlers.StatusHandler())
		}

		// Catalog routes
		catalogs := v1.Group("")
		catalogs.Use(middleware.JWTAuth(jwtSecret))
		{
			catalogs.GET("/strategies", strategyHandlers.ListHandler())
			catalogs.GET("/strategies/:strategy_id", strategyHandlers.GetHandler())
			catalogs.GET("/securities", securityHandlers.ListHandler())
			catalogs.GET("/securities/search", securityHandlers.SearchHandler())
			catalogs.GET("/securities/ticker/:ticker", securityHandlers.GetByTickerHandler())
			catalogs.GET("/securities/:security_id", securityHandlers.GetHandler())
			catalogs.GET("/funds", fundHandlers.ListHandler())
			catalogs.GET("/funds/code/:code", fundHandlers.GetByCodeHandler())
			catalogs.GET("/funds/:fund_id", fundHandlers.GetHandler())
			catalogs.GET("/dashboard/performance", dashboardHandlers.PerformanceHandler())
			catalogs.GET("/dashboard/exposure", dashboardHandlers.ExposureHandler())
			catalogs.GET("/dashboard/statistics", middleware.RequireRole(auth.RolePM), dashboardHandlers.StatisticsHandler())
		}
	}
}
