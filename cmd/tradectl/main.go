// tradectl is a command line client for the tradedesk API. It signs in
// with API credentials and drives the recommendation workflow from the
// terminal.
package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/biocap/tradedesk-api/internal/types"
	"github.com/biocap/tradedesk-api/pkg/client"
)

var (
	serverURL string
	apiKey    string
	apiSecret string

	createTicker    string
	createDirection string
	createCurrent   string
	createTarget    string
	createHorizon   string
	createScore     int
	createNotes     string
	createStrategy  []int64
	createFunds     []int64

	reviewNotes string
	searchQuery string
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "tradectl",
		Short:         "Command line client for the tradedesk recommendation API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("TRADEDESK_SERVER", "http://localhost:8080"), "API base URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", os.Getenv("TRADEDESK_API_KEY"), "API key")
	rootCmd.PersistentFlags().StringVar(&apiSecret, "api-secret", os.Getenv("TRADEDESK_API_SECRET"), "API secret")

	rootCmd.AddCommand(
		loginCmd(),
		listCmd(),
		draftsCmd(),
		getCmd(),
		createCmd(),
		submitCmd(),
		approveCmd(),
		rejectCmd(),
		deleteCmd(),
		strategiesCmd(),
		securitiesCmd(),
		fundsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// login authenticates and returns a ready client. Every workflow command
// goes through it.
func login() (*client.Client, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("api credentials required: set --api-key/--api-secret or TRADEDESK_API_KEY/TRADEDESK_API_SECRET")
	}
	c := client.New(serverURL)
	if _, err := c.Login(apiKey, apiSecret); err != nil {
		return nil, err
	}
	return c, nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid recommendation id %q", arg)
	}
	return id, nil
}

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Exchange API credentials for a JWT and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if apiKey == "" || apiSecret == "" {
				return fmt.Errorf("api credentials required")
			}
			c := client.New(serverURL)
			token, err := c.Login(apiKey, apiSecret)
			if err != nil {
				return err
			}
			fmt.Println(token.Token)
			fmt.Fprintf(os.Stderr, "expires %s\n", token.Expiration.Format(time.RFC3339))
			return nil
		},
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List trade recommendations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := login()
			if err != nil {
				return err
			}
			recs, err := c.Recommendations(0, 0)
			if err != nil {
				return err
			}
			printRecommendations(recs)
			return nil
		},
	}
}

func draftsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drafts",
		Short: "List draft recommendations",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := login()
			if err != nil {
				return err
			}
			recs, err := c.DraftRecommendations()
			if err != nil {
				return err
			}
			printRecommendations(recs)
			return nil
		},
	}
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a single recommendation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := login()
			if err != nil {
				return err
			}
			rec, err := c.Recommendation(id)
			if err != nil {
				return err
			}
			printRecommendation(*rec)
			return nil
		},
	}
}

func createCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft recommendation",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := login()
			if err != nil {
				return err
			}

			current, err := decimal.NewFromString(createCurrent)
			if err != nil {
				return fmt.Errorf("invalid current price %q", createCurrent)
			}
			target, err := decimal.NewFromString(createTarget)
			if err != nil {
				return fmt.Errorf("invalid target price %q", createTarget)
			}

			// Resolve the ticker to a security id
			security, err := c.SecurityByTicker(createTicker)
			if err != nil {
				var apiErr *client.APIError
				if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
					return fmt.Errorf("unknown ticker %q", createTicker)
				}
				return err
			}

			rec, err := c.CreateRecommendation(client.CreateRecommendationRequest{
				SecurityID:     security.ID,
				TradeDirection: createDirection,
				CurrentPrice:   current,
				TargetPrice:    target,
				TimeHorizon:    createHorizon,
				AnalystScore:   createScore,
				Notes:          createNotes,
				StrategyIDs:    createStrategy,
				FundIDs:        createFunds,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Created draft %d for %s\n", rec.ID, rec.Security.Ticker)
			return nil
		},
	}

	cmd.Flags().StringVar(&createTicker, "ticker", "", "security ticker (required)")
	cmd.Flags().StringVar(&createDirection, "direction", types.DirectionBuy, "trade direction")
	cmd.Flags().StringVar(&createCurrent, "current-price", "", "current price (required)")
	cmd.Flags().StringVar(&createTarget, "target-price", "", "target price (required)")
	cmd.Flags().StringVar(&createHorizon, "horizon", "3 months", "time horizon")
	cmd.Flags().IntVar(&createScore, "score", 5, "analyst conviction score, 0-10")
	cmd.Flags().StringVar(&createNotes, "notes", "", "free-form notes")
	cmd.Flags().Int64SliceVar(&createStrategy, "strategy", nil, "strategy id (repeatable, required)")
	cmd.Flags().Int64SliceVar(&createFunds, "fund", nil, "fund id (repeatable, required)")
	_ = cmd.MarkFlagRequired("ticker")
	_ = cmd.MarkFlagRequired("current-price")
	_ = cmd.MarkFlagRequired("target-price")
	_ = cmd.MarkFlagRequired("strategy")
	_ = cmd.MarkFlagRequired("fund")

	return cmd
}

func statusCommand(use, short, status string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := login()
			if err != nil {
				return err
			}
			rec, err := c.UpdateStatus(id, status, reviewNotes)
			if err != nil {
				return err
			}
			fmt.Printf("Recommendation %d is now %s\n", rec.ID, rec.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&reviewNotes, "notes", "", "review notes")
	return cmd
}

func submitCmd() *cobra.Command {
	return statusCommand("submit", "Submit a draft for approval", types.StatusProposed)
}

func approveCmd() *cobra.Command {
	return statusCommand("approve", "Approve a proposed recommendation (pm role)", types.StatusApproved)
}

func rejectCmd() *cobra.Command {
	return statusCommand("reject", "Reject a proposed recommendation (pm role)", types.StatusRejected)
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a draft recommendation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := login()
			if err != nil {
				return err
			}
			if err := c.DeleteRecommendation(id); err != nil {
				return err
			}
			fmt.Printf("Deleted draft %d\n", id)
			return nil
		},
	}
}

func strategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List the strategy catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := login()
			if err != nil {
				return err
			}
			strategies, err := c.Strategies()
			if err != nil {
				return err
			}
			for _, s := range strategies {
				fmt.Printf("%4d  %s\n", s.ID, s.Name)
			}
			return nil
		},
	}
}

func securitiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "securities",
		Short: "List or search the security catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := login()
			if err != nil {
				return err
			}
			var (
				securities []types.Security
			)
			if searchQuery != "" {
				securities, err = c.SearchSecurities(searchQuery)
			} else {
				securities, err = c.Securities()
			}
			if err != nil {
				return err
			}
			for _, s := range securities {
				fmt.Printf("%4d  %-6s %-30s %s\n", s.ID, s.Ticker, s.Name, s.CurrentPrice.StringFixed(2))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&searchQuery, "search", "", "filter by ticker or name substring")
	return cmd
}

func fundsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "funds",
		Short: "List the fund catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := login()
			if err != nil {
				return err
			}
			funds, err := c.Funds()
			if err != nil {
				return err
			}
			for _, f := range funds {
				fmt.Printf("%4d  %-4s %s\n", f.ID, f.Code, f.Name)
			}
			return nil
		},
	}
}

func printRecommendations(recs []types.Recommendation) {
	if len(recs) == 0 {
		fmt.Println("No recommendations found.")
		return
	}
	fmt.Printf("%4s  %-6s %-12s %-10s %10s %10s  %s\n",
		"ID", "Ticker", "Direction", "Status", "Current", "Target", "Horizon")
	for _, r := range recs {
		ticker := ""
		if r.Security != nil {
			ticker = r.Security.Ticker
		}
		fmt.Printf("%4d  %-6s %-12s %-10s %10s %10s  %s\n",
			r.ID, ticker, r.TradeDirection, r.Status,
			r.CurrentPrice.StringFixed(2), r.TargetPrice.StringFixed(2), r.TimeHorizon)
	}
}

func printRecommendation(r types.Recommendation) {
	ticker, name := "", ""
	if r.Security != nil {
		ticker, name = r.Security.Ticker, r.Security.Name
	}
	fmt.Printf("Recommendation %d\n", r.ID)
	fmt.Printf("  Security:   %s (%s)\n", ticker, name)
	fmt.Printf("  Direction:  %s\n", r.TradeDirection)
	fmt.Printf("  Status:     %s\n", r.Status)
	fmt.Printf("  Current:    %s\n", r.CurrentPrice.StringFixed(2))
	fmt.Printf("  Target:     %s\n", r.TargetPrice.StringFixed(2))
	fmt.Printf("  Horizon:    %s\n", r.TimeHorizon)
	fmt.Printf("  Exit by:    %s\n", r.ExpectedExitDate.Format("2006-01-02"))
	fmt.Printf("  Score:      %d\n", r.AnalystScore)
	if len(r.Strategies) > 0 {
		names := make([]string, 0, len(r.Strategies))
		for _, s := range r.Strategies {
			names = append(names, s.Name)
		}
		fmt.Printf("  Strategies: %s\n", strings.Join(names, ", "))
	}
	if len(r.Funds) > 0 {
		fmt.Printf("  Funds:      %s\n", strings.Join(r.Funds, ", "))
	}
	if r.Notes != "" {
		fmt.Printf("  Notes:      %s\n", r.Notes)
	}
}
