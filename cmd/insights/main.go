// Package main provides an operator CLI for generating insights offline.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Oliverpt-1/Thymos/internal/analytics"
	"github.com/Oliverpt-1/Thymos/internal/config"
	"github.com/Oliverpt-1/Thymos/internal/database"
	"github.com/Oliverpt-1/Thymos/internal/insights"
	"github.com/Oliverpt-1/Thymos/internal/logger"
	"github.com/Oliverpt-1/Thymos/internal/repository"
)

var (
	configFile string
	owner      string
	persist    bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVar(&owner, "owner", "", "User identifier to generate insights for")
	rootCmd.Flags().BoolVar(&persist, "persist", false, "Store the generated batch instead of only printing it")
	rootCmd.MarkFlagRequired("owner")
}

var rootCmd = &cobra.Command{
	Use:   "thymos-insights",
	Short: "Generate rule-based insights for a user directly against the database",
	Long: `Runs the aggregation and rule-based insight pipeline for one user without
going through the API. Useful for support and for inspecting what the
deterministic strategy would say about a journal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func run(ctx context.Context) error {
	cfg, err := config.LoadWithDefaults(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	appLog := logger.NewLogger("error")

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := database.Initialize(dbCtx, cfg)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		return err
	}

	trades, err := repos.Trade.GetByOwner(ctx, owner)
	if err != nil {
		return fmt.Errorf("failed to load trades: %w", err)
	}
	if len(trades) == 0 {
		return fmt.Errorf("no trades found for owner %s", owner)
	}

	data := analytics.Aggregate(trades)
	rules := insights.NewRuleBasedGenerator(cfg.Insights.PositionSizingThreshold)
	svc := insights.NewService(nil, rules, appLog)
	batch, _ := svc.Generate(ctx, data)

	fmt.Printf("Journal: %d trades (%d closed), win rate %.1f%%, total P/L $%.2f\n\n",
		data.TotalTrades, data.ClosedTrades, data.WinRate, data.TotalPL)
	for i, insight := range batch {
		fmt.Printf("%d. [%s/%s] %s\n   %s\n\n", i+1, insight.Type, insight.Severity, insight.Title, insight.Content)
	}

	if persist {
		now := time.Now().UTC()
		for i := range batch {
			batch[i].ID = uuid.New()
			batch[i].Owner = owner
			batch[i].CreatedAt = now
		}
		if err := repos.Insight.InsertBatch(ctx, batch); err != nil {
			return fmt.Errorf("failed to store insights: %w", err)
		}
		fmt.Printf("Stored %d insights for %s\n", len(batch), owner)
	}

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
