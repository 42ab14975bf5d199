// Package main provides the entry point for the Thymos insight service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Oliverpt-1/Thymos/internal/auth"
	"github.com/Oliverpt-1/Thymos/internal/config"
	"github.com/Oliverpt-1/Thymos/internal/database"
	"github.com/Oliverpt-1/Thymos/internal/insights"
	"github.com/Oliverpt-1/Thymos/internal/logger"
	"github.com/Oliverpt-1/Thymos/internal/metrics"
	"github.com/Oliverpt-1/Thymos/internal/repository"
	"github.com/Oliverpt-1/Thymos/internal/scheduler"
	"github.com/Oliverpt-1/Thymos/internal/server"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var configFile string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
}

var rootCmd = &cobra.Command{
	Use:   "thymos-server",
	Short: "Trading journal insight service",
	Long:  `Serves the trading-journal API: trade CRUD, analytics aggregation and AI-assisted insight generation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func run() error {
	cfg, err := config.LoadWithDefaults(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	appLog := logger.NewLogger(cfg.App.LogLevel)
	appLog.WithFields(logrus.Fields{
		"version":     Version,
		"commit":      GitCommit,
		"environment": cfg.App.Environment,
	}).Info("Thymos insight service starting")

	metrics.InitRegistry()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := database.Initialize(dbCtx, cfg)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	appLog.Info("Database connection established")

	repos, err := repository.NewRepositories(db)
	if err != nil {
		return err
	}

	verifier := auth.NewHTTPVerifier(&cfg.Auth, appLog)

	var remote insights.Generator
	if cfg.RemoteGenerationEnabled() {
		remote = insights.NewOpenAIGenerator(insights.OpenAIConfig{
			APIKey:            cfg.OpenAI.APIKey,
			BaseURL:           cfg.OpenAI.BaseURL,
			Model:             cfg.OpenAI.Model,
			TimeoutSeconds:    cfg.OpenAI.TimeoutSeconds,
			RequestsPerMinute: cfg.OpenAI.RequestsPerMinute,
		}, appLog)
		appLog.WithField("model", cfg.OpenAI.Model).Info("Remote insight generation enabled")
	} else {
		appLog.Info("No text-generation API key configured, using rule-based insights only")
	}
	rules := insights.NewRuleBasedGenerator(cfg.Insights.PositionSizingThreshold)
	insightSvc := insights.NewService(remote, rules, appLog)

	retention := scheduler.NewRetentionScheduler(repos.Insight, cfg.Insights.RetentionDays, appLog)
	if err := retention.Schedule(cfg.Insights.RetentionSchedule); err != nil {
		return err
	}
	retention.Start()
	defer retention.Stop()

	api := server.New(server.Options{
		Config:         cfg.Server,
		Repositories:   repos,
		Verifier:       verifier,
		Insights:       insightSvc,
		DB:             db,
		Logger:         appLog,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsPath:    cfg.Metrics.Path,
	})

	if err := api.Start(ctx); err != nil {
		return fmt.Errorf("API server failed: %w", err)
	}

	appLog.Info("Thymos insight service stopped")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
