package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/irfndi/leadlag-ai-go/internal/cache"
	"github.com/irfndi/leadlag-ai-go/internal/config"
	"github.com/irfndi/leadlag-ai-go/internal/database"
	"github.com/irfndi/leadlag-ai-go/internal/logging"
	"github.com/irfndi/leadlag-ai-go/internal/models"
	"github.com/irfndi/leadlag-ai-go/internal/services"
	"github.com/irfndi/leadlag-ai-go/internal/utils"
)

// emptyReportJSON is printed when the analysis cannot run at all.
const emptyReportJSON = `{"correlations":{},"lead_lag_rankings":[]}`

func main() {
	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "leadlag",
		Short:         "Rolling lead-lag discovery across asset returns",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.AddCommand(newAnalyzeCmd(stdout, stderr))
	return root
}

func newAnalyzeCmd(stdout, stderr io.Writer) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "analyze [request-json]",
		Short: "Rank candidate assets that lead the targets and print the JSON report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_, err := fmt.Fprintln(stdout, "[]")
				return err
			}

			report, err := runAnalyze(cmd.Context(), args[0], input, stderr)
			if err != nil && !errors.Is(err, services.ErrNoReturnData) {
				errLogger := logrus.New()
				errLogger.SetOutput(stderr)
				errLogger.WithError(err).Error("Fatal error")
				fmt.Fprintln(stdout, emptyReportJSON)
				return err
			}
			return json.NewEncoder(stdout).Encode(report)
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "read a return matrix JSON file instead of the price database")
	return cmd
}

// runAnalyze decodes the request and runs it against either the matrix file or the
// configured price database.
func runAnalyze(ctx context.Context, requestJSON, inputPath string, stderr io.Writer) (*models.AnalysisReport, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := logging.NewLogrusLogger(cfg.LogLevel, stderr)

	var req models.AnalysisRequest
	if err := json.Unmarshal([]byte(requestJSON), &req); err != nil {
		return nil, utils.NewValidationErrorf("invalid request json: %v", err)
	}

	if inputPath != "" {
		matrix, err := loadReturnMatrix(inputPath)
		if err != nil {
			return nil, err
		}
		return services.NewLeadLagService(nil, cfg.Analysis, logger).RunMatrix(ctx, matrix, req)
	}

	db, err := database.NewPostgresConnection(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	var source services.PriceSource = services.NewBreakerPriceSource(
		services.NewPostgresPriceSource(db, logger),
		services.NewCircuitBreaker("postgres-prices", services.CircuitBreakerConfig{}, logger),
	)
	if cfg.Redis.Enabled {
		redisClient, err := database.NewRedisConnection(cfg.Redis)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, series cache disabled")
		} else {
			defer redisClient.Close()
			ttl, _ := cfg.Cache.TTL()
			source = cache.NewRedisSeriesCache(redisClient.Client, source, ttl, logger)
		}
	}

	return services.NewLeadLagService(source, cfg.Analysis, logger).Run(ctx, req)
}

func loadReturnMatrix(path string) (*models.ReturnMatrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read return matrix: %w", err)
	}
	var matrix models.ReturnMatrix
	if err := json.Unmarshal(data, &matrix); err != nil {
		return nil, fmt.Errorf("failed to decode return matrix: %w", err)
	}
	if matrix.Columns == nil {
		matrix.Columns = make(map[string][]float64)
	}
	if err := matrix.Validate(); err != nil {
		return nil, fmt.Errorf("invalid return matrix: %w", err)
	}
	return &matrix, nil
}
