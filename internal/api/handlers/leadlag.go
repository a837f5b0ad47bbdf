package handlers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/leadlag-ai-go/internal/logging"
	"github.com/irfndi/leadlag-ai-go/internal/middleware"
	"github.com/irfndi/leadlag-ai-go/internal/models"
	"github.com/irfndi/leadlag-ai-go/internal/services"
	"github.com/irfndi/leadlag-ai-go/internal/utils"
)

// AnalysisRunner executes a lead-lag analysis request.
type AnalysisRunner interface {
	Run(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisReport, error)
}

// rankingCSVHeader is the column layout of the rankings export.
var rankingCSVHeader = []string{"Target", "Candidate", "Peak Correlation", "Best Lag (Days)", "Score", "Regime"}

type LeadLagHandler struct {
	runner  AnalysisRunner
	timeout time.Duration
	logger  logging.Logger
}

func NewLeadLagHandler(runner AnalysisRunner, timeout time.Duration, logger logging.Logger) *LeadLagHandler {
	if logger == nil {
		logger = logging.NewStandardLogger("info", "")
	}
	return &LeadLagHandler{
		runner:  runner,
		timeout: timeout,
		logger:  logger,
	}
}

// RunAnalysis runs the request synchronously and returns the JSON report
func (h *LeadLagHandler) RunAnalysis(c *gin.Context) {
	report, ok := h.run(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report)
}

// ExportRankingsCSV runs the request and returns the ranking as a CSV attachment
func (h *LeadLagHandler) ExportRankingsCSV(c *gin.Context) {
	report, ok := h.run(c)
	if !ok {
		return
	}
	if len(report.LeadLagRanking) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No rankings data available to export"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=analysis_rankings_%s.csv", report.RunID))
	c.Status(http.StatusOK)
	if err := WriteRankingsCSV(c.Writer, report.LeadLagRanking); err != nil {
		h.logger.WithError(err).Error("Failed to write rankings CSV", "run_id", report.RunID)
		return
	}
	h.logger.LogBusinessEvent("rankings_exported", map[string]interface{}{
		"run_id": report.RunID,
		"rows":   len(report.LeadLagRanking),
	})
}

// run binds the request, executes it and writes any error response. ok is false when a
// response has already been written.
func (h *LeadLagHandler) run(c *gin.Context) (*models.AnalysisReport, bool) {
	var req models.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return nil, false
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	start := time.Now()
	report, err := h.runner.Run(ctx, req)
	switch {
	case err == nil, errors.Is(err, services.ErrNoReturnData):
		middleware.AddSpanAttribute(c, "leadlag.run_id", report.RunID)
		middleware.AddSpanAttribute(c, "leadlag.pairs", len(report.LeadLagRanking))
		h.logger.LogAnalysisRun(report.RunID, len(report.LeadLagRanking), time.Since(start).Milliseconds())
		if len(report.LeadLagRanking) > 0 {
			top := report.LeadLagRanking[0]
			h.logger.WithPair(top.Target, top.Candidate).Info("Top ranked lead-lag pair",
				"run_id", report.RunID,
				"best_lag", top.BestLag,
				"score", top.Score,
			)
		}
		return report, true
	case utils.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		middleware.RecordError(c, err, "analysis timed out")
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Analysis timed out"})
	default:
		middleware.RecordError(c, err, "analysis failed")
		h.logger.WithOperation("leadlag.analysis").Error("Lead-lag analysis failed",
			"request_id", middleware.GetRequestID(c),
			"error", err.Error(),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to run analysis"})
	}
	return nil, false
}

// WriteRankingsCSV writes one line per ranked pair. Correlation and score use four decimals;
// an undefined regime is written as "Unknown".
func WriteRankingsCSV(w io.Writer, ranking []models.PairAnalysis) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rankingCSVHeader); err != nil {
		return err
	}
	for _, r := range ranking {
		regime := string(r.Regime)
		if !r.Regime.IsDefined() {
			regime = "Unknown"
		}
		record := []string{
			r.Target,
			r.Candidate,
			strconv.FormatFloat(r.PeakCorrelation, 'f', 4, 64),
			strconv.Itoa(r.BestLag),
			strconv.FormatFloat(r.Score, 'f', 4, 64),
			regime,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
