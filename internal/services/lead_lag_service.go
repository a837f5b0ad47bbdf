package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/irfndi/leadlag-ai-go/internal/config"
	"github.com/irfndi/leadlag-ai-go/internal/metrics"
	"github.com/irfndi/leadlag-ai-go/internal/models"
	"github.com/irfndi/leadlag-ai-go/internal/telemetry"
	"github.com/irfndi/leadlag-ai-go/internal/utils"
)

// ErrNoReturnData is returned together with an empty report when no return could be computed
// for the requested assets and dates.
var ErrNoReturnData = errors.New("no return data for the requested assets")

// DateLayout is the request date format.
const DateLayout = "2006-01-02"

// Reasons a pair is left out of the ranking.
const (
	skipMissingSeries    = "missing_series"
	skipSelfPair         = "self_pair"
	skipInsufficientData = "insufficient_data"
)

// LeadLagService runs the full lead-lag pipeline: price loading, return alignment, regime
// labelling, per-pair rolling search, scoring and ranking.
type LeadLagService struct {
	source     PriceSource
	cfg        config.AnalysisConfig
	logger     *logrus.Logger
	tracer     trace.Tracer
	classifier *RegimeClassifier
	now        func() time.Time
}

// analysisParams is a validated request with defaults applied.
type analysisParams struct {
	targets       []string
	candidates    []string
	start         time.Time
	end           time.Time
	maxLag        int
	rollingWindow int
	walkForward   bool
}

type pairJob struct {
	target    string
	candidate string
}

// NewLeadLagService creates a pipeline service reading prices from source.
func NewLeadLagService(source PriceSource, cfg config.AnalysisConfig, logger *logrus.Logger) *LeadLagService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.RegimeWindow < 2 {
		cfg.RegimeWindow = DefaultRegimeWindow
	}
	if cfg.SampleStride < 1 {
		cfg.SampleStride = DefaultSampleStride
	}
	if cfg.MaxWorkers < 1 {
		ro := NewResourceOptimizer(context.Background(), ResourceOptimizerConfig{}, logger)
		cfg.MaxWorkers = ro.WorkerLimit()
		ro.LogSelection(cfg.MaxWorkers)
	}
	if cfg.DefaultLookbackDays < 1 {
		cfg.DefaultLookbackDays = 365
	}
	return &LeadLagService{
		source:     source,
		cfg:        cfg,
		logger:     logger,
		tracer:     telemetry.Tracer("leadlag-service"),
		classifier: NewRegimeClassifier(),
		now:        time.Now,
	}
}

// Run loads prices for the request and returns the ranked report. When no returns can be
// computed the report is empty and the error is ErrNoReturnData.
func (s *LeadLagService) Run(ctx context.Context, req models.AnalysisRequest) (report *models.AnalysisReport, err error) {
	started := time.Now()
	defer func() { metrics.ObserveAnalysis(started, ignoreNoData(err)) }()

	params, err := s.resolve(req)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "leadlag.run", trace.WithAttributes(
		attribute.Int("leadlag.targets", len(params.targets)),
		attribute.Int("leadlag.candidates", len(params.candidates)),
	))
	defer span.End()

	if s.source == nil {
		return nil, errors.New("price source is not configured")
	}
	prices, err := s.source.GetCloseSeries(ctx, unionSymbols(params.targets, params.candidates), params.start, params.end)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to load price series: %w", err)
	}

	return s.analyze(ctx, BuildReturnMatrix(prices), params)
}

// RunMatrix ranks the request's pairs over an already built return matrix. Request dates
// are validated but not used to slice the matrix.
func (s *LeadLagService) RunMatrix(ctx context.Context, matrix *models.ReturnMatrix, req models.AnalysisRequest) (report *models.AnalysisReport, err error) {
	started := time.Now()
	defer func() { metrics.ObserveAnalysis(started, ignoreNoData(err)) }()

	params, err := s.resolve(req)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "leadlag.run_matrix")
	defer span.End()

	return s.analyze(ctx, matrix, params)
}

func (s *LeadLagService) analyze(ctx context.Context, matrix *models.ReturnMatrix, params analysisParams) (*models.AnalysisReport, error) {
	report := s.newReport(params)
	if matrix.Empty() {
		s.logger.WithFields(logrus.Fields{
			"run_id":  report.RunID,
			"targets": params.targets,
		}).Warn("No return data available for analysis")
		return report, ErrNoReturnData
	}
	report.Observations = matrix.Len()

	regimeAsset := selectRegimeAsset(matrix, params.targets)
	proxy, _ := matrix.Column(regimeAsset)
	regimes := s.classifier.ClassifyRegimes(proxy, s.cfg.RegimeWindow)
	report.RegimeAsset = regimeAsset

	analyzer := NewLeadLagAnalyzer(matrix, params.maxLag,
		WithSampleStride(s.cfg.SampleStride),
		WithAnalyzerLogger(s.logger),
	)

	jobs := s.planPairs(matrix, params)
	results := make([]*models.PairAnalysis, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxWorkers)
	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.analyzePair(gctx, analyzer, job, regimes, params)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analysis cancelled: %w", err)
	}

	ranking := make([]models.PairAnalysis, 0, len(results))
	for _, r := range results {
		if r != nil {
			ranking = append(ranking, *r)
		}
	}

	pValues := make([]float64, len(ranking))
	for i := range ranking {
		pValues[i] = ranking[i].PValue
	}
	for i, adj := range ApplyMultipleCorrection(pValues) {
		ranking[i].AdjustedPValue = adj
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		return math.Abs(ranking[i].Score) > math.Abs(ranking[j].Score)
	})

	for _, r := range ranking {
		report.Correlations[models.PairKey(r.Target, r.Candidate)] = r.PeakCorrelation
	}
	report.LeadLagRanking = ranking

	s.logger.WithFields(logrus.Fields{
		"run_id":       report.RunID,
		"pairs":        len(ranking),
		"observations": report.Observations,
		"regime_asset": regimeAsset,
	}).Info("Lead-lag analysis completed")

	return report, nil
}

// planPairs lists the (target, candidate) pairs worth analysing in request order.
func (s *LeadLagService) planPairs(matrix *models.ReturnMatrix, params analysisParams) []pairJob {
	jobs := make([]pairJob, 0, len(params.targets)*len(params.candidates))
	for _, target := range params.targets {
		for _, candidate := range params.candidates {
			switch {
			case !matrix.Has(target) || !matrix.Has(candidate):
				metrics.PairsSkipped.WithLabelValues(skipMissingSeries).Inc()
				s.logger.WithFields(logrus.Fields{
					"target":    target,
					"candidate": candidate,
				}).Debug("Skipping pair without return series")
			case target == candidate:
				metrics.PairsSkipped.WithLabelValues(skipSelfPair).Inc()
			default:
				jobs = append(jobs, pairJob{target: target, candidate: candidate})
			}
		}
	}
	return jobs
}

// analyzePair returns nil when the pair produced no rolling result.
func (s *LeadLagService) analyzePair(ctx context.Context, analyzer *LeadLagAnalyzer, job pairJob, regimes models.RegimeSeries, params analysisParams) *models.PairAnalysis {
	_, span := s.tracer.Start(ctx, "leadlag.pair", trace.WithAttributes(
		attribute.String("leadlag.target", job.target),
		attribute.String("leadlag.candidate", job.candidate),
	))
	defer span.End()

	rows := analyzer.AnalyzePairRolling(job.target, job.candidate, regimes, params.rollingWindow, params.walkForward)
	if len(rows) == 0 {
		metrics.PairsSkipped.WithLabelValues(skipInsufficientData).Inc()
		return nil
	}

	breakdown := analyzer.CompositeBreakdown(rows)
	score := decimal.NewFromFloat(breakdown.Score).Round(4).InexactFloat64()
	latest := rows[len(rows)-1]

	metrics.PairsAnalyzed.Inc()
	metrics.CompositeScore.Observe(score)
	span.SetAttributes(attribute.Float64("leadlag.score", score))

	return &models.PairAnalysis{
		Target:            job.target,
		Candidate:         job.candidate,
		PeakCorrelation:   latest.Corr,
		BestLag:           latest.Lag,
		PValue:            latest.PValue,
		Score:             score,
		Magnitude:         breakdown.Magnitude,
		Persistence:       breakdown.Persistence,
		Stability:         breakdown.Stability,
		SignificanceRatio: breakdown.SignificanceRatio,
		Regime:            latest.Regime,
		RegimeStats:       regimeStats(rows),
		LagCurve:          analyzer.LagProfile(job.target, job.candidate, params.rollingWindow),
		History:           rows,
	}
}

func (s *LeadLagService) newReport(params analysisParams) *models.AnalysisReport {
	return &models.AnalysisReport{
		RunID:       uuid.New().String(),
		GeneratedAt: s.now().UTC(),
		Settings: models.AnalysisSettings{
			MaxLag:        params.maxLag,
			RollingWindow: params.rollingWindow,
			RegimeWindow:  s.cfg.RegimeWindow,
			SampleStride:  s.cfg.SampleStride,
			WalkForward:   params.walkForward,
			StartDate:     params.start,
			EndDate:       params.end,
		},
		Correlations:   make(map[string]float64),
		LeadLagRanking: []models.PairAnalysis{},
	}
}

// resolve validates req and fills in configured defaults.
func (s *LeadLagService) resolve(req models.AnalysisRequest) (analysisParams, error) {
	params := analysisParams{
		targets:       normalizeSymbols(req.TargetAssets),
		candidates:    normalizeSymbols(req.CandidateAssets),
		maxLag:        s.cfg.MaxLag,
		rollingWindow: s.cfg.RollingWindow,
		walkForward:   s.cfg.WalkForward,
	}
	if len(params.targets) == 0 {
		return params, utils.NewFieldError("targetAssets", "at least one target asset is required")
	}
	if len(params.candidates) == 0 {
		return params, utils.NewFieldError("candidateAssets", "at least one candidate asset is required")
	}

	if req.LagWindow < 0 {
		return params, utils.NewFieldError("lagWindow", "must be >= 0, got %d", req.LagWindow)
	}
	if req.LagWindow > 0 {
		params.maxLag = req.LagWindow
	}
	if req.RollingWindow < 0 || req.RollingWindow == 1 {
		return params, utils.NewFieldError("rollingWindow", "must be >= 2, got %d", req.RollingWindow)
	}
	if req.RollingWindow > 0 {
		params.rollingWindow = req.RollingWindow
	}
	if params.rollingWindow < 2 {
		params.rollingWindow = DefaultRollingWindow
	}
	if req.WalkForward != nil {
		params.walkForward = *req.WalkForward
	}

	end := s.now().UTC().Truncate(24 * time.Hour)
	if req.EndDate != "" {
		parsed, err := time.Parse(DateLayout, req.EndDate)
		if err != nil {
			return params, utils.NewFieldError("endDate", "invalid date %q, expected YYYY-MM-DD", req.EndDate)
		}
		end = parsed
	}
	start := end.AddDate(0, 0, -s.cfg.DefaultLookbackDays)
	if req.StartDate != "" {
		parsed, err := time.Parse(DateLayout, req.StartDate)
		if err != nil {
			return params, utils.NewFieldError("startDate", "invalid date %q, expected YYYY-MM-DD", req.StartDate)
		}
		start = parsed
	}
	if !start.Before(end) {
		return params, utils.NewFieldError("startDate", "must be before endDate")
	}
	params.start = start
	params.end = end
	return params, nil
}

// selectRegimeAsset prefers the first requested target and otherwise falls back to the
// first column in symbol order.
func selectRegimeAsset(matrix *models.ReturnMatrix, targets []string) string {
	if len(targets) > 0 && matrix.Has(targets[0]) {
		return targets[0]
	}
	symbols := matrix.Symbols()
	if len(symbols) == 0 {
		return ""
	}
	return symbols[0]
}

// regimeStats averages the rolling correlation per defined regime.
func regimeStats(rows []models.RollingResult) map[models.Regime]models.RegimeStat {
	sums := make(map[models.Regime]float64)
	counts := make(map[models.Regime]int)
	for _, row := range rows {
		if !row.Regime.IsDefined() {
			continue
		}
		sums[row.Regime] += row.Corr
		counts[row.Regime]++
	}

	stats := make(map[models.Regime]models.RegimeStat, len(counts))
	for regime, count := range counts {
		stats[regime] = models.RegimeStat{
			AvgCorr: sums[regime] / float64(count),
			Count:   count,
		}
	}
	return stats
}

// normalizeSymbols trims, drops empties and de-duplicates while keeping order.
func normalizeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func unionSymbols(groups ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, group := range groups {
		for _, s := range group {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

func ignoreNoData(err error) error {
	if errors.Is(err, ErrNoReturnData) {
		return nil
	}
	return err
}
