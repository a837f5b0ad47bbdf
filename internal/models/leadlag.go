package models

import "time"

// Regime is the volatility label attached to a time step.
type Regime string

const (
	RegimeHighVol Regime = "High-Vol"
	RegimeLowVol  Regime = "Low-Vol"
	// RegimeUndefined marks steps without enough history for a volatility estimate.
	RegimeUndefined Regime = ""
)

// IsDefined reports whether the label carries a volatility regime.
func (r Regime) IsDefined() bool {
	return r == RegimeHighVol || r == RegimeLowVol
}

// RegimeSeries holds the per-step regime labels of one proxy series together with the
// rolling volatility and the static threshold they were split at.
type RegimeSeries struct {
	Labels     []Regime  `json:"labels"`
	Volatility []float64 `json:"-"`
	Threshold  float64   `json:"threshold"`
	Window     int       `json:"window"`
}

// LabelAt returns the label at index i, or RegimeUndefined when i is out of range.
func (s RegimeSeries) LabelAt(i int) Regime {
	if i < 0 || i >= len(s.Labels) {
		return RegimeUndefined
	}
	return s.Labels[i]
}

// RollingResult is one sampled step of a rolling lead-lag search.
// A positive Lag means the candidate leads the target by Lag periods.
type RollingResult struct {
	Date   time.Time `json:"date"`
	Lag    int       `json:"lag"`
	Corr   float64   `json:"corr"`
	PValue float64   `json:"p_val"`
	Regime Regime    `json:"regime"`
}

// LagPoint is one point of a lag-correlation profile.
type LagPoint struct {
	Lag  int     `json:"lag"`
	Corr float64 `json:"corr"`
}

// CompositeBreakdown exposes the factors multiplied into a composite score.
type CompositeBreakdown struct {
	Magnitude         float64 `json:"magnitude"`
	Persistence       float64 `json:"persistence"`
	Stability         float64 `json:"stability"`
	SignificanceRatio float64 `json:"significance_ratio"`
	Score             float64 `json:"score"`
}

// RegimeStat summarises the rolling correlations observed under one regime.
type RegimeStat struct {
	AvgCorr float64 `json:"avg_corr"`
	Count   int     `json:"count"`
}

// PairAnalysis is the full result for one (target, candidate) pair.
type PairAnalysis struct {
	Target            string                `json:"target"`
	Candidate         string                `json:"candidate"`
	PeakCorrelation   float64               `json:"peak_correlation"`
	BestLag           int                   `json:"best_lag"`
	PValue            float64               `json:"p_value"`
	AdjustedPValue    float64               `json:"adjusted_p_value"`
	Score             float64               `json:"score"`
	Magnitude         float64               `json:"magnitude"`
	Persistence       float64               `json:"persistence"`
	Stability         float64               `json:"stability"`
	SignificanceRatio float64               `json:"significance_ratio"`
	Regime            Regime                `json:"regime"`
	RegimeStats       map[Regime]RegimeStat `json:"regime_stats"`
	LagCurve          []LagPoint            `json:"lag_curve"`
	History           []RollingResult       `json:"history"`
}

// PairKey returns the "target|candidate" key used in correlation maps.
func PairKey(target, candidate string) string {
	return target + "|" + candidate
}

// AnalysisRequest describes one lead-lag analysis run.
type AnalysisRequest struct {
	TargetAssets    []string `json:"targetAssets" binding:"required"`
	CandidateAssets []string `json:"candidateAssets" binding:"required"`
	StartDate       string   `json:"startDate,omitempty"`
	EndDate         string   `json:"endDate,omitempty"`
	LagWindow       int      `json:"lagWindow,omitempty"`
	RollingWindow   int      `json:"rollingWindow,omitempty"`
	WalkForward     *bool    `json:"walkForward,omitempty"`
}

// AnalysisSettings is the effective configuration a report was produced with.
type AnalysisSettings struct {
	MaxLag        int       `json:"max_lag"`
	RollingWindow int       `json:"rolling_window"`
	RegimeWindow  int       `json:"regime_window"`
	SampleStride  int       `json:"sample_stride"`
	WalkForward   bool      `json:"walk_forward"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
}

// AnalysisReport is the outcome of a lead-lag run, ranked by descending |score|.
type AnalysisReport struct {
	RunID          string             `json:"run_id"`
	GeneratedAt    time.Time          `json:"generated_at"`
	RegimeAsset    string             `json:"regime_asset,omitempty"`
	Observations   int                `json:"observations"`
	Settings       AnalysisSettings   `json:"settings"`
	Correlations   map[string]float64 `json:"correlations"`
	LeadLagRanking []PairAnalysis     `json:"lead_lag_rankings"`
}
