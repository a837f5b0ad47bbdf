package services

import (
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"

	"github.com/irfndi/leadlag-ai-go/internal/models"
)

// AnnualizationFactor scales daily volatility to an annual figure.
var AnnualizationFactor = math.Sqrt(252)

// DefaultRegimeWindow is the trailing window used for the regime volatility estimate.
const DefaultRegimeWindow = 21

// RegimeClassifier labels each step of a return series as high or low volatility.
type RegimeClassifier struct {
	annualization float64
}

// NewRegimeClassifier creates a classifier for daily return series.
func NewRegimeClassifier() *RegimeClassifier {
	return &RegimeClassifier{annualization: AnnualizationFactor}
}

// ClassifyRegimes computes the rolling annualised volatility of series over window trailing
// observations and splits it at its median. The median is taken once over the whole series,
// so the result is a batch labelling: steps without a full window stay RegimeUndefined.
func (rc *RegimeClassifier) ClassifyRegimes(series []float64, window int) models.RegimeSeries {
	vol := rc.rollingVolatility(series, window)
	threshold := calculateMedian(vol)

	labels := make([]models.Regime, len(series))
	for i, v := range vol {
		switch {
		case math.IsNaN(v) || math.IsNaN(threshold):
			labels[i] = models.RegimeUndefined
		case v > threshold:
			labels[i] = models.RegimeHighVol
		default:
			labels[i] = models.RegimeLowVol
		}
	}

	return models.RegimeSeries{
		Labels:     labels,
		Volatility: vol,
		Threshold:  threshold,
		Window:     window,
	}
}

// rollingVolatility returns the annualised sample standard deviation of each trailing window,
// NaN where the window is incomplete.
func (rc *RegimeClassifier) rollingVolatility(series []float64, window int) []float64 {
	n := len(series)
	vol := make([]float64, n)
	for i := range vol {
		vol[i] = math.NaN()
	}
	if window < 2 || n < window {
		return vol
	}

	sma := trend.NewSmaWithPeriod[float64](window)
	means := helper.ChanToSlice(sma.Compute(helper.SliceToChan(series)))
	offset := n - len(means)

	for j, mean := range means {
		t := j + offset
		if t < window-1 {
			continue
		}
		var sumSquares float64
		for i := t - window + 1; i <= t; i++ {
			diff := series[i] - mean
			sumSquares += diff * diff
		}
		v := math.Sqrt(sumSquares/float64(window-1)) * rc.annualization
		if isFinite(v) {
			vol[t] = v
		}
	}
	return vol
}
