package metrics

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"go-skin-analyzer/internal/logger"
	"go-skin-analyzer/internal/region"
	"go-skin-analyzer/pkg/models"
)

// Regression heads are trained at different output magnitudes per region, so
// a single fixed scale would crush some regions and saturate others. The
// scale factor is chosen from the magnitude band of the whole vector.
func scaleFactor(maxAbs float64) float64 {
	switch {
	case maxAbs < 0.1:
		return 1000
	case maxAbs < 1:
		return 100
	case maxAbs < 10:
		return 10
	default:
		return 1
	}
}

// Normalize converts a raw regression vector into named metric values on a
// common 0-100 scale, rounded to one decimal. Positions beyond the region's
// fixed metric-name list are dropped; a shorter vector yields fewer metrics,
// never more.
func Normalize(r region.Name, raw []float64) map[string]float64 {
	names := region.MetricNames(r)
	parsed := make(map[string]float64)
	if len(raw) == 0 || len(names) == 0 {
		return parsed
	}

	maxAbs := 0.0
	for _, v := range raw {
		if a := math.Abs(v); a > maxAbs {
			maxAbs = a
		}
	}
	factor := scaleFactor(maxAbs)

	for i, name := range names {
		if i >= len(raw) {
			break
		}
		v := math.Abs(raw[i]) * factor
		v = math.Max(0, math.Min(100, v))
		parsed[name] = round1(v)
	}
	return parsed
}

// Score computes a region score from the classification grade and the
// normalized metrics. The grade sets a coarse band (100/80/60/40) and the
// five worst metrics pull it down by 30% of their mean, so a good grade
// cannot mask severe sub-metrics. Result is clamped to [10,100].
func Score(grade int, metricValues map[string]float64) float64 {
	base := 100 - float64(grade)*20

	final := base
	if len(metricValues) > 0 {
		vals := make([]float64, 0, len(metricValues))
		for _, v := range metricValues {
			vals = append(vals, v)
		}
		sort.Sort(sort.Reverse(sort.Float64Slice(vals)))
		if len(vals) > 5 {
			vals = vals[:5]
		}
		final = base - stat.Mean(vals, nil)*0.3
	}

	return math.Max(10, math.Min(100, final))
}

// ProcessPrediction turns one region's raw model outputs into a RegionResult.
// The classification vector is un-normalized logits of length 4; the
// regression vector length matches the region's target count. Both arrive as
// plain numeric vectors regardless of whether inference ran locally or on a
// remote server.
func ProcessPrediction(cls, reg []float64, r region.Name) models.RegionResult {
	grade := 0
	confidence := 0.0
	if len(cls) > 0 {
		grade = floats.MaxIdx(cls)
		confidence = floats.Max(softmax(cls)) * 100
	}

	m := Normalize(r, reg)
	result := models.RegionResult{
		Grade:      grade,
		Confidence: round1(confidence),
		Metrics:    m,
		Score:      round1(Score(grade, m)),
	}

	logger.ForComponent("metrics").WithFields(logrus.Fields{
		"region": r,
		"grade":  result.Grade,
		"score":  result.Score,
	}).Debug("Processed region prediction")

	return result
}

// softmax is numerically stabilized by shifting by the max logit.
func softmax(v []float64) []float64 {
	out := make([]float64, len(v))
	max := floats.Max(v)
	sum := 0.0
	for i, x := range v {
		out[i] = math.Exp(x - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
