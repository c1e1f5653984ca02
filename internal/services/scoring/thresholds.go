package scoring

import (
	"sort"

	"github.com/ternarybob/aptus/internal/models"
)

// Advisory auto-threshold baselines used by the synchronous score API.
// Deliberately distinct from the notify baselines below; both sets come
// from production tuning and must not be merged.
const (
	autoBaselineSpecialized = 0.50
	autoBaselineGeneric     = 0.35
	percentileCut           = 0.30
)

// Notify-pipeline baselines, relaxed by the pool-size multiplier.
const (
	notifyBaselineSpecialized = 0.35
	notifyBaselineGeneric     = 0.25
)

// Threshold suggestion methods.
const (
	MethodMinimum    = "minimum"
	MethodPercentile = "percentile"
)

// AutoThreshold computes the advisory cutoff for a scored pool: the
// greater of the class baseline and the top-30% percentile value.
func AutoThreshold(finalScores []float64, class models.JobClass) models.ThresholdSuggestion {
	baseline := autoBaselineGeneric
	if class == models.JobClassSpecialized {
		baseline = autoBaselineSpecialized
	}

	var percentile float64
	if n := len(finalScores); n > 0 {
		sorted := make([]float64, n)
		copy(sorted, finalScores)
		sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
		percentile = sorted[int(float64(n)*percentileCut)]
	}

	suggestion := models.ThresholdSuggestion{
		MinThreshold:        baseline,
		PercentileThreshold: Round6(percentile),
	}
	if percentile > baseline {
		suggestion.Value = Round6(percentile)
		suggestion.Method = MethodPercentile
	} else {
		suggestion.Value = baseline
		suggestion.Method = MethodMinimum
	}

	for _, s := range finalScores {
		if s >= suggestion.Value {
			suggestion.CountGTESuggested++
		}
	}
	return suggestion
}

// PoolSizeMultiplier relaxes the notify threshold for small candidate
// pools so niche markets still produce notifications.
func PoolSizeMultiplier(poolSize int) float64 {
	switch {
	case poolSize < 30:
		return 0.60
	case poolSize < 100:
		return 0.80
	default:
		return 1.00
	}
}

// NotifyBaseline returns the notify-pipeline baseline for a job class.
func NotifyBaseline(class models.JobClass) float64 {
	if class == models.JobClassSpecialized {
		return notifyBaselineSpecialized
	}
	return notifyBaselineGeneric
}

// NotifyThreshold is the effective pipeline cutoff: class baseline scaled
// by the pool-size multiplier.
func NotifyThreshold(class models.JobClass, poolSize int) float64 {
	return Round6(NotifyBaseline(class) * PoolSizeMultiplier(poolSize))
}
