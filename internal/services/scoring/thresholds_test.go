package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/aptus/internal/models"
)

func TestAutoThresholdMinimumWins(t *testing.T) {
	// Low-scoring pool: the class baseline beats the percentile.
	scores := []float64{0.30, 0.25, 0.20, 0.15, 0.10}
	s := AutoThreshold(scores, models.JobClassSpecialized)

	assert.Equal(t, 0.50, s.Value)
	assert.Equal(t, MethodMinimum, s.Method)
	assert.Equal(t, 0.50, s.MinThreshold)
	assert.Equal(t, 0, s.CountGTESuggested)
}

func TestAutoThresholdPercentileWins(t *testing.T) {
	scores := []float64{0.90, 0.85, 0.80, 0.75, 0.70, 0.65, 0.60, 0.55, 0.50, 0.45}
	s := AutoThreshold(scores, models.JobClassGeneric)

	// Top 30% cut of ten scores lands on index 3 of the descending sort.
	assert.Equal(t, 0.75, s.Value)
	assert.Equal(t, MethodPercentile, s.Method)
	assert.Equal(t, 0.35, s.MinThreshold)
	assert.Equal(t, 0.75, s.PercentileThreshold)
	assert.Equal(t, 4, s.CountGTESuggested)
}

func TestAutoThresholdEmptyPool(t *testing.T) {
	s := AutoThreshold(nil, models.JobClassGeneric)
	assert.Equal(t, 0.35, s.Value)
	assert.Equal(t, MethodMinimum, s.Method)
	assert.Equal(t, 0, s.CountGTESuggested)
}

func TestPoolSizeMultiplier(t *testing.T) {
	assert.Equal(t, 0.60, PoolSizeMultiplier(0))
	assert.Equal(t, 0.60, PoolSizeMultiplier(29))
	assert.Equal(t, 0.80, PoolSizeMultiplier(30))
	assert.Equal(t, 0.80, PoolSizeMultiplier(99))
	assert.Equal(t, 1.00, PoolSizeMultiplier(100))
	assert.Equal(t, 1.00, PoolSizeMultiplier(5000))
}

func TestNotifyThreshold(t *testing.T) {
	// Specialized job with a tiny pool relaxes 0.35 down to 0.21.
	assert.Equal(t, 0.21, NotifyThreshold(models.JobClassSpecialized, 12))

	assert.Equal(t, 0.35, NotifyThreshold(models.JobClassSpecialized, 500))
	assert.Equal(t, 0.25, NotifyThreshold(models.JobClassGeneric, 500))
	assert.Equal(t, 0.2, NotifyThreshold(models.JobClassGeneric, 50))
}

func TestWeightsFor(t *testing.T) {
	d, task := models.WeightsFor(models.JobClassSpecialized)
	assert.Equal(t, 0.85, d)
	assert.Equal(t, 0.15, task)

	d, task = models.WeightsFor(models.JobClassGeneric)
	assert.Equal(t, 0.30, d)
	assert.Equal(t, 0.70, task)
}
