package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/aptus/internal/common"
	"github.com/ternarybob/aptus/internal/models"
)

func TestNormalizeWeights(t *testing.T) {
	t.Run("already normalized", func(t *testing.T) {
		d, task, err := NormalizeWeights(0.85, 0.15)
		require.NoError(t, err)
		assert.InDelta(t, 0.85, d, 1e-9)
		assert.InDelta(t, 0.15, task, 1e-9)
	})

	t.Run("scales to unit sum", func(t *testing.T) {
		d, task, err := NormalizeWeights(2, 2)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, d, 1e-9)
		assert.InDelta(t, 0.5, task, 1e-9)
	})

	t.Run("zero sum guarded by epsilon", func(t *testing.T) {
		d, task, err := NormalizeWeights(0, 0)
		require.NoError(t, err)
		assert.Zero(t, d)
		assert.Zero(t, task)
	})

	t.Run("infinity rejected", func(t *testing.T) {
		// 1e309 overflows float64 parsing into +Inf upstream.
		_, _, err := NormalizeWeights(math.Inf(1), 0.5)
		require.Error(t, err)
		assert.Equal(t, common.CodeWeights, common.AsError(err).Code)
	})

	t.Run("NaN rejected", func(t *testing.T) {
		_, _, err := NormalizeWeights(math.NaN(), 0.5)
		require.Error(t, err)
		assert.Equal(t, common.CodeWeights, common.AsError(err).Code)
	})

	t.Run("negative rejected", func(t *testing.T) {
		_, _, err := NormalizeWeights(-0.2, 0.8)
		require.Error(t, err)
		assert.Equal(t, common.CodeWeights, common.AsError(err).Code)
	})
}

func TestBlendAndRound(t *testing.T) {
	assert.InDelta(t, 0.625, Blend(0.5, 0.5, 0.75, 0.5), 1e-9)
	assert.Equal(t, 0.123457, Round6(0.1234567))
	assert.Equal(t, 0.0, Round6(0.0000004))
}

func TestDot(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{0.6, 0.8, 0}
	assert.InDelta(t, 0.6, Dot(a, b), 1e-6)

	// Mismatched lengths use the shorter prefix.
	assert.InDelta(t, 0.6, Dot(a, b[:1]), 1e-6)
}

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	Normalize(v)
	assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(v[1]), 1e-6)

	zero := []float32{0, 0}
	Normalize(zero)
	assert.Equal(t, []float32{0, 0}, zero)
}

func ptr(v float64) *float64 { return &v }

func TestRankUsersOrdering(t *testing.T) {
	scores := []models.UserScore{
		{UserID: "u3", DomainScore: ptr(0.5), FinalScore: 0.70},
		{UserID: "u1", DomainScore: ptr(0.9), FinalScore: 0.70},
		{UserID: "u2", DomainScore: nil, FinalScore: 0.70},
		{UserID: "u4", DomainScore: ptr(0.2), FinalScore: 0.90},
	}
	RankUsers(scores)

	// Final desc first, then domain desc with missing as -Inf, then id.
	assert.Equal(t, "u4", scores[0].UserID)
	assert.Equal(t, "u1", scores[1].UserID)
	assert.Equal(t, "u3", scores[2].UserID)
	assert.Equal(t, "u2", scores[3].UserID)
	for i, s := range scores {
		assert.Equal(t, i+1, s.Rank)
	}
}

func TestRankUsersTieBreakOnUserID(t *testing.T) {
	scores := []models.UserScore{
		{UserID: "user_b", DomainScore: ptr(0.8), FinalScore: 0.80},
		{UserID: "user_a", DomainScore: ptr(0.8), FinalScore: 0.80},
	}
	RankUsers(scores)
	assert.Equal(t, "user_a", scores[0].UserID)
	assert.Equal(t, "user_b", scores[1].UserID)
}

func TestRankUsersDeterministic(t *testing.T) {
	build := func() []models.UserScore {
		return []models.UserScore{
			{UserID: "u2", DomainScore: ptr(0.4), FinalScore: 0.6},
			{UserID: "u1", DomainScore: ptr(0.4), FinalScore: 0.6},
			{UserID: "u3", DomainScore: ptr(0.9), FinalScore: 0.6},
		}
	}
	first := build()
	RankUsers(first)
	for i := 0; i < 10; i++ {
		again := build()
		RankUsers(again)
		assert.Equal(t, first, again)
	}
}

func TestRankJobs(t *testing.T) {
	scores := []models.JobScore{
		{JobID: "job_b", DomainScore: ptr(0.5), FinalScore: 0.5},
		{JobID: "job_a", DomainScore: ptr(0.5), FinalScore: 0.5},
		{JobID: "job_c", DomainScore: ptr(0.5), FinalScore: 0.9},
	}
	RankJobs(scores)
	assert.Equal(t, "job_c", scores[0].JobID)
	assert.Equal(t, "job_a", scores[1].JobID)
	assert.Equal(t, "job_b", scores[2].JobID)
}
