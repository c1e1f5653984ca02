package scoring

import (
	"math"
	"sort"

	"github.com/ternarybob/aptus/internal/common"
	"github.com/ternarybob/aptus/internal/models"
)

// weightEpsilon guards the normalization divisor against a zero sum.
const weightEpsilon = 1e-9

// NormalizeWeights scales non-negative channel weights to sum to 1.
// Non-finite or negative inputs fail with UNPROCESSABLE_WEIGHTS; the
// caller must not have issued any store query yet.
func NormalizeWeights(domain, task float64) (float64, float64, error) {
	if math.IsNaN(domain) || math.IsInf(domain, 0) || math.IsNaN(task) || math.IsInf(task, 0) {
		return 0, 0, common.NewError(common.CodeWeights, "weights must be finite numbers")
	}
	if domain < 0 || task < 0 {
		return 0, 0, common.NewError(common.CodeWeights, "weights must be non-negative")
	}
	sum := domain + task
	if sum < weightEpsilon {
		sum = weightEpsilon
	}
	return domain / sum, task / sum, nil
}

// Blend computes the weighted final score from the two channel
// similarities.
func Blend(wDomain, wTask, domainScore, taskScore float64) float64 {
	return wDomain*domainScore + wTask*taskScore
}

// Round6 rounds to six decimal places, the precision for every score
// returned to clients or persisted.
func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// Dot returns the dot product of two equal-length vectors. Stored
// vectors are cosine-normalized, so this is their cosine similarity.
func Dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Normalize scales a vector to unit length in place. Zero vectors are
// left untouched.
func Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}

// RankUsers sorts scores in place by the ranking rule and assigns dense
// 1-based ranks: final desc, then domain desc with missing treated as
// -Inf, then user id ascending.
func RankUsers(scores []models.UserScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].FinalScore != scores[j].FinalScore {
			return scores[i].FinalScore > scores[j].FinalScore
		}
		di, dj := channelOrNegInf(scores[i].DomainScore), channelOrNegInf(scores[j].DomainScore)
		if di != dj {
			return di > dj
		}
		return scores[i].UserID < scores[j].UserID
	})
	for i := range scores {
		scores[i].Rank = i + 1
	}
}

// RankJobs applies the same ranking rule in reverse mode, tie-breaking
// on job id.
func RankJobs(scores []models.JobScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].FinalScore != scores[j].FinalScore {
			return scores[i].FinalScore > scores[j].FinalScore
		}
		di, dj := channelOrNegInf(scores[i].DomainScore), channelOrNegInf(scores[j].DomainScore)
		if di != dj {
			return di > dj
		}
		return scores[i].JobID < scores[j].JobID
	})
	for i := range scores {
		scores[i].Rank = i + 1
	}
}

func channelOrNegInf(v *float64) float64 {
	if v == nil {
		return math.Inf(-1)
	}
	return *v
}
