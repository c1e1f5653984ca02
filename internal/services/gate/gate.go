package gate

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"
	"golang.org/x/sync/singleflight"

	"github.com/ternarybob/aptus/internal/interfaces"
	"github.com/ternarybob/aptus/internal/models"
	"github.com/ternarybob/aptus/internal/services/scoring"
)

// embedPrompt frames a bare specialty for embedding so that related
// specialties land close together in the embedding space.
const embedPrompt = "subject matter expertise: %s"

// Service evaluates subject-matter proximity between user and job codes.
// The specialty-embedding cache is process-scoped and grow-only; the
// specialty universe is bounded in practice so there is no eviction.
type Service struct {
	embedder interfaces.EmbeddingService
	logger   arbor.ILogger

	mu    sync.RWMutex
	cache map[string][]float32
	group singleflight.Group
}

// NewService creates a subject-matter gate backed by the given embedder.
func NewService(embedder interfaces.EmbeddingService, logger arbor.ILogger) *Service {
	return &Service{
		embedder: embedder,
		logger:   logger,
		cache:    make(map[string][]float32),
	}
}

// Threshold maps strictness to its cosine-similarity floor. Moderate is
// the default for unknown values.
func Threshold(strictness models.Strictness) float64 {
	switch strictness {
	case models.StrictnessStrict:
		return 0.80
	case models.StrictnessLenient:
		return 0.60
	default:
		return 0.70
	}
}

// Evaluate decides pass/fail for a candidate's codes against a job's
// required codes. Acceptable-code hits short-circuit without any
// embedding work.
func (s *Service) Evaluate(ctx context.Context, userCodes, jobCodes, acceptableCodes []string, strictness models.Strictness) (*models.GateResult, error) {
	threshold := Threshold(strictness)

	if len(userCodes) == 0 {
		return &models.GateResult{
			Threshold:  threshold,
			FailReason: models.FilterNoSubjectMatterCodes,
			FailDetail: "candidate has no subject matter codes",
		}, nil
	}

	// Exact acceptable-code match, case-insensitive on the full code.
	if code, hit := intersectFold(userCodes, acceptableCodes); hit {
		return &models.GateResult{
			Passed:         true,
			BestSimilarity: 1,
			BestUserCode:   code,
			BestJobCode:    code,
			Threshold:      threshold,
		}, nil
	}

	best := &models.GateResult{Threshold: threshold}
	for _, userCode := range userCodes {
		userVec, err := s.specialtyEmbedding(ctx, models.SpecialtyOf(userCode))
		if err != nil {
			return nil, err
		}
		for _, jobCode := range jobCodes {
			jobVec, err := s.specialtyEmbedding(ctx, models.SpecialtyOf(jobCode))
			if err != nil {
				return nil, err
			}
			sim := scoring.Dot(userVec, jobVec)
			if sim > best.BestSimilarity {
				best.BestSimilarity = sim
				best.BestUserCode = userCode
				best.BestJobCode = jobCode
			}
		}
	}

	best.BestSimilarity = scoring.Round6(best.BestSimilarity)
	if best.BestSimilarity >= threshold {
		best.Passed = true
		return best, nil
	}

	if best.BestSimilarity > 0 {
		best.FailReason = models.FilterLowSimilarity
		best.FailDetail = fmt.Sprintf("%.0f%% < %.0f%%", best.BestSimilarity*100, threshold*100)
	} else {
		best.FailReason = models.FilterSubjectMatterMismatch
		best.FailDetail = fmt.Sprintf("no overlap with required codes %v", jobCodes)
	}
	return best, nil
}

// specialtyEmbedding returns the normalized embedding for a specialty,
// from cache when possible. Concurrent first requests for the same key
// collapse into a single embedding call; a duplicate embed under races
// is tolerated (first writer wins).
func (s *Service) specialtyEmbedding(ctx context.Context, specialty string) ([]float32, error) {
	key := strings.ToLower(strings.TrimSpace(specialty))

	s.mu.RLock()
	vec, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return vec, nil
	}

	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		embedded, err := s.embedder.Embed(ctx, fmt.Sprintf(embedPrompt, specialty))
		if err != nil {
			return nil, fmt.Errorf("failed to embed specialty %q: %w", specialty, err)
		}
		scoring.Normalize(embedded)

		s.mu.Lock()
		if existing, raced := s.cache[key]; raced {
			embedded = existing
		} else {
			s.cache[key] = embedded
		}
		s.mu.Unlock()

		s.logger.Debug().
			Str("specialty", key).
			Int("dimension", len(embedded)).
			Msg("Cached specialty embedding")
		return embedded, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]float32), nil
}

// CacheSize reports the number of cached specialty embeddings.
func (s *Service) CacheSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

func intersectFold(a, b []string) (string, bool) {
	if len(b) == 0 {
		return "", false
	}
	set := make(map[string]struct{}, len(b))
	for _, v := range b {
		set[strings.ToLower(strings.TrimSpace(v))] = struct{}{}
	}
	for _, v := range a {
		if _, ok := set[strings.ToLower(strings.TrimSpace(v))]; ok {
			return v, true
		}
	}
	return "", false
}
