package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/aptus/internal/interfaces"
	"github.com/ternarybob/aptus/internal/models"
)

const jobSystemPrompt = `You classify talent-marketplace job postings for a matching engine.
Respond with a single JSON object, no prose, matching this shape:
{
  "job_class": "specialized" | "generic",
  "confidence": 0.0-1.0,
  "requirements": {
    "credentials": ["MD", ...],
    "minimum_experience_years": 0,
    "subject_matter_codes": ["domain:specialty", ...],
    "acceptable_subject_codes": ["domain:specialty", ...],
    "subject_matter_strictness": "strict" | "moderate" | "lenient",
    "expertise_tier": "entry" | "intermediate" | "expert" | "specialist",
    "countries": [],
    "languages": []
  },
  "reasoning": "one sentence"
}
Rules:
- Professional credentials (MD, PhD, JD, PE, CPA, RN, NP, PharmD, DDS, DMD) mean specialized.
- Regulated professional titles (radiologist, surgeon, attorney, ...) mean specialized.
- A non-English pure annotation/labeling/transcription task with no credentials is generic.
- Generic task vocabulary (bounding box, tagging, data entry, entry-level) means generic.
- Generic jobs MUST have empty subject_matter_codes.
- acceptable_subject_codes may only be non-empty for specialized jobs.`

const userSystemPrompt = `You classify freelancer profiles for a talent-matching engine.
Respond with a single JSON object, no prose:
{
  "expertise_tier": "entry" | "intermediate" | "expert" | "specialist",
  "credentials": [],
  "subject_matter_codes": ["domain:specialty", ...],
  "years_experience": 0,
  "has_labeling_experience": true,
  "confidence": 0.0-1.0
}`

// Service classifies jobs and profiles via the LLM with a deterministic
// heuristic fallback. Classification never fails: any LLM problem
// degrades to the fallback at confidence 0.5.
type Service struct {
	llm     interfaces.LLMService
	timeout time.Duration
	logger  arbor.ILogger
}

// NewService creates a classifier. llm may be nil, in which case every
// call uses the heuristic.
func NewService(llm interfaces.LLMService, timeout time.Duration, logger arbor.ILogger) *Service {
	return &Service{
		llm:     llm,
		timeout: timeout,
		logger:  logger,
	}
}

// ClassifyJob produces the job classification record. The contractual
// invariants (generic jobs carry no subject codes, acceptable codes only
// for specialized) are enforced on whatever the LLM returns.
func (s *Service) ClassifyJob(ctx context.Context, job *models.JobPosting) *models.JobClassification {
	if s.llm == nil {
		return classifyJobHeuristic(job)
	}

	prompt := fmt.Sprintf("Title: %s\nLanguages: %s\nCountries: %s\n\n%s",
		job.Title,
		strings.Join(job.Languages, ", "),
		strings.Join(job.Countries, ", "),
		job.Description,
	)

	llmCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.llm.Complete(llmCtx, jobSystemPrompt, prompt)
	if err != nil {
		s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Job classification failed, using heuristic fallback")
		return classifyJobHeuristic(job)
	}

	var result models.JobClassification
	if err := json.Unmarshal([]byte(extractJSON(raw)), &result); err != nil {
		s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Malformed classifier output, using heuristic fallback")
		return classifyJobHeuristic(job)
	}
	if result.JobClass != models.JobClassSpecialized && result.JobClass != models.JobClassGeneric {
		s.logger.Warn().Str("job_id", job.ID).Str("job_class", string(result.JobClass)).Msg("Unknown job class from classifier, using heuristic fallback")
		return classifyJobHeuristic(job)
	}

	sanitizeJobClassification(&result, job)
	result.Source = models.SourceLLM

	s.logger.Debug().
		Str("job_id", job.ID).
		Str("job_class", string(result.JobClass)).
		Float64("confidence", result.Confidence).
		Msg("Job classified")
	return &result
}

// ClassifyUser produces the profile classification record.
func (s *Service) ClassifyUser(ctx context.Context, profile *models.UserProfile) *models.UserClassification {
	if s.llm == nil {
		return classifyUserHeuristic(profile)
	}

	payload, err := json.Marshal(profile)
	if err != nil {
		return classifyUserHeuristic(profile)
	}

	llmCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.llm.Complete(llmCtx, userSystemPrompt, string(payload))
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", profile.ID).Msg("User classification failed, using heuristic fallback")
		return classifyUserHeuristic(profile)
	}

	var result models.UserClassification
	if err := json.Unmarshal([]byte(extractJSON(raw)), &result); err != nil {
		s.logger.Warn().Err(err).Str("user_id", profile.ID).Msg("Malformed classifier output, using heuristic fallback")
		return classifyUserHeuristic(profile)
	}

	result.Credentials = models.NormalizeStrings(result.Credentials)
	result.SubjectMatterCodes = models.NormalizeStrings(result.SubjectMatterCodes)
	result.Confidence = clamp01(result.Confidence)
	if result.YearsExperience < 0 {
		result.YearsExperience = 0
	}
	result.Source = models.SourceLLM
	return &result
}

// sanitizeJobClassification enforces the classification contract on LLM
// output and backfills geography from the posting when the model omits
// it.
func sanitizeJobClassification(c *models.JobClassification, job *models.JobPosting) {
	c.Confidence = clamp01(c.Confidence)
	c.Requirements.Credentials = models.NormalizeStrings(c.Requirements.Credentials)
	c.Requirements.SubjectMatterCodes = models.NormalizeStrings(c.Requirements.SubjectMatterCodes)
	c.Requirements.AcceptableSubjectCodes = models.NormalizeStrings(c.Requirements.AcceptableSubjectCodes)

	if c.JobClass == models.JobClassGeneric {
		c.Requirements.SubjectMatterCodes = nil
		c.Requirements.AcceptableSubjectCodes = nil
	}
	switch c.Requirements.SubjectMatterStrictness {
	case models.StrictnessStrict, models.StrictnessModerate, models.StrictnessLenient:
	default:
		c.Requirements.SubjectMatterStrictness = models.StrictnessModerate
	}
	switch c.Requirements.ExpertiseTier {
	case models.TierEntry, models.TierIntermediate, models.TierExpert, models.TierSpecialist:
	default:
		if c.JobClass == models.JobClassSpecialized {
			c.Requirements.ExpertiseTier = models.TierSpecialist
		} else {
			c.Requirements.ExpertiseTier = models.TierIntermediate
		}
	}
	if c.Requirements.MinimumExperienceYears < 0 {
		c.Requirements.MinimumExperienceYears = 0
	}
	if len(c.Requirements.Countries) == 0 {
		c.Requirements.Countries = job.Countries
	}
	if len(c.Requirements.Languages) == 0 {
		c.Requirements.Languages = job.Languages
	}
}

// extractJSON strips markdown code fences and leading prose so strict
// JSON parsing can succeed on typical LLM output.
func extractJSON(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if idx := strings.Index(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[idx+3:]
		trimmed = strings.TrimPrefix(trimmed, "json")
		if end := strings.Index(trimmed, "```"); end >= 0 {
			trimmed = trimmed[:end]
		}
	}
	if start := strings.Index(trimmed, "{"); start > 0 {
		trimmed = trimmed[start:]
	}
	return strings.TrimSpace(trimmed)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
