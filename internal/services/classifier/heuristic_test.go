package classifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/aptus/internal/common"
	"github.com/ternarybob/aptus/internal/models"
)

func heuristicService() *Service {
	return NewService(nil, time.Second, common.GetLogger())
}

func TestClassifyJobCredentialMakesSpecialized(t *testing.T) {
	job := &models.JobPosting{
		ID:          "job_1",
		Title:       "Medical annotation reviewer (MD required)",
		Description: "Review radiology annotations. MD credential required, 5+ years experience.",
	}

	c := heuristicService().ClassifyJob(context.Background(), job)
	assert.Equal(t, models.JobClassSpecialized, c.JobClass)
	assert.Contains(t, c.Requirements.Credentials, "MD")
	assert.Contains(t, c.Requirements.SubjectMatterCodes, "medicine:clinical")
	assert.Equal(t, 5, c.Requirements.MinimumExperienceYears)
	assert.Equal(t, models.TierSpecialist, c.Requirements.ExpertiseTier)
	assert.Equal(t, 0.5, c.Confidence)
	assert.Equal(t, models.SourceFallback, c.Source)
}

func TestClassifyJobRegulatedTitle(t *testing.T) {
	job := &models.JobPosting{
		ID:          "job_2",
		Title:       "Cardiologist needed for case review",
		Description: "Evaluate anonymized patient cases.",
	}

	c := heuristicService().ClassifyJob(context.Background(), job)
	assert.Equal(t, models.JobClassSpecialized, c.JobClass)
	assert.Contains(t, c.Requirements.SubjectMatterCodes, "medicine:cardiology")
}

func TestClassifyJobGenericAnnotation(t *testing.T) {
	job := &models.JobPosting{
		ID:          "job_3",
		Title:       "Image tagging",
		Description: "Draw bounding box labels around vehicles. Entry-level, no experience needed.",
	}

	c := heuristicService().ClassifyJob(context.Background(), job)
	assert.Equal(t, models.JobClassGeneric, c.JobClass)
	assert.Empty(t, c.Requirements.SubjectMatterCodes, "generic jobs never carry subject codes")
	assert.Equal(t, models.TierEntry, c.Requirements.ExpertiseTier)
}

func TestClassifyJobNonEnglishAnnotationIsGeneric(t *testing.T) {
	// A language task mentioning a regulated title in passing stays
	// generic when it is pure annotation work in a non-English language.
	job := &models.JobPosting{
		ID:          "job_4",
		Title:       "Slovak transcription",
		Description: "Transcription of physician dictations into text.",
		Languages:   []string{"Slovak"},
	}

	c := heuristicService().ClassifyJob(context.Background(), job)
	assert.Equal(t, models.JobClassGeneric, c.JobClass)
	assert.Empty(t, c.Requirements.SubjectMatterCodes)
}

func TestClassifyUserTiers(t *testing.T) {
	svc := heuristicService()

	cases := []struct {
		years       int
		credentials []string
		want        models.ExpertiseTier
	}{
		{0, nil, models.TierEntry},
		{3, nil, models.TierIntermediate},
		{7, nil, models.TierExpert},
		{12, nil, models.TierSpecialist},
		{1, []string{"RN"}, models.TierSpecialist},
	}
	for _, tc := range cases {
		c := svc.ClassifyUser(context.Background(), &models.UserProfile{
			ID:              "u",
			Bio:             "annotator",
			YearsExperience: tc.years,
			Credentials:     tc.credentials,
		})
		assert.Equal(t, tc.want, c.ExpertiseTier, "years=%d creds=%v", tc.years, tc.credentials)
		assert.Equal(t, models.SourceFallback, c.Source)
	}
}

func TestDetectCredentialsWordBoundaries(t *testing.T) {
	found := detectCredentials("Seasoned MD with a command of radiology")
	assert.Equal(t, []string{"MD"}, found, "MD inside 'command' must not match")
}

func TestDetectExperienceYears(t *testing.T) {
	assert.Equal(t, 5, detectExperienceYears("requires 5+ years of practice"))
	assert.Equal(t, 10, detectExperienceYears("10 years minimum"))
	assert.Equal(t, 0, detectExperienceYears("no experience needed"))
	assert.Equal(t, 0, detectExperienceYears("150 years"))
}

// flakyLLM fails or returns a fixed payload, for fallback-path tests.
type flakyLLM struct {
	response string
	err      error
}

func (f *flakyLLM) Complete(context.Context, string, string) (string, error) {
	return f.response, f.err
}
func (f *flakyLLM) HealthCheck(context.Context) error { return nil }
func (f *flakyLLM) Close() error                      { return nil }

func TestClassifyJobLLMFailureFallsBack(t *testing.T) {
	svc := NewService(&flakyLLM{err: errors.New("rate limited")}, time.Second, common.GetLogger())

	c := svc.ClassifyJob(context.Background(), &models.JobPosting{
		ID:          "job_5",
		Title:       "Surgeon reviewer",
		Description: "Surgeon needed.",
	})
	require.NotNil(t, c)
	assert.Equal(t, models.SourceFallback, c.Source)
	assert.Equal(t, 0.5, c.Confidence)
	assert.Equal(t, models.JobClassSpecialized, c.JobClass)
}

func TestClassifyJobLLMOutputSanitized(t *testing.T) {
	svc := NewService(&flakyLLM{response: "```json\n" + `{
		"job_class": "generic",
		"confidence": 1.7,
		"requirements": {
			"subject_matter_codes": ["medicine:surgery"],
			"acceptable_subject_codes": ["medicine:nursing"],
			"subject_matter_strictness": "extreme",
			"expertise_tier": "wizard"
		},
		"reasoning": "test"
	}` + "\n```"}, time.Second, common.GetLogger())

	c := svc.ClassifyJob(context.Background(), &models.JobPosting{
		ID:          "job_6",
		Description: "tagging work",
		Countries:   []string{"US"},
	})
	assert.Equal(t, models.JobClassGeneric, c.JobClass)
	assert.Equal(t, 1.0, c.Confidence)
	assert.Empty(t, c.Requirements.SubjectMatterCodes)
	assert.Empty(t, c.Requirements.AcceptableSubjectCodes)
	assert.Equal(t, models.StrictnessModerate, c.Requirements.SubjectMatterStrictness)
	assert.Equal(t, models.TierIntermediate, c.Requirements.ExpertiseTier)
	assert.Equal(t, []string{"US"}, c.Requirements.Countries)
	assert.Equal(t, models.SourceLLM, c.Source)
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSON("Here is the result:\n```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, extractJSON(`{"a":1}`))
	assert.Equal(t, `{"a":1}`, extractJSON(`The answer is {"a":1}`))
}
