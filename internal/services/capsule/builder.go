package capsule

import (
	"fmt"
	"strings"

	"github.com/ternarybob/aptus/internal/common"
	"github.com/ternarybob/aptus/internal/models"
)

// Builder assembles the two embedding texts per entity. Assembly is a
// pure function of its inputs: identical inputs produce byte-identical
// texts, which keeps re-indexing idempotent.
type Builder struct{}

// NewBuilder creates a capsule builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// BuildJobCapsule produces the domain and task texts for a job posting.
func (b *Builder) BuildJobCapsule(job *models.JobPosting, classification *models.JobClassification) (*models.Capsule, error) {
	if strings.TrimSpace(job.Description) == "" {
		return nil, common.NewError(common.CodeValidation, "job description is required to build capsules")
	}

	req := classification.Requirements

	var domain strings.Builder
	domain.WriteString("Job posting")
	if job.Title != "" {
		domain.WriteString(": " + job.Title)
	}
	domain.WriteString(". Classification: " + string(classification.JobClass) + ".")
	if len(req.SubjectMatterCodes) > 0 {
		domain.WriteString(" Subject matter: " + strings.Join(specialties(req.SubjectMatterCodes), ", ") + ".")
	}
	if len(req.Credentials) > 0 {
		domain.WriteString(" Required credentials: " + strings.Join(req.Credentials, ", ") + ".")
	}
	if req.ExpertiseTier != "" {
		domain.WriteString(" Expertise tier: " + string(req.ExpertiseTier) + ".")
	}
	if req.MinimumExperienceYears > 0 {
		domain.WriteString(fmt.Sprintf(" Minimum experience: %d years.", req.MinimumExperienceYears))
	}
	domain.WriteString(" " + condense(job.Description))

	var task strings.Builder
	task.WriteString("Work description")
	if job.Title != "" {
		task.WriteString(" for " + job.Title)
	}
	task.WriteString(".")
	if len(req.Languages) > 0 {
		task.WriteString(" Languages: " + strings.Join(req.Languages, ", ") + ".")
	}
	task.WriteString(" " + condense(job.Description))

	keywords := models.NormalizeStrings(append(append([]string{}, req.SubjectMatterCodes...), req.Credentials...))

	return &models.Capsule{
		DomainText: domain.String(),
		TaskText:   task.String(),
		Keywords:   keywords,
	}, nil
}

// BuildUserCapsule produces the domain and task texts for a profile.
// Empty profiles fail with VALIDATION_ERROR.
func (b *Builder) BuildUserCapsule(profile *models.UserProfile, classification *models.UserClassification) (*models.Capsule, error) {
	if profile.IsEmpty() {
		return nil, common.NewError(common.CodeValidation, "profile has no content to index")
	}

	var domain strings.Builder
	domain.WriteString("Freelancer profile.")
	if classification.ExpertiseTier != "" {
		domain.WriteString(" Expertise tier: " + string(classification.ExpertiseTier) + ".")
	}
	if len(classification.SubjectMatterCodes) > 0 {
		domain.WriteString(" Subject matter: " + strings.Join(specialties(classification.SubjectMatterCodes), ", ") + ".")
	}
	if len(classification.Credentials) > 0 {
		domain.WriteString(" Credentials: " + strings.Join(classification.Credentials, ", ") + ".")
	}
	if classification.YearsExperience > 0 {
		domain.WriteString(fmt.Sprintf(" Experience: %d years.", classification.YearsExperience))
	}
	if profile.Bio != "" {
		domain.WriteString(" " + condense(profile.Bio))
	}

	var task strings.Builder
	task.WriteString("Work skills.")
	if len(profile.Skills) > 0 {
		task.WriteString(" Skills: " + strings.Join(profile.Skills, ", ") + ".")
	}
	if classification.HasLabelingExperience {
		task.WriteString(" Has data labeling and annotation experience.")
	}
	if len(profile.Languages) > 0 {
		task.WriteString(" Languages: " + strings.Join(profile.Languages, ", ") + ".")
	}
	if profile.Bio != "" {
		task.WriteString(" " + condense(profile.Bio))
	}

	keywords := models.NormalizeStrings(append(append([]string{}, classification.SubjectMatterCodes...), profile.Skills...))

	return &models.Capsule{
		DomainText: domain.String(),
		TaskText:   task.String(),
		Keywords:   keywords,
	}, nil
}

// condense collapses whitespace and caps capsule body length; embedding
// quality degrades past a few thousand characters anyway.
func condense(text string) string {
	fields := strings.Fields(text)
	joined := strings.Join(fields, " ")
	const maxLen = 4000
	if len(joined) > maxLen {
		joined = joined[:maxLen]
	}
	return joined
}

func specialties(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		out = append(out, models.SpecialtyOf(code))
	}
	return out
}
