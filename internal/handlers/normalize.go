package handlers

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ternarybob/aptus/internal/common"
	"github.com/ternarybob/aptus/internal/models"
)

// validate checks canonicalized shapes after alias folding.
var validate = validator.New()

// userUpsertRequest accepts the raw profile variants clients send.
// Aliases are folded here so the rest of the service sees one shape.
type userUpsertRequest struct {
	ID                    string   `json:"id"`
	UserID                string   `json:"user_id"`
	Bio                   string   `json:"bio"`
	Skills                []string `json:"skills"`
	Credentials           []string `json:"credentials"`
	SubjectMatterCodes    []string `json:"subject_matter_codes"`
	YearsExperience       int      `json:"years_experience"`
	LabelingExperience    *bool    `json:"labeling_experience"`
	LabelExperience       *bool    `json:"label_experience"`
	HasLabelingExperience *bool    `json:"has_labeling_experience"`
	Languages             []string `json:"languages"`
	Country               string   `json:"country"`
}

// normalize folds aliases and canonicalizes lists into a UserProfile.
func (req *userUpsertRequest) normalize() (*models.UserProfile, error) {
	id := req.ID
	if id == "" {
		id = req.UserID
	}

	labeling := false
	for _, alias := range []*bool{req.LabelingExperience, req.LabelExperience, req.HasLabelingExperience} {
		if alias != nil {
			labeling = *alias
			break
		}
	}

	codes := models.NormalizeStrings(req.SubjectMatterCodes)
	if err := checkSubjectCodes(codes); err != nil {
		return nil, err
	}

	years := req.YearsExperience
	if years < 0 {
		years = 0
	}

	profile := &models.UserProfile{
		ID:                    id,
		Bio:                   strings.TrimSpace(req.Bio),
		Skills:                models.NormalizeStrings(req.Skills),
		Credentials:           models.NormalizeStrings(req.Credentials),
		SubjectMatterCodes:    codes,
		YearsExperience:       years,
		HasLabelingExperience: labeling,
		Languages:             models.NormalizeLanguages(req.Languages),
		Country:               strings.TrimSpace(req.Country),
	}
	if err := validate.Struct(profile); err != nil {
		return nil, common.WrapError(common.CodeValidation, "profile failed validation", err)
	}
	return profile, nil
}

// jobUpsertRequest accepts the raw job posting variants.
type jobUpsertRequest struct {
	ID          string   `json:"id"`
	JobID       string   `json:"job_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Countries   []string `json:"countries"`
	Languages   []string `json:"languages"`
	IsActive    *bool    `json:"is_active"`
}

func (req *jobUpsertRequest) normalize() (*models.JobPosting, error) {
	id := req.ID
	if id == "" {
		id = req.JobID
	}

	job := &models.JobPosting{
		ID:          id,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Countries:   models.NormalizeStrings(req.Countries),
		Languages:   models.NormalizeLanguages(req.Languages),
		IsActive:    req.IsActive,
	}
	if err := validate.Struct(job); err != nil {
		return nil, common.WrapError(common.CodeValidation, "job posting failed validation", err)
	}
	return job, nil
}

// checkSubjectCodes enforces the "domain:specialty" shape.
func checkSubjectCodes(codes []string) error {
	for _, code := range codes {
		domain, specialty, found := strings.Cut(code, ":")
		if !found || strings.TrimSpace(domain) == "" || strings.TrimSpace(specialty) == "" {
			return validationf("subject matter code %q must have the form domain:specialty", code)
		}
	}
	return nil
}
