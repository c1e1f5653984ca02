package models

// UserProfile is the canonicalized freelancer profile produced by the
// gateway adapter. Languages are canonical (see NormalizeLanguages),
// subject codes are "domain:specialty" strings.
type UserProfile struct {
	ID                    string   `json:"id" validate:"required"`
	Bio                   string   `json:"bio"`
	Skills                []string `json:"skills"`
	Credentials           []string `json:"credentials"`
	SubjectMatterCodes    []string `json:"subject_matter_codes"`
	YearsExperience       int      `json:"years_experience" validate:"gte=0"`
	HasLabelingExperience bool     `json:"labeling_experience"`
	Languages             []string `json:"languages"`
	Country               string   `json:"country"`
}

// IsEmpty reports whether the profile has no content worth indexing.
// Empty profiles fail capsule building with VALIDATION_ERROR.
func (u *UserProfile) IsEmpty() bool {
	return u.Bio == "" && len(u.Skills) == 0 && len(u.Credentials) == 0 &&
		len(u.SubjectMatterCodes) == 0
}
