package models

// Capsule holds the two purpose-built texts embedded for an entity.
// Building is deterministic: identical inputs produce identical texts so
// re-indexing is idempotent.
type Capsule struct {
	DomainText string   `json:"domain_text"`
	TaskText   string   `json:"task_text"`
	Keywords   []string `json:"keywords"`
}

// Metadata keys shared between job and user vectors. Domain and task
// vectors for one entity carry identical non-section metadata.
const (
	MetaType                    = "type"
	MetaSection                 = "section"
	MetaJobID                   = "job_id"
	MetaUserID                  = "user_id"
	MetaJobClass                = "job_class"
	MetaCredentials             = "credentials"
	MetaRequiredCredentials     = "required_credentials"
	MetaSubjectMatterCodes      = "subject_matter_codes"
	MetaAcceptableSubjectCodes  = "acceptable_subject_codes"
	MetaSubjectMatterStrictness = "subject_matter_strictness"
	MetaRequiredExperienceYears = "required_experience_years"
	MetaExpertiseTier           = "expertise_tier"
	MetaCountries               = "countries"
	MetaLanguages               = "languages"
	MetaCountry                 = "country"
	MetaYearsExperience         = "years_experience"
	MetaHasLabelingExperience   = "has_labeling_experience"

	TypeJob  = "job"
	TypeUser = "user"
)

// VectorRecord is one upserted vector with its metadata.
type VectorRecord struct {
	ID       string                 `json:"id"`
	Values   []float32              `json:"values"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// QueryMatch is one scored hit from a vector query, ordered by
// descending score.
type QueryMatch struct {
	ID       string                 `json:"id"`
	Score    float64                `json:"score"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
