package models

// ClassificationSource records whether a classification came from the LLM
// or the deterministic fallback. Downstream logic never branches on the
// source alone; it exists for audit and alerting.
type ClassificationSource string

const (
	SourceLLM      ClassificationSource = "llm"
	SourceFallback ClassificationSource = "fallback"
)

// JobRequirements carries the classifier-derived hiring constraints that
// become vector metadata and gate inputs.
type JobRequirements struct {
	Credentials             []string      `json:"credentials"`
	MinimumExperienceYears  int           `json:"minimum_experience_years"`
	SubjectMatterCodes      []string      `json:"subject_matter_codes"`
	AcceptableSubjectCodes  []string      `json:"acceptable_subject_codes"`
	SubjectMatterStrictness Strictness    `json:"subject_matter_strictness"`
	ExpertiseTier           ExpertiseTier `json:"expertise_tier"`
	Countries               []string      `json:"countries"`
	Languages               []string      `json:"languages"`
}

// JobClassification is the transient per-request classification record.
// Only derived fields are persisted into vector metadata.
type JobClassification struct {
	JobClass     JobClass             `json:"job_class"`
	Confidence   float64              `json:"confidence"`
	Requirements JobRequirements      `json:"requirements"`
	Reasoning    string               `json:"reasoning"`
	Source       ClassificationSource `json:"source"`
}

// UserClassification is the classifier's view of a freelancer profile.
type UserClassification struct {
	ExpertiseTier         ExpertiseTier        `json:"expertise_tier"`
	Credentials           []string             `json:"credentials"`
	SubjectMatterCodes    []string             `json:"subject_matter_codes"`
	YearsExperience       int                  `json:"years_experience"`
	HasLabelingExperience bool                 `json:"has_labeling_experience"`
	Confidence            float64              `json:"confidence"`
	Source                ClassificationSource `json:"source"`
}

// WeightsFor returns the (domain, task) weight profile for a job class.
// Specialized jobs are dominated by subject-matter fit; generic jobs by
// labeling-task fit.
func WeightsFor(class JobClass) (domain, task float64) {
	if class == JobClassSpecialized {
		return 0.85, 0.15
	}
	return 0.30, 0.70
}
