package models

// JobClass partitions jobs into the two scoring profiles.
type JobClass string

const (
	JobClassSpecialized JobClass = "specialized"
	JobClassGeneric     JobClass = "generic"
)

// Strictness is the three-level dial mapped to a cosine-similarity floor
// in the subject-matter gate.
type Strictness string

const (
	StrictnessStrict   Strictness = "strict"
	StrictnessModerate Strictness = "moderate"
	StrictnessLenient  Strictness = "lenient"
)

// ExpertiseTier describes the seniority band of a job or a user.
type ExpertiseTier string

const (
	TierEntry        ExpertiseTier = "entry"
	TierIntermediate ExpertiseTier = "intermediate"
	TierExpert       ExpertiseTier = "expert"
	TierSpecialist   ExpertiseTier = "specialist"
)

// JobPosting is the canonicalized job input produced by the gateway
// adapter. All downstream stages consume this shape only.
type JobPosting struct {
	ID          string   `json:"id" validate:"required"`
	Title       string   `json:"title"`
	Description string   `json:"description" validate:"required"`
	Countries   []string `json:"countries"`
	Languages   []string `json:"languages"`
	// IsActive defaults to true when the request omits it.
	IsActive *bool `json:"is_active"`
}

// Active resolves the tri-state active flag with its default.
func (j *JobPosting) Active() bool {
	if j.IsActive == nil {
		return true
	}
	return *j.IsActive
}

// Job is the authoritative job row in the qualification store.
type Job struct {
	ID        string `badgerhold:"key"`
	Title     string
	IsActive  bool
	CreatedAt int64 // unix millis
	UpdatedAt int64
}
