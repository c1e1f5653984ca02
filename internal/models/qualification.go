package models

import "time"

// FilterReason explains why a scored user was not notified. A notified
// user has no filter reason.
const (
	FilterBelowThreshold        = "below_threshold"
	FilterNoSubjectMatterCodes  = "no_subject_matter_codes"
	FilterLowSimilarity         = "low_similarity"
	FilterMaxCap                = "max_cap"
	FilterSubjectMatterMismatch = "subject_matter_mismatch"
)

// Qualification is the persisted per-(job,user) record of the latest
// scoring pass. NotifiedAt is sticky: once set it survives every later
// upsert until the job's qualifications are deleted.
type Qualification struct {
	Key           string `badgerhold:"key"` // JobID + "|" + UserID
	JobID         string `badgerholdIndex:"JobID"`
	UserID        string
	Qualifies     bool
	FinalScore    float64
	DomainScore   float64
	TaskScore     float64
	ThresholdUsed float64
	FilterReason  string // empty when notified
	NotifiedAt    *time.Time
	NotifiedVia   string // "job_post", "job_edit", or manual marker
	EvaluatedAt   time.Time
	JobActive     bool
}

// QualificationKey builds the store key for a (job, user) pair.
func QualificationKey(jobID, userID string) string {
	return jobID + "|" + userID
}

// ScoredUser is one pipeline scoring outcome before persistence.
type ScoredUser struct {
	UserID       string
	DomainScore  float64
	TaskScore    float64
	FinalScore   float64
	Qualifies    bool
	FilterReason string
}
