package models

// UserScore is one ranked entry from the synchronous score API. Nil
// channel scores mean the vector was missing; the blended score treats
// them as zero.
type UserScore struct {
	UserID      string   `json:"user_id"`
	DomainScore *float64 `json:"domain_score"`
	TaskScore   *float64 `json:"task_score"`
	FinalScore  float64  `json:"final_score"`
	Rank        int      `json:"rank"`
}

// JobScore is one ranked entry from the reverse (jobs-for-user) API.
type JobScore struct {
	JobID       string   `json:"job_id"`
	JobClass    JobClass `json:"job_class"`
	DomainScore *float64 `json:"domain_score"`
	TaskScore   *float64 `json:"task_score"`
	FinalScore  float64  `json:"final_score"`
	Rank        int      `json:"rank"`
}

// ThresholdSuggestion is the advisory notification cutoff returned by the
// score API. Method records which branch won: "minimum" when the class
// baseline held, "percentile" when the top-30% cutoff exceeded it.
type ThresholdSuggestion struct {
	Value               float64 `json:"value"`
	Method              string  `json:"method"`
	MinThreshold        float64 `json:"min_threshold"`
	PercentileThreshold float64 `json:"percentile_threshold"`
	CountGTESuggested   int     `json:"count_gte_suggested"`
}

// MissingVectors lists candidate ids whose channel vectors were absent.
type MissingVectors struct {
	Domain []string `json:"domain"`
	Task   []string `json:"task"`
}

// ScoreStats summarizes the final-score spread of a scored pool.
type ScoreStats struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// SubjectMatterFilterSummary describes gate activity during a notify run.
type SubjectMatterFilterSummary struct {
	Required      []string   `json:"required"`
	Acceptable    []string   `json:"acceptable"`
	Strictness    Strictness `json:"strictness"`
	Threshold     float64    `json:"threshold"`
	FilteredCount int        `json:"filtered_count"`
	PassedCount   int        `json:"passed_count"`
}

// NotifyResult is the outcome of the notify pipeline for one job.
type NotifyResult struct {
	Status              string                      `json:"status"`
	JobID               string                      `json:"job_id"`
	JobClass            JobClass                    `json:"job_class"`
	NotifyUserIDs       []string                    `json:"notify_user_ids"`
	TotalCandidates     int                         `json:"total_candidates"`
	TotalAboveThreshold int                         `json:"total_above_threshold"`
	SubjectMatterFilter *SubjectMatterFilterSummary `json:"subject_matter_filter,omitempty"`
	ScoreStats          *ScoreStats                 `json:"score_stats,omitempty"`
	ElapsedMs           int64                       `json:"elapsed_ms"`
}

// ReNotifyResult is the newly-qualifying delta after a job edit.
type ReNotifyResult struct {
	Status                string   `json:"status"`
	JobID                 string   `json:"job_id"`
	NewlyQualifiedUserIDs []string `json:"newly_qualified_user_ids"`
	TotalQualified        int      `json:"total_qualified"`
	PreviouslyNotified    int      `json:"previously_notified"`
	ElapsedMs             int64    `json:"elapsed_ms"`
}

// EvaluateResult is the outcome of a qualification recompute that marks
// nobody notified.
type EvaluateResult struct {
	Status          string `json:"status"`
	JobID           string `json:"job_id"`
	TotalCandidates int    `json:"total_candidates"`
	TotalQualified  int    `json:"total_qualified"`
	ElapsedMs       int64  `json:"elapsed_ms"`
}

// Weights is the normalized channel weight pair echoed back to clients.
type Weights struct {
	Domain float64 `json:"domain"`
	Task   float64 `json:"task"`
}

// ScoreUsersResult is the synchronous score API response body.
type ScoreUsersResult struct {
	Status             string              `json:"status"`
	JobID              string              `json:"job_id"`
	JobClass           JobClass            `json:"job_class"`
	Weights            Weights             `json:"weights"`
	Results            []UserScore         `json:"results"`
	MissingVectors     MissingVectors      `json:"missing_vectors"`
	SuggestedThreshold ThresholdSuggestion `json:"suggested_threshold"`
	CountGTEThreshold  *int                `json:"count_gte_threshold,omitempty"`
	ElapsedMs          int64               `json:"elapsed_ms"`
}

// ScoreJobsResult is the reverse score API response body.
type ScoreJobsResult struct {
	Status      string     `json:"status"`
	UserID      string     `json:"user_id"`
	Results     []JobScore `json:"results"`
	MissingJobs []string   `json:"missing_jobs"`
	ElapsedMs   int64      `json:"elapsed_ms"`
}
