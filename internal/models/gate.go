package models

// GateResult is the subject-matter gate verdict for one candidate.
type GateResult struct {
	Passed         bool    `json:"passed"`
	BestSimilarity float64 `json:"best_similarity"`
	BestUserCode   string  `json:"best_user_code,omitempty"`
	BestJobCode    string  `json:"best_job_code,omitempty"`
	Threshold      float64 `json:"threshold"`
	// FailReason is one of the qualification filter reasons when the gate
	// rejects; empty on pass.
	FailReason string `json:"fail_reason,omitempty"`
	FailDetail string `json:"fail_detail,omitempty"`
}
