package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/aptus/internal/common"
	"github.com/ternarybob/aptus/internal/services/matching"
)

// MatchHandler serves the synchronous score API.
type MatchHandler struct {
	matcher *matching.Service
	logger  arbor.ILogger
}

// NewMatchHandler creates a match handler.
func NewMatchHandler(matcher *matching.Service, logger arbor.ILogger) *MatchHandler {
	return &MatchHandler{
		matcher: matcher,
		logger:  logger,
	}
}

// scoreUsersRequest is the score-users-for-job input. Omitted weights
// with auto_weights=false default to the generic profile after
// normalization.
type scoreUsersRequest struct {
	JobID        string   `json:"job_id"`
	UserIDs      []string `json:"user_ids"`
	WeightDomain *float64 `json:"w_domain"`
	WeightTask   *float64 `json:"w_task"`
	AutoWeights  bool     `json:"auto_weights"`
	TopK         int      `json:"top_k"`
	Threshold    *float64 `json:"threshold"`
}

// nonFiniteWeightRe spots weight fields carrying bare NaN/Infinity
// tokens before the repair pass nulls them.
var nonFiniteWeightRe = regexp.MustCompile(`"w_(?:domain|task)"\s*:\s*-?(?:NaN|Infinity)\b`)

// decodeScoreUsers decodes the score payload, surfacing non-finite
// weight values as the 422 weights code instead of a generic decode
// failure. Covers numbers the decoder cannot represent (overflow to
// +Inf) and bare NaN/Infinity tokens.
func decodeScoreUsers(r *http.Request, out *scoreUsersRequest) error {
	body, err := DecodeLenientBody(r, out)
	if err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && strings.HasPrefix(typeErr.Value, "number") &&
			(typeErr.Field == "w_domain" || typeErr.Field == "w_task") {
			return common.NewError(common.CodeWeights, "w_domain and w_task must be finite numbers")
		}
		return err
	}
	if nonFiniteWeightRe.Match(body) {
		return common.NewError(common.CodeWeights, "w_domain and w_task must be finite numbers")
	}
	return nil
}

// ScoreUsersForJob computes blended scores for a candidate list.
// POST /v1/match/score_users_for_job
func (h *MatchHandler) ScoreUsersForJob(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req scoreUsersRequest
	if err := decodeScoreUsers(r, &req); err != nil {
		WriteDomainError(w, r, err)
		return
	}
	if req.JobID == "" {
		WriteDomainError(w, r, validationf("job_id is required"))
		return
	}
	if len(req.UserIDs) == 0 {
		WriteDomainError(w, r, validationf("user_ids is required"))
		return
	}

	params := matching.ScoreUsersParams{
		JobID:       req.JobID,
		UserIDs:     req.UserIDs,
		AutoWeights: req.AutoWeights,
		TopK:        req.TopK,
		Threshold:   req.Threshold,
	}
	if !req.AutoWeights {
		if req.WeightDomain != nil {
			params.WeightDomain = *req.WeightDomain
		}
		if req.WeightTask != nil {
			params.WeightTask = *req.WeightTask
		}
		if req.WeightDomain == nil && req.WeightTask == nil {
			params.AutoWeights = true
		}
	}

	result, err := h.matcher.ScoreUsersForJob(r.Context(), params)
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// scoreJobsRequest is the reverse-scoring input.
type scoreJobsRequest struct {
	UserID      string   `json:"user_id"`
	JobIDs      []string `json:"job_ids"`
	AutoWeights *bool    `json:"auto_weights"`
	TopK        int      `json:"top_k"`
}

// ScoreJobsForUser scores a user against a job list.
// POST /v1/match/score_jobs_for_user
func (h *MatchHandler) ScoreJobsForUser(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req scoreJobsRequest
	if err := DecodeLenient(r, &req); err != nil {
		WriteDomainError(w, r, err)
		return
	}
	if req.UserID == "" {
		WriteDomainError(w, r, validationf("user_id is required"))
		return
	}
	if len(req.JobIDs) == 0 {
		WriteDomainError(w, r, validationf("job_ids is required"))
		return
	}

	autoWeights := true
	if req.AutoWeights != nil {
		autoWeights = *req.AutoWeights
	}

	result, err := h.matcher.ScoreJobsForUser(r.Context(), matching.ScoreJobsParams{
		UserID:      req.UserID,
		JobIDs:      req.JobIDs,
		AutoWeights: autoWeights,
		TopK:        req.TopK,
	})
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}
