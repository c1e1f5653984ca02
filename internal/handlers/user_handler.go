package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/aptus/internal/services/matching"
)

// UserHandler serves the user indexing endpoints.
type UserHandler struct {
	matcher *matching.Service
	logger  arbor.ILogger
}

// NewUserHandler creates a user handler.
func NewUserHandler(matcher *matching.Service, logger arbor.ILogger) *UserHandler {
	return &UserHandler{
		matcher: matcher,
		logger:  logger,
	}
}

// UpsertHandler indexes both user capsules. POST /v1/users/upsert
func (h *UserHandler) UpsertHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	start := time.Now()

	var req userUpsertRequest
	if err := DecodeLenient(r, &req); err != nil {
		WriteDomainError(w, r, err)
		return
	}
	profile, err := req.normalize()
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}

	classification, err := h.matcher.UpsertUser(r.Context(), profile)
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}

	WriteOK(w, map[string]interface{}{
		"user_id":               profile.ID,
		"expertise_tier":        classification.ExpertiseTier,
		"subject_matter_codes":  classification.SubjectMatterCodes,
		"confidence":            classification.Confidence,
		"classification_source": classification.Source,
	}, start)
}

// DeleteHandler removes user vectors and audit trail.
// DELETE /v1/users/{userId}
func (h *UserHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}
	start := time.Now()

	userID := PathSegment(r.URL.Path, "/v1/users/")
	if userID == "" {
		WriteDomainError(w, r, validationf("user id is required in the path"))
		return
	}

	if err := h.matcher.DeleteUser(r.Context(), userID); err != nil {
		WriteDomainError(w, r, err)
		return
	}

	WriteOK(w, map[string]interface{}{"user_id": userID}, start)
}
