package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/aptus/internal/interfaces"
)

// QualificationHandler serves the qualification store endpoints.
type QualificationHandler struct {
	storage interfaces.QualificationStorage
	logger  arbor.ILogger
}

// NewQualificationHandler creates a qualification handler.
func NewQualificationHandler(storage interfaces.QualificationStorage, logger arbor.ILogger) *QualificationHandler {
	return &QualificationHandler{
		storage: storage,
		logger:  logger,
	}
}

// ListHandler returns paged qualifications for a job.
// GET /v1/jobs/{jobId}/qualifications?qualifies_only&limit&offset
func (h *QualificationHandler) ListHandler(w http.ResponseWriter, r *http.Request, jobID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	start := time.Now()

	qualifiesOnly := QueryBool(r, "qualifies_only")
	limit := QueryInt(r, "limit", 100)
	offset := QueryInt(r, "offset", 0)

	rows, total, err := h.storage.GetQualifications(r.Context(), jobID, qualifiesOnly, limit, offset)
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}

	WriteOK(w, map[string]interface{}{
		"job_id":         jobID,
		"qualifications": rows,
		"total":          total,
		"limit":          limit,
		"offset":         offset,
	}, start)
}

// PendingHandler returns qualified-but-unnotified rows.
// GET /v1/jobs/{jobId}/pending-notifications
func (h *QualificationHandler) PendingHandler(w http.ResponseWriter, r *http.Request, jobID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	start := time.Now()

	rows, err := h.storage.GetPending(r.Context(), jobID)
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}

	WriteOK(w, map[string]interface{}{
		"job_id":  jobID,
		"pending": rows,
		"count":   len(rows),
	}, start)
}

// markNotifiedRequest is the bulk notification stamp input.
type markNotifiedRequest struct {
	UserIDs     []string `json:"user_ids"`
	NotifiedVia string   `json:"notified_via"`
}

// MarkNotifiedHandler bulk-sets NotifiedAt on existing rows.
// POST /v1/jobs/{jobId}/mark-notified
func (h *QualificationHandler) MarkNotifiedHandler(w http.ResponseWriter, r *http.Request, jobID string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	start := time.Now()

	var req markNotifiedRequest
	if err := DecodeLenient(r, &req); err != nil {
		WriteDomainError(w, r, err)
		return
	}
	if len(req.UserIDs) == 0 {
		WriteDomainError(w, r, validationf("user_ids is required"))
		return
	}
	via := req.NotifiedVia
	if via == "" {
		via = "manual"
	}

	marked, err := h.storage.MarkNotified(r.Context(), jobID, req.UserIDs, via)
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}

	WriteOK(w, map[string]interface{}{
		"job_id": jobID,
		"marked": marked,
	}, start)
}
