package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/aptus/internal/services/matching"
)

// JobHandler serves job indexing, metadata, and status endpoints.
type JobHandler struct {
	matcher *matching.Service
	logger  arbor.ILogger
}

// NewJobHandler creates a job handler.
func NewJobHandler(matcher *matching.Service, logger arbor.ILogger) *JobHandler {
	return &JobHandler{
		matcher: matcher,
		logger:  logger,
	}
}

// UpsertHandler indexes a job. POST /v1/jobs/upsert
func (h *JobHandler) UpsertHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	start := time.Now()

	var req jobUpsertRequest
	if err := DecodeLenient(r, &req); err != nil {
		WriteDomainError(w, r, err)
		return
	}
	job, err := req.normalize()
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}

	idx, err := h.matcher.UpsertJob(r.Context(), job)
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}

	c := idx.Classification
	WriteOK(w, map[string]interface{}{
		"job_id":                job.ID,
		"job_class":             c.JobClass,
		"subject_matter_codes":  c.Requirements.SubjectMatterCodes,
		"expertise_tier":        c.Requirements.ExpertiseTier,
		"confidence":            c.Confidence,
		"classification_source": c.Source,
	}, start)
}

// DeleteHandler removes job vectors and qualifications.
// DELETE /v1/jobs/{jobId}
func (h *JobHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	jobID := PathSegment(r.URL.Path, "/v1/jobs/")
	if jobID == "" {
		WriteDomainError(w, r, validationf("job id is required in the path"))
		return
	}

	deleted, err := h.matcher.DeleteJob(r.Context(), jobID)
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}

	WriteOK(w, map[string]interface{}{
		"job_id":                 jobID,
		"qualifications_deleted": deleted,
	}, start)
}

// metadataRequest patches geography on both job sections.
type metadataRequest struct {
	Countries []string `json:"countries"`
	Languages []string `json:"languages"`
}

// MetadataHandler updates countries/languages on both sections.
// PATCH /v1/jobs/{jobId}/metadata
func (h *JobHandler) MetadataHandler(w http.ResponseWriter, r *http.Request, jobID string) {
	if !RequireMethod(w, r, http.MethodPatch) {
		return
	}
	start := time.Now()

	var req metadataRequest
	if err := DecodeLenient(r, &req); err != nil {
		WriteDomainError(w, r, err)
		return
	}

	if err := h.matcher.UpdateJobMetadata(r.Context(), jobID, req.Countries, req.Languages); err != nil {
		WriteDomainError(w, r, err)
		return
	}

	WriteOK(w, map[string]interface{}{"job_id": jobID}, start)
}

// statusRequest flips the authoritative active flag.
type statusRequest struct {
	IsActive *bool `json:"is_active"`
}

// StatusHandler sets isActive. PATCH /v1/jobs/{jobId}/status
func (h *JobHandler) StatusHandler(w http.ResponseWriter, r *http.Request, jobID string) {
	if !RequireMethod(w, r, http.MethodPatch) {
		return
	}
	start := time.Now()

	var req statusRequest
	if err := DecodeLenient(r, &req); err != nil {
		WriteDomainError(w, r, err)
		return
	}
	if req.IsActive == nil {
		WriteDomainError(w, r, validationf("is_active is required"))
		return
	}

	if err := h.matcher.SetJobStatus(r.Context(), jobID, *req.IsActive); err != nil {
		WriteDomainError(w, r, err)
		return
	}

	WriteOK(w, map[string]interface{}{
		"job_id":    jobID,
		"is_active": *req.IsActive,
	}, start)
}
