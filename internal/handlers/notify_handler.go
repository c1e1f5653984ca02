package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/aptus/internal/models"
	"github.com/ternarybob/aptus/internal/services/matching"
)

// NotifyHandler serves the notify, re-notify, and evaluate pipelines.
type NotifyHandler struct {
	matcher *matching.Service
	logger  arbor.ILogger
}

// NewNotifyHandler creates a notify handler.
func NewNotifyHandler(matcher *matching.Service, logger arbor.ILogger) *NotifyHandler {
	return &NotifyHandler{
		matcher: matcher,
		logger:  logger,
	}
}

// notifyRequest is the notify pipeline input: a job posting plus pool
// constraints.
type notifyRequest struct {
	jobUpsertRequest
	AvailableCountries []string `json:"available_countries"`
	AvailableLanguages []string `json:"available_languages"`
	MaxNotifications   int      `json:"max_notifications"`
}

// Notify runs the full notify pipeline. POST /v1/jobs/notify
func (h *NotifyHandler) Notify(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req notifyRequest
	if err := DecodeLenient(r, &req); err != nil {
		WriteDomainError(w, r, err)
		return
	}
	job, err := req.jobUpsertRequest.normalize()
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}

	result, err := h.matcher.Notify(r.Context(), matching.NotifyParams{
		Job:              *job,
		Countries:        models.NormalizeStrings(req.AvailableCountries),
		Languages:        models.NormalizeLanguages(req.AvailableLanguages),
		MaxNotifications: req.MaxNotifications,
	})
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// reNotifyRequest carries the replay constraints for an edited job.
type reNotifyRequest struct {
	Countries        []string `json:"countries"`
	Languages        []string `json:"languages"`
	MaxNotifications int      `json:"max_notifications"`
}

// ReNotify returns the newly-qualifying delta.
// POST /v1/jobs/{jobId}/re-notify
func (h *NotifyHandler) ReNotify(w http.ResponseWriter, r *http.Request, jobID string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	req := reNotifyRequest{}
	if r.ContentLength != 0 {
		if err := DecodeLenient(r, &req); err != nil {
			WriteDomainError(w, r, err)
			return
		}
	}

	result, err := h.matcher.ReNotify(r.Context(), matching.ReNotifyParams{
		JobID:            jobID,
		Countries:        models.NormalizeStrings(req.Countries),
		Languages:        models.NormalizeLanguages(req.Languages),
		MaxNotifications: req.MaxNotifications,
	})
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// Evaluate recomputes qualifications without marking notified.
// POST /v1/jobs/{jobId}/evaluate
func (h *NotifyHandler) Evaluate(w http.ResponseWriter, r *http.Request, jobID string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	req := reNotifyRequest{}
	if r.ContentLength != 0 {
		if err := DecodeLenient(r, &req); err != nil {
			WriteDomainError(w, r, err)
			return
		}
	}

	result, err := h.matcher.Evaluate(r.Context(), matching.ReNotifyParams{
		JobID:     jobID,
		Countries: models.NormalizeStrings(req.Countries),
		Languages: models.NormalizeLanguages(req.Languages),
	})
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}
