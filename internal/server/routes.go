package server

import (
	"net/http"
	"strings"

	"github.com/ternarybob/aptus/internal/common"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Users (indexing channel)
	mux.HandleFunc("/v1/users/upsert", s.app.UserHandler.UpsertHandler)
	mux.HandleFunc("/v1/users/", s.app.UserHandler.DeleteHandler) // DELETE /{userId}

	// API routes - Jobs (indexing + notify pipelines)
	mux.HandleFunc("/v1/jobs/upsert", s.app.JobHandler.UpsertHandler)
	mux.HandleFunc("/v1/jobs/notify", s.app.NotifyHandler.Notify)
	mux.HandleFunc("/v1/jobs/", s.handleJobRoutes) // Handles /v1/jobs/{id} and subpaths

	// API routes - Match (synchronous scoring channel)
	mux.HandleFunc("/v1/match/score_users_for_job", s.app.MatchHandler.ScoreUsersForJob)
	mux.HandleFunc("/v1/match/score_jobs_for_user", s.app.MatchHandler.ScoreJobsForUser)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)
	mux.HandleFunc("/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleJobRoutes routes job-scoped requests to the appropriate handler.
// Paths are /v1/jobs/{jobId} or /v1/jobs/{jobId}/{action}.
func (s *Server) handleJobRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/jobs/")
	jobID, action, _ := strings.Cut(rest, "/")
	if jobID == "" || strings.Contains(action, "/") {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}

	// DELETE /v1/jobs/{jobId}
	if action == "" {
		if r.Method != http.MethodDelete {
			s.writeError(w, r, common.NewError(common.CodeValidation, "method not allowed: "+r.Method))
			return
		}
		s.app.JobHandler.DeleteHandler(w, r)
		return
	}

	switch action {
	case "re-notify":
		s.app.NotifyHandler.ReNotify(w, r, jobID)
	case "evaluate":
		s.app.NotifyHandler.Evaluate(w, r, jobID)
	case "metadata":
		s.app.JobHandler.MetadataHandler(w, r, jobID)
	case "status":
		s.app.JobHandler.StatusHandler(w, r, jobID)
	case "qualifications":
		s.app.QualificationHandler.ListHandler(w, r, jobID)
	case "pending-notifications":
		s.app.QualificationHandler.PendingHandler(w, r, jobID)
	case "mark-notified":
		s.app.QualificationHandler.MarkNotifiedHandler(w, r, jobID)
	default:
		s.app.APIHandler.NotFoundHandler(w, r)
	}
}
