package interfaces

import "github.com/ternarybob/aptus/internal/models"

// AuditSink accepts audit events without blocking the caller. Saturated
// sinks drop events; pipelines never wait on audit.
type AuditSink interface {
	Record(event *models.AuditEvent)
}

// Alerter emits operational alerts. All methods are fire-and-forget;
// failures are logged, never propagated.
type Alerter interface {
	MatchVolume(jobID string, resultsCount, aboveThreshold int)
	MissingVectors(jobID string, missing, pool int)
	LowConfidence(entityID string, confidence float64)
	PendingBacklog(jobID string, pending int)
}
