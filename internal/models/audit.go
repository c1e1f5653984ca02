package models

import "time"

// Audit event types. One event per pipeline outcome; per-user breakdowns
// ride in the payload.
const (
	AuditUserUpsert     = "user_upsert"
	AuditUserDelete     = "user_delete"
	AuditJobUpsert      = "job_upsert"
	AuditJobDelete      = "job_delete"
	AuditClassification = "classification"
	AuditNotify         = "notify"
	AuditReNotify       = "re_notify"
	AuditEvaluate       = "evaluate"
	AuditMatchScore     = "match_score"
)

// AuditEvent is an append-only record of a pipeline action. Writes are
// best-effort; losing one never fails the request that produced it.
type AuditEvent struct {
	ID        string `badgerhold:"key"`
	RequestID string
	EventType string `badgerholdIndex:"EventType"`
	JobID     string `badgerholdIndex:"JobID"`
	UserID    string
	Payload   map[string]interface{}
	CreatedAt time.Time
}
