package common

import (
	"strings"

	"github.com/google/uuid"
)

// Vector sections. Every entity stores one vector per section.
const (
	SectionDomain = "domain"
	SectionTask   = "task"
)

// JobVectorID returns the canonical vector id for a job section,
// e.g. "job_123::domain". Ids are bit-stable: the same inputs always
// produce the same id.
func JobVectorID(jobID, section string) string {
	return "job_" + jobID + "::" + section
}

// UserVectorID returns the canonical vector id for a user section,
// e.g. "usr_42::task".
func UserVectorID(userID, section string) string {
	return "usr_" + userID + "::" + section
}

// ParseVectorID splits a canonical vector id into entity type ("job" or
// "user"), entity id, and section. ok is false for malformed ids.
func ParseVectorID(id string) (entityType, entityID, section string, ok bool) {
	base, section, found := strings.Cut(id, "::")
	if !found || (section != SectionDomain && section != SectionTask) {
		return "", "", "", false
	}
	switch {
	case strings.HasPrefix(base, "job_"):
		return "job", strings.TrimPrefix(base, "job_"), section, true
	case strings.HasPrefix(base, "usr_"):
		return "user", strings.TrimPrefix(base, "usr_"), section, true
	}
	return "", "", "", false
}

// NewRequestID generates a correlation id with the "req_" prefix
// Format: req_<uuid>
func NewRequestID() string {
	return "req_" + uuid.New().String()
}

// NewAuditID generates a unique audit event ID with the "aud_" prefix
func NewAuditID() string {
	return "aud_" + uuid.New().String()
}
