package interfaces

import (
	"context"

	"github.com/ternarybob/aptus/internal/models"
)

// StoreResultsOptions controls a qualification batch write.
type StoreResultsOptions struct {
	// NotifiedUserIDs marks these users as notified in the same pass.
	NotifiedUserIDs []string
	NotifiedVia     string
	JobTitle        string
	JobActive       bool
	ThresholdUsed   float64
}

// StoreResultsOutcome reports batch bookkeeping. A single failed row is
// counted but does not abort the batch.
type StoreResultsOutcome struct {
	Stored int
	Failed int
}

// JobStorage manages authoritative job rows.
type JobStorage interface {
	EnsureJob(ctx context.Context, id, title string, isActive bool) error
	GetJob(ctx context.Context, id string) (*models.Job, error)
	SetActive(ctx context.Context, id string, active bool) error
	DeleteJob(ctx context.Context, id string) error
	ListActiveJobs(ctx context.Context) ([]*models.Job, error)
}

// QualificationStorage persists per-(job,user) scoring outcomes.
// NotifiedAt is write-sticky: an upsert never clears a prior value.
type QualificationStorage interface {
	StoreResults(ctx context.Context, jobID string, results []models.ScoredUser, opts StoreResultsOptions) (StoreResultsOutcome, error)
	GetQualifications(ctx context.Context, jobID string, qualifiesOnly bool, limit, offset int) ([]models.Qualification, int, error)
	GetPending(ctx context.Context, jobID string) ([]models.Qualification, error)
	GetNotifiedUserIDs(ctx context.Context, jobID string) (map[string]struct{}, error)
	MarkNotified(ctx context.Context, jobID string, userIDs []string, via string) (int, error)
	SetJobActive(ctx context.Context, jobID string, active bool) error
	DeleteJobQualifications(ctx context.Context, jobID string) (int, error)
}

// AuditStorage is the append-only audit trail.
type AuditStorage interface {
	Append(ctx context.Context, event *models.AuditEvent) error
	ListByJob(ctx context.Context, jobID string, limit int) ([]models.AuditEvent, error)
	DeleteByJob(ctx context.Context, jobID string) (int, error)
	DeleteByUser(ctx context.Context, userID string) (int, error)
}

// StorageManager owns the storage backends and their lifecycle.
type StorageManager interface {
	JobStorage() JobStorage
	QualificationStorage() QualificationStorage
	AuditStorage() AuditStorage
	Close() error
}
