package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/aptus/internal/common"
	"github.com/ternarybob/aptus/internal/interfaces"
	"github.com/ternarybob/aptus/internal/models"
)

// JobStorage implements the JobStorage interface for Badger
type JobStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewJobStorage creates a new JobStorage instance
func NewJobStorage(db *BadgerDB, logger arbor.ILogger) interfaces.JobStorage {
	return &JobStorage{
		db:     db,
		logger: logger,
	}
}

// EnsureJob upserts the authoritative job row. CreatedAt survives
// re-posting the same job.
func (s *JobStorage) EnsureJob(ctx context.Context, id, title string, isActive bool) error {
	if id == "" {
		return fmt.Errorf("job ID is required")
	}

	now := time.Now().UnixMilli()
	job := models.Job{
		ID:        id,
		Title:     title,
		IsActive:  isActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var existing models.Job
	if err := s.db.Store().Get(id, &existing); err == nil {
		job.CreatedAt = existing.CreatedAt
	}

	if err := s.db.Store().Upsert(id, &job); err != nil {
		return common.WrapError(common.CodeStoreFailure, "failed to save job", err)
	}
	return nil
}

func (s *JobStorage) GetJob(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	if err := s.db.Store().Get(id, &job); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, common.NewError(common.CodeJobNotFound, fmt.Sprintf("job not found: %s", id))
		}
		return nil, common.WrapError(common.CodeStoreFailure, "failed to get job", err)
	}
	return &job, nil
}

func (s *JobStorage) SetActive(ctx context.Context, id string, active bool) error {
	var job models.Job
	if err := s.db.Store().Get(id, &job); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return common.NewError(common.CodeJobNotFound, fmt.Sprintf("job not found: %s", id))
		}
		return common.WrapError(common.CodeStoreFailure, "failed to get job", err)
	}

	job.IsActive = active
	job.UpdatedAt = time.Now().UnixMilli()
	if err := s.db.Store().Upsert(id, &job); err != nil {
		return common.WrapError(common.CodeStoreFailure, "failed to update job", err)
	}
	return nil
}

// DeleteJob removes the job row. Deleting an unknown job is a no-op.
func (s *JobStorage) DeleteJob(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Job{}); err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return common.WrapError(common.CodeStoreFailure, "failed to delete job", err)
	}
	return nil
}

func (s *JobStorage) ListActiveJobs(ctx context.Context) ([]*models.Job, error) {
	var jobs []models.Job
	if err := s.db.Store().Find(&jobs, badgerhold.Where("IsActive").Eq(true)); err != nil {
		return nil, common.WrapError(common.CodeStoreFailure, "failed to list active jobs", err)
	}

	result := make([]*models.Job, len(jobs))
	for i := range jobs {
		result[i] = &jobs[i]
	}
	return result, nil
}
