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

// AuditStorage implements the AuditStorage interface for Badger
type AuditStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewAuditStorage creates a new AuditStorage instance
func NewAuditStorage(db *BadgerDB, logger arbor.ILogger) interfaces.AuditStorage {
	return &AuditStorage{
		db:     db,
		logger: logger,
	}
}

func (s *AuditStorage) Append(ctx context.Context, event *models.AuditEvent) error {
	if event.ID == "" {
		event.ID = common.NewAuditID()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if event.EventType == "" {
		return fmt.Errorf("audit event type is required")
	}

	if err := s.db.Store().Insert(event.ID, event); err != nil {
		return common.WrapError(common.CodeStoreFailure, "failed to append audit event", err)
	}
	return nil
}

func (s *AuditStorage) ListByJob(ctx context.Context, jobID string, limit int) ([]models.AuditEvent, error) {
	query := badgerhold.Where("JobID").Eq(jobID).Index("JobID").SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var events []models.AuditEvent
	if err := s.db.Store().Find(&events, query); err != nil {
		return nil, common.WrapError(common.CodeStoreFailure, "failed to list audit events", err)
	}
	return events, nil
}

func (s *AuditStorage) DeleteByJob(ctx context.Context, jobID string) (int, error) {
	return s.deleteWhere(badgerhold.Where("JobID").Eq(jobID).Index("JobID"))
}

func (s *AuditStorage) DeleteByUser(ctx context.Context, userID string) (int, error) {
	return s.deleteWhere(badgerhold.Where("UserID").Eq(userID))
}

func (s *AuditStorage) deleteWhere(query *badgerhold.Query) (int, error) {
	var events []models.AuditEvent
	if err := s.db.Store().Find(&events, query); err != nil {
		return 0, common.WrapError(common.CodeStoreFailure, "failed to list audit events", err)
	}

	deleted := 0
	for _, event := range events {
		if err := s.db.Store().Delete(event.ID, &models.AuditEvent{}); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				continue
			}
			return deleted, common.WrapError(common.CodeStoreFailure, "failed to delete audit event", err)
		}
		deleted++
	}
	return deleted, nil
}
