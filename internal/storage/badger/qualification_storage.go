package badger

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/aptus/internal/common"
	"github.com/ternarybob/aptus/internal/interfaces"
	"github.com/ternarybob/aptus/internal/models"
)

// QualificationStorage implements the QualificationStorage interface for
// Badger. Rows are keyed jobID|userID so each scoring pass overwrites
// the previous outcome for the pair, except NotifiedAt which is sticky.
type QualificationStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewQualificationStorage creates a new QualificationStorage instance
func NewQualificationStorage(db *BadgerDB, logger arbor.ILogger) interfaces.QualificationStorage {
	return &QualificationStorage{
		db:     db,
		logger: logger,
	}
}

// StoreResults upserts one row per scored user. A row that fails to
// write is counted and skipped; the batch continues. NotifiedAt from a
// previous pass is always preserved; users in NotifiedUserIDs are
// stamped only when no stamp exists yet.
func (s *QualificationStorage) StoreResults(ctx context.Context, jobID string, results []models.ScoredUser, opts interfaces.StoreResultsOptions) (interfaces.StoreResultsOutcome, error) {
	notified := make(map[string]struct{}, len(opts.NotifiedUserIDs))
	for _, id := range opts.NotifiedUserIDs {
		notified[id] = struct{}{}
	}

	now := time.Now()
	outcome := interfaces.StoreResultsOutcome{}

	for _, result := range results {
		key := models.QualificationKey(jobID, result.UserID)

		row := models.Qualification{
			Key:           key,
			JobID:         jobID,
			UserID:        result.UserID,
			Qualifies:     result.Qualifies,
			FinalScore:    result.FinalScore,
			DomainScore:   result.DomainScore,
			TaskScore:     result.TaskScore,
			ThresholdUsed: opts.ThresholdUsed,
			FilterReason:  result.FilterReason,
			EvaluatedAt:   now,
			JobActive:     opts.JobActive,
		}

		var existing models.Qualification
		if err := s.db.Store().Get(key, &existing); err == nil {
			row.NotifiedAt = existing.NotifiedAt
			row.NotifiedVia = existing.NotifiedVia
		}

		if _, ok := notified[result.UserID]; ok && row.NotifiedAt == nil {
			stamp := now
			row.NotifiedAt = &stamp
			row.NotifiedVia = opts.NotifiedVia
		}

		if err := s.db.Store().Upsert(key, &row); err != nil {
			s.logger.Warn().
				Err(err).
				Str("job_id", jobID).
				Str("user_id", result.UserID).
				Msg("Failed to store qualification row")
			outcome.Failed++
			continue
		}
		outcome.Stored++
	}

	return outcome, nil
}

func (s *QualificationStorage) GetQualifications(ctx context.Context, jobID string, qualifiesOnly bool, limit, offset int) ([]models.Qualification, int, error) {
	query := badgerhold.Where("JobID").Eq(jobID).Index("JobID")
	if qualifiesOnly {
		query = query.And("Qualifies").Eq(true)
	}

	var all []models.Qualification
	if err := s.db.Store().Find(&all, query.SortBy("FinalScore").Reverse()); err != nil {
		return nil, 0, common.WrapError(common.CodeStoreFailure, "failed to list qualifications", err)
	}

	total := len(all)
	if offset >= total {
		return []models.Qualification{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], total, nil
}

// GetPending returns qualifying rows that were never notified.
func (s *QualificationStorage) GetPending(ctx context.Context, jobID string) ([]models.Qualification, error) {
	var rows []models.Qualification
	query := badgerhold.Where("JobID").Eq(jobID).Index("JobID").
		And("Qualifies").Eq(true).
		And("NotifiedAt").IsNil()
	if err := s.db.Store().Find(&rows, query.SortBy("FinalScore").Reverse()); err != nil {
		return nil, common.WrapError(common.CodeStoreFailure, "failed to list pending qualifications", err)
	}
	return rows, nil
}

// GetNotifiedUserIDs returns the users already stamped for the job. The
// store query narrows by job; stamp presence is checked here.
func (s *QualificationStorage) GetNotifiedUserIDs(ctx context.Context, jobID string) (map[string]struct{}, error) {
	var rows []models.Qualification
	if err := s.db.Store().Find(&rows, badgerhold.Where("JobID").Eq(jobID).Index("JobID")); err != nil {
		return nil, common.WrapError(common.CodeStoreFailure, "failed to list notified users", err)
	}

	ids := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if row.NotifiedAt != nil {
			ids[row.UserID] = struct{}{}
		}
	}
	return ids, nil
}

// MarkNotified stamps NotifiedAt on existing rows. Unknown pairs are
// skipped; the count of rows actually stamped is returned.
func (s *QualificationStorage) MarkNotified(ctx context.Context, jobID string, userIDs []string, via string) (int, error) {
	now := time.Now()
	marked := 0

	for _, userID := range userIDs {
		key := models.QualificationKey(jobID, userID)

		var row models.Qualification
		if err := s.db.Store().Get(key, &row); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				continue
			}
			return marked, common.WrapError(common.CodeStoreFailure, "failed to load qualification", err)
		}

		if row.NotifiedAt == nil {
			stamp := now
			row.NotifiedAt = &stamp
			row.NotifiedVia = via
			if err := s.db.Store().Upsert(key, &row); err != nil {
				return marked, common.WrapError(common.CodeStoreFailure, "failed to mark notified", err)
			}
			marked++
		}
	}
	return marked, nil
}

// SetJobActive fans the job's active flag out to its qualification rows
// so reporting queries stay consistent without a join.
func (s *QualificationStorage) SetJobActive(ctx context.Context, jobID string, active bool) error {
	var rows []models.Qualification
	if err := s.db.Store().Find(&rows, badgerhold.Where("JobID").Eq(jobID).Index("JobID")); err != nil {
		return common.WrapError(common.CodeStoreFailure, "failed to list qualifications", err)
	}

	for i := range rows {
		if rows[i].JobActive == active {
			continue
		}
		rows[i].JobActive = active
		if err := s.db.Store().Upsert(rows[i].Key, &rows[i]); err != nil {
			return common.WrapError(common.CodeStoreFailure, "failed to update qualification", err)
		}
	}
	return nil
}

func (s *QualificationStorage) DeleteJobQualifications(ctx context.Context, jobID string) (int, error) {
	var rows []models.Qualification
	if err := s.db.Store().Find(&rows, badgerhold.Where("JobID").Eq(jobID).Index("JobID")); err != nil {
		return 0, common.WrapError(common.CodeStoreFailure, "failed to list qualifications", err)
	}

	deleted := 0
	for _, row := range rows {
		if err := s.db.Store().Delete(row.Key, &models.Qualification{}); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				continue
			}
			return deleted, common.WrapError(common.CodeStoreFailure, "failed to delete qualification", err)
		}
		deleted++
	}
	return deleted, nil
}
