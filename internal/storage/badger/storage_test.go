package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/aptus/internal/common"
	"github.com/ternarybob/aptus/internal/interfaces"
	"github.com/ternarybob/aptus/internal/models"
)

func newTestManager(t *testing.T) interfaces.StorageManager {
	t.Helper()
	mgr, err := NewManager(common.GetLogger(), &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

func TestEnsureJobPreservesCreatedAt(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	jobs := mgr.JobStorage()

	require.NoError(t, jobs.EnsureJob(ctx, "job_1", "First title", true))
	first, err := jobs.GetJob(ctx, "job_1")
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)
	require.NoError(t, jobs.EnsureJob(ctx, "job_1", "Edited title", false))

	second, err := jobs.GetJob(ctx, "job_1")
	require.NoError(t, err)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, "Edited title", second.Title)
	assert.False(t, second.IsActive)
}

func TestGetJobNotFound(t *testing.T) {
	mgr := newTestManager(t)

	_, err := mgr.JobStorage().GetJob(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, common.CodeJobNotFound, common.AsError(err).Code)
}

func TestDeleteJobUnknownIsNoOp(t *testing.T) {
	mgr := newTestManager(t)
	assert.NoError(t, mgr.JobStorage().DeleteJob(context.Background(), "missing"))
}

func TestListActiveJobs(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	jobs := mgr.JobStorage()

	require.NoError(t, jobs.EnsureJob(ctx, "job_a", "A", true))
	require.NoError(t, jobs.EnsureJob(ctx, "job_b", "B", false))
	require.NoError(t, jobs.EnsureJob(ctx, "job_c", "C", true))

	active, err := jobs.ListActiveJobs(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func scored(userID string, final float64, qualifies bool) models.ScoredUser {
	return models.ScoredUser{
		UserID:     userID,
		FinalScore: final,
		Qualifies:  qualifies,
	}
}

func TestStoreResultsStickyNotifiedAt(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	quals := mgr.QualificationStorage()

	// First pass notifies usr_1.
	outcome, err := quals.StoreResults(ctx, "job_1",
		[]models.ScoredUser{scored("usr_1", 0.8, true), scored("usr_2", 0.1, false)},
		interfaces.StoreResultsOptions{
			NotifiedUserIDs: []string{"usr_1"},
			NotifiedVia:     "job_post",
			JobActive:       true,
			ThresholdUsed:   0.25,
		})
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Stored)
	assert.Equal(t, 0, outcome.Failed)

	notified, err := quals.GetNotifiedUserIDs(ctx, "job_1")
	require.NoError(t, err)
	_, ok := notified["usr_1"]
	assert.True(t, ok)

	rows, _, err := quals.GetQualifications(ctx, "job_1", false, 0, 0)
	require.NoError(t, err)
	var firstStamp *time.Time
	for _, row := range rows {
		if row.UserID == "usr_1" {
			firstStamp = row.NotifiedAt
		}
	}
	require.NotNil(t, firstStamp)

	// Re-scoring the pair must not clear or move the stamp.
	_, err = quals.StoreResults(ctx, "job_1",
		[]models.ScoredUser{scored("usr_1", 0.9, true)},
		interfaces.StoreResultsOptions{JobActive: true, ThresholdUsed: 0.25})
	require.NoError(t, err)

	rows, _, err = quals.GetQualifications(ctx, "job_1", false, 0, 0)
	require.NoError(t, err)
	for _, row := range rows {
		if row.UserID == "usr_1" {
			require.NotNil(t, row.NotifiedAt)
			assert.True(t, row.NotifiedAt.Equal(*firstStamp))
			assert.Equal(t, "job_post", row.NotifiedVia)
			assert.Equal(t, 0.9, row.FinalScore, "scores still refresh on upsert")
		}
	}

	// A later pass that notifies usr_1 again must keep the first stamp.
	_, err = quals.StoreResults(ctx, "job_1",
		[]models.ScoredUser{scored("usr_1", 0.95, true)},
		interfaces.StoreResultsOptions{
			NotifiedUserIDs: []string{"usr_1"},
			NotifiedVia:     "job_edit",
			JobActive:       true,
			ThresholdUsed:   0.25,
		})
	require.NoError(t, err)

	rows, _, err = quals.GetQualifications(ctx, "job_1", false, 0, 0)
	require.NoError(t, err)
	for _, row := range rows {
		if row.UserID == "usr_1" {
			require.NotNil(t, row.NotifiedAt)
			assert.True(t, row.NotifiedAt.Equal(*firstStamp), "first stamp must survive a repeat notify")
			assert.Equal(t, "job_post", row.NotifiedVia)
		}
	}

	notified, err = quals.GetNotifiedUserIDs(ctx, "job_1")
	require.NoError(t, err)
	_, ok = notified["usr_1"]
	assert.True(t, ok)
	_, ok = notified["usr_2"]
	assert.False(t, ok, "unnotified rows must not be reported")
}

func TestGetQualificationsOrderingAndPaging(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	quals := mgr.QualificationStorage()

	_, err := quals.StoreResults(ctx, "job_1", []models.ScoredUser{
		scored("usr_low", 0.2, false),
		scored("usr_high", 0.9, true),
		scored("usr_mid", 0.5, true),
	}, interfaces.StoreResultsOptions{JobActive: true})
	require.NoError(t, err)

	rows, total, err := quals.GetQualifications(ctx, "job_1", false, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, rows, 2)
	assert.Equal(t, "usr_high", rows[0].UserID)
	assert.Equal(t, "usr_mid", rows[1].UserID)

	rows, total, err = quals.GetQualifications(ctx, "job_1", true, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	rows, _, err = quals.GetQualifications(ctx, "job_1", false, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestGetPendingExcludesNotified(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	quals := mgr.QualificationStorage()

	_, err := quals.StoreResults(ctx, "job_1", []models.ScoredUser{
		scored("usr_notified", 0.9, true),
		scored("usr_pending", 0.8, true),
		scored("usr_filtered", 0.1, false),
	}, interfaces.StoreResultsOptions{
		NotifiedUserIDs: []string{"usr_notified"},
		NotifiedVia:     "job_post",
	})
	require.NoError(t, err)

	pending, err := quals.GetPending(ctx, "job_1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "usr_pending", pending[0].UserID)
}

func TestMarkNotifiedIdempotent(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	quals := mgr.QualificationStorage()

	_, err := quals.StoreResults(ctx, "job_1", []models.ScoredUser{
		scored("usr_1", 0.9, true),
		scored("usr_2", 0.8, true),
	}, interfaces.StoreResultsOptions{})
	require.NoError(t, err)

	marked, err := quals.MarkNotified(ctx, "job_1", []string{"usr_1", "usr_2", "usr_unknown"}, "manual")
	require.NoError(t, err)
	assert.Equal(t, 2, marked, "unknown pairs are skipped")

	// Second call stamps nothing new.
	marked, err = quals.MarkNotified(ctx, "job_1", []string{"usr_1", "usr_2"}, "manual")
	require.NoError(t, err)
	assert.Equal(t, 0, marked)
}

func TestSetJobActiveFanOut(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	quals := mgr.QualificationStorage()

	_, err := quals.StoreResults(ctx, "job_1", []models.ScoredUser{
		scored("usr_1", 0.9, true),
		scored("usr_2", 0.8, true),
	}, interfaces.StoreResultsOptions{JobActive: true})
	require.NoError(t, err)

	require.NoError(t, quals.SetJobActive(ctx, "job_1", false))

	rows, _, err := quals.GetQualifications(ctx, "job_1", false, 0, 0)
	require.NoError(t, err)
	for _, row := range rows {
		assert.False(t, row.JobActive)
	}
}

func TestDeleteJobQualifications(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	quals := mgr.QualificationStorage()

	_, err := quals.StoreResults(ctx, "job_1", []models.ScoredUser{
		scored("usr_1", 0.9, true),
		scored("usr_2", 0.8, true),
	}, interfaces.StoreResultsOptions{})
	require.NoError(t, err)
	_, err = quals.StoreResults(ctx, "job_2", []models.ScoredUser{
		scored("usr_1", 0.7, true),
	}, interfaces.StoreResultsOptions{})
	require.NoError(t, err)

	deleted, err := quals.DeleteJobQualifications(ctx, "job_1")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	_, total, err := quals.GetQualifications(ctx, "job_2", false, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total, "other jobs' rows survive")
}

func TestAuditAppendAndList(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	audit := mgr.AuditStorage()

	for i := 0; i < 3; i++ {
		require.NoError(t, audit.Append(ctx, &models.AuditEvent{
			EventType: models.AuditNotify,
			JobID:     "job_1",
			Payload:   map[string]interface{}{"seq": i},
		}))
	}
	require.NoError(t, audit.Append(ctx, &models.AuditEvent{
		EventType: models.AuditUserUpsert,
		UserID:    "usr_1",
	}))

	events, err := audit.ListByJob(ctx, "job_1", 2)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	deleted, err := audit.DeleteByJob(ctx, "job_1")
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	deleted, err = audit.DeleteByUser(ctx, "usr_1")
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
}

func TestAuditAppendRequiresEventType(t *testing.T) {
	mgr := newTestManager(t)
	err := mgr.AuditStorage().Append(context.Background(), &models.AuditEvent{JobID: "job_1"})
	require.Error(t, err)
}
