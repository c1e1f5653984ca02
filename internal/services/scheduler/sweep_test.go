package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/aptus/internal/common"
	"github.com/ternarybob/aptus/internal/interfaces"
	"github.com/ternarybob/aptus/internal/models"
)

type fakeJobs struct {
	jobs []*models.Job
	err  error
}

func (f *fakeJobs) EnsureJob(context.Context, string, string, bool) error {
	return nil
}

func (f *fakeJobs) GetJob(context.Context, string) (*models.Job, error) {
	return nil, nil
}

func (f *fakeJobs) SetActive(context.Context, string, bool) error {
	return nil
}

func (f *fakeJobs) DeleteJob(context.Context, string) error {
	return nil
}

func (f *fakeJobs) ListActiveJobs(context.Context) ([]*models.Job, error) {
	return f.jobs, f.err
}

type fakeQuals struct {
	pending map[string][]models.Qualification
	errFor  string
}

func (f *fakeQuals) StoreResults(context.Context, string, []models.ScoredUser, interfaces.StoreResultsOptions) (interfaces.StoreResultsOutcome, error) {
	return interfaces.StoreResultsOutcome{}, nil
}

func (f *fakeQuals) GetQualifications(context.Context, string, bool, int, int) ([]models.Qualification, int, error) {
	return nil, 0, nil
}

func (f *fakeQuals) GetPending(_ context.Context, jobID string) ([]models.Qualification, error) {
	if jobID == f.errFor {
		return nil, errors.New("read failed")
	}
	return f.pending[jobID], nil
}

func (f *fakeQuals) GetNotifiedUserIDs(context.Context, string) (map[string]struct{}, error) {
	return nil, nil
}

func (f *fakeQuals) MarkNotified(context.Context, string, []string, string) (int, error) {
	return 0, nil
}

func (f *fakeQuals) SetJobActive(context.Context, string, bool) error {
	return nil
}

func (f *fakeQuals) DeleteJobQualifications(context.Context, string) (int, error) {
	return 0, nil
}

type backlogRecorder struct {
	mu       sync.Mutex
	backlogs map[string]int
}

func (r *backlogRecorder) MatchVolume(string, int, int) {}

func (r *backlogRecorder) MissingVectors(string, int, int) {}

func (r *backlogRecorder) LowConfidence(string, float64) {}

func (r *backlogRecorder) PendingBacklog(jobID string, pending int) {
	r.mu.Lock()
	if r.backlogs == nil {
		r.backlogs = map[string]int{}
	}
	r.backlogs[jobID] = pending
	r.mu.Unlock()
}

func TestSweepFlagsPendingBacklogs(t *testing.T) {
	jobs := &fakeJobs{jobs: []*models.Job{
		{ID: "job_backlog", IsActive: true},
		{ID: "job_clean", IsActive: true},
		{ID: "job_broken", IsActive: true},
	}}
	quals := &fakeQuals{
		pending: map[string][]models.Qualification{
			"job_backlog": {{JobID: "job_backlog", UserID: "usr_1"}, {JobID: "job_backlog", UserID: "usr_2"}},
		},
		errFor: "job_broken",
	}
	recorder := &backlogRecorder{}

	s := NewSweeper(&common.SweepConfig{Enabled: true}, jobs, quals, recorder, common.GetLogger())
	s.sweep()

	assert.Equal(t, map[string]int{"job_backlog": 2}, recorder.backlogs, "clean and broken jobs raise nothing")
}

func TestSweepToleratesListFailure(t *testing.T) {
	jobs := &fakeJobs{err: errors.New("store down")}
	recorder := &backlogRecorder{}

	s := NewSweeper(&common.SweepConfig{Enabled: true}, jobs, &fakeQuals{}, recorder, common.GetLogger())
	s.sweep()
	assert.Empty(t, recorder.backlogs)
}

func TestSweeperDisabledIsNoOp(t *testing.T) {
	s := NewSweeper(&common.SweepConfig{Enabled: false}, &fakeJobs{}, &fakeQuals{}, &backlogRecorder{}, common.GetLogger())
	require.NoError(t, s.Start())
	s.Stop()
}

func TestSweeperRejectsBadSchedule(t *testing.T) {
	s := NewSweeper(&common.SweepConfig{Enabled: true, Schedule: "not a schedule"}, &fakeJobs{}, &fakeQuals{}, &backlogRecorder{}, common.GetLogger())
	require.Error(t, s.Start())
}

func TestSweeperStartStopLifecycle(t *testing.T) {
	s := NewSweeper(&common.SweepConfig{Enabled: true, Schedule: "*/15 * * * *"}, &fakeJobs{}, &fakeQuals{}, &backlogRecorder{}, common.GetLogger())
	require.NoError(t, s.Start())
	require.Error(t, s.Start(), "double start is rejected")
	s.Stop()
	s.Stop()
}
