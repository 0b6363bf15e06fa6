package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidkych/cursus-backend/internal/models"
)

type memJobStore struct {
	mu   sync.Mutex
	jobs map[string]models.ScheduleJob
}

func newMemJobStore() *memJobStore {
	return &memJobStore{jobs: make(map[string]models.ScheduleJob)}
}

func (m *memJobStore) Insert(_ context.Context, job *models.ScheduleJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.InstanceID] = *job
	return nil
}

func (m *memJobStore) Get(_ context.Context, instanceID string) (*models.ScheduleJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[instanceID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := job
	return &copied, nil
}

func (m *memJobStore) Update(_ context.Context, job *models.ScheduleJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[job.InstanceID]; !ok {
		return ErrNotFound
	}
	m.jobs[job.InstanceID] = *job
	return nil
}

func (m *memJobStore) Delete(_ context.Context, instanceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[instanceID]; !ok {
		return ErrNotFound
	}
	delete(m.jobs, instanceID)
	return nil
}

func (m *memJobStore) ListRegistered(_ context.Context) ([]models.ScheduleJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var jobs []models.ScheduleJob
	for _, job := range m.jobs {
		if job.Registered {
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}

type stubRunner struct {
	mu    sync.Mutex
	runs  int
	fail  error
	types []string
}

func (r *stubRunner) Run(_ context.Context, promptType string, _ map[string]interface{}) (interface{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs++
	r.types = append(r.types, promptType)
	if r.fail != nil {
		return nil, r.fail
	}
	return map[string]interface{}{"status": "ok"}, nil
}

func (r *stubRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

func waitForStatus(t *testing.T, store JobStore, id, want string) *models.ScheduleJob {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.Get(context.Background(), id)
		if err == nil && job.Status == want {
			return job
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %s", id, want)
	return nil
}

func TestCreateFiresAndCompletes(t *testing.T) {
	store := newMemJobStore()
	runner := &stubRunner{}
	s := New(store, runner)
	defer s.Stop()

	id, err := s.Create(context.Background(), JobSpec{
		ExecAtUTC:  time.Now().UTC(),
		PromptType: models.PromptLogAppend,
		Payload:    map[string]interface{}{"message": "hello"},
	})
	require.NoError(t, err)

	job := waitForStatus(t, store, id, models.JobStatusCompleted)
	assert.False(t, job.Registered)
	assert.NotNil(t, job.CompletedAt)
	assert.Equal(t, 1, runner.count())
}

func TestFailingPromptMarksJobFailed(t *testing.T) {
	store := newMemJobStore()
	runner := &stubRunner{fail: errors.New("boom")}
	s := New(store, runner)
	defer s.Stop()

	id, err := s.Create(context.Background(), JobSpec{
		ExecAtUTC:  time.Now().UTC(),
		PromptType: models.PromptHTTPCall,
	})
	require.NoError(t, err)

	job := waitForStatus(t, store, id, models.JobStatusFailed)
	result, ok := job.Result.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "boom", result["error"])
}

func TestTerminatePurgesPendingJob(t *testing.T) {
	store := newMemJobStore()
	s := New(store, &stubRunner{})
	defer s.Stop()

	id, err := s.Create(context.Background(), JobSpec{
		ExecAtUTC:  time.Now().Add(time.Hour).UTC(),
		PromptType: models.PromptLogAppend,
	})
	require.NoError(t, err)

	require.NoError(t, s.Terminate(context.Background(), id))

	_, err = s.Status(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)

	jobs, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, jobs)

	// Second delete reports not found.
	assert.ErrorIs(t, s.Terminate(context.Background(), id), ErrNotFound)
}

func TestTerminateCompletedJobReportsNotFound(t *testing.T) {
	store := newMemJobStore()
	s := New(store, &stubRunner{})
	defer s.Stop()

	id, err := s.Create(context.Background(), JobSpec{
		ExecAtUTC:  time.Now().UTC(),
		PromptType: models.PromptLogAppend,
	})
	require.NoError(t, err)

	waitForStatus(t, store, id, models.JobStatusCompleted)

	assert.ErrorIs(t, s.Terminate(context.Background(), id), ErrNotFound)
}

func TestWipeTerminatesEverything(t *testing.T) {
	store := newMemJobStore()
	s := New(store, &stubRunner{})
	defer s.Stop()

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := s.Create(context.Background(), JobSpec{
			ExecAtUTC:  time.Now().Add(time.Hour).UTC(),
			PromptType: models.PromptLogAppend,
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	terminated, err := s.Wipe(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, ids, terminated)

	jobs, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestStartReloadsPendingAndFailsInterrupted(t *testing.T) {
	store := newMemJobStore()
	runner := &stubRunner{}

	pastDue := models.ScheduleJob{
		InstanceID: "past-due",
		ExecAtUTC:  time.Now().Add(-time.Minute).UTC(),
		PromptType: models.PromptLogAppend,
		Status:     models.JobStatusPending,
		Registered: true,
	}
	interrupted := models.ScheduleJob{
		InstanceID: "interrupted",
		ExecAtUTC:  time.Now().Add(-time.Minute).UTC(),
		PromptType: models.PromptLogAppend,
		Status:     models.JobStatusRunning,
		Registered: true,
	}
	require.NoError(t, store.Insert(context.Background(), &pastDue))
	require.NoError(t, store.Insert(context.Background(), &interrupted))

	s := New(store, runner)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	// Past-due pending work still fires, once.
	waitForStatus(t, store, "past-due", models.JobStatusCompleted)
	assert.Equal(t, 1, runner.count())

	job, err := store.Get(context.Background(), "interrupted")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, job.Status)
	result, ok := job.Result.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "interrupted by restart", result["error"])
}
