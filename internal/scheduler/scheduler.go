// Package scheduler defers prompt execution until a future instant. Jobs
// live in a persistent registry and each armed job holds one timer, so a
// restart re-arms pending work and a job fires at most once.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/davidkych/cursus-backend/internal/models"
)

// Past-due jobs found at reload still fire, after a short grace period.
const reloadGrace = time.Second

const fireTimeout = 60 * time.Second

type Scheduler struct {
	store  JobStore
	runner Runner

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
	wg     sync.WaitGroup
}

func New(store JobStore, runner Runner) *Scheduler {
	return &Scheduler{
		store:  store,
		runner: runner,
		timers: make(map[string]*time.Timer),
	}
}

// JobSpec is the validated input for a new schedule.
type JobSpec struct {
	ExecAtUTC    time.Time
	PromptType   string
	Payload      map[string]interface{}
	Tag          string
	SecondaryTag string
	TertiaryTag  string
}

// Create persists and arms a new job, returning its instance id.
func (s *Scheduler) Create(ctx context.Context, spec JobSpec) (string, error) {
	job := &models.ScheduleJob{
		InstanceID:   uuid.NewString(),
		ExecAtUTC:    spec.ExecAtUTC,
		PromptType:   spec.PromptType,
		Payload:      spec.Payload,
		Tag:          spec.Tag,
		SecondaryTag: spec.SecondaryTag,
		TertiaryTag:  spec.TertiaryTag,
		Status:       models.JobStatusPending,
		Registered:   true,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.Insert(ctx, job); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", context.Canceled
	}
	s.arm(job.InstanceID, job.ExecAtUTC)

	log.Printf("[SCHED] [INFO] scheduled %s %s at %s", job.PromptType, job.InstanceID, job.ExecAtUTC.Format(time.RFC3339))
	return job.InstanceID, nil
}

// Start reloads the registry: pending jobs are re-armed (past-due ones fire
// after a grace period) and jobs interrupted mid-run are marked failed.
func (s *Scheduler) Start(ctx context.Context) error {
	jobs, err := s.store.ListRegistered(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range jobs {
		job := jobs[i]
		switch job.Status {
		case models.JobStatusPending:
			s.arm(job.InstanceID, job.ExecAtUTC)
		case models.JobStatusRunning:
			now := time.Now().UTC()
			job.Status = models.JobStatusFailed
			job.Registered = false
			job.Result = map[string]interface{}{"status": "failed", "error": "interrupted by restart"}
			job.CompletedAt = &now
			if err := s.store.Update(ctx, &job); err != nil {
				log.Println("[SCHED] [ERROR] reload cleanup failed:", err)
			}
		}
	}

	log.Printf("[SCHED] [INFO] reloaded %d registered job(s)", len(jobs))
	return nil
}

// arm must be called with s.mu held.
func (s *Scheduler) arm(instanceID string, execAt time.Time) {
	delay := time.Until(execAt)
	if delay < reloadGrace {
		delay = reloadGrace
	}

	s.wg.Add(1)
	s.timers[instanceID] = time.AfterFunc(delay, func() {
		defer s.wg.Done()
		s.fire(instanceID)
	})
}

func (s *Scheduler) fire(instanceID string) {
	ctx, cancel := context.WithTimeout(context.Background(), fireTimeout)
	defer cancel()

	s.mu.Lock()
	delete(s.timers, instanceID)
	if s.closed {
		s.mu.Unlock()
		return
	}

	job, err := s.store.Get(ctx, instanceID)
	if err != nil || !job.Registered || job.Status != models.JobStatusPending {
		s.mu.Unlock()
		return
	}

	job.Status = models.JobStatusRunning
	if err := s.store.Update(ctx, job); err != nil {
		log.Println("[SCHED] [ERROR] fire status update failed:", err)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	// Fire and forget: a failing prompt completes the job as Failed, it
	// never bubbles up.
	result, runErr := s.runner.Run(ctx, job.PromptType, job.Payload)

	now := time.Now().UTC()
	job.CompletedAt = &now
	job.Registered = false
	if runErr != nil {
		job.Status = models.JobStatusFailed
		job.Result = map[string]interface{}{"status": "failed", "error": runErr.Error()}
		log.Printf("[SCHED] [ERROR] job %s failed: %v", instanceID, runErr)
	} else {
		job.Status = models.JobStatusCompleted
		if result == nil {
			result = map[string]interface{}{"status": "ok"}
		}
		job.Result = result
		log.Printf("[SCHED] [INFO] job %s completed", instanceID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Update(ctx, job); err != nil {
		log.Println("[SCHED] [ERROR] fire finalize failed:", err)
	}
}

// Status returns the job document, including completed and failed ones that
// have not been purged.
func (s *Scheduler) Status(ctx context.Context, instanceID string) (*models.ScheduleJob, error) {
	return s.store.Get(ctx, instanceID)
}

// List returns the registered (not yet executed or terminated) jobs.
func (s *Scheduler) List(ctx context.Context) ([]models.ScheduleJob, error) {
	return s.store.ListRegistered(ctx)
}

// Terminate cancels a pending job and purges its record. Jobs that already
// ran (or never existed) report ErrNotFound.
func (s *Scheduler) Terminate(ctx context.Context, instanceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[instanceID]; ok {
		if timer.Stop() {
			s.wg.Done()
		}
		delete(s.timers, instanceID)
	}

	job, err := s.store.Get(ctx, instanceID)
	if err != nil {
		return err
	}
	if !job.Registered || job.Status != models.JobStatusPending {
		return ErrNotFound
	}

	if err := s.store.Delete(ctx, instanceID); err != nil {
		return err
	}
	log.Printf("[SCHED] [INFO] terminated job %s", instanceID)
	return nil
}

// Wipe terminates and purges every registered job, returning their ids.
func (s *Scheduler) Wipe(ctx context.Context) ([]string, error) {
	jobs, err := s.store.ListRegistered(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	terminated := make([]string, 0, len(jobs))
	for _, job := range jobs {
		if timer, ok := s.timers[job.InstanceID]; ok {
			if timer.Stop() {
				s.wg.Done()
			}
			delete(s.timers, job.InstanceID)
		}
		if err := s.store.Delete(ctx, job.InstanceID); err != nil && err != ErrNotFound {
			log.Println("[SCHED] [ERROR] wipe purge failed:", err)
			continue
		}
		terminated = append(terminated, job.InstanceID)
	}

	log.Printf("[SCHED] [INFO] wiped %d job(s)", len(terminated))
	return terminated, nil
}

// Stop cancels all timers and waits for in-flight executions.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.closed = true
	for id, timer := range s.timers {
		if timer.Stop() {
			s.wg.Done()
		}
		delete(s.timers, id)
	}
	s.mu.Unlock()

	s.wg.Wait()
}
