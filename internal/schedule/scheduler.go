package schedule

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"casedeck/internal/runner"
)

// Scheduler triggers workflow runs from schedules on disk, one-shot via
// timers and periodic via cron.
type Scheduler struct {
	run *runner.Runner

	mu     sync.Mutex
	cron   *cron.Cron    // drives TypePeriodic schedules
	timers []*time.Timer // drives TypeOnce schedules
	done   chan struct{}
}

// New creates a Scheduler that executes runs on the given runner.
func New(run *runner.Runner) *Scheduler {
	return &Scheduler{
		run:  run,
		done: make(chan struct{}),
	}
}

// Start loads all enabled schedules from disk and begins dispatching them.
// It is safe to call Start only once; use Reload to refresh schedules at runtime.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cron = cron.New()
	if err := s.loadLocked(); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("[Scheduler] started")
	return nil
}

// Stop cancels all pending timers and shuts down the cron runner.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil

	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.cron = nil
	}

	select {
	case <-s.done:
	default:
		close(s.done)
	}

	log.Printf("[Scheduler] stopped")
}

// Reload re-reads schedules from disk and re-registers all tasks.
// Call this after adding or removing a schedule at runtime.
func (s *Scheduler) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil

	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	s.cron = cron.New()

	if err := s.loadLocked(); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("[Scheduler] reloaded")
	return nil
}

// loadLocked registers all enabled schedules. Must be called with s.mu held.
func (s *Scheduler) loadLocked() error {
	schedules, err := LoadSchedules()
	if err != nil {
		return err
	}

	now := time.Now()
	for _, sc := range schedules {
		if !sc.Enabled {
			continue
		}
		switch sc.Type {
		case TypeOnce:
			s.registerOnce(sc, now)
		case TypePeriodic:
			s.registerPeriodic(sc)
		default:
			log.Printf("[Scheduler] unknown schedule type %q for id=%s, skipping", sc.Type, sc.ID)
		}
	}
	return nil
}

// registerOnce schedules a one-shot timer. Must be called with s.mu held.
func (s *Scheduler) registerOnce(sc *Schedule, now time.Time) {
	if sc.At == nil {
		log.Printf("[Scheduler] once schedule id=%s has no 'at' time, skipping", sc.ID)
		return
	}
	delay := sc.At.Sub(now)
	if delay <= 0 {
		// Already in the past, fire immediately then clean up.
		log.Printf("[Scheduler] once schedule id=%s is in the past, firing immediately", sc.ID)
		go s.fireOnce(sc)
		return
	}

	sched := sc
	t := time.AfterFunc(delay, func() {
		log.Printf("[Scheduler] once schedule id=%s fired", sched.ID)
		s.execute(sched)
		// One-shot: remove after firing.
		if err := RemoveSchedule(sched.ID); err != nil {
			log.Printf("[Scheduler] failed to remove once schedule id=%s: %v", sched.ID, err)
		}
	})
	s.timers = append(s.timers, t)
	log.Printf("[Scheduler] registered once schedule id=%s fires in %s", sc.ID, delay.Round(time.Second))
}

// fireOnce triggers a past-due one-shot schedule and removes it from disk.
func (s *Scheduler) fireOnce(sc *Schedule) {
	s.execute(sc)
	if err := RemoveSchedule(sc.ID); err != nil {
		log.Printf("[Scheduler] failed to remove once schedule id=%s: %v", sc.ID, err)
	}
}

// registerPeriodic registers a cron-driven schedule. Must be called with s.mu held.
func (s *Scheduler) registerPeriodic(sc *Schedule) {
	if sc.Cron == "" {
		log.Printf("[Scheduler] periodic schedule id=%s has no cron expression, skipping", sc.ID)
		return
	}

	sched := sc
	_, err := s.cron.AddFunc(sc.Cron, func() {
		log.Printf("[Scheduler] periodic schedule id=%s fired", sched.ID)
		s.execute(sched)
	})
	if err != nil {
		log.Printf("[Scheduler] failed to register cron for schedule id=%s expr=%q: %v", sc.ID, sc.Cron, err)
		return
	}
	log.Printf("[Scheduler] registered periodic schedule id=%s cron=%q", sc.ID, sc.Cron)
}

// execute runs the scheduled workflow batch. Failures are logged, never
// fatal: a missed run does not stop the schedule.
func (s *Scheduler) execute(sc *Schedule) {
	mode := runner.Mode(sc.Mode)
	if mode == "" {
		mode = runner.ModeSeparate
	}

	batch, err := s.run.Run(context.Background(), sc.WorkflowID, sc.Documents, mode)
	if err != nil {
		log.Printf("[Scheduler] schedule id=%s run failed: %v", sc.ID, err)
		return
	}
	log.Printf("[Scheduler] schedule id=%s completed with %d result(s)", sc.ID, len(batch.Results))

	if err := MarkRan(sc.ID, time.Now()); err != nil {
		log.Printf("[Scheduler] failed to record last run for id=%s: %v", sc.ID, err)
	}
}
