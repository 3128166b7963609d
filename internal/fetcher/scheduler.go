package fetcher

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type SchedulerConfig struct {
	Interval time.Duration // e.g. 60*time.Second
	// OnCycleFailure is called when a cycle fails as a whole (commit
	// failure). Per-instrument misses are not fatal and do not trigger it.
	OnCycleFailure func(err error)
}

// Scheduler drives the fetch task on a fixed period. Cycles run on a
// single goroutine and never overlap: a slow cycle delays the next
// tick rather than racing it.
type Scheduler struct {
	task *Task
	cfg  SchedulerConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
}

func NewScheduler(task *Task, cfg SchedulerConfig) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 60 * time.Second
	}
	return &Scheduler{
		task: task,
		cfg:  cfg,
	}
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		fmt.Println("[SCHEDULER] Already running")
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)

		// First cycle immediately, then on the tick.
		s.runCycle()

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.runCycle()
			}
		}
	}()

	fmt.Printf("[SCHEDULER] Started (every %s)\n", s.cfg.Interval)
}

// Stop signals the loop and waits for any in-flight cycle to finish.
// Cycles are never cancelled mid-flight.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.running = false
	done := s.done
	s.mu.Unlock()

	<-done
	fmt.Println("[SCHEDULER] Stopped")
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunNow triggers one cycle outside the normal schedule.
func (s *Scheduler) RunNow(ctx context.Context) (*CycleResult, error) {
	fmt.Println("[SCHEDULER] Manual fetch cycle triggered")
	return s.task.Run(ctx)
}

func (s *Scheduler) runCycle() {
	result, err := s.task.Run(context.Background())
	if err != nil {
		fmt.Printf("[SCHEDULER] Fetch cycle failed: %v\n", err)
		if s.cfg.OnCycleFailure != nil {
			s.cfg.OnCycleFailure(err)
		}
		return
	}

	fmt.Printf("[SCHEDULER] Cycle complete: %d saved, %d failed\n",
		len(result.Success), len(result.Failed))
	for _, f := range result.Failed {
		fmt.Printf("[SCHEDULER]   %s: %s\n", f.Instrument, f.Reason)
	}
}
