package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ReconnectJob runs a recovery task once after a fixed delay. Scheduling
// again replaces any pending run, so at most one run is ever armed.
type ReconnectJob struct {
	delay   time.Duration
	timeout time.Duration
	run     func(ctx context.Context)

	mu     sync.Mutex
	timer  *time.Timer
	seq    uint64
	closed bool
}

func NewReconnectJob(delay, timeout time.Duration, run func(ctx context.Context)) *ReconnectJob {
	return &ReconnectJob{
		delay:   delay,
		timeout: timeout,
		run:     run,
	}
}

// Schedule arms the job, cancelling a previously armed run.
func (j *ReconnectJob) Schedule(reason string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return
	}
	if j.timer != nil {
		j.timer.Stop()
	}
	j.seq++
	seq := j.seq
	j.timer = time.AfterFunc(j.delay, func() { j.fire(seq) })

	log.Info().Dur("delay", j.delay).Str("reason", reason).Msg("reconnect scheduled")
}

// Stop cancels a pending run. It is a no-op when nothing is armed.
func (j *ReconnectJob) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cancelLocked()
}

// Pending reports whether a run is armed and has not fired yet.
func (j *ReconnectJob) Pending() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.timer != nil
}

// Close cancels a pending run and ignores any later Schedule.
func (j *ReconnectJob) Close() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cancelLocked()
	j.closed = true
	log.Info().Msg("reconnect job stopped")
}

func (j *ReconnectJob) cancelLocked() {
	if j.timer != nil {
		j.timer.Stop()
		j.timer = nil
	}
	j.seq++
}

func (j *ReconnectJob) fire(seq uint64) {
	j.mu.Lock()
	if seq != j.seq || j.closed {
		j.mu.Unlock()
		return
	}
	j.timer = nil
	j.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	log.Info().Msg("running scheduled reconnect")
	j.run(ctx)
}
