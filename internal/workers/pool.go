// Package workers provides the bounded worker pool the stream adapter
// uses to drain each client's per-connection write queue without
// letting one slow or closing socket stall the others.
package workers

import (
	"log/slog"
	"time"

	"github.com/alitto/pond"
)

// BroadcastPool runs the per-client write-queue drain tasks; a client has
// at most one drain task in flight at a time, however many frames are
// queued for it. It is intentionally a single general-purpose pool: the
// hub has no other background work competing for it.
type BroadcastPool struct {
	pool *pond.WorkerPool
}

// PoolConfig controls the pool's worker bounds.
type PoolConfig struct {
	Workers int
}

func NewBroadcastPool(cfg PoolConfig) *BroadcastPool {
	if cfg.Workers <= 0 {
		cfg.Workers = 16
	}
	return &BroadcastPool{
		pool: pond.New(
			cfg.Workers,
			cfg.Workers*4,
			pond.MinWorkers(1),
			pond.IdleTimeout(30*time.Second),
		),
	}
}

// Submit runs task on the pool. Panics inside task (e.g. a
// send on a socket mid-close) are recovered so one client can never take
// down the broadcast of the others.
func (p *BroadcastPool) Submit(task func()) {
	p.pool.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("broadcast task panicked", "error", r)
			}
		}()
		task()
	})
}

func (p *BroadcastPool) Stats() map[string]any {
	return map[string]any{
		"running_workers":  p.pool.RunningWorkers(),
		"idle_workers":     p.pool.IdleWorkers(),
		"submitted_tasks":  p.pool.SubmittedTasks(),
		"waiting_tasks":    p.pool.WaitingTasks(),
		"successful_tasks": p.pool.SuccessfulTasks(),
		"failed_tasks":     p.pool.FailedTasks(),
	}
}

func (p *BroadcastPool) Shutdown() {
	slog.Info("shutting down broadcast pool")
	p.pool.StopAndWait()
}
