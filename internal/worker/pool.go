// Package worker runs background revalidation of list controllers.
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Refresher is anything that can re-fetch its data, typically a
// *listctl.Controller.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Pool refreshes every registered target once per interval using a fixed
// number of workers. A target whose previous refresh is still running is
// skipped for that tick.
type Pool struct {
	logger   *zap.Logger
	interval time.Duration
	count    int

	mu      sync.Mutex
	targets []Refresher
	busy    map[int]bool

	jobs chan int
	wg   sync.WaitGroup
	stop chan struct{}
	once sync.Once
}

func NewPool(logger *zap.Logger, interval time.Duration, count int) *Pool {
	if count < 1 {
		count = 1
	}
	return &Pool{
		logger:   logger,
		interval: interval,
		count:    count,
		busy:     make(map[int]bool),
		jobs:     make(chan int),
		stop:     make(chan struct{}),
	}
}

// Add registers r. Safe to call after Start.
func (p *Pool) Add(r Refresher) {
	p.mu.Lock()
	p.targets = append(p.targets, r)
	p.mu.Unlock()
}

func (p *Pool) Start(ctx context.Context) {
	p.logger.Info("Starting revalidator", zap.Int("workers", p.count), zap.Duration("interval", p.interval))

	for i := 0; i < p.count; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	p.wg.Add(1)
	go p.tick(ctx)
}

func (p *Pool) Stop() {
	p.once.Do(func() {
		p.logger.Info("Stopping revalidator...")
		close(p.stop)
		p.wg.Wait()
		p.logger.Info("Revalidator stopped")
	})
}

func (p *Pool) tick(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, idx := range p.claim() {
				select {
				case p.jobs <- idx:
				case <-p.stop:
					return
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// claim marks every idle target busy and returns their indexes.
func (p *Pool) claim() []int {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []int
	for i := range p.targets {
		if p.busy[i] {
			continue
		}
		p.busy[i] = true
		out = append(out, i)
	}
	return out
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		case idx := <-p.jobs:
			p.revalidate(ctx, id, idx)
		}
	}
}

func (p *Pool) revalidate(ctx context.Context, workerID, idx int) {
	p.mu.Lock()
	target := p.targets[idx]
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.busy, idx)
		p.mu.Unlock()
	}()

	start := time.Now()
	if err := target.Refresh(ctx); err != nil {
		// The controller keeps its last good snapshot; the next tick retries.
		p.logger.Warn("revalidation failed",
			zap.Int("worker", workerID),
			zap.Int("target", idx),
			zap.Error(err),
		)
		return
	}
	p.logger.Debug("revalidated",
		zap.Int("worker", workerID),
		zap.Int("target", idx),
		zap.Duration("took", time.Since(start)),
	)
}
