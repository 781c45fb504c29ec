package smsverify

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// codeReaper proactively deletes expired verification records on a fixed
// interval. Purely an aid: expiry is enforced on every access regardless, so
// a stopped or lagging reaper never affects correctness.
type codeReaper struct {
	engine   *Engine
	store    expiredReaper
	interval time.Duration

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func newCodeReaper(engine *Engine, store expiredReaper, interval time.Duration) *codeReaper {
	r := &codeReaper{
		engine:   engine,
		store:    store,
		interval: interval,
		done:     make(chan struct{}),
	}

	r.wg.Add(1)
	go r.run()

	return r
}

func (r *codeReaper) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.reapOnce()
		case <-r.done:
			return
		}
	}
}

func (r *codeReaper) reapOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), r.interval)
	defer cancel()

	reaped, err := r.store.ReapExpired(ctx, r.engine.clock())
	if err != nil {
		r.engine.emitAudit(ctx, auditEventReap, false, "", err, nil)
		return
	}
	if reaped > 0 {
		r.engine.metrics.Add(MetricCodesReaped, uint64(reaped))
		r.engine.emitAudit(ctx, auditEventReap, true, "", nil, func() map[string]string {
			return map[string]string{
				"reaped": strconv.Itoa(reaped),
			}
		})
	}
}

func (r *codeReaper) Stop() {
	if r == nil {
		return
	}
	r.stopOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
	})
}
