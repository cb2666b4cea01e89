// internal/poller/runner.go
package poller

import "time"

// Start launches the ticker loop in its own goroutine. Calling it twice is
// a no-op.
func (p *Poller) Start() {
	p.mu.Lock()
	if p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go p.run()
}

// run polls once per interval. One goroutine per subscription. No overlap:
// a slow read makes the ticker drop ticks rather than stack reads.
func (p *Poller) run() {
	defer close(p.done)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			if !p.PollOnce(p.ctx) {
				return
			}
		}
	}
}
