// Package pace spaces requests at a fixed rate using a leaky bucket.
//
// Each call to Reserve claims the next free slot. Slots are one interval
// apart; a caller that arrives after its slot has passed runs at once and
// the schedule restarts from that moment, so idle time never turns into a
// burst.
package pace

import (
	"context"
	"sync"
	"time"
)

// Pacer hands out evenly spaced start times. A nil *Pacer never waits.
// Pacer is safe for concurrent use.
type Pacer struct {
	interval time.Duration
	now      func() time.Time

	mu     sync.Mutex
	next   time.Time
	count  int64
	waited time.Duration
}

// New returns a Pacer allowing perSecond starts per second, or nil when
// perSecond is not positive.
func New(perSecond float64) *Pacer {
	if perSecond <= 0 {
		return nil
	}
	return &Pacer{
		interval: time.Duration(float64(time.Second) / perSecond),
		now:      time.Now,
	}
}

// Interval is the spacing between two starts.
func (p *Pacer) Interval() time.Duration {
	if p == nil {
		return 0
	}
	return p.interval
}

// Reserve claims the next slot and returns when it begins. The time may
// be in the past, meaning the caller can start immediately.
func (p *Pacer) Reserve() time.Time {
	if p == nil {
		return time.Now()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	slot := p.next
	if slot.Before(now) {
		slot = now
	}
	p.next = slot.Add(p.interval)

	p.count++
	p.waited += slot.Sub(now)
	return slot
}

// Wait blocks until the caller's slot begins or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	delay := time.Until(p.Reserve())
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Stats reports how many slots were reserved and the total delay imposed.
func (p *Pacer) Stats() (count int64, waited time.Duration) {
	if p == nil {
		return 0, 0
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count, p.waited
}
