package sim

import (
	"sort"
	"sync"
	"time"

	"github.com/itohio/bottlesort/pkg/hw"
)

var _ hw.Clock = (*Clock)(nil)

// Clock is a virtual clock. Sleep advances time instantly and fires any
// scheduled callbacks that fall inside the slept interval, in order.
type Clock struct {
	mu     sync.Mutex
	now    time.Time
	events []event
	seq    int
}

type event struct {
	at  time.Time
	seq int
	fn  func()
}

// NewClock creates a virtual clock starting at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current virtual time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep advances virtual time by d.
func (c *Clock) Sleep(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		if len(c.events) == 0 || c.events[0].at.After(target) {
			c.now = target
			c.mu.Unlock()
			return
		}
		ev := c.events[0]
		c.events = c.events[1:]
		c.now = ev.at
		c.mu.Unlock()

		ev.fn()
	}
}

// AfterFunc schedules fn to run once virtual time has advanced by d.
func (c *Clock) AfterFunc(d time.Duration, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	c.events = append(c.events, event{at: c.now.Add(d), seq: c.seq, fn: fn})
	sort.Slice(c.events, func(i, j int) bool {
		if c.events[i].at.Equal(c.events[j].at) {
			return c.events[i].seq < c.events[j].seq
		}
		return c.events[i].at.Before(c.events[j].at)
	})
}

// Pending returns the number of callbacks not fired yet.
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}
