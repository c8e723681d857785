package testfixtures

import (
	"fmt"
	"sync"
	"time"
)

// Clock is a deterministic time source. Tick advances it by a fixed step so
// rows written during one test get distinct, increasing timestamps.
type Clock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewClock starts at ReferenceTime and steps by step (one second when zero).
func NewClock(step time.Duration) *Clock {
	if step <= 0 {
		step = time.Second
	}
	return &Clock{now: referenceTime, step: step}
}

// Now reads the clock without moving it.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Tick moves the clock one step and returns the new time.
func (c *Clock) Tick() time.Time {
	return c.Advance(c.step)
}

// Advance moves the clock by d, e.g. past a session's expiry.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// IDs hands out "<prefix>-NNN" identifiers, the format the fixtures use.
type IDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

func NewIDs(prefix string) *IDs {
	return &IDs{prefix: prefix}
}

func (g *IDs) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%03d", g.prefix, g.n)
}
