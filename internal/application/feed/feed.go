package feed

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/bryanwahyu/threatdesk/internal/application"
)

const (
	Capacity        = 8
	DefaultInterval = 4 * time.Second
)

// Pool is the fixed set of status lines the feed picks from.
var Pool = []string{
	"Inbound traffic encrypted...",
	"Firewall integrity check: OK",
	"Memory leak scan completed",
	"Encrypted tunnel stable",
	"Threat database updated",
	"Port 443 monitoring active",
	"IP Masking operational",
}

// Entry is one feed line.
type Entry struct {
	Time    string `json:"time"`
	Message string `json:"message"`
}

// Feed is a rolling log of ambient status lines, newest first.
type Feed struct {
	interval time.Duration
	clock    application.Clock
	pick     func(n int) int

	mu      sync.RWMutex
	entries []Entry
	subs    map[chan Entry]struct{}
}

func New(interval time.Duration, clock application.Clock) *Feed {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &Feed{interval: interval, clock: clock, pick: rand.IntN, subs: make(map[chan Entry]struct{})}
}

// Tick appends one random entry and drops the oldest beyond Capacity.
func (f *Feed) Tick() Entry {
	e := Entry{
		Time:    f.clock.Now().Format("15:04:05"),
		Message: Pool[f.pick(len(Pool))],
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append([]Entry{e}, f.entries...)
	if len(f.entries) > Capacity {
		f.entries = f.entries[:Capacity]
	}
	for ch := range f.subs {
		// slow subscribers miss entries
		select {
		case ch <- e:
		default:
		}
	}
	return e
}

// Subscribe returns a channel receiving every new entry, and a cancel func
// that must be called to release it.
func (f *Feed) Subscribe() (<-chan Entry, func()) {
	ch := make(chan Entry, Capacity)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, ch)
			f.mu.Unlock()
		})
	}
}

// Run ticks every interval until ctx is cancelled.
func (f *Feed) Run(ctx context.Context) {
	t := time.NewTicker(f.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			f.Tick()
		}
	}
}

func (f *Feed) Entries() []Entry {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]Entry{}, f.entries...)
}
