package stream

import (
	"context"
	"time"
)

// waiter is a wakeup signal shared across every stream a blocked
// XREAD/XREADGROUP names (spec.md §4.6). It carries no result: on
// wake the blocked call re-runs its read evaluation once, exactly as
// the spec prescribes, rather than racing to deliver a snapshot.
type waiter struct {
	ch   chan struct{}
	fire func()
}

func newWaiter() *waiter {
	ch := make(chan struct{})
	fired := false
	return &waiter{
		ch: ch,
		fire: func() {
			if !fired {
				fired = true
				close(ch)
			}
		},
	}
}

// groupWaiter is the XREADGROUP BLOCK analogue. It is an alias of
// waiter, and fulfillLocked wakes plain and group waiters alike on
// every XADD/XSETID; pending-mode group reads never block, so nothing
// else needs waking.
type groupWaiter = waiter

// fulfillLocked wakes every registered waiter on this stream. Must be
// called with s.mu held — the same critical section as the triggering
// write, per spec.md §5 "Shared resources".
func (s *Stream) fulfillLocked() {
	for _, w := range s.waiters {
		w.fire()
	}
	s.waiters = nil
	for _, w := range s.gwaiters {
		w.fire()
	}
	s.gwaiters = nil
}

func (s *Stream) addWaiter(w *waiter) {
	s.mu.Lock()
	s.waiters = append(s.waiters, w)
	s.mu.Unlock()
}

func (s *Stream) addGroupWaiter(w *groupWaiter) {
	s.mu.Lock()
	s.gwaiters = append(s.gwaiters, w)
	s.mu.Unlock()
}

// ReadRequest names one stream and the after-id to read beyond, with
// "$"/">" resolved by the caller before blocking begins (spec.md §4.2:
// "after-id = \"$\" resolves to the stream's current last-generated-id
// at call time").
type ReadRequest struct {
	Key   string
	After ID
}

// ReadResult pairs a stream name with the entries read from it.
type ReadResult struct {
	Key     string
	Entries []Entry
}

// ReadBlocking implements XREAD [BLOCK ms] STREAMS keys… ids…. It
// evaluates once immediately; if every stream is empty and timeout is
// non-nil, it blocks until any named stream gains a qualifying entry,
// the deadline passes, or ctx is cancelled, then re-evaluates exactly
// once more (spec.md §4.6 "Fulfillment semantics").
func (m *Manager) ReadBlocking(ctx context.Context, reqs []ReadRequest, count int64, timeout *time.Duration) []ReadResult {
	if out := m.evaluateRead(reqs, count); len(out) > 0 {
		return out
	}
	if timeout == nil {
		return nil
	}

	w := newWaiter()
	streams := make([]*Stream, 0, len(reqs))
	for _, r := range reqs {
		s := m.getOrCreate(r.Key)
		s.addWaiter(w)
		streams = append(streams, s)
	}

	var deadline <-chan time.Time
	if *timeout > 0 {
		t := time.NewTimer(*timeout)
		defer t.Stop()
		deadline = t.C
	}

	select {
	case <-w.ch:
	case <-deadline:
	case <-ctx.Done():
	}

	return m.evaluateRead(reqs, count)
}

func (m *Manager) evaluateRead(reqs []ReadRequest, count int64) []ReadResult {
	var out []ReadResult
	for _, r := range reqs {
		entries := m.After(r.Key, r.After, count)
		if len(entries) > 0 {
			out = append(out, ReadResult{Key: r.Key, Entries: entries})
		}
	}
	return out
}

// ReadGroupBlocking implements XREADGROUP's ">" blocking mode: wait
// for any named stream's group to have entries beyond its
// last-delivered-id, then deliver via the normal ReadGroupNew path
// (which performs the PEL bookkeeping) exactly once.
func (m *Manager) ReadGroupBlocking(ctx context.Context, group, consumer string, keys []string, count int64, timeout *time.Duration) ([]ReadResult, error) {
	out, err := m.readGroupNewAll(group, consumer, keys, count)
	if err != nil || len(out) > 0 || timeout == nil {
		return out, err
	}

	w := newWaiter()
	for _, key := range keys {
		s := m.getOrCreate(key)
		s.addGroupWaiter(w)
	}

	var deadline <-chan time.Time
	if *timeout > 0 {
		t := time.NewTimer(*timeout)
		defer t.Stop()
		deadline = t.C
	}

	select {
	case <-w.ch:
	case <-deadline:
	case <-ctx.Done():
	}

	return m.readGroupNewAll(group, consumer, keys, count)
}
