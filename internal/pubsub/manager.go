// Package pubsub implements the pub/sub fan-out layer of spec.md §4.5:
// exact-channel and glob-pattern subscription registries delivering to
// per-connection sinks.
package pubsub

import (
	"path/filepath"
	"sync"
)

// Sink is the delivery target for one subscribed connection. The
// engine adapts a live RESP connection to this interface so pubsub
// never depends on the transport or wire-codec packages directly —
// the teacher's manager.go instead reaches straight into
// transport.ConnInfo.Writer, which is why it cannot be unit-tested
// without a live connection.
type Sink interface {
	// Send delivers one frame: "subscribe"/"unsubscribe" acks carry
	// (kind, channel, count); "message" carries (kind, channel,
	// payload); "pmessage" carries (kind, pattern, channel, payload).
	Send(fields ...string) error
}

type channel struct {
	subscribers map[string]Sink
}

type patternChannel struct {
	pattern     string
	subscribers map[string]Sink
}

// Manager is the process-wide pub/sub registry (spec.md §5 "Shared
// resources"), grounded on the teacher's PubSubManager
// (libspine/engine/pubsub/manager.go) but keyed by an opaque
// connection ID and a Sink rather than a transport.ConnInfo.
type Manager struct {
	mu       sync.RWMutex
	channels map[string]*channel
	patterns map[string]*patternChannel
	subs     map[string]*subscriberState // connID -> state
}

type subscriberState struct {
	sink     Sink
	channels map[string]bool
	patterns map[string]bool
}

func NewManager() *Manager {
	return &Manager{
		channels: make(map[string]*channel),
		patterns: make(map[string]*patternChannel),
		subs:     make(map[string]*subscriberState),
	}
}

func (m *Manager) state(connID string, sink Sink) *subscriberState {
	s, ok := m.subs[connID]
	if !ok {
		s = &subscriberState{sink: sink, channels: make(map[string]bool), patterns: make(map[string]bool)}
		m.subs[connID] = s
	}
	return s
}

// Subscribe adds connID to channelName's subscriber set and returns
// the connection's total subscription count (channels + patterns)
// after the change, for the "subscribe" ack frame.
func (m *Manager) Subscribe(connID string, sink Sink, channelName string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.channels[channelName]
	if !ok {
		ch = &channel{subscribers: make(map[string]Sink)}
		m.channels[channelName] = ch
	}
	ch.subscribers[connID] = sink

	s := m.state(connID, sink)
	s.channels[channelName] = true
	return len(s.channels) + len(s.patterns)
}

func (m *Manager) Unsubscribe(connID, channelName string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ch, ok := m.channels[channelName]; ok {
		delete(ch.subscribers, connID)
		if len(ch.subscribers) == 0 {
			delete(m.channels, channelName)
		}
	}

	s, ok := m.subs[connID]
	if !ok {
		return 0
	}
	delete(s.channels, channelName)
	remaining := len(s.channels) + len(s.patterns)
	if remaining == 0 {
		delete(m.subs, connID)
	}
	return remaining
}

func (m *Manager) PSubscribe(connID string, sink Sink, pattern string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	pc, ok := m.patterns[pattern]
	if !ok {
		pc = &patternChannel{pattern: pattern, subscribers: make(map[string]Sink)}
		m.patterns[pattern] = pc
	}
	pc.subscribers[connID] = sink

	s := m.state(connID, sink)
	s.patterns[pattern] = true
	return len(s.channels) + len(s.patterns)
}

func (m *Manager) PUnsubscribe(connID, pattern string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if pc, ok := m.patterns[pattern]; ok {
		delete(pc.subscribers, connID)
		if len(pc.subscribers) == 0 {
			delete(m.patterns, pattern)
		}
	}

	s, ok := m.subs[connID]
	if !ok {
		return 0
	}
	delete(s.patterns, pattern)
	remaining := len(s.channels) + len(s.patterns)
	if remaining == 0 {
		delete(m.subs, connID)
	}
	return remaining
}

// Channels and Patterns list a connection's current subscriptions —
// used by UNSUBSCRIBE/PUNSUBSCRIBE with no arguments, which must emit
// one frame per currently-subscribed channel/pattern.
func (m *Manager) Channels(connID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.subs[connID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(s.channels))
	for c := range s.channels {
		out = append(out, c)
	}
	return out
}

func (m *Manager) Patterns(connID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.subs[connID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(s.patterns))
	for p := range s.patterns {
		out = append(out, p)
	}
	return out
}

// RemoveConnection drops every subscription held by connID, called on
// connection close (spec.md §4.8 "Terminal" state).
func (m *Manager) RemoveConnection(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.subs[connID]
	if !ok {
		return
	}
	for c := range s.channels {
		if ch, ok := m.channels[c]; ok {
			delete(ch.subscribers, connID)
			if len(ch.subscribers) == 0 {
				delete(m.channels, c)
			}
		}
	}
	for p := range s.patterns {
		if pc, ok := m.patterns[p]; ok {
			delete(pc.subscribers, connID)
			if len(pc.subscribers) == 0 {
				delete(m.patterns, p)
			}
		}
	}
	delete(m.subs, connID)
}

// Publish delivers message to every exact and pattern subscriber of
// channelName and returns the total recipient count, per spec.md
// §4.5. Delivery happens synchronously and under m.mu (read lock) so
// it runs in the same critical section as the triggering PUBLISH —
// spec.md §5's "subscribers observe state consistent with the
// published event" — unlike the teacher, which fires delivery via
// unsynchronized goroutines that can reorder messages from the same
// publisher.
func (m *Manager) Publish(channelName, message string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int
	if ch, ok := m.channels[channelName]; ok {
		for _, sink := range ch.subscribers {
			if sink.Send("message", channelName, message) == nil {
				count++
			}
		}
	}
	for pattern, pc := range m.patterns {
		if !matchGlob(pattern, channelName) {
			continue
		}
		for _, sink := range pc.subscribers {
			if sink.Send("pmessage", pattern, channelName, message) == nil {
				count++
			}
		}
	}
	return count
}

// matchGlob implements the "*"/"?"/"[set]"/"\" escape rules of
// spec.md §4.5, grounded on the teacher's use of filepath.Match for
// the same purpose (its matchPattern helper). filepath.Match treats
// '/' as a separator: "*" and "?" do not match '/', so a pattern such
// as "news.*" does not match "news.a/b".
func matchGlob(pattern, name string) bool {
	matched, err := filepath.Match(pattern, name)
	return err == nil && matched
}
