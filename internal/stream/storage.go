package stream

import (
	"errors"
	"sort"
	"sync"
)

var (
	ErrIDTooSmall = errors.New("ERR The ID specified in XADD is equal or smaller than the target stream top item")
)

// Manager owns every stream in the keyspace, keyed by name. It is the
// process-wide singleton referenced by the engine (spec.md §5 "Shared
// resources"), grounded on the teacher's StreamStorage map-of-Stream
// shape (storage/stream/storage.go).
type Manager struct {
	mu      sync.Mutex
	streams map[string]*Stream
}

func NewManager() *Manager {
	return &Manager{streams: make(map[string]*Stream)}
}

func (m *Manager) get(key string) (*Stream, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.streams[key]
	return s, ok
}

func (m *Manager) getOrCreate(key string) *Stream {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.streams[key]
	if !ok {
		s = newStream()
		m.streams[key] = s
	}
	return s
}

// Exists reports whether key is bound to a (possibly empty) stream.
func (m *Manager) Exists(key string) bool {
	_, ok := m.get(key)
	return ok
}

// Delete drops the whole stream, used only by the generic DEL command.
// XDEL never removes the key when it empties a stream — streams,
// unlike the other containers, are explicitly exempted from collapse
// by spec.md (last-generated-id must survive a temporary empty state),
// so only DEL removes the key itself.
func (m *Manager) Delete(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.streams[key]
	delete(m.streams, key)
	return ok
}

func (m *Manager) Len(key string) int64 {
	s, ok := m.get(key)
	if !ok {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.entries))
}

// Add implements XADD. When auto is set ("*"), Add generates the id
// from the stream's last id and ignores id; otherwise id is used as given.
func (m *Manager) Add(key string, id ID, auto bool, fields []Field) (ID, error) {
	s := m.getOrCreate(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	var assigned ID
	if auto {
		assigned = nextGenerated(s.lastID)
	} else {
		assigned = id
	}
	if assigned.Compare(s.lastID) <= 0 {
		return ID{}, ErrIDTooSmall
	}

	s.entries = append(s.entries, Entry{ID: assigned, Fields: fields})
	s.lastID = assigned
	s.fulfillLocked()
	return assigned, nil
}

// indexAtOrAfter returns the index of the first entry with id >= target.
func (s *Stream) indexAtOrAfter(target ID) int {
	return sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].ID.Compare(target) >= 0
	})
}

// Range implements XRANGE (reverse=false) and XREVRANGE (reverse=true).
// count<=0 means unlimited.
func (m *Manager) Range(key string, start, end ID, count int64, reverse bool) []Entry {
	s, ok := m.get(key)
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	lo := s.indexAtOrAfter(start)
	hi := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].ID.Compare(end) > 0
	})
	if lo >= hi {
		return nil
	}
	slice := s.entries[lo:hi]
	out := make([]Entry, len(slice))
	copy(out, slice)
	if reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	if count > 0 && int64(len(out)) > count {
		out = out[:count]
	}
	return out
}

// After returns entries with id > after, up to count (<=0 unlimited) —
// the core read primitive behind XREAD and XREADGROUP's ">" mode.
func (m *Manager) After(key string, after ID, count int64) []Entry {
	s, ok := m.get(key)
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.afterLocked(after, count)
}

func (s *Stream) afterLocked(after ID, count int64) []Entry {
	idx := s.indexAtOrAfter(after.Next())
	if idx >= len(s.entries) {
		return nil
	}
	slice := s.entries[idx:]
	if count > 0 && int64(len(slice)) > count {
		slice = slice[:count]
	}
	out := make([]Entry, len(slice))
	copy(out, slice)
	return out
}

// LastID returns the stream's last-generated-id and whether the stream
// exists at all (an absent stream resolves "$" to the zero ID).
func (m *Manager) LastID(key string) (ID, bool) {
	s, ok := m.get(key)
	if !ok {
		return ID{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastID, true
}

// Del implements XDEL, purging matching ids from every group's PEL too
// (spec.md §3.3's PEL invariant).
func (m *Manager) Del(key string, ids []ID) int64 {
	s, ok := m.get(key)
	if !ok {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[ID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var removed int64
	kept := s.entries[:0]
	for _, e := range s.entries {
		if want[e.ID] {
			removed++
			for _, g := range s.groups {
				delete(g.Pending, e.ID)
			}
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	return removed
}

// TrimMaxLen implements XTRIM key MAXLEN n, removing the oldest
// entries until at most n remain.
func (m *Manager) TrimMaxLen(key string, n int64) int64 {
	s, ok := m.get(key)
	if !ok {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if int64(len(s.entries)) <= n {
		return 0
	}
	removed := int64(len(s.entries)) - n
	purge := s.entries[:removed]
	s.entries = append([]Entry{}, s.entries[removed:]...)
	s.purgePending(purge)
	return removed
}

// TrimMinID implements XTRIM key MINID id, removing entries with
// id < id.
func (m *Manager) TrimMinID(key string, min ID) int64 {
	s, ok := m.get(key)
	if !ok {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexAtOrAfter(min)
	if idx == 0 {
		return 0
	}
	purge := s.entries[:idx]
	s.entries = append([]Entry{}, s.entries[idx:]...)
	s.purgePending(purge)
	return int64(idx)
}

func (s *Stream) purgePending(purged []Entry) {
	for _, e := range purged {
		for _, g := range s.groups {
			delete(g.Pending, e.ID)
		}
	}
}

// SetID implements XSETID, creating the stream empty if absent. Raising
// last-generated-id may unblock waiters expecting ids beyond the old
// value.
func (m *Manager) SetID(key string, id ID) {
	s := m.getOrCreate(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID = id
	s.fulfillLocked()
}
