package stream

import (
	"errors"
	"sort"
	"time"
)

var (
	ErrNoStream  = errors.New("ERR The XGROUP subcommand requires the key to exist. Note that for CREATE you may want to use the MKSTREAM option to create an empty stream automatically.")
	ErrBusyGroup = errors.New("BUSYGROUP Consumer Group name already exists")
	ErrNoGroup   = errors.New("NOGROUP No such key or consumer group")
)

// GroupCreate implements XGROUP CREATE key group start-id [MKSTREAM].
// start may be MinID ("-"), the stream's current last-generated-id
// ("$"), or a literal id — resolved by the caller.
func (m *Manager) GroupCreate(key, group string, start ID, mkstream bool) error {
	s, ok := m.get(key)
	if !ok {
		if !mkstream {
			return ErrNoStream
		}
		s = m.getOrCreate(key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.groups[group]; exists {
		return ErrBusyGroup
	}
	s.groups[group] = newGroup(group, start)
	return nil
}

// GroupDestroy returns true if the group was removed, false if absent.
func (m *Manager) GroupDestroy(key, group string) bool {
	s, ok := m.get(key)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.groups[group]; !exists {
		return false
	}
	delete(s.groups, group)
	return true
}

func (m *Manager) GroupSetID(key, group string, id ID) error {
	s, g, err := m.resolveGroup(key, group)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g.LastDelivered = id
	return nil
}

// GroupDelConsumer removes a consumer and all its PEL entries,
// returning the count of pending entries removed.
func (m *Manager) GroupDelConsumer(key, group, consumer string) (int64, error) {
	s, g, err := m.resolveGroup(key, group)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, pe := range g.Pending {
		if pe.Consumer == consumer {
			delete(g.Pending, id)
			removed++
		}
	}
	delete(g.Consumers, consumer)
	return removed, nil
}

func (m *Manager) resolveGroup(key, group string) (*Stream, *Group, error) {
	s, ok := m.get(key)
	if !ok {
		return nil, nil, ErrNoGroup
	}
	s.mu.Lock()
	g, ok := s.groups[group]
	s.mu.Unlock()
	if !ok {
		return nil, nil, ErrNoGroup
	}
	return s, g, nil
}

// ReadGroupNew implements XREADGROUP's ">" mode for one stream:
// entries beyond group.LastDelivered, advancing it and recording PEL
// entries, per spec.md §4.2.
func (m *Manager) ReadGroupNew(key, group, consumer string, count int64) ([]Entry, error) {
	s, g, err := m.resolveGroup(key, group)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.afterLocked(g.LastDelivered, count)
	if len(entries) == 0 {
		return nil, nil
	}
	now := time.Now()
	for _, e := range entries {
		if pe, exists := g.Pending[e.ID]; exists {
			pe.DeliveryCount++
			pe.Consumer = consumer
			pe.DeliveryTime = now
		} else {
			g.Pending[e.ID] = &PendingEntry{ID: e.ID, Consumer: consumer, DeliveryTime: now, DeliveryCount: 1}
		}
	}
	g.LastDelivered = entries[len(entries)-1].ID
	g.consumer(consumer).LastSeen = now
	return entries, nil
}

// readGroupNewAll runs ReadGroupNew across several streams, used by
// both XREADGROUP's immediate path and its BLOCK retry.
func (m *Manager) readGroupNewAll(group, consumer string, keys []string, count int64) ([]ReadResult, error) {
	var out []ReadResult
	for _, key := range keys {
		entries, err := m.ReadGroupNew(key, group, consumer, count)
		if err != nil {
			return nil, err
		}
		if len(entries) > 0 {
			out = append(out, ReadResult{Key: key, Entries: entries})
		}
	}
	return out, nil
}

// ReadGroupPending implements XREADGROUP's explicit-id mode: entries
// already in the PEL with id > given, without touching
// LastDelivered/DeliveryCount (spec.md §4.2).
func (m *Manager) ReadGroupPending(key, group string, after ID, count int64) ([]Entry, error) {
	s, g, err := m.resolveGroup(key, group)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []ID
	for id := range g.Pending {
		if id.Compare(after) > 0 {
			ids = append(ids, id)
		}
	}
	sortIDs(ids)
	if count > 0 && int64(len(ids)) > count {
		ids = ids[:count]
	}

	byID := make(map[ID]Entry, len(s.entries))
	for _, e := range s.entries {
		byID[e.ID] = e
	}
	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// Ack implements XACK, removing ids from the group's PEL.
func (m *Manager) Ack(key, group string, ids []ID) (int64, error) {
	s, g, err := m.resolveGroup(key, group)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, id := range ids {
		if _, ok := g.Pending[id]; ok {
			delete(g.Pending, id)
			n++
		}
	}
	return n, nil
}

// PendingSummary is the result shape of XPENDING key group (no range).
type PendingSummary struct {
	Total    int64
	Smallest *ID
	Largest  *ID
	ByConsumer map[string]int64
}

func (m *Manager) PendingSummary(key, group string) (PendingSummary, error) {
	s, g, err := m.resolveGroup(key, group)
	if err != nil {
		return PendingSummary{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := PendingSummary{ByConsumer: make(map[string]int64)}
	for id, pe := range g.Pending {
		summary.Total++
		summary.ByConsumer[pe.Consumer]++
		id := id
		if summary.Smallest == nil || id.Compare(*summary.Smallest) < 0 {
			summary.Smallest = &id
		}
		if summary.Largest == nil || id.Compare(*summary.Largest) > 0 {
			summary.Largest = &id
		}
	}
	return summary, nil
}

// PendingDetail is one row of XPENDING's extended form.
type PendingDetail struct {
	ID            ID
	Consumer      string
	IdleMs        int64
	DeliveryCount int64
}

func (m *Manager) PendingRange(key, group string, start, end ID, count int64, consumer string) ([]PendingDetail, error) {
	s, g, err := m.resolveGroup(key, group)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []ID
	for id, pe := range g.Pending {
		if id.Compare(start) < 0 || id.Compare(end) > 0 {
			continue
		}
		if consumer != "" && pe.Consumer != consumer {
			continue
		}
		ids = append(ids, id)
	}
	sortIDs(ids)
	if count > 0 && int64(len(ids)) > count {
		ids = ids[:count]
	}

	now := time.Now()
	out := make([]PendingDetail, 0, len(ids))
	for _, id := range ids {
		pe := g.Pending[id]
		out = append(out, PendingDetail{
			ID:            id,
			Consumer:      pe.Consumer,
			IdleMs:        now.Sub(pe.DeliveryTime).Milliseconds(),
			DeliveryCount: pe.DeliveryCount,
		})
	}
	return out, nil
}

// ClaimOptions carries XCLAIM's optional modifiers.
type ClaimOptions struct {
	IdleSet       bool
	Idle          time.Duration
	TimeSet       bool
	Time          time.Time
	RetryCountSet bool
	RetryCount    int64
	Force         bool
	JustID        bool
}

// Claim implements XCLAIM, returning the claimed entries with their
// fields whatever opts.JustID says; JUSTID callers use only the ids.
func (m *Manager) Claim(key, group, consumer string, minIdle time.Duration, ids []ID, opts ClaimOptions) ([]Entry, error) {
	s, g, err := m.resolveGroup(key, group)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := make(map[ID]Entry, len(s.entries))
	for _, e := range s.entries {
		byID[e.ID] = e
	}

	now := time.Now()
	var claimed []Entry
	for _, id := range ids {
		pe, exists := g.Pending[id]
		if !exists {
			if !opts.Force {
				continue
			}
			entry, inStream := byID[id]
			if !inStream {
				continue
			}
			deliveryTime := now
			if opts.TimeSet {
				deliveryTime = opts.Time
			} else if opts.IdleSet {
				deliveryTime = now.Add(-opts.Idle)
			}
			count := int64(1)
			if opts.RetryCountSet {
				count = opts.RetryCount
			}
			g.Pending[id] = &PendingEntry{ID: id, Consumer: consumer, DeliveryTime: deliveryTime, DeliveryCount: count}
			g.consumer(consumer).LastSeen = now
			claimed = append(claimed, entry)
			continue
		}

		if now.Sub(pe.DeliveryTime) < minIdle {
			continue
		}

		deliveryTime := now
		if opts.TimeSet {
			deliveryTime = opts.Time
		} else if opts.IdleSet {
			deliveryTime = now.Add(-opts.Idle)
		}
		pe.Consumer = consumer
		pe.DeliveryTime = deliveryTime
		if opts.RetryCountSet {
			pe.DeliveryCount = opts.RetryCount
		} else {
			pe.DeliveryCount++
		}
		g.consumer(consumer).LastSeen = now

		if entry, ok := byID[id]; ok {
			claimed = append(claimed, entry)
		} else {
			claimed = append(claimed, Entry{ID: id})
		}
	}
	return claimed, nil
}

func sortIDs(ids []ID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].Compare(ids[j]) < 0 })
}
