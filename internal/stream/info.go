package stream

import "time"

// StreamInfo is the shape behind XINFO STREAM.
type StreamInfo struct {
	Length       int64
	LastID       ID
	FirstEntry   *Entry
	LastEntry    *Entry
}

func (m *Manager) Info(key string) (StreamInfo, bool) {
	s, ok := m.get(key)
	if !ok {
		return StreamInfo{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	info := StreamInfo{Length: int64(len(s.entries)), LastID: s.lastID}
	if len(s.entries) > 0 {
		first := s.entries[0]
		last := s.entries[len(s.entries)-1]
		info.FirstEntry = &first
		info.LastEntry = &last
	}
	return info, true
}

// GroupInfo is one row of XINFO GROUPS.
type GroupInfo struct {
	Name          string
	Consumers     int64
	Pending       int64
	LastDelivered ID
}

func (m *Manager) InfoGroups(key string) ([]GroupInfo, bool) {
	s, ok := m.get(key)
	if !ok {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]GroupInfo, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, GroupInfo{
			Name:          g.Name,
			Consumers:     int64(len(g.Consumers)),
			Pending:       int64(len(g.Pending)),
			LastDelivered: g.LastDelivered,
		})
	}
	return out, true
}

// ConsumerInfo is one row of XINFO CONSUMERS key group.
type ConsumerInfo struct {
	Name    string
	Pending int64
	IdleMs  int64
}

func (m *Manager) InfoConsumers(key, group string) ([]ConsumerInfo, error) {
	s, g, err := m.resolveGroup(key, group)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	pendingByConsumer := make(map[string]int64)
	idleByConsumer := make(map[string]time.Time)
	for _, pe := range g.Pending {
		pendingByConsumer[pe.Consumer]++
		if t, ok := idleByConsumer[pe.Consumer]; !ok || pe.DeliveryTime.After(t) {
			idleByConsumer[pe.Consumer] = pe.DeliveryTime
		}
	}

	now := time.Now()
	out := make([]ConsumerInfo, 0, len(g.Consumers))
	for name := range g.Consumers {
		idle := int64(0)
		if t, ok := idleByConsumer[name]; ok {
			idle = now.Sub(t).Milliseconds()
		}
		out = append(out, ConsumerInfo{Name: name, Pending: pendingByConsumer[name], IdleMs: idle})
	}
	return out, nil
}
