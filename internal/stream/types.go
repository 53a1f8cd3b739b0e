// Package stream implements the stream subsystem of spec.md §4.2: a
// stream's entries, its consumer groups and pending-entries lists, and
// the blocking-waiter registry used by XREAD BLOCK / XREADGROUP BLOCK.
package stream

import (
	"fmt"
	"sync"
	"time"
)

// ID is a stream entry identifier — milliseconds since epoch plus a
// sequence number disambiguating entries within the same millisecond,
// grounded on the teacher's storage/stream/types.go StreamID.
type ID struct {
	Ms  uint64
	Seq uint64
}

func (id ID) String() string {
	return fmt.Sprintf("%d-%d", id.Ms, id.Seq)
}

// Compare returns -1, 0, or 1 as id is less than, equal to, or greater
// than other.
func (id ID) Compare(other ID) int {
	switch {
	case id.Ms < other.Ms:
		return -1
	case id.Ms > other.Ms:
		return 1
	case id.Seq < other.Seq:
		return -1
	case id.Seq > other.Seq:
		return 1
	default:
		return 0
	}
}

func (id ID) Next() ID {
	if id.Seq < ^uint64(0) {
		return ID{id.Ms, id.Seq + 1}
	}
	return ID{id.Ms + 1, 0}
}

var (
	MinID = ID{0, 0}
	MaxID = ID{^uint64(0), ^uint64(0)}
)

// Field is one (name, value) pair of an entry, kept as an ordered
// slice rather than a map so XRANGE/XREAD echo fields in XADD order —
// the teacher's FormatStreamEntries ranges over a map and so cannot
// guarantee that.
type Field struct {
	Name  string
	Value string
}

// Entry is one appended record.
type Entry struct {
	ID     ID
	Fields []Field
}

// Consumer tracks last-seen time for XINFO CONSUMERS idle reporting.
type Consumer struct {
	Name     string
	LastSeen time.Time
}

// PendingEntry is one row of a consumer group's pending-entries list.
type PendingEntry struct {
	ID            ID
	Consumer      string
	DeliveryTime  time.Time
	DeliveryCount int64
}

// Group is a consumer group attached to a stream (spec.md §3.3, §4.2).
type Group struct {
	Name         string
	LastDelivered ID
	Consumers    map[string]*Consumer
	Pending      map[ID]*PendingEntry
}

func newGroup(name string, lastDelivered ID) *Group {
	return &Group{
		Name:          name,
		LastDelivered: lastDelivered,
		Consumers:     make(map[string]*Consumer),
		Pending:       make(map[ID]*PendingEntry),
	}
}

func (g *Group) consumer(name string) *Consumer {
	c, ok := g.Consumers[name]
	if !ok {
		c = &Consumer{Name: name}
		g.Consumers[name] = c
	}
	return c
}

// Stream is one stream's entries and attached consumer groups. Entries
// are stored in strictly ascending ID order, mirroring the teacher's
// Stream.entries ordered slice.
type Stream struct {
	mu        sync.Mutex
	entries   []Entry
	lastID    ID
	groups    map[string]*Group
	waiters   []*waiter
	gwaiters  []*groupWaiter
}

func newStream() *Stream {
	return &Stream{groups: make(map[string]*Group)}
}
