// Package sweeper runs the periodic expiration pass spec.md §4.7
// requires in addition to lazy per-access expiration: a background
// goroutine that walks the keyspace and evicts anything past its TTL,
// so idle expired keys don't linger forever between accesses.
// Grounded on the teacher's ticker/done-channel shutdown pattern
// (cmd/spine-ws/main.go's heartbeat goroutine).
package sweeper

import (
	"time"

	"github.com/rs/zerolog"

	"spinedb/internal/store"
)

type Sweeper struct {
	db       *store.Database
	interval time.Duration
	log      zerolog.Logger
	done     chan struct{}
}

func New(db *store.Database, interval time.Duration, log zerolog.Logger) *Sweeper {
	return &Sweeper{db: db, interval: interval, log: log, done: make(chan struct{})}
}

// Run blocks, sweeping every interval until Stop is called. Intended
// to be started with `go sweeper.Run()`.
func (s *Sweeper) Run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			n := s.db.Sweep(now)
			if n > 0 {
				s.log.Debug().Int("expired", n).Msg("sweeper pass")
			}
		}
	}
}

func (s *Sweeper) Stop() { close(s.done) }
