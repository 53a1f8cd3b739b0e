package sweeper

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spinedb/internal/store"
)

func TestSweeperRemovesExpiredKeys(t *testing.T) {
	db := store.NewDatabase()
	require.True(t, db.Set("k", "v", store.SetOptions{}))
	at := time.Now().Add(-time.Second)
	require.True(t, db.Expire("k", at))

	sw := New(db, 10*time.Millisecond, zerolog.Nop())
	go sw.Run()
	defer sw.Stop()

	assert.Eventually(t, func() bool {
		return db.Exists("k") == 0
	}, time.Second, 5*time.Millisecond)
}
