package txn

import "testing"

func TestWatchAndDirtyOnMutate(t *testing.T) {
	m := NewManager()
	m.Watch("conn1", []string{"k"})

	if m.IsDirty("conn1") {
		t.Fatal("expected clean transaction before any mutation")
	}

	m.OnMutate("k")
	if !m.IsDirty("conn1") {
		t.Fatal("expected dirty transaction after watched key mutated")
	}
}

func TestOnMutateOnlyTouchesWatchers(t *testing.T) {
	m := NewManager()
	m.Watch("conn1", []string{"k1"})
	m.Watch("conn2", []string{"k2"})

	m.OnMutate("k1")
	if !m.IsDirty("conn1") {
		t.Fatal("conn1 should be dirty")
	}
	if m.IsDirty("conn2") {
		t.Fatal("conn2 should not be dirty")
	}
}

func TestUnwatchClearsDirtyAndWatchers(t *testing.T) {
	m := NewManager()
	m.Watch("conn1", []string{"k"})
	m.OnMutate("k")
	if !m.IsDirty("conn1") {
		t.Fatal("expected dirty before Unwatch")
	}

	m.Unwatch("conn1")
	if m.IsDirty("conn1") {
		t.Fatal("expected clean after Unwatch")
	}
	m.OnMutate("k")
	if m.IsDirty("conn1") {
		t.Fatal("expected OnMutate to no longer affect an unwatched connection")
	}
}

func TestEndTransactionClearsQueueAndWatches(t *testing.T) {
	m := NewManager()
	m.Watch("conn1", []string{"k"})
	m.Enqueue("conn1", QueuedCommand{Name: "SET", Args: []string{"k", "v"}})
	m.OnMutate("k")

	m.EndTransaction("conn1")

	if len(m.Queue("conn1")) != 0 {
		t.Fatal("expected queue cleared after EndTransaction")
	}
	if m.IsDirty("conn1") {
		t.Fatal("expected dirty flag cleared after EndTransaction")
	}
}

func TestRemoveConnectionClearsReverseIndex(t *testing.T) {
	m := NewManager()
	m.Watch("conn1", []string{"k"})
	m.RemoveConnection("conn1")

	m.Watch("conn2", []string{"other"})
	m.OnMutate("k")
	if m.IsDirty("conn2") {
		t.Fatal("OnMutate on a removed connection's key should not affect unrelated connections")
	}
}
