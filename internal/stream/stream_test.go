package stream

import (
	"context"
	"testing"
	"time"
)

func TestAddAndLen(t *testing.T) {
	m := NewManager()
	id, err := m.Add("s", ID{1, 0}, false, []Field{{"a", "1"}})
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if id != (ID{1, 0}) {
		t.Fatalf("Add id = %v, want {1 0}", id)
	}
	if m.Len("s") != 1 {
		t.Fatalf("Len = %d, want 1", m.Len("s"))
	}
}

func TestAddRejectsNonIncreasingID(t *testing.T) {
	m := NewManager()
	m.Add("s", ID{5, 0}, false, nil)
	_, err := m.Add("s", ID{5, 0}, false, nil)
	if err != ErrIDTooSmall {
		t.Fatalf("Add equal id = %v, want ErrIDTooSmall", err)
	}
	_, err = m.Add("s", ID{4, 9}, false, nil)
	if err != ErrIDTooSmall {
		t.Fatalf("Add smaller id = %v, want ErrIDTooSmall", err)
	}
}

func TestRangeAndRevRange(t *testing.T) {
	m := NewManager()
	m.Add("s", ID{1, 0}, false, nil)
	m.Add("s", ID{2, 0}, false, nil)
	m.Add("s", ID{3, 0}, false, nil)

	entries := m.Range("s", MinID, MaxID, 0, false)
	if len(entries) != 3 || entries[0].ID != (ID{1, 0}) {
		t.Fatalf("Range = %v, want 3 entries starting at 1-0", entries)
	}

	rev := m.Range("s", MinID, MaxID, 0, true)
	if len(rev) != 3 || rev[0].ID != (ID{3, 0}) {
		t.Fatalf("RevRange = %v, want 3 entries starting at 3-0", rev)
	}
}

func TestDelPurgesPending(t *testing.T) {
	m := NewManager()
	m.Add("s", ID{1, 0}, false, []Field{{"a", "1"}})
	if err := m.GroupCreate("s", "g", MinID, false); err != nil {
		t.Fatalf("GroupCreate: %v", err)
	}
	if _, err := m.ReadGroupNew("s", "g", "c1", 0); err != nil {
		t.Fatalf("ReadGroupNew: %v", err)
	}

	summary, err := m.PendingSummary("s", "g")
	if err != nil || summary.Total != 1 {
		t.Fatalf("PendingSummary = %+v, %v, want total 1", summary, err)
	}

	n := m.Del("s", []ID{{1, 0}})
	if n != 1 {
		t.Fatalf("Del = %d, want 1", n)
	}
	summary, _ = m.PendingSummary("s", "g")
	if summary.Total != 0 {
		t.Fatalf("PendingSummary after Del = %+v, want total 0", summary)
	}
}

func TestGroupCreateRequiresExistingStreamUnlessMkstream(t *testing.T) {
	m := NewManager()
	if err := m.GroupCreate("missing", "g", MinID, false); err != ErrNoStream {
		t.Fatalf("GroupCreate without MKSTREAM = %v, want ErrNoStream", err)
	}
	if err := m.GroupCreate("missing", "g", MinID, true); err != nil {
		t.Fatalf("GroupCreate with MKSTREAM = %v, want nil", err)
	}
	if err := m.GroupCreate("missing", "g", MinID, true); err != ErrBusyGroup {
		t.Fatalf("GroupCreate duplicate = %v, want ErrBusyGroup", err)
	}
}

func TestReadGroupNewAdvancesAndAcks(t *testing.T) {
	m := NewManager()
	m.Add("s", ID{1, 0}, false, []Field{{"a", "1"}})
	m.GroupCreate("s", "g", MinID, false)

	entries, err := m.ReadGroupNew("s", "g", "c1", 0)
	if err != nil || len(entries) != 1 {
		t.Fatalf("ReadGroupNew = %v, %v, want 1 entry", entries, err)
	}

	summary, _ := m.PendingSummary("s", "g")
	if summary.Total != 1 {
		t.Fatalf("PendingSummary = %+v, want total 1", summary)
	}

	n, err := m.Ack("s", "g", []ID{{1, 0}})
	if err != nil || n != 1 {
		t.Fatalf("Ack = %d, %v, want 1, nil", n, err)
	}
	summary, _ = m.PendingSummary("s", "g")
	if summary.Total != 0 {
		t.Fatalf("PendingSummary after Ack = %+v, want total 0", summary)
	}
}

func TestClaimForceCreatesPending(t *testing.T) {
	m := NewManager()
	m.Add("s", ID{1, 0}, false, []Field{{"a", "1"}})
	m.GroupCreate("s", "g", MinID, false)

	claimed, err := m.Claim("s", "g", "c2", 0, []ID{{1, 0}}, ClaimOptions{Force: true})
	if err != nil || len(claimed) != 1 {
		t.Fatalf("Claim FORCE = %v, %v, want 1 entry", claimed, err)
	}

	summary, _ := m.PendingSummary("s", "g")
	if summary.Total != 1 || summary.ByConsumer["c2"] != 1 {
		t.Fatalf("PendingSummary after Claim = %+v, want c2 owning 1", summary)
	}
}

func TestReadBlockingWakesOnAdd(t *testing.T) {
	m := NewManager()
	m.Add("s", ID{1, 0}, false, nil)

	done := make(chan []ReadResult, 1)
	timeout := 2 * time.Second
	go func() {
		ctx := context.Background()
		lastID, _ := m.LastID("s")
		done <- m.ReadBlocking(ctx, []ReadRequest{{Key: "s", After: lastID}}, 0, &timeout)
	}()

	time.Sleep(20 * time.Millisecond)
	if _, err := m.Add("s", ID{2, 0}, false, []Field{{"a", "1"}}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	select {
	case result := <-done:
		if len(result) != 1 || len(result[0].Entries) != 1 {
			t.Fatalf("ReadBlocking result = %+v, want one stream with one entry", result)
		}
	case <-time.After(time.Second):
		t.Fatal("ReadBlocking did not wake within 1s")
	}
}

func TestReadBlockingDeadlineExpires(t *testing.T) {
	m := NewManager()
	m.Add("s", ID{1, 0}, false, nil)

	timeout := 20 * time.Millisecond
	lastID, _ := m.LastID("s")
	result := m.ReadBlocking(context.Background(), []ReadRequest{{Key: "s", After: lastID}}, 0, &timeout)
	if result != nil {
		t.Fatalf("ReadBlocking on empty deadline = %v, want nil", result)
	}
}
