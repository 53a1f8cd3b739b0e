package store

import "testing"

func zPair(member string, score float64) struct {
	Member string
	Score  float64
} {
	return struct {
		Member string
		Score  float64
	}{member, score}
}

func TestZAddNewVsUpdate(t *testing.T) {
	db := NewDatabase()

	n, err := db.ZAdd("z", []struct {
		Member string
		Score  float64
	}{zPair("a", 1), zPair("b", 2)})
	if err != nil || n != 2 {
		t.Fatalf("ZAdd = %d, %v, want 2, nil", n, err)
	}

	n, err = db.ZAdd("z", []struct {
		Member string
		Score  float64
	}{zPair("a", 5), zPair("c", 3)})
	if err != nil || n != 1 {
		t.Fatalf("ZAdd update = %d, %v, want 1, nil", n, err)
	}

	score, ok, err := db.ZScore("z", "a")
	if err != nil || !ok || score != 5 {
		t.Fatalf("ZScore a = %v, %v, %v, want 5, true, nil", score, ok, err)
	}
}

func TestZRangeCanonicalOrder(t *testing.T) {
	db := NewDatabase()
	db.ZAdd("z", []struct {
		Member string
		Score  float64
	}{zPair("c", 1), zPair("a", 1), zPair("b", 2)})

	members, err := db.ZRange("z", 0, -1)
	if err != nil {
		t.Fatalf("ZRange error: %v", err)
	}
	want := []string{"a", "c", "b"}
	if len(members) != len(want) {
		t.Fatalf("ZRange len = %d, want %d", len(members), len(want))
	}
	for i, m := range members {
		if m.Member != want[i] {
			t.Errorf("ZRange[%d] = %s, want %s", i, m.Member, want[i])
		}
	}
}

func TestZIncrByInitializesMissing(t *testing.T) {
	db := NewDatabase()
	score, err := db.ZIncrBy("z", "x", 2.5)
	if err != nil || score != 2.5 {
		t.Fatalf("ZIncrBy = %v, %v, want 2.5, nil", score, err)
	}
	score, err = db.ZIncrBy("z", "x", 2.5)
	if err != nil || score != 5 {
		t.Fatalf("ZIncrBy second = %v, %v, want 5, nil", score, err)
	}
}

func TestZRemCollapsesEmptyKey(t *testing.T) {
	db := NewDatabase()
	db.ZAdd("z", []struct {
		Member string
		Score  float64
	}{zPair("a", 1)})

	n, err := db.ZRem("z", []string{"a"})
	if err != nil || n != 1 {
		t.Fatalf("ZRem = %d, %v, want 1, nil", n, err)
	}
	if _, ok := db.TypeOf("z"); ok {
		t.Error("expected key to be removed after last member deleted")
	}
}

func TestZRankAndRevRank(t *testing.T) {
	db := NewDatabase()
	db.ZAdd("z", []struct {
		Member string
		Score  float64
	}{zPair("a", 1), zPair("b", 2), zPair("c", 3)})

	rank, ok, err := db.ZRank("z", "b")
	if err != nil || !ok || rank != 1 {
		t.Fatalf("ZRank b = %d, %v, %v, want 1, true, nil", rank, ok, err)
	}
	revRank, ok, err := db.ZRevRank("z", "b")
	if err != nil || !ok || revRank != 1 {
		t.Fatalf("ZRevRank b = %d, %v, %v, want 1, true, nil", revRank, ok, err)
	}
	_, ok, _ = db.ZRank("z", "missing")
	if ok {
		t.Error("expected missing member to report ok=false")
	}
}

func TestZRangeByScoreAndCount(t *testing.T) {
	db := NewDatabase()
	db.ZAdd("z", []struct {
		Member string
		Score  float64
	}{zPair("a", 1), zPair("b", 2), zPair("c", 3)})

	members, err := db.ZRangeByScore("z", 2, 3)
	if err != nil || len(members) != 2 {
		t.Fatalf("ZRangeByScore = %v, %v, want 2 members", members, err)
	}

	count, err := db.ZCount("z", 1, 2)
	if err != nil || count != 2 {
		t.Fatalf("ZCount = %d, %v, want 2, nil", count, err)
	}
}

func TestZRemRangeByScore(t *testing.T) {
	db := NewDatabase()
	db.ZAdd("z", []struct {
		Member string
		Score  float64
	}{zPair("a", 1), zPair("b", 2), zPair("c", 3)})

	n, err := db.ZRemRangeByScore("z", 1, 2)
	if err != nil || n != 2 {
		t.Fatalf("ZRemRangeByScore = %d, %v, want 2, nil", n, err)
	}
	card, _ := db.ZCard("z")
	if card != 1 {
		t.Fatalf("ZCard after remove = %d, want 1", card)
	}
}

func TestZAddWrongType(t *testing.T) {
	db := NewDatabase()
	db.Set("s", "hello", SetOptions{})

	_, err := db.ZAdd("s", []struct {
		Member string
		Score  float64
	}{zPair("a", 1)})
	if err != ErrWrongType {
		t.Fatalf("ZAdd on string key = %v, want ErrWrongType", err)
	}
}
