package store

import "sort"

// zsetData maintains both a member->score index for O(1) ZSCORE and a
// slice kept sorted by (score, member) for range operations, matching
// the teacher's ZSetData shape (libspine/engine/storage/zset_storage.go).
type zsetData struct {
	scores  map[string]float64
	ordered []zMember
}

type zMember struct {
	member string
	score  float64
}

func less(a, b zMember) bool {
	if a.score != b.score {
		return a.score < b.score
	}
	return a.member < b.member
}

func (z *zsetData) reinsert(member string, score float64) {
	for i, m := range z.ordered {
		if m.member == member {
			z.ordered = append(z.ordered[:i], z.ordered[i+1:]...)
			break
		}
	}
	m := zMember{member, score}
	i := sort.Search(len(z.ordered), func(i int) bool { return !less(z.ordered[i], m) })
	z.ordered = append(z.ordered, zMember{})
	copy(z.ordered[i+1:], z.ordered[i:])
	z.ordered[i] = m
}

func (z *zsetData) remove(member string) {
	for i, m := range z.ordered {
		if m.member == member {
			z.ordered = append(z.ordered[:i], z.ordered[i+1:]...)
			break
		}
	}
}

func (db *Database) getZSet(key string, create bool) (*zsetData, error) {
	e, exists := db.getLocked(key)
	if !exists {
		if !create {
			return nil, nil
		}
		z := &zsetData{scores: make(map[string]float64)}
		db.data[key] = &entry{typ: TypeZSet, data: z}
		return z, nil
	}
	if e.typ != TypeZSet {
		return nil, ErrWrongType
	}
	return e.data.(*zsetData), nil
}

// ZAdd returns the count of newly added members; score updates to
// existing members do not count, per spec.md §4.1.
func (db *Database) ZAdd(key string, pairs []struct {
	Member string
	Score  float64
}) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	z, err := db.getZSet(key, true)
	if err != nil {
		return 0, err
	}

	var added int64
	for _, p := range pairs {
		if _, exists := z.scores[p.Member]; !exists {
			added++
		}
		z.scores[p.Member] = p.Score
		z.reinsert(p.Member, p.Score)
	}
	db.bumpVersion(key)
	return added, nil
}

// ZIncrBy adds increment to member's score, initializing it at
// increment if the member is missing (spec.md §4.1).
func (db *Database) ZIncrBy(key, member string, increment float64) (float64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	z, err := db.getZSet(key, true)
	if err != nil {
		return 0, err
	}
	next := z.scores[member] + increment
	z.scores[member] = next
	z.reinsert(member, next)
	db.bumpVersion(key)
	return next, nil
}

func (db *Database) ZScore(key, member string) (float64, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	z, err := db.getZSet(key, false)
	if err != nil {
		return 0, false, err
	}
	if z == nil {
		return 0, false, nil
	}
	s, ok := z.scores[member]
	return s, ok, nil
}

func (db *Database) ZRem(key string, members []string) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	z, err := db.getZSet(key, false)
	if err != nil {
		return 0, err
	}
	if z == nil {
		return 0, nil
	}

	var n int64
	for _, m := range members {
		if _, exists := z.scores[m]; exists {
			delete(z.scores, m)
			z.remove(m)
			n++
		}
	}
	if len(z.scores) == 0 {
		delete(db.data, key)
	}
	db.bumpVersion(key)
	return n, nil
}

func (db *Database) ZCard(key string) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	z, err := db.getZSet(key, false)
	if err != nil {
		return 0, err
	}
	if z == nil {
		return 0, nil
	}
	return int64(len(z.scores)), nil
}

// ZMember is one (member, score) pair as returned by range queries.
type ZMember struct {
	Member string
	Score  float64
}

func (db *Database) ZRange(key string, start, stop int64) ([]ZMember, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	z, err := db.getZSet(key, false)
	if err != nil {
		return nil, err
	}
	if z == nil {
		return nil, nil
	}
	lo, hi := clampRange(start, stop, int64(len(z.ordered)))
	out := make([]ZMember, 0, hi-lo)
	for _, m := range z.ordered[lo:hi] {
		out = append(out, ZMember{m.member, m.score})
	}
	return out, nil
}

// ZRangeByScore returns members with score in [min,max] inclusive,
// per spec.md §4.1 (the "(" exclusive / "-inf"/"+inf" syntax is not
// required).
func (db *Database) ZRangeByScore(key string, min, max float64) ([]ZMember, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	z, err := db.getZSet(key, false)
	if err != nil {
		return nil, err
	}
	if z == nil {
		return nil, nil
	}
	var out []ZMember
	for _, m := range z.ordered {
		if m.score >= min && m.score <= max {
			out = append(out, ZMember{m.member, m.score})
		}
	}
	return out, nil
}

func (db *Database) ZCount(key string, min, max float64) (int64, error) {
	members, err := db.ZRangeByScore(key, min, max)
	if err != nil {
		return 0, err
	}
	return int64(len(members)), nil
}

func (db *Database) ZRemRangeByScore(key string, min, max float64) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	z, err := db.getZSet(key, false)
	if err != nil {
		return 0, err
	}
	if z == nil {
		return 0, nil
	}

	var toRemove []string
	for _, m := range z.ordered {
		if m.score >= min && m.score <= max {
			toRemove = append(toRemove, m.member)
		}
	}
	for _, m := range toRemove {
		delete(z.scores, m)
		z.remove(m)
	}
	if len(z.scores) == 0 {
		delete(db.data, key)
	}
	if len(toRemove) > 0 {
		db.bumpVersion(key)
	}
	return int64(len(toRemove)), nil
}

// ZRank returns member's 0-based ascending rank, ZRevRank its
// descending rank.
func (db *Database) ZRank(key, member string) (int64, bool, error) {
	return db.rank(key, member, false)
}

func (db *Database) ZRevRank(key, member string) (int64, bool, error) {
	return db.rank(key, member, true)
}

func (db *Database) rank(key, member string, reverse bool) (int64, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	z, err := db.getZSet(key, false)
	if err != nil {
		return 0, false, err
	}
	if z == nil {
		return 0, false, nil
	}
	for i, m := range z.ordered {
		if m.member == member {
			if reverse {
				return int64(len(z.ordered) - 1 - i), true, nil
			}
			return int64(i), true, nil
		}
	}
	return 0, false, nil
}
