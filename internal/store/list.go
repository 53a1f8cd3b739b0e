package store

// listData is a plain slice, matching the teacher's
// ListStorageImpl ([]string under db.data) — two-ended push/pop on a
// slice is O(n) for LPUSH/LPOP but the spec explicitly allows
// "simpler structures... migrate if profiling demands it."
type listData struct {
	values []string
}

func (db *Database) getList(key string, create bool) (*listData, error) {
	e, exists := db.getLocked(key)
	if !exists {
		if !create {
			return nil, nil
		}
		l := &listData{}
		db.data[key] = &entry{typ: TypeList, data: l}
		return l, nil
	}
	if e.typ != TypeList {
		return nil, ErrWrongType
	}
	return e.data.(*listData), nil
}

// LPush prepends each value in turn — LPUSH k a b yields [b, a],
// per spec.md §4.1.
func (db *Database) LPush(key string, values []string) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	l, err := db.getList(key, true)
	if err != nil {
		return 0, err
	}
	for _, v := range values {
		l.values = append([]string{v}, l.values...)
	}
	db.bumpVersion(key)
	return int64(len(l.values)), nil
}

func (db *Database) RPush(key string, values []string) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	l, err := db.getList(key, true)
	if err != nil {
		return 0, err
	}
	l.values = append(l.values, values...)
	db.bumpVersion(key)
	return int64(len(l.values)), nil
}

func (db *Database) LPop(key string) (string, bool, error) {
	return db.pop(key, true)
}

func (db *Database) RPop(key string) (string, bool, error) {
	return db.pop(key, false)
}

func (db *Database) pop(key string, fromHead bool) (string, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	l, err := db.getList(key, false)
	if err != nil {
		return "", false, err
	}
	if l == nil || len(l.values) == 0 {
		return "", false, nil
	}

	var v string
	if fromHead {
		v = l.values[0]
		l.values = l.values[1:]
	} else {
		v = l.values[len(l.values)-1]
		l.values = l.values[:len(l.values)-1]
	}

	if len(l.values) == 0 {
		delete(db.data, key)
	}
	db.bumpVersion(key)
	return v, true, nil
}

func (db *Database) LLen(key string) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	l, err := db.getList(key, false)
	if err != nil {
		return 0, err
	}
	if l == nil {
		return 0, nil
	}
	return int64(len(l.values)), nil
}

// normIndex resolves a possibly-negative index against length n,
// leaving out-of-range detection to the caller.
func normIndex(i, n int64) int64 {
	if i < 0 {
		return n + i
	}
	return i
}

func (db *Database) LIndex(key string, index int64) (string, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	l, err := db.getList(key, false)
	if err != nil {
		return "", false, err
	}
	if l == nil {
		return "", false, nil
	}
	n := int64(len(l.values))
	i := normIndex(index, n)
	if i < 0 || i >= n {
		return "", false, nil
	}
	return l.values[i], true, nil
}

func (db *Database) LSet(key string, index int64, value string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	l, err := db.getList(key, false)
	if err != nil {
		return err
	}
	if l == nil {
		return ErrNoSuchKey
	}
	n := int64(len(l.values))
	i := normIndex(index, n)
	if i < 0 || i >= n {
		return ErrIndexOutOfRange
	}
	l.values[i] = value
	db.bumpVersion(key)
	return nil
}

// clampRange resolves a [start,stop] index pair (possibly negative,
// possibly out of bounds) into a valid [lo,hi) slice range, returning
// lo==hi when the range is empty after clamping.
func clampRange(start, stop, n int64) (lo, hi int64) {
	lo = normIndex(start, n)
	hi = normIndex(stop, n)
	if lo < 0 {
		lo = 0
	}
	if hi >= n {
		hi = n - 1
	}
	if lo > hi || n == 0 {
		return 0, 0
	}
	return lo, hi + 1
}

func (db *Database) LRange(key string, start, stop int64) ([]string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	l, err := db.getList(key, false)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, nil
	}
	lo, hi := clampRange(start, stop, int64(len(l.values)))
	out := make([]string, hi-lo)
	copy(out, l.values[lo:hi])
	return out, nil
}

func (db *Database) LTrim(key string, start, stop int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	l, err := db.getList(key, false)
	if err != nil {
		return err
	}
	if l == nil {
		return nil
	}
	lo, hi := clampRange(start, stop, int64(len(l.values)))
	l.values = append([]string{}, l.values[lo:hi]...)
	if len(l.values) == 0 {
		delete(db.data, key)
	}
	db.bumpVersion(key)
	return nil
}
