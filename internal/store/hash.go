package store

// hashData preserves field insertion order (spec.md §4.1: "HGETALL
// returns pairs in insertion order of field creation"), something a
// bare map[string]string cannot do — the teacher's HashStorageImpl
// uses a plain map and so cannot actually satisfy that requirement.
type hashData struct {
	fields map[string]string
	order  []string
}

func newHashData() *hashData {
	return &hashData{fields: make(map[string]string)}
}

func (h *hashData) set(field, value string) (isNew bool) {
	_, exists := h.fields[field]
	if !exists {
		h.order = append(h.order, field)
	}
	h.fields[field] = value
	return !exists
}

func (h *hashData) del(field string) bool {
	if _, exists := h.fields[field]; !exists {
		return false
	}
	delete(h.fields, field)
	for i, f := range h.order {
		if f == field {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	return true
}

func (db *Database) getHash(key string, create bool) (*hashData, error) {
	e, exists := db.getLocked(key)
	if !exists {
		if !create {
			return nil, nil
		}
		h := newHashData()
		db.data[key] = &entry{typ: TypeHash, data: h}
		return h, nil
	}
	if e.typ != TypeHash {
		return nil, ErrWrongType
	}
	return e.data.(*hashData), nil
}

// HSet implements HSET key field value [field value ...], returning
// the count of newly created fields (updates to existing fields do
// not count, per spec.md §4.1).
func (db *Database) HSet(key string, pairs [][2]string) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	h, err := db.getHash(key, true)
	if err != nil {
		return 0, err
	}

	var created int64
	for _, p := range pairs {
		if h.set(p[0], p[1]) {
			created++
		}
	}
	db.bumpVersion(key)
	return created, nil
}

func (db *Database) HGet(key, field string) (string, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	h, err := db.getHash(key, false)
	if err != nil {
		return "", false, err
	}
	if h == nil {
		return "", false, nil
	}
	v, ok := h.fields[field]
	return v, ok, nil
}

// HGetAll returns field/value pairs in field-creation order.
func (db *Database) HGetAll(key string) ([][2]string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	h, err := db.getHash(key, false)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, nil
	}
	out := make([][2]string, 0, len(h.order))
	for _, f := range h.order {
		out = append(out, [2]string{f, h.fields[f]})
	}
	return out, nil
}

func (db *Database) HDel(key string, fields []string) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	h, err := db.getHash(key, false)
	if err != nil {
		return 0, err
	}
	if h == nil {
		return 0, nil
	}

	var n int64
	for _, f := range fields {
		if h.del(f) {
			n++
		}
	}
	if len(h.fields) == 0 {
		delete(db.data, key)
	}
	db.bumpVersion(key)
	return n, nil
}

func (db *Database) HExists(key, field string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	h, err := db.getHash(key, false)
	if err != nil {
		return false, err
	}
	if h == nil {
		return false, nil
	}
	_, ok := h.fields[field]
	return ok, nil
}

func (db *Database) HLen(key string) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	h, err := db.getHash(key, false)
	if err != nil {
		return 0, err
	}
	if h == nil {
		return 0, nil
	}
	return int64(len(h.fields)), nil
}

func (db *Database) HKeys(key string) ([]string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	h, err := db.getHash(key, false)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, nil
	}
	out := make([]string, len(h.order))
	copy(out, h.order)
	return out, nil
}

func (db *Database) HVals(key string) ([]string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	h, err := db.getHash(key, false)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, nil
	}
	out := make([]string, 0, len(h.order))
	for _, f := range h.order {
		out = append(out, h.fields[f])
	}
	return out, nil
}
