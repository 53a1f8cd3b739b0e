package store

import (
	"strconv"
	"time"
)

// SetOptions captures SET's NX/XX/EX/PX/KEEPTTL modifiers (spec.md §4.1).
type SetOptions struct {
	NX         bool
	XX         bool
	ExpiresAt  *time.Time
	KeepTTL    bool
}

// Set implements SET key value [options]. Returns (applied, previous
// value if GET was requested upstream is handled by the caller — this
// layer only reports whether the write happened, since NX/XX can
// suppress it).
func (db *Database) Set(key, value string, opts SetOptions) (applied bool) {
	db.mu.Lock()
	defer db.mu.Unlock()

	e, exists := db.getLocked(key)
	if opts.NX && exists {
		return false
	}
	if opts.XX && !exists {
		return false
	}

	var expiresAt *time.Time
	if opts.KeepTTL && exists && e.typ == TypeString {
		expiresAt = e.expiresAt
	} else {
		expiresAt = opts.ExpiresAt
	}

	db.data[key] = &entry{typ: TypeString, data: value, expiresAt: expiresAt}
	db.bumpVersion(key)
	return true
}

// Get returns the string bound to key. ok is false if key is absent;
// err is ErrWrongType if key holds a non-string value.
func (db *Database) Get(key string) (value string, ok bool, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	e, exists := db.getLocked(key)
	if !exists {
		return "", false, nil
	}
	if e.typ != TypeString {
		return "", false, ErrWrongType
	}
	return e.data.(string), true, nil
}

// GetSet atomically replaces the string at key and returns its prior
// value, treating an absent key as empty.
func (db *Database) GetSet(key, value string) (old string, hadOld bool, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	e, exists := db.getLocked(key)
	if exists {
		if e.typ != TypeString {
			return "", false, ErrWrongType
		}
		old = e.data.(string)
		hadOld = true
	}
	db.data[key] = &entry{typ: TypeString, data: value}
	db.bumpVersion(key)
	return old, hadOld, nil
}

func (db *Database) MSet(pairs map[string]string) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for k, v := range pairs {
		db.data[k] = &entry{typ: TypeString, data: v}
		db.bumpVersion(k)
	}
}

// MGet returns, positionally, the string value of each key or nil if
// absent or wrong-typed (reference behavior: wrong-type keys read as
// nil inside MGET rather than erroring the whole command).
func (db *Database) MGet(keys []string) []*string {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]*string, len(keys))
	for i, k := range keys {
		e, exists := db.getLocked(k)
		if !exists || e.typ != TypeString {
			continue
		}
		s := e.data.(string)
		out[i] = &s
	}
	return out
}

func (db *Database) StrLen(key string) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	e, exists := db.getLocked(key)
	if !exists {
		return 0, nil
	}
	if e.typ != TypeString {
		return 0, ErrWrongType
	}
	return int64(len(e.data.(string))), nil
}

func (db *Database) Append(key, suffix string) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	e, exists := db.getLocked(key)
	if !exists {
		db.data[key] = &entry{typ: TypeString, data: suffix}
		db.bumpVersion(key)
		return int64(len(suffix)), nil
	}
	if e.typ != TypeString {
		return 0, ErrWrongType
	}
	s := e.data.(string) + suffix
	e.data = s
	db.bumpVersion(key)
	return int64(len(s)), nil
}

// IncrBy implements INCR/INCRBY/DECR/DECRBY, all folding to a single
// signed-64-bit add-and-store, per spec.md §4.1.
func (db *Database) IncrBy(key string, delta int64) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var cur int64
	e, exists := db.getLocked(key)
	if exists {
		if e.typ != TypeString {
			return 0, ErrWrongType
		}
		parsed, err := strconv.ParseInt(e.data.(string), 10, 64)
		if err != nil {
			return 0, ErrNotInteger
		}
		cur = parsed
	}

	next := cur + delta
	if (delta > 0 && next < cur) || (delta < 0 && next > cur) {
		return 0, ErrNotInteger
	}

	if exists {
		e.data = strconv.FormatInt(next, 10)
	} else {
		db.data[key] = &entry{typ: TypeString, data: strconv.FormatInt(next, 10)}
	}
	db.bumpVersion(key)
	return next, nil
}

// IncrByFloat implements INCRBYFLOAT.
func (db *Database) IncrByFloat(key string, delta float64) (float64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var cur float64
	e, exists := db.getLocked(key)
	if exists {
		if e.typ != TypeString {
			return 0, ErrWrongType
		}
		parsed, err := strconv.ParseFloat(e.data.(string), 64)
		if err != nil {
			return 0, ErrNotFloat
		}
		cur = parsed
	}

	next := cur + delta
	formatted := strconv.FormatFloat(next, 'f', -1, 64)
	if exists {
		e.data = formatted
	} else {
		db.data[key] = &entry{typ: TypeString, data: formatted}
	}
	db.bumpVersion(key)
	return next, nil
}
