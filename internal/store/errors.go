package store

import "errors"

// Sentinel errors returned by storage operations, matching the
// teacher's libspine/engine/storage/errors.go wording exactly — the
// wire payload prefixes are normative per spec.
var (
	ErrWrongType       = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")
	ErrNotInteger      = errors.New("ERR value is not an integer or out of range")
	ErrNotFloat        = errors.New("ERR value is not a valid float")
	ErrIndexOutOfRange = errors.New("ERR index out of range")
	ErrNoSuchKey       = errors.New("ERR no such key")
	ErrSyntax          = errors.New("ERR syntax error")
)
