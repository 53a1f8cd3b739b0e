package stream

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var errInvalidID = errors.New("ERR Invalid stream ID specified as stream command argument")

// ParseID parses an explicit "ms" or "ms-seq" id, used by XRANGE bounds,
// XGROUP SETID, XSETID, and explicit XADD ids. It does not resolve the
// special tokens ("*", "$", "-", "+", ">"); callers resolve those first.
func ParseID(s string) (ID, error) {
	parts := strings.SplitN(s, "-", 2)
	ms, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return ID{}, errInvalidID
	}
	if len(parts) == 1 {
		return ID{Ms: ms, Seq: 0}, nil
	}
	seq, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return ID{}, errInvalidID
	}
	return ID{Ms: ms, Seq: seq}, nil
}

// nextGenerated computes the id XADD assigns for "*", per spec.md
// §4.2: seq = 0 if now_ms > last.ms, else last.seq + 1.
func nextGenerated(last ID) ID {
	now := uint64(time.Now().UnixMilli())
	if now > last.Ms {
		return ID{Ms: now, Seq: 0}
	}
	return ID{Ms: last.Ms, Seq: last.Seq + 1}
}
