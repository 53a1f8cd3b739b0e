// Package resp implements the RESP2 (with a few RESP3 extras) wire
// protocol used by the reference Redis server.
package resp

// Type identifies the shape of a decoded or to-be-encoded RESP value.
type Type int

const (
	TypeSimpleString Type = iota
	TypeError
	TypeInteger
	TypeBulkString
	TypeArray
	TypeNullBulk
	TypeNullArray
	TypeDouble
	TypeBoolean
	TypePush
	TypeMap
	// TypeNone marks a command reply already fully handled by the
	// handler itself (SUBSCRIBE/UNSUBSCRIBE write their ack frames
	// straight to the connection's pub/sub sink) — the dispatcher's
	// caller must send nothing further for it.
	TypeNone
)

// Value is a decoded RESP value. Only one of the typed fields is
// meaningful, selected by Type.
type Value struct {
	Type  Type
	Str   string  // SimpleString, Error, BulkString
	Int   int64   // Integer
	Dbl   float64 // Double
	Bool  bool    // Boolean
	Array []Value // Array, Push
}

// Command is a fully decoded, pre-read request: the command name
// (upper-cased) and its arguments as raw bytes-as-strings.
//
// Unlike the teacher's lazy per-argument ReqReader, every argument is
// read up front. MULTI needs to buffer a queued command and replay it
// later against a fresh execution, which a reader tied to the live
// connection stream cannot support — so the dispatcher always holds a
// plain, replayable []string.
type Command struct {
	Name string
	Args []string
}

func Str(s string) Value        { return Value{Type: TypeBulkString, Str: s} }
func Int(i int64) Value         { return Value{Type: TypeInteger, Int: i} }
func SimpleStr(s string) Value  { return Value{Type: TypeSimpleString, Str: s} }
func Err(msg string) Value      { return Value{Type: TypeError, Str: msg} }
func NullBulk() Value           { return Value{Type: TypeNullBulk} }
func NullArray() Value          { return Value{Type: TypeNullArray} }
func Arr(vs ...Value) Value     { return Value{Type: TypeArray, Array: vs} }
func ArrOf(vs []Value) Value    { return Value{Type: TypeArray, Array: vs} }
func Dbl(f float64) Value       { return Value{Type: TypeDouble, Dbl: f} }
func Bool(b bool) Value         { return Value{Type: TypeBoolean, Bool: b} }
func Push(vs ...Value) Value    { return Value{Type: TypePush, Array: vs} }
func None() Value               { return Value{Type: TypeNone} }

// StrArr builds an array of bulk strings, a shape commands emit often
// (LRANGE, SMEMBERS, KEYS, ...).
func StrArr(ss []string) Value {
	arr := make([]Value, len(ss))
	for i, s := range ss {
		arr[i] = Str(s)
	}
	return Value{Type: TypeArray, Array: arr}
}
