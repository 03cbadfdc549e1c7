// Package iproto holds the closed vocabulary of Tarantool's binary IPROTO
// protocol: command codes, the integer keys used inside header and body
// maps, and the iterator kind enumeration with its textual aliases.
package iproto

// Code identifies a request command or, in a response header, carries the
// status (0 for success, otherwise an error code in the low 15 bits with
// the high bit set).
type Code uint32

// Request command codes.
const (
	Select  Code = 1
	Insert  Code = 2
	Replace Code = 3
	Update  Code = 4
	Delete  Code = 5
	Auth    Code = 7
	Eval    Code = 8
	Upsert  Code = 9
	Call    Code = 10
	Ping    Code = 64
)

// ErrorFlag marks a response code as carrying an error; the error number
// itself is the code with this bit cleared.
const ErrorFlag Code = 0x8000

// IsError reports whether a response code signals a server-side error.
func (c Code) IsError() bool {
	return c&ErrorFlag != 0
}

// Key identifies an entry in a header or body map. Tarantool multiplexes
// both kinds of map onto the same integer key space; header and body keys
// never collide in practice because each map is decoded independently.
type Key uint32

// Header keys.
const (
	KeyCode     Key = 0x00
	KeySync     Key = 0x01
	KeySchemaID Key = 0x05
)

// Body keys.
const (
	KeySpaceID      Key = 0x10
	KeyIndexID      Key = 0x11
	KeyLimit        Key = 0x12
	KeyOffset       Key = 0x13
	KeyIterator     Key = 0x14
	KeyKey          Key = 0x20
	KeyTuple        Key = 0x21
	KeyFunctionName Key = 0x22
	KeyUsername     Key = 0x23
	KeyExpression   Key = 0x27
	KeyOps          Key = 0x28
	KeyData         Key = 0x30
	KeyError        Key = 0x31
)

// DefaultSelectLimit is the limit Tarantool treats as "unbounded" for a
// select with no explicit limit.
const DefaultSelectLimit = 1 << 30
