package iproto

import "fmt"

// Iterator is the closed enumeration of Tarantool select iterator kinds.
type Iterator uint8

const (
	IterEqual Iterator = iota
	IterReversedEqual
	IterAll
	IterLessThan
	IterLessThanOrEqual
	IterGreaterThanOrEqual
	IterGreaterThan
	IterBitsAllSet
	IterBitsAnySet
	IterRtreeOverlaps
	IterRtreeNeighbor
)

// ErrUnknownIterator is returned by ResolveIterator when given a value that
// names no known iterator kind.
var ErrUnknownIterator = fmt.Errorf("iproto: unknown iterator")

var iteratorAliases = map[string]Iterator{
	"eq":       IterEqual,
	"==":       IterEqual,
	"reveq":    IterReversedEqual,
	"==<":      IterReversedEqual,
	"all":      IterAll,
	"*":        IterAll,
	"lt":       IterLessThan,
	"<":        IterLessThan,
	"lte":      IterLessThanOrEqual,
	"<=":       IterLessThanOrEqual,
	"gte":      IterGreaterThanOrEqual,
	">=":       IterGreaterThanOrEqual,
	"gt":       IterGreaterThan,
	">":        IterGreaterThan,
	"bitall":   IterBitsAllSet,
	"&=":       IterBitsAllSet,
	"bitany":   IterBitsAnySet,
	"&":        IterBitsAnySet,
	"overlaps": IterRtreeOverlaps,
	"&&":       IterRtreeOverlaps,
	"neighbor": IterRtreeNeighbor,
	"<->":      IterRtreeNeighbor,
}

// ResolveIterator accepts an Iterator, an integer form, a textual word, or
// a symbolic operator and returns the canonical Iterator kind. Anything
// else fails with ErrUnknownIterator.
func ResolveIterator(value any) (Iterator, error) {
	switch v := value.(type) {
	case Iterator:
		if int(v) > int(IterRtreeNeighbor) {
			return 0, fmt.Errorf("%w: %v", ErrUnknownIterator, value)
		}
		return v, nil
	case int:
		return ResolveIterator(int64(v))
	case int64:
		if v < 0 || v > int64(IterRtreeNeighbor) {
			return 0, fmt.Errorf("%w: %v", ErrUnknownIterator, value)
		}
		return Iterator(v), nil
	case string:
		if it, ok := iteratorAliases[v]; ok {
			return it, nil
		}
		return 0, fmt.Errorf("%w: %q", ErrUnknownIterator, v)
	default:
		return 0, fmt.Errorf("%w: %v", ErrUnknownIterator, value)
	}
}
