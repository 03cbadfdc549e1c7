package iproto

import "testing"

func TestResolveIteratorAliasesTotal(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  Iterator
	}{
		{"word eq", "eq", IterEqual},
		{"symbol eq", "==", IterEqual},
		{"word reveq", "reveq", IterReversedEqual},
		{"symbol reveq", "==<", IterReversedEqual},
		{"word all", "all", IterAll},
		{"symbol all", "*", IterAll},
		{"word lt", "lt", IterLessThan},
		{"symbol lt", "<", IterLessThan},
		{"word lte", "lte", IterLessThanOrEqual},
		{"symbol lte", "<=", IterLessThanOrEqual},
		{"word gte", "gte", IterGreaterThanOrEqual},
		{"symbol gte", ">=", IterGreaterThanOrEqual},
		{"word gt", "gt", IterGreaterThan},
		{"symbol gt", ">", IterGreaterThan},
		{"word bitall", "bitall", IterBitsAllSet},
		{"symbol bitall", "&=", IterBitsAllSet},
		{"word bitany", "bitany", IterBitsAnySet},
		{"symbol bitany", "&", IterBitsAnySet},
		{"word overlaps", "overlaps", IterRtreeOverlaps},
		{"symbol overlaps", "&&", IterRtreeOverlaps},
		{"word neighbor", "neighbor", IterRtreeNeighbor},
		{"symbol neighbor", "<->", IterRtreeNeighbor},
		{"integer form", int64(3), IterLessThan},
		{"int form", 6, IterGreaterThan},
		{"passthrough", IterBitsAnySet, IterBitsAnySet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveIterator(tt.value)
			if err != nil {
				t.Fatalf("ResolveIterator(%v) returned error: %v", tt.value, err)
			}
			if got != tt.want {
				t.Fatalf("ResolveIterator(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestResolveIteratorUnknown(t *testing.T) {
	tests := []any{"bogus", int64(-1), int64(11), 3.14, nil}
	for _, v := range tests {
		if _, err := ResolveIterator(v); err == nil {
			t.Fatalf("ResolveIterator(%v) succeeded, want ErrUnknownIterator", v)
		}
	}
}
