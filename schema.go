package tarantool

import (
	"context"
	"fmt"
	"sync"

	"github.com/oleggator/go-tarantool/internal/iproto"
)

// Schema is a lazily populated, caller-mutable cache mapping space and
// index names to the numeric ids IPROTO requests address them by.
type Schema struct {
	mu         sync.RWMutex
	spaces     map[string]uint32
	spaceNames map[uint32]string // reverse of spaces, for index_name_to_id(space_id, ...)
	indexes    map[string]map[string]uint32 // keyed by space name
}

func newSchema() *Schema {
	return &Schema{
		spaces:     make(map[string]uint32),
		spaceNames: make(map[uint32]string),
		indexes:    make(map[string]map[string]uint32),
	}
}

// SetSpace registers (or overrides) a space name's numeric id.
func (s *Schema) SetSpace(name string, id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spaces[name] = id
	s.spaceNames[id] = name
}

// SpaceName resolves a space id back to its registered name, the reverse
// of SpaceID. Needed to look up an index by name when the caller addressed
// its space by numeric id, matching index_name_to_id(space_id|space_name,
// index_name)'s dual signature.
func (s *Schema) SpaceName(id uint32) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.spaceNames[id]
	return name, ok
}

// SetIndex registers (or overrides) an index name's numeric id within a
// space.
func (s *Schema) SetIndex(spaceName, indexName string, id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexes[spaceName] == nil {
		s.indexes[spaceName] = make(map[string]uint32)
	}
	s.indexes[spaceName][indexName] = id
}

// SpaceID resolves a space name to its numeric id.
func (s *Schema) SpaceID(name string) (uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.spaces[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSpace, name)
	}
	return id, nil
}

// IndexID resolves an index name within a space to its numeric id.
func (s *Schema) IndexID(spaceName, indexName string) (uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byIndex, ok := s.indexes[spaceName]
	if !ok {
		return 0, fmt.Errorf("%w: space %q has no indexed schema loaded", ErrUnknownIndex, spaceName)
	}
	id, ok := byIndex[indexName]
	if !ok {
		return 0, fmt.Errorf("%w: %q.%q", ErrUnknownIndex, spaceName, indexName)
	}
	return id, nil
}

// Empty reports whether no space has been registered yet.
func (s *Schema) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.spaces) == 0
}

// Schema returns the connection's schema cache for direct inspection or
// manual seeding.
func (c *Connection) Schema() *Schema {
	c.schemaMu.RLock()
	defer c.schemaMu.RUnlock()
	return c.schema
}

// ParseSchema refreshes the schema cache by EVALuating box.space and, for
// every space found, its name-to-id mapping and its index list. A space
// that disappears between the initial listing and its per-space EVALs
// (concurrent DDL) is skipped with a logged warning rather than aborting
// the whole refresh.
func (c *Connection) ParseSchema(ctx context.Context) error {
	names, err := c.evalSpaceNames(ctx)
	if err != nil {
		return err
	}

	fresh := newSchema()
	for _, name := range names {
		id, err := c.evalSpaceID(ctx, name)
		if err != nil {
			c.logger.Warn("skipping space during schema refresh", "space", name, "error", err)
			continue
		}
		fresh.SetSpace(name, id)

		idx, err := c.evalSpaceIndexes(ctx, name)
		if err != nil {
			c.logger.Warn("skipping indexes during schema refresh", "space", name, "error", err)
			continue
		}
		for indexName, indexID := range idx {
			fresh.SetIndex(name, indexName, indexID)
		}
	}

	c.schemaMu.Lock()
	c.schema = fresh
	c.schemaMu.Unlock()
	return nil
}

func (c *Connection) evalSpaceNames(ctx context.Context) ([]string, error) {
	body, err := c.Submit(ctx, iproto.Eval, map[iproto.Key]any{
		iproto.KeyExpression: "local names = {} for k, v in pairs(box.space) do if type(k) == 'string' then table.insert(names, k) end end return names",
		iproto.KeyTuple:      []any{},
	})
	if err != nil {
		return nil, err
	}
	return stringSliceFromData(body)
}

func (c *Connection) evalSpaceID(ctx context.Context, space string) (uint32, error) {
	body, err := c.Submit(ctx, iproto.Eval, map[iproto.Key]any{
		iproto.KeyExpression: fmt.Sprintf("return box.space.%s.id", space),
		iproto.KeyTuple:      []any{},
	})
	if err != nil {
		return 0, err
	}
	return uint32FromData(body)
}

func (c *Connection) evalSpaceIndexes(ctx context.Context, space string) (map[string]uint32, error) {
	body, err := c.Submit(ctx, iproto.Eval, map[iproto.Key]any{
		iproto.KeyExpression: fmt.Sprintf("local t = {} for k, v in pairs(box.space.%s.index) do if type(k) == 'string' then t[k] = v.id end end return t", space),
		iproto.KeyTuple:      []any{},
	})
	if err != nil {
		return nil, err
	}
	return indexMapFromData(body)
}

func stringSliceFromData(body map[iproto.Key]any) ([]string, error) {
	data, ok := body[iproto.KeyData]
	if !ok {
		return nil, nil
	}
	rows, ok := data.([]any)
	if !ok || len(rows) == 0 {
		return nil, nil
	}
	list, ok := rows[0].([]any)
	if !ok {
		return nil, fmt.Errorf("tarantool: unexpected eval result shape for space list")
	}
	names := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			names = append(names, s)
		}
	}
	return names, nil
}

func uint32FromData(body map[iproto.Key]any) (uint32, error) {
	data, ok := body[iproto.KeyData]
	if !ok {
		return 0, fmt.Errorf("tarantool: eval returned no data")
	}
	rows, ok := data.([]any)
	if !ok || len(rows) == 0 {
		return 0, fmt.Errorf("tarantool: eval returned no rows")
	}
	n, err := toUint32(rows[0])
	if err != nil {
		return 0, fmt.Errorf("tarantool: unexpected eval result type: %w", err)
	}
	return n, nil
}

func indexMapFromData(body map[iproto.Key]any) (map[string]uint32, error) {
	data, ok := body[iproto.KeyData]
	if !ok {
		return nil, nil
	}
	rows, ok := data.([]any)
	if !ok || len(rows) == 0 {
		return nil, nil
	}
	raw, ok := rows[0].(map[string]any)
	if !ok {
		return map[string]uint32{}, nil
	}
	result := make(map[string]uint32, len(raw))
	for k, v := range raw {
		n, err := toUint32(v)
		if err != nil {
			continue
		}
		result[k] = n
	}
	return result, nil
}

func toUint32(v any) (uint32, error) {
	switch n := v.(type) {
	case int64:
		return uint32(n), nil
	case uint64:
		return uint32(n), nil
	case int:
		return uint32(n), nil
	default:
		return 0, fmt.Errorf("unexpected numeric type %T", v)
	}
}
