package tarantool

import (
	"context"
	"fmt"

	"github.com/oleggator/go-tarantool/internal/iproto"
)

// SpaceRef identifies a space either by its numeric id or by name; pass
// either a uint32/int (interpreted as an id) or a string (resolved through
// the schema cache).
type SpaceRef = any

// IndexRef identifies an index either by its numeric id or by name, scoped
// to the space it is looked up within.
type IndexRef = any

func (c *Connection) resolveSpace(ref SpaceRef) (uint32, error) {
	switch v := ref.(type) {
	case uint32:
		return v, nil
	case int:
		return uint32(v), nil
	case string:
		if c.Schema().Empty() {
			return 0, fmt.Errorf("%w: resolving space %q", ErrSchemaNotLoaded, v)
		}
		return c.Schema().SpaceID(v)
	default:
		return 0, fmt.Errorf("tarantool: unsupported space reference type %T", ref)
	}
}

func (c *Connection) resolveIndex(spaceID uint32, spaceName string, ref IndexRef) (uint32, error) {
	switch v := ref.(type) {
	case uint32:
		return v, nil
	case int:
		return uint32(v), nil
	case string:
		if c.Schema().Empty() {
			return 0, fmt.Errorf("%w: resolving index %q", ErrSchemaNotLoaded, v)
		}
		if spaceName == "" {
			if name, ok := c.Schema().SpaceName(spaceID); ok {
				spaceName = name
			}
		}
		if spaceName == "" {
			return 0, fmt.Errorf("%w: space id %d has no registered name, cannot resolve index %q", ErrUnknownSpace, spaceID, v)
		}
		return c.Schema().IndexID(spaceName, v)
	default:
		return 0, fmt.Errorf("tarantool: unsupported index reference type %T", ref)
	}
}

// spaceIDAndName resolves space to its numeric id and, if known, its name.
// The name is taken directly from a symbolic reference, or else looked up
// in reverse from a numeric reference that the schema cache happens to
// have registered — so index_name_to_id works whether the caller addressed
// the space by id or by name (§4.5's documented dual signature).
func (c *Connection) spaceIDAndName(space SpaceRef) (uint32, string, error) {
	id, err := c.resolveSpace(space)
	if err != nil {
		return 0, "", err
	}
	if name, ok := space.(string); ok {
		return id, name, nil
	}
	name, _ := c.Schema().SpaceName(id)
	return id, name, nil
}

// Select performs a select over space/index with the given key, limit,
// offset, and iterator kind (see iproto.ResolveIterator for accepted
// iterator forms). A zero limit selects up to iproto.DefaultSelectLimit rows,
// and a nil iterator means iproto.IterEqual.
func (c *Connection) Select(ctx context.Context, space SpaceRef, index IndexRef, iterator any, offset, limit uint32, key []any) ([]any, error) {
	if limit == 0 {
		limit = iproto.DefaultSelectLimit
	}
	if iterator == nil {
		iterator = iproto.IterEqual
	}
	spaceID, spaceName, err := c.spaceIDAndName(space)
	if err != nil {
		return nil, err
	}
	indexID, err := c.resolveIndex(spaceID, spaceName, index)
	if err != nil {
		return nil, err
	}
	iter, err := iproto.ResolveIterator(iterator)
	if err != nil {
		return nil, err
	}
	if key == nil {
		key = []any{}
	}

	body, err := c.Submit(ctx, iproto.Select, map[iproto.Key]any{
		iproto.KeySpaceID:  spaceID,
		iproto.KeyIndexID:  indexID,
		iproto.KeyLimit:    limit,
		iproto.KeyOffset:   offset,
		iproto.KeyIterator: uint32(iter),
		iproto.KeyKey:      key,
	})
	if err != nil {
		return nil, err
	}
	return dataRows(body), nil
}

// Get is Select with index=0, limit=1, iterator=Equal — the common "fetch
// by primary key" shape.
func (c *Connection) Get(ctx context.Context, space SpaceRef, key []any) ([]any, error) {
	rows, err := c.Select(ctx, space, uint32(0), iproto.IterEqual, 0, 1, key)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].([]any), nil
}

// Insert inserts tuple into space. Fails if a tuple with the same primary
// key already exists.
func (c *Connection) Insert(ctx context.Context, space SpaceRef, tuple []any) ([]any, error) {
	spaceID, err := c.resolveSpace(space)
	if err != nil {
		return nil, err
	}
	body, err := c.Submit(ctx, iproto.Insert, map[iproto.Key]any{
		iproto.KeySpaceID: spaceID,
		iproto.KeyTuple:   tuple,
	})
	if err != nil {
		return nil, err
	}
	return firstRow(body), nil
}

// Replace inserts tuple into space, overwriting any existing tuple with
// the same primary key.
func (c *Connection) Replace(ctx context.Context, space SpaceRef, tuple []any) ([]any, error) {
	spaceID, err := c.resolveSpace(space)
	if err != nil {
		return nil, err
	}
	body, err := c.Submit(ctx, iproto.Replace, map[iproto.Key]any{
		iproto.KeySpaceID: spaceID,
		iproto.KeyTuple:   tuple,
	})
	if err != nil {
		return nil, err
	}
	return firstRow(body), nil
}

// Update applies ops to the tuple matched by key in space/index.
func (c *Connection) Update(ctx context.Context, space SpaceRef, index IndexRef, key []any, ops []any) ([]any, error) {
	spaceID, spaceName, err := c.spaceIDAndName(space)
	if err != nil {
		return nil, err
	}
	indexID, err := c.resolveIndex(spaceID, spaceName, index)
	if err != nil {
		return nil, err
	}
	body, err := c.Submit(ctx, iproto.Update, map[iproto.Key]any{
		iproto.KeySpaceID: spaceID,
		iproto.KeyIndexID: indexID,
		iproto.KeyKey:     key,
		iproto.KeyTuple:   ops,
	})
	if err != nil {
		return nil, err
	}
	return firstRow(body), nil
}

// Upsert applies ops to the tuple matched by tuple's primary key in space
// if it exists, or inserts tuple otherwise.
func (c *Connection) Upsert(ctx context.Context, space SpaceRef, tuple []any, ops []any) error {
	spaceID, err := c.resolveSpace(space)
	if err != nil {
		return err
	}
	_, err = c.Submit(ctx, iproto.Upsert, map[iproto.Key]any{
		iproto.KeySpaceID: spaceID,
		iproto.KeyTuple:   tuple,
		iproto.KeyOps:     ops,
	})
	return err
}

// Delete removes the tuple matched by key in space/index.
func (c *Connection) Delete(ctx context.Context, space SpaceRef, index IndexRef, key []any) ([]any, error) {
	spaceID, spaceName, err := c.spaceIDAndName(space)
	if err != nil {
		return nil, err
	}
	indexID, err := c.resolveIndex(spaceID, spaceName, index)
	if err != nil {
		return nil, err
	}
	body, err := c.Submit(ctx, iproto.Delete, map[iproto.Key]any{
		iproto.KeySpaceID: spaceID,
		iproto.KeyIndexID: indexID,
		iproto.KeyKey:     key,
	})
	if err != nil {
		return nil, err
	}
	return firstRow(body), nil
}

// Call invokes a stored Lua function by name with args.
func (c *Connection) Call(ctx context.Context, function string, args []any) ([]any, error) {
	if args == nil {
		args = []any{}
	}
	body, err := c.Submit(ctx, iproto.Call, map[iproto.Key]any{
		iproto.KeyFunctionName: function,
		iproto.KeyTuple:        args,
	})
	if err != nil {
		return nil, err
	}
	return dataRows(body), nil
}

// Eval evaluates a Lua expression with args bound to ... .
func (c *Connection) Eval(ctx context.Context, expression string, args []any) ([]any, error) {
	if args == nil {
		args = []any{}
	}
	body, err := c.Submit(ctx, iproto.Eval, map[iproto.Key]any{
		iproto.KeyExpression: expression,
		iproto.KeyTuple:      args,
	})
	if err != nil {
		return nil, err
	}
	return dataRows(body), nil
}

func dataRows(body map[iproto.Key]any) []any {
	data, ok := body[iproto.KeyData]
	if !ok {
		return nil
	}
	rows, ok := data.([]any)
	if !ok {
		return nil
	}
	return rows
}

func firstRow(body map[iproto.Key]any) []any {
	rows := dataRows(body)
	if len(rows) == 0 {
		return nil
	}
	row, _ := rows[0].([]any)
	return row
}
