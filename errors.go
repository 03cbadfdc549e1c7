package tarantool

import (
	"fmt"

	"github.com/oleggator/go-tarantool/internal/config"
)

// Sentinel errors a caller can match with errors.Is.
var (
	// ErrHandshakeFailed is returned when the greeting or the AUTH reply
	// could not be parsed or was rejected by the server.
	ErrHandshakeFailed = fmt.Errorf("tarantool: handshake failed")

	// ErrConnectionClosed is returned by any operation attempted on a
	// connection that is no longer open.
	ErrConnectionClosed = fmt.Errorf("tarantool: connection closed")

	// ErrTimeout is returned when a request's read_timeout elapses before
	// a reply arrives. The connection is left open.
	ErrTimeout = fmt.Errorf("tarantool: request timed out")

	// ErrWire is returned when a frame could not be encoded or decoded.
	// It is always fatal to the connection that produced it.
	ErrWire = fmt.Errorf("tarantool: wire protocol error")

	// ErrUnknownSpace is returned when a space name does not resolve
	// against the schema cache.
	ErrUnknownSpace = fmt.Errorf("tarantool: unknown space")

	// ErrUnknownIndex is returned when an index name does not resolve
	// against the schema cache.
	ErrUnknownIndex = fmt.Errorf("tarantool: unknown index")

	// ErrSchemaNotLoaded is returned when a symbolic space or index name
	// is used before ParseSchema has populated the cache.
	ErrSchemaNotLoaded = fmt.Errorf("tarantool: schema not loaded")

	// ErrConfig is an alias of config.ErrConfig, re-exported so callers of
	// this package can match config-loading failures with errors.Is without
	// importing the internal/config package directly.
	ErrConfig = config.ErrConfig
)

// ServerError is a non-fatal error reported by the server in a response
// header/body: the connection stays open after one of these.
type ServerError struct {
	Code    uint32
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("tarantool: server error %d: %s", e.Code, e.Message)
}
