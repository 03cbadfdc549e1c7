package tarantool

import (
	"context"
	"time"

	"github.com/oleggator/go-tarantool/internal/iproto"
)

// keepaliveLoop issues a PING every interval while the connection is open.
// A PING failure is treated like any other Submit failure: a fatal one has
// already torn the connection down through fail, and this loop exits on
// keepaliveStop or on the closed connection. A PING that times out is only
// logged at Debug and leaves the connection open.
func (c *Connection) keepaliveLoop(interval time.Duration) {
	defer close(c.keepaliveDone)

	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.keepaliveStop:
			return
		case <-c.closed:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			_, err := c.Submit(ctx, iproto.Ping, nil)
			cancel()
			if err != nil {
				c.logger.Debug("keep-alive ping failed", "error", err)
			}
		}
	}
}

// Ping measures a single round trip to the server and returns its latency.
func (c *Connection) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if _, err := c.Submit(ctx, iproto.Ping, nil); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}
