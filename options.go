package tarantool

import (
	"log/slog"
	"time"

	"github.com/oleggator/go-tarantool/internal/config"
	"github.com/oleggator/go-tarantool/internal/logging"
)

type dialOptions struct {
	username       string
	password       string
	connectTimeout time.Duration
	dnsTimeout     time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	logger         *slog.Logger
}

func defaultDialOptions() *dialOptions {
	return &dialOptions{
		connectTimeout: config.DefaultConnectTimeout,
		dnsTimeout:     config.DefaultDNSTimeout,
		readTimeout:    config.DefaultReadTimeout,
		writeTimeout:   config.DefaultWriteTimeout,
		logger:         slog.Default(),
	}
}

// DialOption configures a Dial call.
type DialOption func(*dialOptions)

// WithCredentials sets the username and password presented during the
// CHAP-SHA1 handshake. An empty username, or "guest" with an empty
// password, skips authentication.
func WithCredentials(username, password string) DialOption {
	return func(o *dialOptions) {
		o.username = username
		o.password = password
	}
}

// WithTimeouts overrides the connect, read, and write timeouts. A zero
// value leaves the corresponding default in place, except readTimeout: a
// zero readTimeout disables both per-request timeouts and the keep-alive
// loop, matching an explicit caller choice to wait indefinitely.
func WithTimeouts(connect, read, write time.Duration) DialOption {
	return func(o *dialOptions) {
		if connect > 0 {
			o.connectTimeout = connect
		}
		o.readTimeout = read
		if write > 0 {
			o.writeTimeout = write
		}
	}
}

// WithDNSTimeout overrides how long host resolution is allowed to take
// before Dial gives up. A zero value leaves the default in place.
func WithDNSTimeout(dns time.Duration) DialOption {
	return func(o *dialOptions) {
		if dns > 0 {
			o.dnsTimeout = dns
		}
	}
}

// WithLogger attaches a structured logger to the connection. If unset, the
// connection logs through slog.Default().
func WithLogger(logger *slog.Logger) DialOption {
	return func(o *dialOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithConfig applies every field of cfg as dial options, so a loaded
// config.Config composes with other DialOptions passed to Dial.
func WithConfig(cfg *config.Config) DialOption {
	return func(o *dialOptions) {
		o.username = cfg.Username
		o.password = cfg.Password
		if cfg.Timeouts.ConnectRaw > 0 {
			o.connectTimeout = cfg.Timeouts.ConnectRaw
		}
		if cfg.Timeouts.DNSRaw > 0 {
			o.dnsTimeout = cfg.Timeouts.DNSRaw
		}
		o.readTimeout = cfg.Timeouts.ReadRaw
		if cfg.Timeouts.WriteRaw > 0 {
			o.writeTimeout = cfg.Timeouts.WriteRaw
		}
		if logger, err := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format); err == nil {
			o.logger = logger
		}
	}
}
