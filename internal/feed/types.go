package feed

import (
	"errors"
	"time"
)

// Errors
var (
	ErrAlreadyClosed = errors.New("already closed")
	ErrNotConnected  = errors.New("not connected")
)

// Status is the connection manager's externally visible state. It is
// the only error signal consumers get; everything else is handled
// inside the manager.
type Status int32

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusError
)

// String returns the status name for logging and the status endpoint.
func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusError:
		return "error"
	default:
		return "disconnected"
	}
}

// TimestampedMessage wraps raw frame bytes with the local receive time.
type TimestampedMessage struct {
	Data       []byte
	ReceivedAt time.Time
}

// ClientConfig configures a single websocket client.
type ClientConfig struct {
	URL              string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	BufferSize       int // message channel buffer
}

// Config configures the connection manager.
type Config struct {
	URL              string        // feed endpoint
	ReconnectDelay   time.Duration // fixed delay between reconnect attempts
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	BufferSize       int
}

// DefaultConfig returns the standard manager configuration. The
// reconnect delay is fixed at 3s with no backoff and no retry cap;
// that matches the dashboard's historical behavior.
func DefaultConfig() Config {
	return Config{
		URL:              "ws://localhost:3001/ws",
		ReconnectDelay:   3 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		BufferSize:       1000,
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.URL == "" {
		c.URL = def.URL
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = def.ReconnectDelay
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = def.HandshakeTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.BufferSize <= 0 {
		c.BufferSize = def.BufferSize
	}
}

// Stats are cumulative manager counters.
type Stats struct {
	FramesReceived int64 `json:"frames_received"`
	FramesApplied  int64 `json:"frames_applied"`
	DecodeErrors   int64 `json:"decode_errors"`
	UnknownFrames  int64 `json:"unknown_frames"`
	Reconnects     int64 `json:"reconnects"`
}
