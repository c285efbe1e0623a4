package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultFeedURL              = "ws://localhost:3001/ws"
	DefaultReconnectDelay       = 3 * time.Second
	DefaultHandshakeTimeout     = 10 * time.Second
	DefaultWriteTimeout         = 5 * time.Second
	DefaultFeedBufferSize       = 1000
	DefaultServerHost           = "0.0.0.0"
	DefaultServerPort           = 8080
	DefaultShutdownTimeout      = 10 * time.Second
	DefaultTransactionCap       = 100
	DefaultGlobalTransactionCap = 500
	DefaultCandleCap            = 1000
	DefaultLogLevel             = "info"
)

// ApplyDefaults fills in zero-valued optional fields.
func (c *DashboardConfig) ApplyDefaults() {
	// Feed defaults
	if c.Feed.URL == "" {
		c.Feed.URL = DefaultFeedURL
	}
	if c.Feed.ReconnectDelay == 0 {
		c.Feed.ReconnectDelay = DefaultReconnectDelay
	}
	if c.Feed.HandshakeTimeout == 0 {
		c.Feed.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Feed.WriteTimeout == 0 {
		c.Feed.WriteTimeout = DefaultWriteTimeout
	}
	if c.Feed.BufferSize == 0 {
		c.Feed.BufferSize = DefaultFeedBufferSize
	}

	// Server defaults
	if c.Server.Host == "" {
		c.Server.Host = DefaultServerHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Room defaults
	if c.Rooms.TransactionCap == 0 {
		c.Rooms.TransactionCap = DefaultTransactionCap
	}
	if c.Rooms.GlobalTransactionCap == 0 {
		c.Rooms.GlobalTransactionCap = DefaultGlobalTransactionCap
	}
	if c.Rooms.CandleCap == 0 {
		c.Rooms.CandleCap = DefaultCandleCap
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}
