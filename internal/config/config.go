package config

import "time"

// DashboardConfig is the root configuration for a dashboard instance.
type DashboardConfig struct {
	Feed   FeedConfig   `yaml:"feed"`
	Server ServerConfig `yaml:"server"`
	Rooms  RoomsConfig  `yaml:"rooms"`
	Log    LogConfig    `yaml:"log"`
}

// FeedConfig holds the upstream websocket feed settings.
type FeedConfig struct {
	URL              string        `yaml:"url"`
	ReconnectDelay   time.Duration `yaml:"reconnect_delay"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	BufferSize       int           `yaml:"buffer_size"`
}

// ServerConfig holds the HTTP read API settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RoomsConfig holds the in-memory room store caps.
type RoomsConfig struct {
	TransactionCap       int `yaml:"transaction_cap"`
	GlobalTransactionCap int `yaml:"global_transaction_cap"`
	CandleCap            int `yaml:"candle_cap"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}
