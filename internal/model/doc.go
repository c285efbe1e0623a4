// Package model defines the domain types shared across the feed
// pipeline: transactions, OHLCV candles, and per-period metrics.
//
// All types are plain data. Ownership and mutation rules live in the
// room store; nothing here is safe for concurrent mutation on its own.
package model
