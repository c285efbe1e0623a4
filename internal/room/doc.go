// Package room implements the per-token-pair state aggregation core:
// the room store, bounded transaction logs, per-timeframe candle
// series, metrics snapshots, and reference-counted subscriptions.
//
// Ownership model: the feed manager is the single writer; every other
// component reads through accessors that return copied snapshots, so
// a reader can never observe a partially applied mutation or alias
// live state. Rooms are created lazily on first reference and never
// deleted; a room with zero subscribers keeps its history but is
// excluded from the active-rooms view.
package room
