// Package feed implements the Connection Manager component.
//
// The manager:
//   - owns the single websocket connection to the feed
//   - tracks the connection state machine (disconnected, connecting,
//     connected, error)
//   - decodes and classifies each inbound frame and applies exactly
//     one room-store mutation per routable frame
//   - reconnects automatically after a fixed delay on any
//     non-deliberate connection loss
//
// A deliberate Disconnect cancels the pending reconnect timer before
// closing the transport, so shutdown never races a reconnect.
package feed
