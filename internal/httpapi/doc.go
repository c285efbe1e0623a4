// Package httpapi exposes the dashboard's room store over HTTP.
//
// All endpoints are reads or subscription bookkeeping; the only writer
// to the store is the feed connection manager. Token pairs contain a
// slash ("ABC/SOL"), so room endpoints take the pair as a query
// parameter instead of a path segment.
package httpapi
