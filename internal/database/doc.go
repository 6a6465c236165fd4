// Package database provides SQLite-based storage of price history.
//
// PriceDB keeps:
//   - every price observation, per product
//   - the last seen snapshot (title and content hash) of each product page
//
// The database is a single file under the XDG data directory, opened through
// the CGO-free modernc.org/sqlite driver with WAL enabled.
package database
