// Package status persists per-library book status.
//
// Each library is one record keyed by its calil system id, holding a map from ISBN
// to a flag that turns true once the book has been reported available there. The
// reconciliation engine only ever flips flags from false to true; the management
// API adds and removes keys.
//
// # Concurrency
//
// Every mutation is a read-modify-write of the whole record. GormStore guards the
// write with a version check-and-set and retries a bounded number of times, so a
// management edit racing a reconciliation write is not silently lost.
package status
