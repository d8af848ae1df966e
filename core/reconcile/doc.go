// Package reconcile runs the availability reconciliation cycle.
//
// A cycle reads every tracked library record, queries the availability
// service once for all tracked ISBNs across all libraries, and computes the
// (isbn, library) pairs whose flag goes from false to true. Those pairs are
// persisted and, when there is at least one, handed to a Notifier.
//
// Flags are monotonic: the engine never writes false. An entry whose lookup
// failed never causes a transition.
package reconcile
