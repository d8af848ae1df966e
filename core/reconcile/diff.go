package reconcile

import (
	"library-alert/core/availability"
	"library-alert/core/status"

	mapset "github.com/deckarep/golang-set/v2"
)

// querySets derives the ISBN and library id sets to look up from the tracked records.
func querySets(records []status.LibraryRecord) (isbns, libraries mapset.Set[string]) {
	isbns = mapset.NewThreadUnsafeSet[string]()
	libraries = mapset.NewThreadUnsafeSet[string]()
	for _, rec := range records {
		libraries.Add(rec.LibraryID)
		for isbn := range rec.BookStatus {
			isbns.Add(isbn)
		}
	}
	return isbns, libraries
}

// Diff computes the transitions implied by report against the tracked records.
// A pair is a transition when the entry is not an Error, its libkey is truthy,
// and the book is tracked at that library with its flag still false. Pairs the
// records do not track are ignored. records are not modified.
func Diff(records []status.LibraryRecord, report *availability.Report) UpdateSet {
	updates := UpdateSet{}
	if report == nil {
		return updates
	}

	// Working copy so a pair is only counted once per cycle
	working := make(map[string]map[string]bool, len(records))
	for _, rec := range records {
		flags := make(map[string]bool, len(rec.BookStatus))
		for isbn, seen := range rec.BookStatus {
			flags[isbn] = seen
		}
		working[rec.LibraryID] = flags
	}

	for _, isbn := range report.ISBNs() {
		for _, lib := range report.Libraries(isbn) {
			entry := report.Books[isbn][lib]
			if !entry.Available() {
				continue
			}
			seen, tracked := working[lib][isbn]
			if !tracked || seen {
				continue
			}
			updates.Add(isbn, lib, entry.ReserveURL)
			working[lib][isbn] = true
		}
	}
	return updates
}
