package reconcile

import (
	"sort"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Availability is a library at which a book was newly found available.
// It serializes as a [libraryId, reserveUrl] pair.
type Availability struct {
	LibraryID  string
	ReserveURL string
}

// MarshalJSON encodes the pair as a two element array.
func (a Availability) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{a.LibraryID, a.ReserveURL})
}

// UnmarshalJSON decodes a [libraryId, reserveUrl] pair.
func (a *Availability) UnmarshalJSON(data []byte) error {
	var pair [2]string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	a.LibraryID, a.ReserveURL = pair[0], pair[1]
	return nil
}

// UpdateSet maps an ISBN to the libraries where it became available during one
// cycle, in order of discovery. It is both the persistence delta and the
// notification payload.
type UpdateSet map[string][]Availability

// Add records that isbn became available at libraryID.
func (u UpdateSet) Add(isbn, libraryID, reserveURL string) {
	u[isbn] = append(u[isbn], Availability{LibraryID: libraryID, ReserveURL: reserveURL})
}

// Remove drops the pair; an ISBN left without libraries is removed entirely.
func (u UpdateSet) Remove(isbn, libraryID string) {
	kept := u[isbn][:0]
	for _, a := range u[isbn] {
		if a.LibraryID != libraryID {
			kept = append(kept, a)
		}
	}
	if len(kept) == 0 {
		delete(u, isbn)
		return
	}
	u[isbn] = kept
}

// Len returns the number of (isbn, library) pairs.
func (u UpdateSet) Len() int {
	n := 0
	for _, libs := range u {
		n += len(libs)
	}
	return n
}

// Empty reports whether no transition was found.
func (u UpdateSet) Empty() bool {
	return u.Len() == 0
}

// ISBNs returns the ISBNs with transitions in sorted order.
func (u UpdateSet) ISBNs() []string {
	isbns := make([]string, 0, len(u))
	for isbn := range u {
		isbns = append(isbns, isbn)
	}
	sort.Strings(isbns)
	return isbns
}

// Options controls a reconciliation run.
type Options struct {
	// DryRun computes transitions without persisting or notifying.
	DryRun bool
}

// Result summarizes a reconciliation run.
type Result struct {
	// Updates holds the persisted transitions (all computed transitions on a dry run).
	Updates UpdateSet `json:"updates"`
	// Libraries is the number of library records read.
	Libraries int `json:"libraries"`
	// Books is the number of distinct ISBNs queried.
	Books int `json:"books"`
	// Attempts is the number of availability requests issued.
	Attempts int `json:"attempts"`
	// Complete is false when polling gave up before the service finished.
	Complete bool `json:"complete"`
	// Flipped counts persisted flag flips.
	Flipped int `json:"flipped"`
	// Skipped counts transitions dropped because the library or book vanished mid-cycle.
	Skipped int `json:"skipped"`
	// Notified reports whether the notifier was called.
	Notified bool `json:"notified"`
}
