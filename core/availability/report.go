package availability

import (
	"sort"

	"library-alert/core/utils"
)

// Per-library lookup states reported by calil.
const (
	StatusOK      = "OK"
	StatusCache   = "Cache"
	StatusRunning = "Running"
	StatusError   = "Error"
)

// Entry is the lookup result of one book at one library system.
type Entry struct {
	Status string `json:"status"`
	// LibKey maps branch names to loan states; empty when no branch holds the book.
	LibKey     any    `json:"libkey"`
	ReserveURL string `json:"reserveurl"`
}

// Failed reports whether the lookup failed for this library; such entries carry no information.
func (e Entry) Failed() bool {
	return e.Status == StatusError
}

// Available reports whether the library holds the book.
func (e Entry) Available() bool {
	return !e.Failed() && utils.Truthy(e.LibKey)
}

// Report is the outcome of one Poll.
type Report struct {
	// Books maps ISBN -> library id -> entry.
	Books map[string]map[string]Entry `json:"books"`
	// Complete is false when the attempt budget ran out while the service still reported continue=1.
	Complete bool `json:"complete"`
	// Attempts is the number of requests issued.
	Attempts int `json:"attempts"`
}

// ISBNs returns the reported ISBNs in sorted order.
func (r *Report) ISBNs() []string {
	isbns := make([]string, 0, len(r.Books))
	for isbn := range r.Books {
		isbns = append(isbns, isbn)
	}
	sort.Strings(isbns)
	return isbns
}

// Libraries returns the library ids reported for isbn in sorted order.
func (r *Report) Libraries(isbn string) []string {
	libs := make([]string, 0, len(r.Books[isbn]))
	for lib := range r.Books[isbn] {
		libs = append(libs, lib)
	}
	sort.Strings(libs)
	return libs
}
