package status

import (
	"context"
	"errors"
	"sort"
)

var (
	// ErrNotFound is returned when a library record does not exist.
	ErrNotFound = errors.New("library not found")
	// ErrConflict is returned when a record kept changing underneath a read-modify-write.
	ErrConflict = errors.New("library record modified concurrently")
)

// LibraryRecord is the tracked state of one library.
// BookStatus[isbn] is true once the book has been reported available there;
// a missing key means the book is not tracked at that library.
type LibraryRecord struct {
	LibraryID  string          `json:"library_id"`
	BookStatus map[string]bool `json:"book_status"`
	Version    int64           `json:"version"`
}

// ISBNs returns the tracked ISBNs in sorted order.
func (r LibraryRecord) ISBNs() []string {
	isbns := make([]string, 0, len(r.BookStatus))
	for isbn := range r.BookStatus {
		isbns = append(isbns, isbn)
	}
	sort.Strings(isbns)
	return isbns
}

// Store persists library records.
// Every mutation rewrites the whole record.
type Store interface {
	// ListAll returns every library record.
	ListAll(ctx context.Context) ([]LibraryRecord, error)
	// Get returns a single record or ErrNotFound.
	Get(ctx context.Context, libraryID string) (*LibraryRecord, error)
	// FlipAvailable marks isbn as reported available at libraryID.
	FlipAvailable(ctx context.Context, libraryID, isbn string) error
	// AddBookToAllLibraries starts tracking isbn at every existing library.
	AddBookToAllLibraries(ctx context.Context, isbn string) error
	// RemoveBookFromAllLibraries stops tracking isbn everywhere.
	RemoveBookFromAllLibraries(ctx context.Context, isbn string) error
	// UpsertLibrary registers libraryID seeded with every tracked ISBN.
	UpsertLibrary(ctx context.Context, libraryID string) error
	// DeleteLibrary removes the record or returns ErrNotFound.
	DeleteLibrary(ctx context.Context, libraryID string) error
}

// TrackedISBNs returns the union of ISBNs across records, sorted.
func TrackedISBNs(records []LibraryRecord) []string {
	seen := make(map[string]struct{})
	for _, rec := range records {
		for isbn := range rec.BookStatus {
			seen[isbn] = struct{}{}
		}
	}
	isbns := make([]string, 0, len(seen))
	for isbn := range seen {
		isbns = append(isbns, isbn)
	}
	sort.Strings(isbns)
	return isbns
}
