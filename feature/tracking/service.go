package tracking

import (
	"context"
	"errors"
	"strings"

	"library-alert/core/status"

	"go.uber.org/zap"
)

// ErrValidation marks a request rejected before any state was touched.
var ErrValidation = errors.New("invalid request")

// ValidationError carries the reason shown to the caller.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Is makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(reason string) error {
	return &ValidationError{Reason: reason}
}

// Entry is one row of the flattened status listing.
// ISBN and Status are null for a library without tracked books.
type Entry struct {
	Library string  `json:"Library"`
	ISBN    *string `json:"ISBN"`
	Status  *bool   `json:"Status"`
}

// Service manages tracked libraries and books.
type Service struct {
	store  status.Store
	logger *zap.Logger
}

// NewService creates a new tracking service.
func NewService(store status.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// List returns one entry per tracked (library, book) pair, ordered by library then ISBN.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	records, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		if len(rec.BookStatus) == 0 {
			entries = append(entries, Entry{Library: rec.LibraryID})
			continue
		}
		for _, isbn := range rec.ISBNs() {
			seen := rec.BookStatus[isbn]
			entries = append(entries, Entry{Library: rec.LibraryID, ISBN: &isbn, Status: &seen})
		}
	}
	return entries, nil
}

// AddLibrary registers a library seeded with every tracked book.
func (s *Service) AddLibrary(ctx context.Context, systemID string) error {
	systemID = strings.TrimSpace(systemID)
	if systemID == "" {
		return invalid("systemid is empty")
	}
	return s.store.UpsertLibrary(ctx, systemID)
}

// DeleteLibrary stops tracking a library. It returns status.ErrNotFound for unknown ids.
func (s *Service) DeleteLibrary(ctx context.Context, systemID string) error {
	systemID = strings.TrimSpace(systemID)
	if systemID == "" {
		return invalid("Invalid request. The path parameter 'systemid' is missing")
	}
	return s.store.DeleteLibrary(ctx, systemID)
}

// AddBook starts tracking a book at every library.
func (s *Service) AddBook(ctx context.Context, isbn string) error {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return invalid("isbn is empty")
	}
	return s.store.AddBookToAllLibraries(ctx, isbn)
}

// DeleteBook stops tracking a book everywhere.
func (s *Service) DeleteBook(ctx context.Context, isbn string) error {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return invalid("Invalid request. The path parameter 'isbn' is missing")
	}
	return s.store.RemoveBookFromAllLibraries(ctx, isbn)
}
