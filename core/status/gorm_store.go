package status

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"gorm.io/gorm"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultTable is the table used when none is configured.
const DefaultTable = "libraries"

const maxWriteAttempts = 3

// libraryRow is the persisted layout of a LibraryRecord.
type libraryRow struct {
	LibraryID  string    `gorm:"column:library_id;primaryKey;size:64"`
	BookStatus string    `gorm:"column:book_status;type:text;not null"`
	Version    int64     `gorm:"column:version;not null;default:0"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (r libraryRow) record() (LibraryRecord, error) {
	rec := LibraryRecord{
		LibraryID:  r.LibraryID,
		BookStatus: map[string]bool{},
		Version:    r.Version,
	}
	if r.BookStatus == "" {
		return rec, nil
	}
	if err := json.Unmarshal([]byte(r.BookStatus), &rec.BookStatus); err != nil {
		return rec, fmt.Errorf("failed to decode book status of %s: %w", r.LibraryID, err)
	}
	if rec.BookStatus == nil {
		rec.BookStatus = map[string]bool{}
	}
	return rec, nil
}

func encodeStatus(status map[string]bool) (string, error) {
	if status == nil {
		status = map[string]bool{}
	}
	data, err := json.Marshal(status)
	if err != nil {
		return "", fmt.Errorf("failed to encode book status: %w", err)
	}
	return string(data), nil
}

// GormStore is a Store backed by a relational table through GORM.
// Writes are guarded by a version check-and-set and retried when they lose a race.
type GormStore struct {
	db    *gorm.DB
	table string
}

// NewGormStore creates a store over the given table.
func NewGormStore(db *gorm.DB, table string) *GormStore {
	if table == "" {
		table = DefaultTable
	}
	return &GormStore{db: db, table: table}
}

// Migrate creates or updates the table schema.
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Table(s.table).AutoMigrate(&libraryRow{}); err != nil {
		return fmt.Errorf("failed to migrate table %s: %w", s.table, err)
	}
	return nil
}

// ListAll returns every library record ordered by library id.
func (s *GormStore) ListAll(ctx context.Context) ([]LibraryRecord, error) {
	var rows []libraryRow
	if err := s.db.WithContext(ctx).Table(s.table).Order("library_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list libraries: %w", err)
	}

	records := make([]LibraryRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Get returns the record of a single library.
func (s *GormStore) Get(ctx context.Context, libraryID string) (*LibraryRecord, error) {
	var row libraryRow
	err := s.db.WithContext(ctx).Table(s.table).Where("library_id = ?", libraryID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, libraryID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load library %s: %w", libraryID, err)
	}

	rec, err := row.record()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// FlipAvailable sets BookStatus[isbn] to true and persists the whole record.
// It returns ErrNotFound when the library is gone or no longer tracks isbn.
func (s *GormStore) FlipAvailable(ctx context.Context, libraryID, isbn string) error {
	return s.mutate(ctx, libraryID, func(rec *LibraryRecord) (bool, error) {
		seen, tracked := rec.BookStatus[isbn]
		if !tracked {
			return false, fmt.Errorf("%w: %s no longer tracks %s", ErrNotFound, libraryID, isbn)
		}
		if seen {
			return false, nil
		}
		rec.BookStatus[isbn] = true
		return true, nil
	})
}

// AddBookToAllLibraries inserts isbn -> false into every record that lacks it.
func (s *GormStore) AddBookToAllLibraries(ctx context.Context, isbn string) error {
	records, err := s.ListAll(ctx)
	if err != nil {
		return err
	}

	for _, rec := range records {
		err := s.mutate(ctx, rec.LibraryID, func(r *LibraryRecord) (bool, error) {
			if _, ok := r.BookStatus[isbn]; ok {
				return false, nil
			}
			r.BookStatus[isbn] = false
			return true, nil
		})
		// Library deleted since the scan
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// RemoveBookFromAllLibraries deletes isbn from every record.
func (s *GormStore) RemoveBookFromAllLibraries(ctx context.Context, isbn string) error {
	records, err := s.ListAll(ctx)
	if err != nil {
		return err
	}

	for _, rec := range records {
		if _, ok := rec.BookStatus[isbn]; !ok {
			continue
		}
		err := s.mutate(ctx, rec.LibraryID, func(r *LibraryRecord) (bool, error) {
			if _, ok := r.BookStatus[isbn]; !ok {
				return false, nil
			}
			delete(r.BookStatus, isbn)
			return true, nil
		})
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// UpsertLibrary creates a record for libraryID seeded with the union of ISBNs
// tracked by the existing records, all set to false. An existing record keeps
// its flags and only gains the ISBNs it is missing.
func (s *GormStore) UpsertLibrary(ctx context.Context, libraryID string) error {
	records, err := s.ListAll(ctx)
	if err != nil {
		return err
	}
	isbns := TrackedISBNs(records)

	for _, rec := range records {
		if rec.LibraryID != libraryID {
			continue
		}
		return s.mutate(ctx, libraryID, func(r *LibraryRecord) (bool, error) {
			changed := false
			for _, isbn := range isbns {
				if _, ok := r.BookStatus[isbn]; !ok {
					r.BookStatus[isbn] = false
					changed = true
				}
			}
			return changed, nil
		})
	}

	seed := make(map[string]bool, len(isbns))
	for _, isbn := range isbns {
		seed[isbn] = false
	}
	encoded, err := encodeStatus(seed)
	if err != nil {
		return err
	}

	row := libraryRow{LibraryID: libraryID, BookStatus: encoded}
	if err := s.db.WithContext(ctx).Table(s.table).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create library %s: %w", libraryID, err)
	}
	return nil
}

// DeleteLibrary removes the record of libraryID.
func (s *GormStore) DeleteLibrary(ctx context.Context, libraryID string) error {
	res := s.db.WithContext(ctx).Table(s.table).Where("library_id = ?", libraryID).Delete(&libraryRow{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete library %s: %w", libraryID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, libraryID)
	}
	return nil
}

// mutate performs a read-modify-write of one record. apply reports whether it
// changed anything; unchanged records are not written and an apply error is
// returned as is. The write only succeeds if the version read is still current.
func (s *GormStore) mutate(ctx context.Context, libraryID string, apply func(*LibraryRecord) (bool, error)) error {
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		rec, err := s.Get(ctx, libraryID)
		if err != nil {
			return err
		}
		changed, err := apply(rec)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}

		encoded, err := encodeStatus(rec.BookStatus)
		if err != nil {
			return err
		}

		res := s.db.WithContext(ctx).Table(s.table).
			Where("library_id = ? AND version = ?", libraryID, rec.Version).
			Updates(map[string]any{
				"book_status": encoded,
				"version":     rec.Version + 1,
				"updated_at":  time.Now(),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to save library %s: %w", libraryID, res.Error)
		}
		if res.RowsAffected == 1 {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrConflict, libraryID)
}
