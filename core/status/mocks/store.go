package mocks

import (
	"context"

	"library-alert/core/status"

	"github.com/stretchr/testify/mock"
)

// Store is a mock implementation of status.Store
type Store struct {
	mock.Mock
}

func (m *Store) ListAll(ctx context.Context) ([]status.LibraryRecord, error) {
	args := m.Called(ctx)
	recs, _ := args.Get(0).([]status.LibraryRecord)
	return recs, args.Error(1)
}

func (m *Store) Get(ctx context.Context, libraryID string) (*status.LibraryRecord, error) {
	args := m.Called(ctx, libraryID)
	rec, _ := args.Get(0).(*status.LibraryRecord)
	return rec, args.Error(1)
}

func (m *Store) FlipAvailable(ctx context.Context, libraryID, isbn string) error {
	return m.Called(ctx, libraryID, isbn).Error(0)
}

func (m *Store) AddBookToAllLibraries(ctx context.Context, isbn string) error {
	return m.Called(ctx, isbn).Error(0)
}

func (m *Store) RemoveBookFromAllLibraries(ctx context.Context, isbn string) error {
	return m.Called(ctx, isbn).Error(0)
}

func (m *Store) UpsertLibrary(ctx context.Context, libraryID string) error {
	return m.Called(ctx, libraryID).Error(0)
}

func (m *Store) DeleteLibrary(ctx context.Context, libraryID string) error {
	return m.Called(ctx, libraryID).Error(0)
}
