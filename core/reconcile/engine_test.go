package reconcile

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"library-alert/core/availability"
	"library-alert/core/database"
	"library-alert/core/status"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) ListAll(ctx context.Context) ([]status.LibraryRecord, error) {
	args := m.Called(ctx)
	recs, _ := args.Get(0).([]status.LibraryRecord)
	return recs, args.Error(1)
}

func (m *mockStore) FlipAvailable(ctx context.Context, libraryID, isbn string) error {
	return m.Called(ctx, libraryID, isbn).Error(0)
}

type stubClient struct {
	report *availability.Report
	err    error
	calls  int
	isbns  []string
	libs   []string
}

func (s *stubClient) Poll(_ context.Context, isbns, libraryIDs mapset.Set[string]) (*availability.Report, error) {
	s.calls++
	s.isbns = isbns.ToSlice()
	s.libs = libraryIDs.ToSlice()
	return s.report, s.err
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []UpdateSet
	err   error
}

func (r *recordingNotifier) Notify(_ context.Context, updates UpdateSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, updates)
	return r.err
}

func available(url string) availability.Entry {
	return availability.Entry{Status: availability.StatusOK, LibKey: map[string]any{"Main": "貸出可"}, ReserveURL: url}
}

func TestEngine_Run_PollFailureWritesNothing(t *testing.T) {
	store := new(mockStore)
	store.On("ListAll", mock.Anything).Return([]status.LibraryRecord{
		{LibraryID: "LibA", BookStatus: map[string]bool{"111": false}},
	}, nil)
	client := &stubClient{err: availability.ErrTransport}
	notifier := &recordingNotifier{}

	_, err := NewEngine(store, client, notifier, zap.NewNop()).Run(context.Background(), Options{})

	require.ErrorIs(t, err, availability.ErrTransport)
	store.AssertNotCalled(t, "FlipAvailable", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, notifier.calls)
}

func TestEngine_Run_ListFailure(t *testing.T) {
	store := new(mockStore)
	store.On("ListAll", mock.Anything).Return(nil, errors.New("db down"))
	client := &stubClient{}

	_, err := NewEngine(store, client, nil, nil).Run(context.Background(), Options{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Zero(t, client.calls)
}

func TestEngine_Run_NoTransitionsNoNotification(t *testing.T) {
	store := new(mockStore)
	store.On("ListAll", mock.Anything).Return([]status.LibraryRecord{
		{LibraryID: "LibA", BookStatus: map[string]bool{"111": true}},
	}, nil)
	client := &stubClient{report: &availability.Report{
		Complete: true, Attempts: 1,
		Books: map[string]map[string]availability.Entry{"111": {"LibA": available("u")}},
	}}
	notifier := &recordingNotifier{}

	result, err := NewEngine(store, client, notifier, nil).Run(context.Background(), Options{})

	require.NoError(t, err)
	assert.True(t, result.Updates.Empty())
	assert.False(t, result.Notified)
	assert.Empty(t, notifier.calls)
}

func TestEngine_Run_VanishedLibraryIsSkipped(t *testing.T) {
	store := new(mockStore)
	store.On("ListAll", mock.Anything).Return([]status.LibraryRecord{
		{LibraryID: "LibA", BookStatus: map[string]bool{"111": false}},
		{LibraryID: "LibB", BookStatus: map[string]bool{"111": false}},
	}, nil)
	store.On("FlipAvailable", mock.Anything, "LibA", "111").Return(status.ErrNotFound)
	store.On("FlipAvailable", mock.Anything, "LibB", "111").Return(nil)
	client := &stubClient{report: &availability.Report{
		Complete: true, Attempts: 1,
		Books: map[string]map[string]availability.Entry{"111": {
			"LibA": available("a"),
			"LibB": available("b"),
		}},
	}}
	notifier := &recordingNotifier{}

	result, err := NewEngine(store, client, notifier, nil).Run(context.Background(), Options{})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Flipped)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, UpdateSet{"111": {{LibraryID: "LibB", ReserveURL: "b"}}}, notifier.calls[0])
}

func TestEngine_Run_PersistFailureStopsBeforeNotify(t *testing.T) {
	store := new(mockStore)
	store.On("ListAll", mock.Anything).Return([]status.LibraryRecord{
		{LibraryID: "LibA", BookStatus: map[string]bool{"111": false, "222": false}},
	}, nil)
	store.On("FlipAvailable", mock.Anything, "LibA", "111").Return(nil)
	store.On("FlipAvailable", mock.Anything, "LibA", "222").Return(status.ErrConflict)
	client := &stubClient{report: &availability.Report{
		Complete: true, Attempts: 1,
		Books: map[string]map[string]availability.Entry{
			"111": {"LibA": available("a1")},
			"222": {"LibA": available("a2")},
		},
	}}
	notifier := &recordingNotifier{}

	result, err := NewEngine(store, client, notifier, nil).Run(context.Background(), Options{})

	require.ErrorIs(t, err, status.ErrConflict)
	assert.Equal(t, 1, result.Flipped)
	assert.Empty(t, notifier.calls)
}

func TestEngine_Run_IncompleteReportWarns(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	store := new(mockStore)
	store.On("ListAll", mock.Anything).Return([]status.LibraryRecord{
		{LibraryID: "LibA", BookStatus: map[string]bool{"111": false}},
	}, nil)
	store.On("FlipAvailable", mock.Anything, "LibA", "111").Return(nil)
	client := &stubClient{report: &availability.Report{
		Complete: false, Attempts: 20,
		Books: map[string]map[string]availability.Entry{"111": {"LibA": available("a")}},
	}}
	notifier := &recordingNotifier{}

	result, err := NewEngine(store, client, notifier, zap.New(core)).Run(context.Background(), Options{})

	require.NoError(t, err)
	assert.False(t, result.Complete)
	assert.Equal(t, 20, result.Attempts)
	assert.Equal(t, 1, result.Flipped)
	assert.Equal(t, 1, logs.FilterMessage("Availability lookup incomplete, using last response").Len())
}

func TestEngine_Run_NotifyFailure(t *testing.T) {
	store := new(mockStore)
	store.On("ListAll", mock.Anything).Return([]status.LibraryRecord{
		{LibraryID: "LibA", BookStatus: map[string]bool{"111": false}},
	}, nil)
	store.On("FlipAvailable", mock.Anything, "LibA", "111").Return(nil)
	client := &stubClient{report: &availability.Report{
		Complete: true, Attempts: 1,
		Books: map[string]map[string]availability.Entry{"111": {"LibA": available("a")}},
	}}
	notifier := &recordingNotifier{err: errors.New("smtp unavailable")}

	result, err := NewEngine(store, client, notifier, nil).Run(context.Background(), Options{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp unavailable")
	assert.Equal(t, 1, result.Flipped)
	assert.False(t, result.Notified)
}

func TestEngine_Run_DryRun(t *testing.T) {
	store := new(mockStore)
	store.On("ListAll", mock.Anything).Return([]status.LibraryRecord{
		{LibraryID: "LibA", BookStatus: map[string]bool{"111": false}},
	}, nil)
	client := &stubClient{report: &availability.Report{
		Complete: true, Attempts: 1,
		Books: map[string]map[string]availability.Entry{"111": {"LibA": available("a")}},
	}}
	notifier := &recordingNotifier{}

	result, err := NewEngine(store, client, notifier, nil).Run(context.Background(), Options{DryRun: true})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Updates.Len())
	assert.Zero(t, result.Flipped)
	store.AssertNotCalled(t, "FlipAvailable", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, notifier.calls)
}

// calilServer answers every /check with the given body.
func calilServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEngine_Run_EndToEnd(t *testing.T) {
	ctx := context.Background()

	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	store := status.NewGormStore(db, "libraries")
	require.NoError(t, store.Migrate(ctx))

	require.NoError(t, store.UpsertLibrary(ctx, "Tokyo_Setagaya"))
	require.NoError(t, store.UpsertLibrary(ctx, "Tokyo_Meguro"))
	require.NoError(t, store.AddBookToAllLibraries(ctx, "9784000000001"))
	require.NoError(t, store.AddBookToAllLibraries(ctx, "9784000000002"))

	srv := calilServer(t, `{
		"session": "s1",
		"continue": 0,
		"books": {
			"9784000000001": {
				"Tokyo_Setagaya": {"status": "OK", "libkey": {"中央": "貸出可"}, "reserveurl": "https://setagaya/1"},
				"Tokyo_Meguro": {"status": "OK", "libkey": {}, "reserveurl": ""}
			},
			"9784000000002": {
				"Tokyo_Setagaya": {"status": "Error", "libkey": {"中央": "貸出可"}, "reserveurl": ""},
				"Tokyo_Meguro": {"status": "Cache", "libkey": {"本館": "貸出中"}, "reserveurl": "https://meguro/2"}
			}
		}
	}`)
	client := availability.NewClient(availability.Config{BaseURL: srv.URL, AppKey: "k", MaxAttempts: 1}, nil)
	notifier := &recordingNotifier{}
	engine := NewEngine(store, client, notifier, nil)

	result, err := engine.Run(ctx, Options{})
	require.NoError(t, err)
	assert.True(t, result.Complete)
	assert.Equal(t, 2, result.Libraries)
	assert.Equal(t, 2, result.Books)
	assert.Equal(t, 2, result.Flipped)
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, UpdateSet{
		"9784000000001": {{LibraryID: "Tokyo_Setagaya", ReserveURL: "https://setagaya/1"}},
		"9784000000002": {{LibraryID: "Tokyo_Meguro", ReserveURL: "https://meguro/2"}},
	}, notifier.calls[0])

	setagaya, err := store.Get(ctx, "Tokyo_Setagaya")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"9784000000001": true, "9784000000002": false}, setagaya.BookStatus)

	meguro, err := store.Get(ctx, "Tokyo_Meguro")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"9784000000001": false, "9784000000002": true}, meguro.BookStatus)

	// Same response again: flags are monotonic and nothing is re-notified
	result, err = engine.Run(ctx, Options{})
	require.NoError(t, err)
	assert.True(t, result.Updates.Empty())
	assert.Len(t, notifier.calls, 1)

	again, err := store.Get(ctx, "Tokyo_Setagaya")
	require.NoError(t, err)
	assert.Equal(t, setagaya.BookStatus, again.BookStatus)
}

// removingStore drops a book between the engine's read and its writes.
type removingStore struct {
	*status.GormStore
	isbn string
	once sync.Once
}

func (r *removingStore) ListAll(ctx context.Context) ([]status.LibraryRecord, error) {
	records, err := r.GormStore.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	r.once.Do(func() { err = r.GormStore.RemoveBookFromAllLibraries(ctx, r.isbn) })
	return records, err
}

func TestEngine_Run_BookRemovedDuringCycle(t *testing.T) {
	ctx := context.Background()

	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	gormStore := status.NewGormStore(db, "libraries")
	require.NoError(t, gormStore.Migrate(ctx))
	require.NoError(t, gormStore.UpsertLibrary(ctx, "LibA"))
	require.NoError(t, gormStore.AddBookToAllLibraries(ctx, "111"))
	require.NoError(t, gormStore.AddBookToAllLibraries(ctx, "222"))

	client := &stubClient{report: &availability.Report{
		Complete: true, Attempts: 1,
		Books: map[string]map[string]availability.Entry{
			"111": {"LibA": available("a1")},
			"222": {"LibA": available("a2")},
		},
	}}
	notifier := &recordingNotifier{}
	store := &removingStore{GormStore: gormStore, isbn: "111"}

	result, err := NewEngine(store, client, notifier, nil).Run(ctx, Options{})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Flipped)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, UpdateSet{"222": {{LibraryID: "LibA", ReserveURL: "a2"}}}, notifier.calls[0])

	rec, err := gormStore.Get(ctx, "LibA")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"222": true}, rec.BookStatus)
}

func TestEngine_Run_SecondCycleWritesNothing(t *testing.T) {
	store := new(mockStore)
	store.On("ListAll", mock.Anything).Return([]status.LibraryRecord{
		{LibraryID: "LibA", BookStatus: map[string]bool{"111": false}},
	}, nil).Once()
	store.On("ListAll", mock.Anything).Return([]status.LibraryRecord{
		{LibraryID: "LibA", BookStatus: map[string]bool{"111": true}},
	}, nil).Once()
	store.On("FlipAvailable", mock.Anything, "LibA", "111").Return(nil).Once()

	client := &stubClient{report: &availability.Report{
		Complete: true, Attempts: 1,
		Books: map[string]map[string]availability.Entry{"111": {"LibA": available("a")}},
	}}
	notifier := &recordingNotifier{}
	engine := NewEngine(store, client, notifier, nil)

	first, err := engine.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Flipped)

	second, err := engine.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.True(t, second.Updates.Empty())
	assert.Zero(t, second.Flipped)

	store.AssertNumberOfCalls(t, "FlipAvailable", 1)
	store.AssertNumberOfCalls(t, "ListAll", 2)
	assert.Len(t, notifier.calls, 1)
	store.AssertExpectations(t)
}
