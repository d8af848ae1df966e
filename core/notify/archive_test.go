package notify

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"library-alert/core/reconcile"
	"library-alert/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	ts := time.Date(2024, 1, 9, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "notifications/2024/01/09/abc.json", ObjectKey(ts, "abc"))
}

func TestArchiveNotifier_Notify(t *testing.T) {
	mockClient := new(mocks.Client)
	var uploaded string
	mockClient.On("PutObject", mock.Anything, "alerts",
		mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "notifications/2024/03/15/") && strings.HasSuffix(key, ".json")
		}),
		mock.Anything, mock.AnythingOfType("int64"),
		mock.MatchedBy(func(opts minio.PutObjectOptions) bool { return opts.ContentType == "application/json" }),
	).Run(func(args mock.Arguments) {
		data, _ := io.ReadAll(args.Get(3).(io.Reader))
		uploaded = string(data)
	}).Return(minio.UploadInfo{}, nil)

	a := NewArchiveNotifier(mockClient, "alerts", nil)
	a.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, a.Notify(context.Background(), testUpdates()))
	assert.JSONEq(t, `{"9780000000001":[["LibA","http://x"]]}`, uploaded)
	mockClient.AssertExpectations(t)
}

func TestArchiveNotifier_UploadError(t *testing.T) {
	mockClient := new(mocks.Client)
	mockClient.On("PutObject", mock.Anything, "alerts", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("access denied"))

	err := NewArchiveNotifier(mockClient, "alerts", nil).Notify(context.Background(), testUpdates())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

type countingNotifier struct {
	calls int
	err   error
}

func (c *countingNotifier) Notify(context.Context, reconcile.UpdateSet) error {
	c.calls++
	return c.err
}

func TestMulti(t *testing.T) {
	first := &countingNotifier{}
	failing := &countingNotifier{err: errors.New("boom")}
	last := &countingNotifier{}

	err := Multi{first, failing, last}.Notify(context.Background(), testUpdates())

	assert.EqualError(t, err, "boom")
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, failing.calls)
	assert.Zero(t, last.calls)

	assert.NoError(t, Multi{first}.Notify(context.Background(), testUpdates()))
}
