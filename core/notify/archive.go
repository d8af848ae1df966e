package notify

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"library-alert/core/reconcile"
	"library-alert/core/storage"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ArchivePrefix is the key prefix of archived notification payloads.
const ArchivePrefix = "notifications"

// ArchiveNotifier stores each payload as an object in the bucket.
type ArchiveNotifier struct {
	client storage.Client
	bucket string
	logger *zap.Logger
	now    func() time.Time
}

// NewArchiveNotifier creates a notifier writing to bucket.
func NewArchiveNotifier(client storage.Client, bucket string, logger *zap.Logger) *ArchiveNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArchiveNotifier{client: client, bucket: bucket, logger: logger, now: time.Now}
}

// Notify uploads the JSON encoded update set under notifications/YYYY/MM/DD/<uuid>.json.
func (a *ArchiveNotifier) Notify(ctx context.Context, updates reconcile.UpdateSet) error {
	body, err := json.Marshal(updates)
	if err != nil {
		return fmt.Errorf("failed to encode updates: %w", err)
	}

	key := ObjectKey(a.now(), uuid.NewString())
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to archive notification: %w", err)
	}

	a.logger.Debug("Notification archived", zap.String("bucket", a.bucket), zap.String("key", key))
	return nil
}

// ObjectKey builds the archive key for a payload written at t.
func ObjectKey(t time.Time, id string) string {
	return fmt.Sprintf("%s/%s/%s.json", ArchivePrefix, t.UTC().Format("2006/01/02"), id)
}
