package files

import (
	"bytes"
	"context"
	"encoding/base64"
	stdimage "image"
	"image/png"
	"os"
	"testing"
	"time"

	"github.com/anoixa/files-manager/database/dbtest"
	"github.com/anoixa/files-manager/database/models"
	"github.com/anoixa/files-manager/database/repo/files"
	"github.com/anoixa/files-manager/internal/queue"
	"github.com/anoixa/files-manager/storage"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	repo    *files.Repository
	storage *storage.LocalStorage
	queue   *queue.MemoryQueue
	upload  *UploadService
	query   *QueryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	repo := files.NewRepository(dbtest.New(t))
	q := queue.NewMemoryQueue("fileQueue", 100)
	t.Cleanup(func() { _ = q.Close() })

	return &fixture{
		repo:    repo,
		storage: store,
		queue:   q,
		upload:  NewUploadService(repo, store, q, 1<<20),
		query:   NewQueryService(repo, store),
	}
}

func b64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

func pngData(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, stdimage.NewRGBA(stdimage.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func (f *fixture) mustUpload(t *testing.T, userID uint, req UploadRequest) *models.File {
	t.Helper()
	file, err := f.upload.Upload(context.Background(), userID, req)
	require.NoError(t, err)
	return file
}

func (f *fixture) queued(t *testing.T) int {
	t.Helper()
	n, err := f.queue.Len(context.Background())
	require.NoError(t, err)
	return int(n)
}

func setMtime(t *testing.T, path string, age time.Duration) {
	t.Helper()
	ts := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, ts, ts))
}
