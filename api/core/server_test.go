package core

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	stdimage "image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/anoixa/files-manager/config"
	"github.com/anoixa/files-manager/database/models"
	"github.com/anoixa/files-manager/internal/app"
	imagepkg "github.com/anoixa/files-manager/internal/image"
	cryptopackage "github.com/anoixa/files-manager/utils/crypto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	t         *testing.T
	router    *gin.Engine
	container *app.Container
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	cfg := &config.Config{
		FolderPath:          filepath.Join(dir, "files"),
		DBType:              "sqlite",
		DBFilePath:          filepath.Join(dir, "test.db"),
		DBMaxOpenConns:      1,
		DBMaxIdleConns:      1,
		SessionStore:        "memory",
		QueueType:           "memory",
		QueueName:           "fileQueue",
		QueueBuffer:         100,
		WorkerConcurrency:   1,
		RateLimitAuthRPS:    1000,
		RateLimitAuthBurst:  1000,
		RateLimitExpireTime: time.Minute,
		UploadMaxSizeMB:     1,
		UploadConcurrency:   4,
	}

	container := app.NewContainer(cfg)
	require.NoError(t, container.Init(context.Background()))
	container.AuthService.WithHashParams(cryptopackage.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})

	router, cleanup := setupRouter(container)
	t.Cleanup(func() {
		cleanup()
		_ = container.Close()
	})

	return &testServer{t: t, router: router, container: container}
}

func (s *testServer) do(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) signup(email, password string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/users", gin.H{"email": email, "password": password}, nil)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	auth := "Basic " + base64.StdEncoding.EncodeToString([]byte(email+":"+password))
	w = s.do(http.MethodGet, "/connect", nil, map[string]string{"Authorization": auth})
	require.Equal(s.t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(s.t, resp.Token)
	return resp.Token
}

func decodeFile(t *testing.T, w *httptest.ResponseRecorder) models.File {
	t.Helper()
	var file models.File
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &file))
	return file
}

func tokenHeader(token string) map[string]string {
	return map[string]string{"X-Token": token}
}

func TestStatusAndStats(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/status", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"redis":false,"db":true}`, w.Body.String())

	s.signup("bob@dylan.com", "toto1234!")

	w = s.do(http.MethodGet, "/stats", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"users":1,"files":0}`, w.Body.String())
}

func TestUsersAndSessions(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/users", gin.H{"password": "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Missing email"}`, w.Body.String())

	w = s.do(http.MethodPost, "/users", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Missing email"}`, w.Body.String())

	token := s.signup("bob@dylan.com", "toto1234!")

	w = s.do(http.MethodPost, "/users", gin.H{"email": "bob@dylan.com", "password": "other"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Already exists"}`, w.Body.String())

	w = s.do(http.MethodGet, "/users/me", nil, tokenHeader(token))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1,"email":"bob@dylan.com"}`, w.Body.String())

	w = s.do(http.MethodGet, "/connect", nil, map[string]string{"Authorization": "Basic " + base64.StdEncoding.EncodeToString([]byte("bob@dylan.com:wrong"))})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())

	w = s.do(http.MethodGet, "/disconnect", nil, tokenHeader(token))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = s.do(http.MethodGet, "/users/me", nil, tokenHeader(token))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/disconnect", nil, tokenHeader(token))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFilesLifecycle(t *testing.T) {
	s := newTestServer(t)
	bob := s.signup("bob@dylan.com", "toto1234!")
	eve := s.signup("eve@example.com", "secret")

	w := s.do(http.MethodPost, "/files", gin.H{"name": "x"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/files", gin.H{"name": "images", "type": "folder"}, tokenHeader(bob))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	folder := decodeFile(t, w)
	assert.Equal(t, models.FileTypeFolder, folder.Type)
	assert.Nil(t, folder.LocalPath)

	w = s.do(http.MethodPost, "/files", gin.H{
		"name":     "hello.txt",
		"type":     "file",
		"parentId": folder.ID,
		"data":     base64.StdEncoding.EncodeToString([]byte("Hello Webstack!\n")),
	}, tokenHeader(bob))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	file := decodeFile(t, w)
	assert.Equal(t, folder.ID, file.ParentID)
	assert.False(t, file.IsPublic)

	w = s.do(http.MethodPost, "/files", gin.H{"name": "a", "type": "file", "parentId": file.ID, "data": "aGk="}, tokenHeader(bob))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Parent is not a folder"}`, w.Body.String())

	w = s.do(http.MethodPost, "/files", gin.H{"name": "sub", "type": "folder", "parentId": 999999}, tokenHeader(bob))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Parent not found"}`, w.Body.String())

	w = s.do(http.MethodPost, "/files", gin.H{"name": "a", "type": "blob"}, tokenHeader(bob))
	assert.JSONEq(t, `{"error":"Missing type"}`, w.Body.String())

	// show / index
	w = s.do(http.MethodGet, fmt.Sprintf("/files/%d", file.ID), nil, tokenHeader(bob))
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, fmt.Sprintf("/files/%d", file.ID), nil, tokenHeader(eve))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())

	w = s.do(http.MethodGet, "/files/abc", nil, tokenHeader(bob))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, fmt.Sprintf("/files?parentId=%d", folder.ID), nil, tokenHeader(bob))
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.File
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, file.ID, list[0].ID)

	w = s.do(http.MethodGet, "/files?page=3", nil, tokenHeader(bob))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	// data: private file
	dataPath := fmt.Sprintf("/files/%d/data", file.ID)
	w = s.do(http.MethodGet, dataPath, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, dataPath, nil, tokenHeader(bob))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Hello Webstack!\n", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")

	// publish
	w = s.do(http.MethodPut, fmt.Sprintf("/files/%d/publish", file.ID), nil, tokenHeader(eve))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPut, fmt.Sprintf("/files/%d/publish", file.ID), nil, tokenHeader(bob))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeFile(t, w).IsPublic)

	w = s.do(http.MethodGet, dataPath, nil, tokenHeader("invalid"))
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, dataPath+"?size=100", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPut, fmt.Sprintf("/files/%d/unpublish", file.ID), nil, tokenHeader(bob))
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decodeFile(t, w).IsPublic)

	w = s.do(http.MethodGet, dataPath, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// folders have no content
	w = s.do(http.MethodGet, fmt.Sprintf("/files/%d/data", folder.ID), nil, tokenHeader(bob))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"A folder doesn't have content"}`, w.Body.String())
}

func TestUploadBodyTooLarge(t *testing.T) {
	s := newTestServer(t)
	token := s.signup("bob@dylan.com", "toto1234!")

	big := base64.StdEncoding.EncodeToString(make([]byte, 3<<20))
	w := s.do(http.MethodPost, "/files", gin.H{"name": "big.bin", "type": "file", "data": big}, tokenHeader(token))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"File too large"}`, w.Body.String())
}

func TestImageUploadProducesThumbnails(t *testing.T) {
	s := newTestServer(t)
	token := s.signup("bob@dylan.com", "toto1234!")

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, stdimage.NewRGBA(stdimage.Rect(0, 0, 800, 400))))

	w := s.do(http.MethodPost, "/files", gin.H{
		"name":     "image.png",
		"type":     "image",
		"isPublic": true,
		"data":     base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, tokenHeader(token))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	img := decodeFile(t, w)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	delivery, err := s.container.Queue.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, img.ID, delivery.Job.FileID)

	wk := s.container.NewWorker(imagepkg.NewDrawRenderer())
	require.NoError(t, wk.Process(ctx, delivery.Job))
	require.NoError(t, delivery.Ack(ctx))

	for _, width := range models.ThumbnailWidths {
		w = s.do(http.MethodGet, fmt.Sprintf("/files/%d/data?size=%d", img.ID, width), nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

		cfg, _, err := stdimage.DecodeConfig(bytes.NewReader(w.Body.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, width, cfg.Width)
	}

	w = s.do(http.MethodGet, fmt.Sprintf("/files/%d/data?size=42", img.ID), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(http.MethodGet, fmt.Sprintf("/files/%d/data?size=big", img.ID), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
