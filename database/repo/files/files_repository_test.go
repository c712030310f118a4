package files

import (
	"context"
	"fmt"
	"testing"

	"github.com/anoixa/files-manager/database/dbtest"
	"github.com/anoixa/files-manager/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestRepository_CreateGetUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.New(t))

	f := &models.File{UserID: 1, Name: "a.txt", Type: models.FileTypeFile, LocalPath: strPtr("/tmp/x")}
	require.NoError(t, repo.Create(ctx, f))
	require.NotZero(t, f.ID)

	got, err := repo.GetByID(ctx, f.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a.txt", got.Name)
	assert.False(t, got.IsPublic)
	assert.Equal(t, "/tmp/x", *got.LocalPath)

	updated, err := repo.Update(ctx, f.ID, map[string]interface{}{"is_public": true})
	require.NoError(t, err)
	assert.True(t, updated.IsPublic)

	updated, err = repo.Update(ctx, f.ID, map[string]interface{}{"is_public": false})
	require.NoError(t, err)
	assert.False(t, updated.IsPublic)

	missing, err := repo.GetByID(ctx, 9999)
	assert.NoError(t, err)
	assert.Nil(t, missing)

	_, err = repo.Update(ctx, 9999, map[string]interface{}{"is_public": true})
	assert.Error(t, err)
}

func TestRepository_ListPagination(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.New(t))

	var ids []uint
	for i := 0; i < 45; i++ {
		f := &models.File{UserID: 7, Name: fmt.Sprintf("f%d", i), Type: models.FileTypeFolder}
		require.NoError(t, repo.Create(ctx, f))
		ids = append(ids, f.ID)
	}
	// 其他用户与其他目录的记录不应出现
	require.NoError(t, repo.Create(ctx, &models.File{UserID: 8, Name: "other", Type: models.FileTypeFolder}))
	require.NoError(t, repo.Create(ctx, &models.File{UserID: 7, Name: "nested", Type: models.FileTypeFolder, ParentID: ids[0]}))

	seen := make(map[uint]bool)
	var ordered []uint
	for page, want := range []int{20, 20, 5, 0} {
		list, err := repo.List(ctx, ListQuery{UserID: 7, Page: page})
		require.NoError(t, err)
		assert.Len(t, list, want, "page %d", page)
		for _, f := range list {
			assert.False(t, seen[f.ID], "duplicate id %d", f.ID)
			seen[f.ID] = true
			ordered = append(ordered, f.ID)
		}
	}
	assert.Equal(t, ids, ordered)

	negative, err := repo.List(ctx, ListQuery{UserID: 7, Page: -3})
	require.NoError(t, err)
	first, err := repo.List(ctx, ListQuery{UserID: 7, Page: 0})
	require.NoError(t, err)
	assert.Equal(t, first, negative)

	nested, err := repo.List(ctx, ListQuery{UserID: 7, ParentID: ids[0]})
	require.NoError(t, err)
	require.Len(t, nested, 1)
	assert.Equal(t, "nested", nested[0].Name)
}

func TestRepository_ImagesAndPaths(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.New(t))

	require.NoError(t, repo.Create(ctx, &models.File{UserID: 1, Name: "dir", Type: models.FileTypeFolder}))
	require.NoError(t, repo.Create(ctx, &models.File{UserID: 1, Name: "a.png", Type: models.FileTypeImage, LocalPath: strPtr("/root/a")}))
	require.NoError(t, repo.Create(ctx, &models.File{UserID: 1, Name: "b.txt", Type: models.FileTypeFile, LocalPath: strPtr("/root/b")}))
	require.NoError(t, repo.Create(ctx, &models.File{UserID: 2, Name: "c.png", Type: models.FileTypeImage, LocalPath: strPtr("/root/c")}))

	images, err := repo.ListImages(ctx, 0, 1)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "a.png", images[0].Name)

	images, err = repo.ListImages(ctx, images[0].ID, 10)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "c.png", images[0].Name)

	paths, err := repo.ListLocalPaths(ctx)
	require.NoError(t, err)
	assert.Len(t, paths, 3)
	assert.Contains(t, paths, "/root/b")

	count, err := repo.CountFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}
