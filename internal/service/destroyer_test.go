package service_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mdouchement/securevision/internal/database"
	"github.com/mdouchement/securevision/internal/model"
	"github.com/mdouchement/securevision/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDestroy(t *testing.T) {
	f := setup(t, "sha256")
	db := openDatabase(t)
	destroyer := service.NewDestroyer(newLogger(), db, f.storage)

	result := f.seal(t, f.write(t, "a.jpg", "IMG1"), model.Manifest{Timestamp: "T1"})
	require.NoError(t, db.SaveItem(itemOf(result)))
	require.NoError(t, db.SaveItem(&model.SealedItem{ID: "other", URI: "/x.jpg", Status: model.StatusValid}))

	item, err := destroyer.Destroy(result.ID)
	require.NoError(t, err)
	assert.Equal(t, result.ID, item.ID)

	assert.NoFileExists(t, result.URI)
	assert.NoFileExists(t, result.Verification.Sidecar)

	_, err = db.FindItem(result.ID)
	assert.True(t, db.IsNotFound(err))

	items, err := db.ListItems()
	assert.NoError(t, err)
	assert.Len(t, items, 1)

	// Absent
	_, err = destroyer.Destroy(result.ID)
	assert.Error(t, err)
	assert.True(t, db.IsNotFound(err))

	items, err = db.ListItems()
	assert.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestDestroy_FilesAlreadyGone(t *testing.T) {
	f := setup(t, "sha256")
	db := openDatabase(t)
	destroyer := service.NewDestroyer(newLogger(), db, f.storage)

	result := f.seal(t, f.write(t, "a.jpg", "IMG1"), model.Manifest{Timestamp: "T1"})
	require.NoError(t, db.SaveItem(itemOf(result)))

	require.NoError(t, os.Remove(result.URI))
	require.NoError(t, os.Remove(result.Verification.Sidecar))

	_, err := destroyer.Destroy(result.ID)
	assert.NoError(t, err)
}

func TestDestroy_KeepsFallbackOriginal(t *testing.T) {
	f := setup(t, "sha256")
	db := openDatabase(t)
	destroyer := service.NewDestroyer(newLogger(), db, f.storage)

	source := f.write(t, "a.jpg", "IMG1")
	result := f.seal(t, source, model.Manifest{Timestamp: "T1"})

	// Simulates a fallback seal referencing the original.
	item := itemOf(result)
	item.URI = source
	require.NoError(t, db.SaveItem(item))

	_, err := destroyer.Destroy(result.ID)
	assert.NoError(t, err)
	assert.FileExists(t, source)
	assert.NoFileExists(t, result.Verification.Sidecar)
}

func openDatabase(t *testing.T) database.Client {
	t.Helper()

	db, err := database.StormOpen(filepath.Join(t.TempDir(), "securevision.db"), "json")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func itemOf(result *service.SealResult) *model.SealedItem {
	return &model.SealedItem{
		ID:        result.ID,
		URI:       result.URI,
		Manifest:  result.Manifest,
		CreatedAt: result.Manifest.Timestamp,
		Status:    result.Verification.Status,
		Hash:      result.Hash,
	}
}
