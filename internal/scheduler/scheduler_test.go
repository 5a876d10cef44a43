package scheduler_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/mdouchement/logger"
	"github.com/mdouchement/securevision/internal/database"
	"github.com/mdouchement/securevision/internal/fingerprint"
	"github.com/mdouchement/securevision/internal/model"
	"github.com/mdouchement/securevision/internal/scheduler"
	"github.com/mdouchement/securevision/internal/service"
	"github.com/mdouchement/securevision/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func controller(t *testing.T) (scheduler.Controller, *service.Sealer, string) {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)
	l := logger.WrapLogrus(log)

	dir := t.TempDir()
	db, err := database.StormOpen(filepath.Join(dir, "securevision.db"), "json")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f, err := fingerprint.New("sha256")
	require.NoError(t, err)

	backend := storage.NewFileSystem(filepath.Join(dir, "storage"))
	return scheduler.Controller{
		Logger:        l,
		Database:      db,
		Storage:       backend,
		Verifier:      service.NewVerifier(l, backend, "issuer"),
		Specification: "@every 1h",
	}, service.NewSealer(l, backend, f, "issuer"), dir
}

func TestAudit(t *testing.T) {
	c, sealer, dir := controller(t)

	for i, content := range []string{"IMG1", "IMG2"} {
		source := filepath.Join(dir, content+".jpg")
		require.NoError(t, os.WriteFile(source, []byte(content), 0644))

		result, err := sealer.Seal(source, model.Manifest{Timestamp: "T1"})
		require.NoError(t, err)

		require.NoError(t, c.Database.SaveItem(&model.SealedItem{
			ID:     result.ID,
			URI:    result.URI,
			Status: model.StatusValid,
			Hash:   result.Hash,
		}))

		if i == 1 {
			require.NoError(t, os.WriteFile(result.URI, []byte("IMG3"), 0644))
		}
	}

	report, err := scheduler.Audit(c)
	assert.NoError(t, err)
	assert.Equal(t, scheduler.Report{model.StatusValid: 1, model.StatusTampered: 1}, report)

	// Status is a seal-time snapshot.
	items, err := c.Database.ListItems()
	assert.NoError(t, err)
	for _, item := range items {
		assert.Equal(t, model.StatusValid, item.Status)
	}
}

func TestStart(t *testing.T) {
	c, _, _ := controller(t)

	cron, err := scheduler.Start(c)
	require.NoError(t, err)
	cron.Stop()

	c.Specification = "every now and then"
	_, err = scheduler.Start(c)
	assert.Error(t, err)
}
