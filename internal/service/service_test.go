package service_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/mdouchement/logger"
	"github.com/mdouchement/securevision/internal/fingerprint"
	"github.com/mdouchement/securevision/internal/model"
	"github.com/mdouchement/securevision/internal/service"
	"github.com/mdouchement/securevision/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const issuer = "SecureVision Test Issuer"

type fixture struct {
	dir           string
	storage       storage.Backend
	fingerprinter *fingerprint.Fingerprinter
	sealer        *service.Sealer
	verifier      *service.Verifier
}

func newLogger() logger.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logger.WrapLogrus(log)
}

func setup(t *testing.T, algorithm string) *fixture {
	t.Helper()

	f, err := fingerprint.New(algorithm)
	require.NoError(t, err)

	dir := t.TempDir()
	backend := storage.NewFileSystem(filepath.Join(dir, "storage"))
	return &fixture{
		dir:           dir,
		storage:       backend,
		fingerprinter: f,
		sealer:        service.NewSealer(newLogger(), backend, f, issuer),
		verifier:      service.NewVerifier(newLogger(), backend, issuer),
	}
}

// write creates a file outside of the storage workspace.
func (f *fixture) write(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(f.dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func (f *fixture) seal(t *testing.T, source string, manifest model.Manifest) *service.SealResult {
	t.Helper()

	result, err := f.sealer.Seal(source, manifest)
	require.NoError(t, err)
	return result
}
