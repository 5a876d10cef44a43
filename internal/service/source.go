package service

import (
	"io"
	"os"

	"github.com/mdouchement/securevision/internal/storage"
	"github.com/mdouchement/securevision/internal/xpath"
	"github.com/pkg/errors"
)

// Open returns a reader of the referenced image.
// References owned by the storage backend are read from it, others from the local file system.
func Open(backend storage.Backend, ref string) (io.ReadCloser, error) {
	if area, object, ok := backend.Resolve(ref); ok {
		return backend.Reader(area, object)
	}

	f, err := os.Open(xpath.LocalPath(ref))
	if err != nil {
		return nil, errors.Wrap(err, "could not open source")
	}
	return f, nil
}

// readContent returns the bytes of the referenced image.
// On error, callers fingerprint the reference instead (see fingerprint.OfReference).
func readContent(backend storage.Backend, ref string) ([]byte, error) {
	rc, err := Open(backend, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	payload, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrap(err, "could not read source")
	}
	return payload, nil
}
