package storage

import (
	"io"
	"time"
)

const (
	// AreaSealed holds sealed image copies and their sidecar records.
	AreaSealed = "sealed"
	// AreaCaptures holds raw camera output waiting to be sealed.
	AreaCaptures = "captures"
)

// Empty captures older than staleAfter are abandoned uploads.
var staleAfter = time.Hour

// Backend is the interface that wraps the basic file operations of the storage areas.
type Backend interface {
	// Name returns the name of the backend implementation.
	Name() string

	// Init ensures the given area exists.
	Init(area string) error
	// URI returns the canonical reference of an object.
	URI(area, object string) string
	// Resolve returns the area and the object of a reference owned by this backend.
	Resolve(ref string) (area, object string, ok bool)

	// Reader returns a ReadCloser of the file.
	Reader(area, object string) (io.ReadCloser, error)
	// Writer returns a WriteCloser of the file.
	Writer(area, object string) (io.WriteCloser, error)
	// Copy copies a file.
	Copy(sa, so, da, do string) error

	// Filenames lists all the object names of the given area, sorted.
	Filenames(area string) ([]string, error)

	// Remove deletes the given file.
	Remove(area, object string) error
	// Cleanup removes abandoned empty captures and other useless artifacts.
	Cleanup() error
}
