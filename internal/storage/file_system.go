package storage

import (
	"io"
	fspkg "io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mdouchement/securevision/internal/xpath"
	"github.com/pkg/errors"
)

type fs struct {
	workspace string
}

// NewFileSystem returns a new File System backend rooted at workspace.
func NewFileSystem(workspace string) Backend {
	if abs, err := filepath.Abs(workspace); err == nil {
		workspace = abs
	}

	return &fs{
		workspace: filepath.Clean(workspace),
	}
}

func (b *fs) Name() string {
	return "file_system"
}

func (b *fs) Init(area string) error {
	err := os.MkdirAll(filepath.Join(b.workspace, area), 0755)
	return errors.Wrapf(err, "could not create %s area", area)
}

func (b *fs) URI(area, object string) string {
	return filepath.Join(b.workspace, area, object)
}

func (b *fs) Resolve(ref string) (string, string, bool) {
	rel, err := filepath.Rel(b.workspace, filepath.Clean(xpath.LocalPath(ref)))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", "", false
	}

	area, object := xpath.Entities(filepath.ToSlash(rel))
	if object == "" {
		return "", "", false
	}
	return area, filepath.FromSlash(object), true
}

func (b *fs) Reader(area, object string) (io.ReadCloser, error) {
	rc, err := os.Open(filepath.Join(b.workspace, area, object))
	if err != nil {
		return nil, errors.Wrap(err, "could not open file")
	}
	return rc, nil
}

func (b *fs) Writer(area, object string) (io.WriteCloser, error) {
	b.mkdirAllWithFilename(area, object)

	wc, err := os.Create(filepath.Join(b.workspace, area, object))
	if err != nil {
		return nil, errors.Wrap(err, "could not create file")
	}
	return &syncWriter{File: wc}, nil
}

func (b *fs) Copy(sa, so, da, do string) error {
	src, err := os.Open(filepath.Join(b.workspace, sa, so))
	if err != nil {
		return errors.Wrap(err, "copy: source")
	}
	defer src.Close()

	//

	dst, err := b.Writer(da, do)
	if err != nil {
		return errors.Wrap(err, "copy: destination")
	}

	//

	if _, err = io.Copy(dst, src); err != nil {
		dst.Close()
		return errors.Wrap(err, "copy")
	}

	return errors.Wrap(dst.Close(), "copy: destination")
}

func (b *fs) Filenames(area string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(b.workspace, area))
	if err != nil {
		return nil, errors.Wrapf(err, "could not list %s area", area)
	}

	var filenames []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		filenames = append(filenames, entry.Name())
	}

	sort.Strings(filenames)
	return filenames, nil
}

func (b *fs) Exist(area, object string) bool {
	_, err := os.Stat(filepath.Join(b.workspace, area, object))
	if err == nil {
		return true
	}
	if os.IsNotExist(err) {
		return false
	}
	return true // ignoring error
}

func (b *fs) Remove(area, object string) error {
	err := os.Remove(filepath.Join(b.workspace, area, object))
	if err != nil {
		return errors.Wrap(err, "could not delete file")
	}
	return nil
}

// Cleanup removes the abandoned empty captures, then the empty directories nested in the areas.
// The areas themselves are kept.
func (b *fs) Cleanup() error {
	if !b.Exist("", "") {
		return nil
	}

	captures := filepath.Join(b.workspace, AreaCaptures)
	stats := map[string]int{}
	err := filepath.Walk(b.workspace, func(path string, info fspkg.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path == b.workspace || filepath.Dir(path) == b.workspace {
				return nil
			}
			stats[path] += 0
			return nil
		}

		if strings.HasSuffix(path, ".DS_Store") {
			return nil
		}

		if strings.HasPrefix(path, captures+string(filepath.Separator)) && stale(info.Size(), info.ModTime()) {
			if err := os.Remove(path); err == nil {
				return nil
			}
		}

		for dir := filepath.Dir(path); strings.HasPrefix(dir, b.workspace) && dir != b.workspace; dir = filepath.Dir(dir) {
			stats[dir]++
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "cleanup")
	}

	// Remove empty directories.
	//
	for dirname, count := range stats {
		if count == 0 {
			os.RemoveAll(dirname)
		}
	}
	return nil
}

func stale(size int64, modified time.Time) bool {
	return size == 0 && time.Since(modified) >= staleAfter
}

func (b *fs) mkdirAllWithFilename(area, object string) {
	dir := filepath.Join(b.workspace, area, filepath.Dir(object))
	if !b.Exist(area, filepath.Dir(object)) {
		os.MkdirAll(dir, 0755)
	}
}

// syncWriter flushes the file to disk before closing it so a completed copy is durable.
type syncWriter struct {
	*os.File
}

func (w *syncWriter) Close() error {
	if err := w.File.Sync(); err != nil {
		w.File.Close()
		return errors.Wrap(err, "could not sync file")
	}
	return w.File.Close()
}
