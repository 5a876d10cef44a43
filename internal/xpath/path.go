package xpath

import (
	"net/url"
	"path/filepath"
	"strings"
)

// DefaultExtension is used when a reference has no extension.
const DefaultExtension = "jpg"

// StripQuery removes any `?query' suffix from ref.
func StripQuery(ref string) string {
	if i := strings.IndexByte(ref, '?'); i >= 0 {
		return ref[:i]
	}
	return ref
}

// Extension returns the substring after the last dot of ref, ignoring the query.
// It returns DefaultExtension when there is none.
func Extension(ref string) string {
	base := StripQuery(ref)
	i := strings.LastIndexByte(base, '.')
	if i < 0 || i == len(base)-1 {
		return DefaultExtension
	}
	return base[i+1:]
}

// Filename returns the last path segment of ref, ignoring the query.
func Filename(ref string) string {
	base := filepath.ToSlash(StripQuery(ref))
	return base[strings.LastIndexByte(base, '/')+1:]
}

// LocalPath converts a plain path or a file:// URI into a filesystem path.
func LocalPath(ref string) string {
	ref = StripQuery(ref)
	if !strings.HasPrefix(ref, "file://") {
		return ref
	}

	u, err := url.Parse(ref)
	if err != nil {
		return strings.TrimPrefix(ref, "file://")
	}
	return filepath.FromSlash(u.Path)
}

// Entities takes the path p and extracts the area and the object.
func Entities(p string) (area, object string) {
	cp, err := url.PathUnescape(p)
	if err == nil {
		p = cp
	}

	artifacts := strings.SplitN(strings.TrimPrefix(p, "/"), "/", 2)
	if len(artifacts) < 2 {
		return artifacts[0], ""
	}
	return artifacts[0], artifacts[1]
}
