package storage

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/mdouchement/securevision/internal/xpath"
	"github.com/ncw/swift/v2"
	"github.com/pkg/errors"
)

// SwiftScheme prefixes the references of objects stored in OpenStack Swift.
const SwiftScheme = "swift://"

type swiftfs struct {
	ctx    context.Context
	conn   *swift.Connection
	prefix string
}

// NewSwift returns a new OpenStack Swift backend.
// Each area is stored in its own container named prefix+area.
func NewSwift(ctx context.Context, conn *swift.Connection, prefix string) (Backend, error) {
	if !conn.Authenticated() {
		if err := conn.Authenticate(ctx); err != nil {
			return nil, errors.Wrap(err, "could not authenticate to swift")
		}
	}

	return &swiftfs{
		ctx:    ctx,
		conn:   conn,
		prefix: prefix,
	}, nil
}

func (b *swiftfs) Name() string {
	return "swift"
}

func (b *swiftfs) Init(area string) error {
	err := b.conn.ContainerCreate(b.ctx, b.container(area), nil)
	return errors.Wrapf(err, "could not create %s area", area)
}

func (b *swiftfs) URI(area, object string) string {
	return SwiftScheme + area + "/" + object
}

func (b *swiftfs) Resolve(ref string) (string, string, bool) {
	if !strings.HasPrefix(ref, SwiftScheme) {
		return "", "", false
	}

	area, object := xpath.Entities(strings.TrimPrefix(xpath.StripQuery(ref), SwiftScheme))
	if area == "" || object == "" {
		return "", "", false
	}
	return area, object, true
}

func (b *swiftfs) Reader(area, object string) (io.ReadCloser, error) {
	rc, _, err := b.conn.ObjectOpen(b.ctx, b.container(area), object, false, nil)
	if err != nil {
		return nil, errors.Wrap(err, "could not open object")
	}
	return rc, nil
}

func (b *swiftfs) Writer(area, object string) (io.WriteCloser, error) {
	wc, err := b.conn.ObjectCreate(b.ctx, b.container(area), object, false, "", "", nil)
	if err != nil {
		return nil, errors.Wrap(err, "could not create object")
	}
	return wc, nil
}

func (b *swiftfs) Copy(sa, so, da, do string) error {
	_, err := b.conn.ObjectCopy(b.ctx, b.container(sa), so, b.container(da), do, nil)
	return errors.Wrap(err, "copy")
}

func (b *swiftfs) Filenames(area string) ([]string, error) {
	names, err := b.conn.ObjectNamesAll(b.ctx, b.container(area), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "could not list %s area", area)
	}

	sort.Strings(names)
	return names, nil
}

func (b *swiftfs) Remove(area, object string) error {
	err := b.conn.ObjectDelete(b.ctx, b.container(area), object)
	return errors.Wrap(err, "could not delete object")
}

// Cleanup removes the abandoned empty captures. Swift has no directories to prune.
func (b *swiftfs) Cleanup() error {
	objects, err := b.conn.ObjectsAll(b.ctx, b.container(AreaCaptures), nil)
	if err != nil {
		if err == swift.ContainerNotFound {
			return nil
		}
		return errors.Wrap(err, "cleanup")
	}

	for _, object := range objects {
		if !stale(object.Bytes, object.LastModified) {
			continue
		}

		if err = b.Remove(AreaCaptures, object.Name); err != nil {
			return errors.Wrap(err, "cleanup")
		}
	}
	return nil
}

func (b *swiftfs) container(area string) string {
	return b.prefix + area
}
