package service

import (
	"fmt"
	"io"
	"time"

	"github.com/mdouchement/logger"
	"github.com/mdouchement/securevision/internal/storage"
	"github.com/mdouchement/securevision/internal/xpath"
	"github.com/pkg/errors"
)

// A Capturer persists raw camera output in the captures area before it gets sealed.
type Capturer struct {
	logger  logger.Logger
	storage storage.Backend
	now     func() time.Time
}

// NewCapturer returns a new Capturer.
func NewCapturer(log logger.Logger, storage storage.Backend) *Capturer {
	return &Capturer{
		logger:  log.WithPrefix("[capture]"),
		storage: storage,
		now:     time.Now,
	}
}

// Capture copies the source image into the captures area and returns its reference.
func (s *Capturer) Capture(source string) (string, error) {
	r, err := Open(s.storage, source)
	if err != nil {
		return "", errors.Wrap(err, "capture")
	}
	defer r.Close()

	return s.Store(xpath.Extension(source), r)
}

// Store writes r into the captures area under a timestamped name with the given extension.
func (s *Capturer) Store(ext string, r io.Reader) (string, error) {
	if err := s.storage.Init(storage.AreaCaptures); err != nil {
		return "", errors.Wrap(err, "capture")
	}

	if ext == "" {
		ext = xpath.DefaultExtension
	}
	object := fmt.Sprintf("%d.%s", s.now().UnixMilli(), ext)

	wc, err := s.storage.Writer(storage.AreaCaptures, object)
	if err != nil {
		return "", errors.Wrap(err, "capture")
	}

	if _, err = io.Copy(wc, r); err != nil {
		wc.Close()
		s.storage.Remove(storage.AreaCaptures, object)
		return "", errors.Wrap(err, "capture")
	}

	if err = wc.Close(); err != nil {
		s.storage.Remove(storage.AreaCaptures, object)
		return "", errors.Wrap(err, "capture")
	}

	uri := s.storage.URI(storage.AreaCaptures, object)
	s.logger.Infof("Captured %s", uri)
	return uri, nil
}
