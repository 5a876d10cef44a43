package service

import (
	"github.com/mdouchement/logger"
	"github.com/mdouchement/securevision/internal/database"
	"github.com/mdouchement/securevision/internal/model"
	"github.com/mdouchement/securevision/internal/storage"
	"github.com/pkg/errors"
)

// A Destroyer removes sealed items from the index and their files from storage.
type Destroyer struct {
	logger   logger.Logger
	database database.Client
	storage  storage.Backend
}

// NewDestroyer returns a new Destroyer.
func NewDestroyer(log logger.Logger, database database.Client, storage storage.Backend) *Destroyer {
	return &Destroyer{
		logger:   log.WithPrefix("[delete]"),
		database: database,
		storage:  storage,
	}
}

// Destroy removes the item from the index and returns it.
// A missing item is reported with a not found error (see database.Client.IsNotFound).
//
// The sealed image and the sidecar record are then removed on a best-effort basis:
// files already gone never fail the deletion. An image outside of the sealed area,
// left by a fallback seal, is never removed.
func (s *Destroyer) Destroy(id string) (*model.SealedItem, error) {
	item, err := s.database.DeleteItem(id)
	if err != nil {
		return nil, errors.Wrap(err, "destroy")
	}

	//

	if area, object, ok := s.storage.Resolve(item.URI); ok && area == storage.AreaSealed {
		if err := s.storage.Remove(area, object); err != nil {
			s.logger.Infof("%s: image: %s", id, err)
		}
	}

	if err := s.storage.Remove(storage.AreaSealed, model.SidecarName(id)); err != nil {
		s.logger.Infof("%s: sidecar: %s", id, err)
	}

	s.logger.Infof("Removed %s", id)
	return item, nil
}
