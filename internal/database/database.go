package database

import (
	"github.com/mdouchement/securevision/internal/model"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when an item does not exist in the index.
var ErrNotFound = errors.New("not found")

// A Client can interacts with the sealed-item index.
type Client interface {
	// SaveItem inserts the item or replaces the one with the same ID.
	// The saved item becomes the first of the list.
	SaveItem(item *model.SealedItem) error
	// ListItems returns all the items, most recently saved first.
	ListItems() ([]*model.SealedItem, error)
	// FindItem returns the item with the given ID.
	FindItem(id string) (*model.SealedItem, error)
	// DeleteItem removes the item with the given ID and returns it.
	DeleteItem(id string) (*model.SealedItem, error)
	// Close the database.
	Close() error
	// IsNotFound returns true if err is a not found error.
	IsNotFound(err error) bool
}
