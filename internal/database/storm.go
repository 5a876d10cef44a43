package database

import (
	"sync"

	"github.com/asdine/storm/v3"
	"github.com/asdine/storm/v3/codec"
	"github.com/asdine/storm/v3/codec/json"
	"github.com/mdouchement/securevision/internal/model"
	"github.com/pkg/errors"
)

const (
	bucket = "securevision"
	key    = "securevision:sealed"
)

type strm struct {
	mu sync.Mutex
	db *storm.DB
}

// StormCodec returns the format used to store data in the database.
func StormCodec(name string) (codec.MarshalUnmarshaler, error) {
	switch name {
	case "", json.Codec.Name():
		return json.Codec, nil
	case CBOR.Name():
		return CBOR, nil
	}
	return nil, errors.Errorf("unsupported codec %q", name)
}

// StormInit initializes Storm database with an empty index.
func StormInit(database, codecname string) error {
	client, err := StormOpen(database, codecname)
	if err != nil {
		return err
	}
	defer client.Close()

	c := client.(*strm)
	exists, err := c.db.KeyExists(bucket, key)
	if err != nil && !c.IsNotFound(err) {
		return errors.Wrap(err, "could not check index")
	}
	if exists {
		return nil
	}

	return c.write([]*model.SealedItem{})
}

// StormOpen opens the Storm database.
func StormOpen(database, codecname string) (Client, error) {
	mu, err := StormCodec(codecname)
	if err != nil {
		return nil, err
	}

	db, err := storm.Open(database, storm.Codec(mu))
	if err != nil {
		return nil, errors.Wrap(err, "could not get database connection")
	}

	return &strm{
		db: db,
	}, nil
}

func (c *strm) SaveItem(item *model.SealedItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.read()
	if err != nil {
		return err
	}

	next := make([]*model.SealedItem, 0, len(items)+1)
	next = append(next, item)
	for _, i := range items {
		if i.ID != item.ID {
			next = append(next, i)
		}
	}

	return c.write(next)
}

func (c *strm) ListItems() ([]*model.SealedItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.read()
}

func (c *strm) FindItem(id string) (*model.SealedItem, error) {
	items, err := c.ListItems()
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, errors.Wrap(ErrNotFound, "could not find item")
}

func (c *strm) DeleteItem(id string) (*model.SealedItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.read()
	if err != nil {
		return nil, err
	}

	var removed *model.SealedItem
	next := make([]*model.SealedItem, 0, len(items))
	for _, item := range items {
		if item.ID == id && removed == nil {
			removed = item
			continue
		}
		next = append(next, item)
	}

	if removed == nil {
		return nil, errors.Wrap(ErrNotFound, "could not delete item")
	}

	return removed, c.write(next)
}

func (c *strm) Close() error {
	return c.db.Close()
}

func (c *strm) IsNotFound(err error) bool {
	cause := errors.Cause(err)
	return cause == ErrNotFound || cause == storm.ErrNotFound
}

func (c *strm) read() ([]*model.SealedItem, error) {
	items := make([]*model.SealedItem, 0)
	err := c.db.Get(bucket, key, &items)
	if err != nil && !c.IsNotFound(err) {
		return nil, errors.Wrap(err, "could not read index")
	}
	return items, nil
}

func (c *strm) write(items []*model.SealedItem) error {
	return errors.Wrap(c.db.Set(bucket, key, items), "could not write index")
}
