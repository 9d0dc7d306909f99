package ldb

import (
	"bytes"

	"github.com/hybridchain/hcd/infrastructure/db/database"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb/iterator"
)

// LevelDBCursor iterates over the keys of one bucket. Keys it returns are
// copied, values are not.
type LevelDBCursor struct {
	ldbIterator iterator.Iterator
	bucket      *database.Bucket
	closed      bool
}

func newLevelDBCursor(ldbIterator iterator.Iterator, bucket *database.Bucket) *LevelDBCursor {
	return &LevelDBCursor{ldbIterator: ldbIterator, bucket: bucket}
}

// First positions the cursor at the first entry of the bucket.
func (c *LevelDBCursor) First() bool {
	c.panicIfClosed("First")
	return c.ldbIterator.First()
}

// Next advances the cursor.
func (c *LevelDBCursor) Next() bool {
	c.panicIfClosed("Next")
	return c.ldbIterator.Next()
}

// Key returns the current key, made under the cursor's bucket.
func (c *LevelDBCursor) Key() (*database.Key, error) {
	if c.closed {
		return nil, errors.New("closed cursor has no key")
	}
	fullKey := c.ldbIterator.Key()
	if fullKey == nil {
		return nil, errors.Wrap(database.ErrNotFound, "exhausted cursor has no key")
	}
	suffix := bytes.TrimPrefix(fullKey, c.bucket.Path())
	return c.bucket.Key(append([]byte(nil), suffix...)), nil
}

// Value returns the current value. It is only valid until the cursor moves.
func (c *LevelDBCursor) Value() ([]byte, error) {
	if c.closed {
		return nil, errors.New("closed cursor has no value")
	}
	value := c.ldbIterator.Value()
	if value == nil {
		return nil, errors.Wrap(database.ErrNotFound, "exhausted cursor has no value")
	}
	return value, nil
}

// Close releases the iterator and returns any error it ran into while
// iterating. Closing twice is an error.
func (c *LevelDBCursor) Close() error {
	if c.closed {
		return errors.New("cursor is already closed")
	}
	c.closed = true
	err := c.ldbIterator.Error()
	c.ldbIterator.Release()
	return errors.WithStack(err)
}

func (c *LevelDBCursor) panicIfClosed(method string) {
	if c.closed {
		panic("ldb: " + method + " called on a closed cursor")
	}
}
