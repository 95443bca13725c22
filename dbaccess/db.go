package dbaccess

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// DatabaseContext represents a handle to the node's database. All dbaccess
// functions take it as their first argument.
type DatabaseContext struct {
	db *leveldb.DB
}

// New opens (and creates, if needed) the database at the given path and
// returns a DatabaseContext for it.
func New(path string) (*DatabaseContext, error) {
	options := opt.Options{
		Compression: opt.NoCompression,
	}
	db, err := leveldb.OpenFile(path, &options)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &DatabaseContext{db: db}, nil
}

// Close closes the underlying database.
func (ctx *DatabaseContext) Close() error {
	return errors.WithStack(ctx.db.Close())
}

// put sets the value of the given key.
func (ctx *DatabaseContext) put(key []byte, value []byte) error {
	return errors.WithStack(ctx.db.Put(key, value, nil))
}

// get returns the value of the given key, or an ErrNotFound-wrapping error if
// the key does not exist.
func (ctx *DatabaseContext) get(key []byte) ([]byte, error) {
	value, err := ctx.db.Get(key, nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return value, nil
}

// has returns whether the given key exists.
func (ctx *DatabaseContext) has(key []byte) (bool, error) {
	exists, err := ctx.db.Has(key, nil)
	if err != nil {
		return false, errors.WithStack(err)
	}
	return exists, nil
}

// iterate returns an iterator over all keys carrying the given prefix, in
// lexicographic key order.
func (ctx *DatabaseContext) iterate(prefix []byte) iterator.Iterator {
	return ctx.db.NewIterator(util.BytesPrefix(prefix), nil)
}

// IsNotFoundError checks whether an error is the database's not-found error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, leveldb.ErrNotFound)
}

// bucket builds a database key inside the given named bucket.
func bucket(name string, key []byte) []byte {
	fullKey := make([]byte, 0, len(name)+1+len(key))
	fullKey = append(fullKey, name...)
	fullKey = append(fullKey, '/')
	fullKey = append(fullKey, key...)
	return fullKey
}
