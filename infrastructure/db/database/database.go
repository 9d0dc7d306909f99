package database

// DataAccessor defines the common interface by which data gets
// accessed in a generic hcd database.
type DataAccessor interface {
	// Put sets the value for the given key. It overwrites
	// any previous value for that key.
	Put(key *Key, value []byte) error

	// Get gets the value for the given key. It returns
	// ErrNotFound if the given key does not exist.
	Get(key *Key) ([]byte, error)

	// Has returns true if the database does contains the
	// given key.
	Has(key *Key) (bool, error)

	// Delete deletes the value for the given key. Will not
	// return an error if the key doesn't exist.
	Delete(key *Key) error

	// Cursor begins a new cursor over the given bucket.
	Cursor(bucket *Bucket) (Cursor, error)
}

// Database defines the interface of a database that can begin
// transactions and close itself.
//
// Important: This is not part of the DataAccessor interface
// because the Transaction interface includes it. Were we to
// merge Database with DataAccessor, implementors of the
// Transaction interface would be forced to implement methods
// such as Begin and Close, which is undesirable.
type Database interface {
	DataAccessor

	// Begin begins a new database transaction.
	Begin() (Transaction, error)

	// Close closes the database.
	Close() error
}

// Transaction defines the interface of a generic hcd database
// transaction.
//
// Note: Transactions provide data consistency over the state of
// the database as it was when the transaction started. There is
// NO guarantee that if one puts data into the transaction then
// it will be available to get within the same transaction.
type Transaction interface {
	DataAccessor

	// Rollback rolls back whatever changes were made to the
	// database within this transaction.
	Rollback() error

	// Commit commits whatever changes were made to the database
	// within this transaction.
	Commit() error

	// RollbackUnlessClosed rolls back changes that were made to
	// the database within the transaction, unless the transaction
	// had already been closed using either Rollback or Commit.
	RollbackUnlessClosed() error
}

// Cursor walks the entries of a single bucket in key order.
type Cursor interface {
	// First positions the cursor at the bucket's first entry and reports
	// whether there is one. It panics on a closed cursor.
	First() bool

	// Next advances to the following entry and reports whether there is
	// one. It panics on a closed cursor.
	Next() bool

	// Key returns the key of the current entry, made under the cursor's
	// bucket. It returns ErrNotFound once the cursor is exhausted.
	Key() (*Key, error)

	// Value returns the value of the current entry. The slice is only valid
	// until the cursor moves. It returns ErrNotFound once the cursor is
	// exhausted.
	Value() ([]byte, error)

	// Close releases the underlying iterator.
	Close() error
}
