package store

import (
	"bytes"
	"errors"
	"io/fs"
	"time"

	bolt "go.etcd.io/bbolt"
)

const kvBucket = "kv"

// Client is a BoltDB database client.
type Client struct {
	*bolt.DB
}

// Get retrieves the value stored under key.
func (c *Client) Get(key string) (string, error) {
	var value string

	err := c.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(kvBucket)).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}

		// v is only valid for the life of the transaction
		value = string(v)

		return nil
	})

	return value, err
}

// Set stores value under key.
func (c *Client) Set(key, value string) error {
	return c.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(kvBucket)).Put([]byte(key), []byte(value))
	})
}

// Remove deletes key from the store.
func (c *Client) Remove(key string) error {
	return c.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(kvBucket)).Delete([]byte(key))
	})
}

// Keys returns every key that starts with prefix.
func (c *Client) Keys(prefix string) ([]string, error) {
	var keys []string

	err := c.View(func(tx *bolt.Tx) error {
		cur := tx.Bucket([]byte(kvBucket)).Cursor()
		p := []byte(prefix)

		for k, _ := cur.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = cur.Next() {
			keys = append(keys, string(k))
		}

		return nil
	})

	return keys, err
}

// openDB creates or opens a database and locks it.
func openDB(pathToDB string) (*bolt.DB, error) {
	var fileMode fs.FileMode = 0o600

	db, err := bolt.Open(
		pathToDB,
		fileMode,
		&bolt.Options{Timeout: 1 * time.Second},
	)
	if err != nil {
		if errors.Is(err, bolt.ErrDatabaseOpen) ||
			errors.Is(err, bolt.ErrTimeout) {
			return nil, errAlreadyRunning
		}

		return nil, errOpenDB.Wrap(err)
	}

	return db, nil
}

// NewClient returns a wrapper to a BoltDB connection.
func NewClient(dbPath string) (*Client, error) {
	db, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}

	// Create the bucket for storing data if it does not exist already
	err = db.Update(func(tx *bolt.Tx) error {
		_, err = tx.CreateBucketIfNotExists([]byte(kvBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Client{
		db,
	}, nil
}
