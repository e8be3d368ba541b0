// Package bolt the script store backed by bbolt
package bolt

import (
	"encoding/binary"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	defaultBatchSize = 100000
	// DefaultPath the default directory of the database file
	DefaultPath      = "store"
	defaultInterval  = 10 * time.Minute
	defaultKeysClean = 64
	fillPercent      = 0.9
)

var (
	expireBucketName = []byte("expire")
	// ErrKeyNotFound not found the key
	ErrKeyNotFound = errors.New("key not found")
)

// DB a bbolt.DB with one data bucket and optional key expiry
type DB struct {
	bucketName []byte
	db         *bbolt.DB
	interval   time.Duration
	closedC    chan struct{}
}

// NewDB opens path/file with the data bucket name, creating them if missing.
// Expired keys are swept every interval; a non-positive interval disables the sweep.
func NewDB(path, file, name string, interval time.Duration) (*DB, error) {
	if path == "" {
		path = DefaultPath
	}
	err := os.MkdirAll(path, 0700)
	if err != nil {
		return nil, err
	}
	db, err := bbolt.Open(filepath.Join(path, file), 0600, &bbolt.Options{
		Timeout:         1 * time.Second,
		InitialMmapSize: 1024,
	})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err = tx.CreateBucketIfNotExists([]byte(name)); err != nil {
			return err
		}
		if _, err = tx.CreateBucketIfNotExists(expireBucketName); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	c := &DB{
		bucketName: []byte(name),
		interval:   interval,
		db:         db,
		closedC:    make(chan struct{}),
	}
	go c.expire()
	return c, nil
}

// Put writes the key without expiry.
func (db *DB) Put(key, value []byte) error {
	return db.PutWithTimeout(key, value, 0)
}

// PutWithTimeout writes the key, it expires after timeout if timeout is positive.
// Overwriting a key without timeout clears its previous expiry.
func (db *DB) PutWithTimeout(key, value []byte, timeout time.Duration) error {
	return db.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(db.bucketName).Put(key, value); err != nil {
			return err
		}
		expireBucket := tx.Bucket(expireBucketName)
		if timeout <= 0 {
			return expireBucket.Delete(key)
		}
		ddl := binary.BigEndian.AppendUint64(nil, uint64(time.Now().Add(timeout).UnixMilli()))
		return expireBucket.Put(key, ddl)
	})
}

func expired(tx *bbolt.Tx, key []byte, now int64) bool {
	ddl := tx.Bucket(expireBucketName).Get(key)
	return ddl != nil && now > int64(binary.BigEndian.Uint64(ddl))
}

// Get reads the value of the key, ErrKeyNotFound if it is missing or expired.
func (db *DB) Get(key []byte) (value []byte, err error) {
	err = db.db.View(func(tx *bbolt.Tx) error {
		if expired(tx, key, time.Now().UnixMilli()) {
			return ErrKeyNotFound
		}
		v := tx.Bucket(db.bucketName).Get(key)
		if v == nil {
			return ErrKeyNotFound
		}
		// the slice is only valid inside the transaction
		value = append([]byte(nil), v...)
		return nil
	})
	return
}

// Delete the key, ErrKeyNotFound if it is missing or expired.
// Expired keys are left to the sweep.
func (db *DB) Delete(key []byte) error {
	return db.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(db.bucketName)
		if bucket.Get(key) == nil || expired(tx, key, time.Now().UnixMilli()) {
			return ErrKeyNotFound
		}
		if err := tx.Bucket(expireBucketName).Delete(key); err != nil {
			return err
		}
		return bucket.Delete(key)
	})
}

// Keys returns the live keys in byte order.
func (db *DB) Keys() (keys []string, err error) {
	err = db.db.View(func(tx *bbolt.Tx) error {
		now := time.Now().UnixMilli()
		return tx.Bucket(db.bucketName).ForEach(func(k, _ []byte) error {
			if !expired(tx, k, now) {
				keys = append(keys, string(k))
			}
			return nil
		})
	})
	return
}

// DeleteBatch delete data in batch.
func (db *DB) DeleteBatch(keys [][]byte) error {
	for offset := 0; offset < len(keys); offset += defaultBatchSize {
		batch := keys[offset:min(offset+defaultBatchSize, len(keys))]
		err := db.db.Update(func(tx *bbolt.Tx) error {
			bucket, expireBucket := tx.Bucket(db.bucketName), tx.Bucket(expireBucketName)
			bucket.FillPercent = fillPercent
			for _, key := range batch {
				if err := bucket.Delete(key); err != nil {
					return err
				}
				if err := expireBucket.Delete(key); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database.
func (db *DB) Close() error {
	close(db.closedC)
	if err := db.db.Sync(); err != nil {
		return err
	}
	return db.db.Close()
}

// sweep deletes the expired keys once enough of them have a deadline.
func (db *DB) sweep() error {
	var deletedKeys [][]byte
	err := db.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(expireBucketName)
		if bucket.Stats().KeyN < defaultKeysClean {
			return nil
		}
		now := time.Now().UnixMilli()
		return bucket.ForEach(func(k, ddl []byte) error {
			if now > int64(binary.BigEndian.Uint64(ddl)) {
				deletedKeys = append(deletedKeys, append([]byte(nil), k...))
			}
			return nil
		})
	})
	if err != nil {
		return err
	}
	return db.DeleteBatch(deletedKeys)
}

// expire sweeps the expired keys every interval until Close.
func (db *DB) expire() {
	if db.interval <= 0 {
		return
	}
	ticker := time.NewTicker(db.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := db.sweep(); err != nil {
				slog.Error("error cleaning expired keys", "error", err)
			}
		case <-db.closedC:
			return
		}
	}
}
