package bolt

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultFile the database file name
	DefaultFile = "scripts.db"
	bucketName  = "scripts"
)

var (
	// ErrScriptNotFound no script with the name
	ErrScriptNotFound = errors.New("script not found")
	// ErrInvalidName the script name is empty or contains a path separator
	ErrInvalidName = errors.New("invalid script name")
)

// Options of Open
type Options struct {
	// Path the directory holding the database file, DefaultPath if empty
	Path string `yaml:"path" json:"path" split_words:"true"`
	// ExpireInterval how often expired scripts are swept, 10 minutes if zero, never if negative
	ExpireInterval time.Duration `yaml:"expire-interval" json:"expireInterval" split_words:"true"`
}

// Store named JavaScript sources persisted in bbolt
type Store struct {
	db *DB
}

// Open opens the store, creating the database file if missing.
func Open(opt Options) (*Store, error) {
	if opt.Path == "" {
		opt.Path = DefaultPath
	}
	interval := opt.ExpireInterval
	if interval == 0 {
		interval = defaultInterval
	}
	db, err := NewDB(opt.Path, DefaultFile, bucketName, interval)
	if err != nil {
		return nil, fmt.Errorf("open script store %s: %w", filepath.Join(opt.Path, DefaultFile), err)
	}
	return &Store{db}, nil
}

func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func notFound(name string, err error) error {
	if errors.Is(err, ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", ErrScriptNotFound, name)
	}
	return err
}

// Put saves the script under name, replacing any previous one.
func (s *Store) Put(name, source string) error {
	return s.PutWithTimeout(name, source, 0)
}

// PutWithTimeout saves a script that is forgotten after timeout.
func (s *Store) PutWithTimeout(name, source string, timeout time.Duration) error {
	if err := checkName(name); err != nil {
		return err
	}
	return s.db.PutWithTimeout([]byte(name), []byte(source), timeout)
}

// Get returns the source of the named script.
func (s *Store) Get(name string) (string, error) {
	value, err := s.db.Get([]byte(name))
	if err != nil {
		return "", notFound(name, err)
	}
	return string(value), nil
}

// Delete removes the named script.
func (s *Store) Delete(name string) error {
	return notFound(name, s.db.Delete([]byte(name)))
}

// List returns the script names, sorted.
func (s *Store) List() ([]string, error) {
	return s.db.Keys()
}

// Close the store.
func (s *Store) Close() error {
	return s.db.Close()
}
