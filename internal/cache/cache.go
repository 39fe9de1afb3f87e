// Package cache stores analysis results on disk keyed by content hash, so an
// unchanged file pair is never analyzed twice.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/rohankatakam/semdiff/internal/errors"
)

const (
	bucketName = "results"
	fileName   = "semdiff-cache.db"
)

// DefaultTTL bounds how long a cached result stays valid
const DefaultTTL = 7 * 24 * time.Hour

// Client wraps a bbolt database with JSON get/set helpers
type Client struct {
	db     *bolt.DB
	logger *slog.Logger
	ttl    time.Duration
	now    func() time.Time
}

type envelope struct {
	StoredAt time.Time       `json:"stored_at"`
	Value    json.RawMessage `json:"value"`
}

// Open opens or creates the cache database inside dir
func Open(dir string, ttl time.Duration) (*Client, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache directory missing")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.FileSystemErrorf(err, "failed to create cache directory %s", dir)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	db, err := bolt.Open(filepath.Join(dir, fileName), 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.FileSystemError(err, "failed to open cache")
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	return &Client{
		db:     db,
		logger: slog.Default().With("component", "cache"),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Close releases the database file
func (c *Client) Close() error {
	return c.db.Close()
}

// Key derives a cache key from its parts. Parts are length-prefixed so
// ("ab", "c") and ("a", "bc") hash differently.
func Key(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%d:", len(p))
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves a cached value by key and unmarshals into target
// Returns: true if found, false if miss or expired (not an error)
func (c *Client) Get(key string, target interface{}) (bool, error) {
	var env envelope
	found := false
	err := c.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if bucket == nil {
			return nil
		}
		data := bucket.Get([]byte(key))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &env)
	})
	if err != nil {
		return false, fmt.Errorf("failed to read cached value for key %s: %w", key, err)
	}
	if !found {
		c.logger.Debug("cache miss", "key", key)
		return false, nil
	}
	if c.now().Sub(env.StoredAt) > c.ttl {
		c.logger.Debug("cache entry expired", "key", key)
		return false, nil
	}

	if err := json.Unmarshal(env.Value, target); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached value for key %s: %w", key, err)
	}

	c.logger.Debug("cache hit", "key", key)
	return true, nil
}

// Set stores a value under key. Value is marshaled to JSON before storage.
func (c *Client) Set(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}
	data, err := json.Marshal(envelope{StoredAt: c.now(), Value: raw})
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}

	return c.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), data)
	})
}

// Prune removes expired entries and returns how many were dropped
func (c *Client) Prune() (int, error) {
	removed := 0
	err := c.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if bucket == nil {
			return nil
		}

		var stale [][]byte
		if err := bucket.ForEach(func(k, v []byte) error {
			var env envelope
			if err := json.Unmarshal(v, &env); err != nil || c.now().Sub(env.StoredAt) > c.ttl {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}

		for _, k := range stale {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}
