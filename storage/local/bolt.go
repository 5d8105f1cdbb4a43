package local

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/trezcool/masomo-portal/core/session"
)

var portalBucket = []byte("portal")

// BoltStore keeps the portal's records in a bbolt file, one bucket, string values.
// Concurrent processes wait on the file lock; the last writer wins.
type BoltStore struct {
	db *bbolt.DB
}

var _ session.Persistence = (*BoltStore)(nil) // interface compliance check

// OpenBolt opens (or creates) the store at path.
func OpenBolt(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, errors.Wrap(err, "creating storage directory")
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(portalBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "creating bucket")
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Get(key string) (string, bool, error) {
	var (
		val   string
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(portalBucket)
		if b == nil {
			return errors.Errorf("bucket %s not found", portalBucket)
		}
		if v := b.Get([]byte(key)); v != nil {
			val = string(v) // copies: v is only valid inside the tx
			found = true
		}
		return nil
	})
	if err != nil {
		return "", false, errors.Wrapf(err, "getting %s", key)
	}
	return val, found, nil
}

func (s *BoltStore) Set(key, value string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(portalBucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), []byte(value))
	})
	return errors.Wrapf(err, "setting %s", key)
}

func (s *BoltStore) Delete(key string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(portalBucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
	return errors.Wrapf(err, "deleting %s", key)
}
