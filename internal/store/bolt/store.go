// Package bolt is a bbolt-backed record store. Records are gob-encoded
// and keyed by recipient with an inverted creation timestamp, so a cursor
// walk over a recipient's prefix yields mail newest-first without an
// explicit sort.
package bolt

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/sirupsen/logrus"
	bbolt "go.etcd.io/bbolt"
)

var (
	bucketMail = []byte("mail")
	bucketIDs  = []byte("mail_ids") // id -> mail bucket key
)

// Store wraps a bbolt database holding mail records.
type Store struct {
	bolt   *bbolt.DB
	logger *logrus.Logger
}

// Open opens or creates a bbolt database file and ensures all buckets exist.
func Open(path string, logger *logrus.Logger) (*Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("bolt: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketMail, bucketIDs} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("bolt: create buckets: %w", err)
	}

	logger.WithField("path", path).Info("Mail store initialized")
	return &Store{bolt: db, logger: logger}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	if s.bolt != nil {
		return s.bolt.Close()
	}
	return nil
}

// mailKey returns "recipientID \x00 inverted-created-at \x00 id". The
// timestamp is bitwise-inverted big-endian so byte order is newest-first.
func mailKey(recipientID string, createdAt int64, id string) []byte {
	buf := make([]byte, 0, len(recipientID)+len(id)+10)
	buf = append(buf, recipientID...)
	buf = append(buf, 0)
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], ^uint64(createdAt))
	buf = append(buf, ts[:]...)
	buf = append(buf, 0)
	buf = append(buf, id...)
	return buf
}

// recipientPrefix returns the key prefix shared by all of a recipient's mail.
func recipientPrefix(recipientID string) []byte {
	return append([]byte(recipientID), 0)
}

func hasPrefix(k, prefix []byte) bool {
	return len(k) >= len(prefix) && bytes.Equal(k[:len(prefix)], prefix)
}
