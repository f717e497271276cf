package bolt

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"

	"github.com/oumaimaa/mailvault/internal/store"
	"github.com/sirupsen/logrus"
	bbolt "go.etcd.io/bbolt"
)

func encodeRecord(rec *store.Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return nil, fmt.Errorf("bolt: encode mail %s: %w", rec.ID, err)
	}
	return buf.Bytes(), nil
}

func decodeRecord(data []byte) (*store.Record, error) {
	var rec store.Record
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&rec); err != nil {
		return nil, fmt.Errorf("bolt: decode mail: %w", err)
	}
	return &rec, nil
}

// InsertMail persists a record and its id index entry in one transaction.
func (s *Store) InsertMail(ctx context.Context, rec store.Record) error {
	data, err := encodeRecord(&rec)
	if err != nil {
		return err
	}
	key := mailKey(rec.RecipientID, rec.CreatedAt, rec.ID)
	return s.bolt.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketMail).Put(key, data); err != nil {
			return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
		}
		if err := tx.Bucket(bucketIDs).Put([]byte(rec.ID), key); err != nil {
			return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
		}
		return nil
	})
}

// MailByID retrieves a record through the id index.
func (s *Store) MailByID(ctx context.Context, id string) (*store.Record, error) {
	var rec *store.Record
	err := s.bolt.View(func(tx *bbolt.Tx) error {
		key := tx.Bucket(bucketIDs).Get([]byte(id))
		if key == nil {
			return store.ErrMailNotFound
		}
		data := tx.Bucket(bucketMail).Get(key)
		if data == nil {
			return store.ErrMailNotFound
		}
		var err error
		rec, err = decodeRecord(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// MailsByRecipient walks the recipient's key prefix. Keys embed an
// inverted timestamp, so cursor order is already newest-first.
func (s *Store) MailsByRecipient(ctx context.Context, recipientID string) ([]store.Record, error) {
	var records []store.Record
	prefix := recipientPrefix(recipientID)
	err := s.bolt.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketMail).Cursor()
		for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
			rec, err := decodeRecord(v)
			if err != nil {
				return err
			}
			records = append(records, *rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// CountUnread returns the number of unread records for a recipient.
func (s *Store) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	return s.countByRecipient(recipientID, func(rec *store.Record) bool {
		return rec.Status == "UNREAD"
	})
}

// CountByRecipient returns the total number of records for a recipient.
func (s *Store) CountByRecipient(ctx context.Context, recipientID string) (int64, error) {
	return s.countByRecipient(recipientID, func(*store.Record) bool { return true })
}

func (s *Store) countByRecipient(recipientID string, match func(*store.Record) bool) (int64, error) {
	var n int64
	prefix := recipientPrefix(recipientID)
	err := s.bolt.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketMail).Cursor()
		for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
			rec, err := decodeRecord(v)
			if err != nil {
				return err
			}
			if match(rec) {
				n++
			}
		}
		return nil
	})
	return n, err
}

// CountBySender scans the full mail bucket; there is no sender index.
// Sender stats are a rare operation and bolt stores stay game-sized.
func (s *Store) CountBySender(ctx context.Context, senderID string) (int64, error) {
	var n int64
	err := s.bolt.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMail).ForEach(func(k, v []byte) error {
			rec, err := decodeRecord(v)
			if err != nil {
				return err
			}
			if rec.SenderID == senderID {
				n++
			}
			return nil
		})
	})
	return n, err
}

// UpdateStatus rewrites the record with the new status.
func (s *Store) UpdateStatus(ctx context.Context, id string, status string) error {
	return s.updateByID(id, func(rec *store.Record) error {
		rec.Status = status
		return nil
	})
}

// MarkClaimed performs the conditional claim. The read-check-set happens
// inside a single bbolt update transaction, which is serialized against
// every other writer, so only one concurrent claim can observe
// ItemsClaimed == false.
func (s *Store) MarkClaimed(ctx context.Context, id string) error {
	return s.updateByID(id, func(rec *store.Record) error {
		if len(rec.Attachments) == 0 {
			return store.ErrNoAttachments
		}
		if rec.ItemsClaimed {
			return store.ErrAlreadyClaimed
		}
		rec.ItemsClaimed = true
		rec.Status = "READ"
		return nil
	})
}

// updateByID loads a record inside a write transaction, applies mutate,
// and stores it back under the same key.
func (s *Store) updateByID(id string, mutate func(*store.Record) error) error {
	return s.bolt.Update(func(tx *bbolt.Tx) error {
		key := tx.Bucket(bucketIDs).Get([]byte(id))
		if key == nil {
			return store.ErrMailNotFound
		}
		b := tx.Bucket(bucketMail)
		data := b.Get(key)
		if data == nil {
			return store.ErrMailNotFound
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return err
		}
		if err := mutate(rec); err != nil {
			return err
		}
		out, err := encodeRecord(rec)
		if err != nil {
			return err
		}
		if err := b.Put(key, out); err != nil {
			return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
		}
		return nil
	})
}

// DeleteRead removes all READ records for a recipient in one transaction
// and returns how many were deleted.
func (s *Store) DeleteRead(ctx context.Context, recipientID string) (int64, error) {
	var deleted int64
	prefix := recipientPrefix(recipientID)
	err := s.bolt.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMail)
		ids := tx.Bucket(bucketIDs)
		c := b.Cursor()
		for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
			rec, err := decodeRecord(v)
			if err != nil {
				return err
			}
			if rec.Status != "READ" {
				continue
			}
			if err := c.Delete(); err != nil {
				return err
			}
			if err := ids.Delete([]byte(rec.ID)); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.WithFields(logrus.Fields{
			"recipient": recipientID,
			"deleted":   deleted,
		}).Debug("Purged read mail")
	}
	return deleted, nil
}
