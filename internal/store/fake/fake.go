// Package fake is an in-memory store.DB for tests.
package fake

import (
	"context"
	"sort"
	"sync"

	"github.com/oumaimaa/mailvault/internal/store"
)

type DB struct {
	mu    sync.Mutex
	Mails []store.Record

	// Unavailable makes every operation fail with store.ErrUnavailable.
	Unavailable bool
}

func NewDB() *DB {
	return &DB{}
}

func (db *DB) InsertMail(ctx context.Context, rec store.Record) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.Unavailable {
		return store.ErrUnavailable
	}
	db.Mails = append(db.Mails, rec)
	return nil
}

func (db *DB) MailByID(ctx context.Context, id string) (*store.Record, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.Unavailable {
		return nil, store.ErrUnavailable
	}
	for i := range db.Mails {
		if db.Mails[i].ID == id {
			rec := db.Mails[i]
			return &rec, nil
		}
	}
	return nil, store.ErrMailNotFound
}

func (db *DB) MailsByRecipient(ctx context.Context, recipientID string) ([]store.Record, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.Unavailable {
		return nil, store.ErrUnavailable
	}
	var records []store.Record
	for _, rec := range db.Mails {
		if rec.RecipientID == recipientID {
			records = append(records, rec)
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt > records[j].CreatedAt
	})
	return records, nil
}

func (db *DB) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.Unavailable {
		return 0, store.ErrUnavailable
	}
	var n int64
	for _, rec := range db.Mails {
		if rec.RecipientID == recipientID && rec.Status == "UNREAD" {
			n++
		}
	}
	return n, nil
}

func (db *DB) CountByRecipient(ctx context.Context, recipientID string) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.Unavailable {
		return 0, store.ErrUnavailable
	}
	var n int64
	for _, rec := range db.Mails {
		if rec.RecipientID == recipientID {
			n++
		}
	}
	return n, nil
}

func (db *DB) CountBySender(ctx context.Context, senderID string) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.Unavailable {
		return 0, store.ErrUnavailable
	}
	var n int64
	for _, rec := range db.Mails {
		if rec.SenderID == senderID {
			n++
		}
	}
	return n, nil
}

func (db *DB) UpdateStatus(ctx context.Context, id string, status string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.Unavailable {
		return store.ErrUnavailable
	}
	for i := range db.Mails {
		if db.Mails[i].ID == id {
			db.Mails[i].Status = status
			return nil
		}
	}
	return store.ErrMailNotFound
}

// MarkClaimed mirrors the real backends' check-and-set under the store
// lock, so concurrent-claim tests exercise the same contract.
func (db *DB) MarkClaimed(ctx context.Context, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.Unavailable {
		return store.ErrUnavailable
	}
	for i := range db.Mails {
		if db.Mails[i].ID != id {
			continue
		}
		if len(db.Mails[i].Attachments) == 0 {
			return store.ErrNoAttachments
		}
		if db.Mails[i].ItemsClaimed {
			return store.ErrAlreadyClaimed
		}
		db.Mails[i].ItemsClaimed = true
		db.Mails[i].Status = "READ"
		return nil
	}
	return store.ErrMailNotFound
}

func (db *DB) DeleteRead(ctx context.Context, recipientID string) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.Unavailable {
		return 0, store.ErrUnavailable
	}
	var kept []store.Record
	var deleted int64
	for _, rec := range db.Mails {
		if rec.RecipientID == recipientID && rec.Status == "READ" {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	db.Mails = kept
	return deleted, nil
}

func (db *DB) Close() error {
	return nil
}
