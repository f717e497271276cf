package bolt

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/oumaimaa/mailvault/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	s, err := Open(filepath.Join(t.TempDir(), "mail.db"), logger)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord(id, recipientID string, createdAt int64) store.Record {
	return store.Record{
		ID:            id,
		SenderID:      "alice",
		SenderName:    "Alice",
		RecipientID:   recipientID,
		RecipientName: "Bob",
		Body:          "hello",
		CreatedAt:     createdAt,
		Status:        "UNREAD",
	}
}

func TestInsertAndGetMail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := testRecord("mail-1", "bob", 1700000000000)
	rec.Attachments = []string{"c3dvcmQ="}
	if err := s.InsertMail(ctx, rec); err != nil {
		t.Fatalf("InsertMail() error = %v", err)
	}

	got, err := s.MailByID(ctx, "mail-1")
	if err != nil {
		t.Fatalf("MailByID() error = %v", err)
	}
	if got.RecipientID != "bob" || got.CreatedAt != 1700000000000 || got.Status != "UNREAD" {
		t.Errorf("MailByID() = %+v, differs from inserted record", got)
	}
	if len(got.Attachments) != 1 || got.Attachments[0] != "c3dvcmQ=" {
		t.Errorf("Attachments = %v, want stored entry", got.Attachments)
	}

	if _, err := s.MailByID(ctx, "missing"); !errors.Is(err, store.ErrMailNotFound) {
		t.Errorf("MailByID(missing) error = %v, want %v", err, store.ErrMailNotFound)
	}
}

func TestMailsByRecipientCursorOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Insert out of chronological order; key encoding must still yield
	// newest-first on read.
	for _, rec := range []store.Record{
		testRecord("middle", "bob", 2000),
		testRecord("new", "bob", 3000),
		testRecord("old", "bob", 1000),
		testRecord("other", "bobby", 9000), // shares a name prefix, different recipient
	} {
		if err := s.InsertMail(ctx, rec); err != nil {
			t.Fatalf("InsertMail() error = %v", err)
		}
	}

	records, err := s.MailsByRecipient(ctx, "bob")
	if err != nil {
		t.Fatalf("MailsByRecipient() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len = %d, want 3", len(records))
	}
	if records[0].ID != "new" || records[1].ID != "middle" || records[2].ID != "old" {
		t.Errorf("order = [%s %s %s], want newest first", records[0].ID, records[1].ID, records[2].ID)
	}
}

func TestCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		rec := testRecord(string(rune('a'+i)), "bob", int64(i))
		if i%2 == 0 {
			rec.Status = "READ"
		}
		if err := s.InsertMail(ctx, rec); err != nil {
			t.Fatalf("InsertMail() error = %v", err)
		}
	}

	unread, err := s.CountUnread(ctx, "bob")
	if err != nil {
		t.Fatalf("CountUnread() error = %v", err)
	}
	if unread != 2 {
		t.Errorf("CountUnread() = %d, want 2", unread)
	}

	total, err := s.CountByRecipient(ctx, "bob")
	if err != nil {
		t.Fatalf("CountByRecipient() error = %v", err)
	}
	if total != 4 {
		t.Errorf("CountByRecipient() = %d, want 4", total)
	}

	sent, err := s.CountBySender(ctx, "alice")
	if err != nil {
		t.Fatalf("CountBySender() error = %v", err)
	}
	if sent != 4 {
		t.Errorf("CountBySender() = %d, want 4", sent)
	}
}

func TestUpdateStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.InsertMail(ctx, testRecord("mail-1", "bob", 1)); err != nil {
		t.Fatalf("InsertMail() error = %v", err)
	}
	if err := s.UpdateStatus(ctx, "mail-1", "READ"); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	got, err := s.MailByID(ctx, "mail-1")
	if err != nil {
		t.Fatalf("MailByID() error = %v", err)
	}
	if got.Status != "READ" {
		t.Errorf("Status = %q, want READ", got.Status)
	}

	if err := s.UpdateStatus(ctx, "missing", "READ"); !errors.Is(err, store.ErrMailNotFound) {
		t.Errorf("UpdateStatus(missing) error = %v, want %v", err, store.ErrMailNotFound)
	}
}

func TestMarkClaimed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	withItems := testRecord("loot", "bob", 1)
	withItems.Attachments = []string{"c3dvcmQ="}
	if err := s.InsertMail(ctx, withItems); err != nil {
		t.Fatalf("InsertMail() error = %v", err)
	}
	if err := s.InsertMail(ctx, testRecord("plain", "bob", 2)); err != nil {
		t.Fatalf("InsertMail() error = %v", err)
	}

	if err := s.MarkClaimed(ctx, "loot"); err != nil {
		t.Fatalf("MarkClaimed() error = %v", err)
	}
	got, err := s.MailByID(ctx, "loot")
	if err != nil {
		t.Fatalf("MailByID() error = %v", err)
	}
	if !got.ItemsClaimed || got.Status != "READ" {
		t.Errorf("after claim: claimed %v status %q, want claimed READ", got.ItemsClaimed, got.Status)
	}

	if err := s.MarkClaimed(ctx, "loot"); !errors.Is(err, store.ErrAlreadyClaimed) {
		t.Errorf("second MarkClaimed() error = %v, want %v", err, store.ErrAlreadyClaimed)
	}
	if err := s.MarkClaimed(ctx, "plain"); !errors.Is(err, store.ErrNoAttachments) {
		t.Errorf("MarkClaimed(no items) error = %v, want %v", err, store.ErrNoAttachments)
	}
	if err := s.MarkClaimed(ctx, "missing"); !errors.Is(err, store.ErrMailNotFound) {
		t.Errorf("MarkClaimed(missing) error = %v, want %v", err, store.ErrMailNotFound)
	}
}

func TestDeleteRead(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rec := testRecord(string(rune('a'+i)), "bob", int64(i))
		if i < 3 {
			rec.Status = "READ"
		}
		if err := s.InsertMail(ctx, rec); err != nil {
			t.Fatalf("InsertMail() error = %v", err)
		}
	}

	deleted, err := s.DeleteRead(ctx, "bob")
	if err != nil {
		t.Fatalf("DeleteRead() error = %v", err)
	}
	if deleted != 3 {
		t.Errorf("DeleteRead() = %d, want 3", deleted)
	}

	remaining, err := s.MailsByRecipient(ctx, "bob")
	if err != nil {
		t.Fatalf("MailsByRecipient() error = %v", err)
	}
	if len(remaining) != 2 {
		t.Errorf("%d records remain, want 2", len(remaining))
	}
	// Deleted records must also leave the id index.
	if _, err := s.MailByID(ctx, "a"); !errors.Is(err, store.ErrMailNotFound) {
		t.Errorf("deleted mail still resolvable by id: %v", err)
	}
}
