package store

import "context"

// Record is the persisted shape of a mail message, storage-engine
// agnostic. Attachments are kept as base64 strings at rest; decoding
// them back into payloads is the repository's job.
type Record struct {
	ID            string
	SenderID      string
	SenderName    string
	RecipientID   string
	RecipientName string
	Body          string
	CreatedAt     int64 // unix milliseconds
	Status        string
	ItemsClaimed  bool
	Attachments   []string
}

// DB is the record store contract. Implementations must keep three query
// paths fast: by recipient, by recipient+status, and ordered by creation
// time descending.
//
// MarkClaimed is the one operation with an atomicity contract stronger
// than read-then-write: it must flip ItemsClaimed only if the stored
// value is still false, and report ErrAlreadyClaimed otherwise, so that
// two concurrent claims on the same id can never both succeed.
type DB interface {
	InsertMail(ctx context.Context, rec Record) error
	MailByID(ctx context.Context, id string) (*Record, error)
	MailsByRecipient(ctx context.Context, recipientID string) ([]Record, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
	CountByRecipient(ctx context.Context, recipientID string) (int64, error)
	CountBySender(ctx context.Context, senderID string) (int64, error)
	UpdateStatus(ctx context.Context, id string, status string) error
	MarkClaimed(ctx context.Context, id string) error
	DeleteRead(ctx context.Context, recipientID string) (int64, error)
	Close() error
}
