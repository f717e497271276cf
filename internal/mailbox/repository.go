package mailbox

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oumaimaa/mailvault/internal/store"
	"github.com/oumaimaa/mailvault/pkg/types"
)

// Repository is the typed facade over the record store. It owns the
// mapping between stored records and mail entities, including the
// base64-at-rest attachment encoding.
type Repository struct {
	db     store.DB
	logger *logrus.Logger
}

// NewRepository creates a repository over db.
func NewRepository(db store.DB, logger *logrus.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Save inserts a new mail record.
func (r *Repository) Save(ctx context.Context, mail *types.Mail) error {
	if err := r.db.InsertMail(ctx, toRecord(mail)); err != nil {
		return fmt.Errorf("failed to save mail: %w", err)
	}
	return nil
}

// ByRecipient returns all mail addressed to recipientID, newest first.
// An empty inbox yields an empty slice.
func (r *Repository) ByRecipient(ctx context.Context, recipientID string) ([]*types.Mail, error) {
	records, err := r.db.MailsByRecipient(ctx, recipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load inbox: %w", err)
	}
	mails := make([]*types.Mail, 0, len(records))
	for i := range records {
		mails = append(mails, r.fromRecord(&records[i]))
	}
	return mails, nil
}

// ByID returns a single mail, or store.ErrMailNotFound.
func (r *Repository) ByID(ctx context.Context, id string) (*types.Mail, error) {
	rec, err := r.db.MailByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.fromRecord(rec), nil
}

// CountUnread returns the recipient's unread message count.
func (r *Repository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	return r.db.CountUnread(ctx, recipientID)
}

// CountReceived returns the recipient's total message count.
func (r *Repository) CountReceived(ctx context.Context, recipientID string) (int64, error) {
	return r.db.CountByRecipient(ctx, recipientID)
}

// CountSent returns the number of messages an actor has sent.
func (r *Repository) CountSent(ctx context.Context, senderID string) (int64, error) {
	return r.db.CountBySender(ctx, senderID)
}

// UpdateStatus unconditionally sets a mail's status.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status types.MailStatus) error {
	return r.db.UpdateStatus(ctx, id, string(status))
}

// MarkClaimed flips the claimed flag through the store's conditional
// update. Returns store.ErrAlreadyClaimed when another claim got there
// first, store.ErrNoAttachments for attachment-less mail.
func (r *Repository) MarkClaimed(ctx context.Context, id string) error {
	return r.db.MarkClaimed(ctx, id)
}

// DeleteRead removes all read mail for a recipient and returns the count.
func (r *Repository) DeleteRead(ctx context.Context, recipientID string) (int64, error) {
	return r.db.DeleteRead(ctx, recipientID)
}

func toRecord(mail *types.Mail) store.Record {
	attachments := make([]string, 0, len(mail.Attachments))
	for _, item := range mail.Attachments {
		attachments = append(attachments, base64.StdEncoding.EncodeToString(item))
	}
	return store.Record{
		ID:            mail.ID,
		SenderID:      mail.SenderID,
		SenderName:    mail.SenderName,
		RecipientID:   mail.RecipientID,
		RecipientName: mail.RecipientName,
		Body:          mail.Body,
		CreatedAt:     mail.CreatedAt.UnixMilli(),
		Status:        string(mail.Status),
		ItemsClaimed:  mail.ItemsClaimed,
		Attachments:   attachments,
	}
}

// fromRecord materializes a mail entity. Attachment entries that fail to
// decode are dropped individually with a warning; the record itself still
// loads.
func (r *Repository) fromRecord(rec *store.Record) *types.Mail {
	var attachments [][]byte
	for i, data := range rec.Attachments {
		item, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			r.logger.WithFields(logrus.Fields{
				"mail":  rec.ID,
				"entry": i,
			}).WithError(err).Warn("Dropping corrupted attachment entry")
			continue
		}
		attachments = append(attachments, item)
	}
	return &types.Mail{
		ID:            rec.ID,
		SenderID:      rec.SenderID,
		SenderName:    rec.SenderName,
		RecipientID:   rec.RecipientID,
		RecipientName: rec.RecipientName,
		Body:          rec.Body,
		CreatedAt:     time.UnixMilli(rec.CreatedAt),
		Status:        types.MailStatus(rec.Status),
		ItemsClaimed:  rec.ItemsClaimed,
		Attachments:   attachments,
	}
}
