package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/oumaimaa/mailvault/internal/store"
)

// unavailable tags a driver error so callers can match store.ErrUnavailable.
func unavailable(err error) error {
	return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
}

// InsertMail inserts a new record. Ids are never reused; a duplicate id is
// a bug upstream and surfaces as a constraint error.
func (s *Store) InsertMail(ctx context.Context, rec store.Record) error {
	attachmentsJSON, err := json.Marshal(rec.Attachments)
	if err != nil {
		return fmt.Errorf("failed to marshal attachments: %w", err)
	}
	if rec.Attachments == nil {
		attachmentsJSON = []byte("[]")
	}

	query := `
		INSERT INTO mails (id, sender_id, sender_name, recipient_id, recipient_name, body, created_at, status, items_claimed, attachments)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		rec.ID,
		rec.SenderID,
		rec.SenderName,
		rec.RecipientID,
		rec.RecipientName,
		rec.Body,
		rec.CreatedAt,
		rec.Status,
		boolToInt(rec.ItemsClaimed),
		string(attachmentsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert mail: %w", unavailable(err))
	}
	return nil
}

// MailByID retrieves a single record by id.
func (s *Store) MailByID(ctx context.Context, id string) (*store.Record, error) {
	query := `
		SELECT id, sender_id, sender_name, recipient_id, recipient_name, body, created_at, status, items_claimed, attachments
		FROM mails WHERE id = ?
	`
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrMailNotFound
		}
		return nil, fmt.Errorf("failed to get mail: %w", unavailable(err))
	}
	return rec, nil
}

// MailsByRecipient returns every record addressed to recipientID, newest
// first. An empty inbox yields an empty slice, not an error.
func (s *Store) MailsByRecipient(ctx context.Context, recipientID string) ([]store.Record, error) {
	query := `
		SELECT id, sender_id, sender_name, recipient_id, recipient_name, body, created_at, status, items_claimed, attachments
		FROM mails WHERE recipient_id = ?
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, recipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query mails: %w", unavailable(err))
	}
	defer rows.Close()

	var records []store.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mail: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mails: %w", unavailable(err))
	}
	return records, nil
}

// CountUnread returns the number of unread records for a recipient.
func (s *Store) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	return s.count(ctx, "SELECT COUNT(*) FROM mails WHERE recipient_id = ? AND status = 'UNREAD'", recipientID)
}

// CountByRecipient returns the total number of records for a recipient.
func (s *Store) CountByRecipient(ctx context.Context, recipientID string) (int64, error) {
	return s.count(ctx, "SELECT COUNT(*) FROM mails WHERE recipient_id = ?", recipientID)
}

// CountBySender returns the total number of records sent by an actor.
func (s *Store) CountBySender(ctx context.Context, senderID string) (int64, error) {
	return s.count(ctx, "SELECT COUNT(*) FROM mails WHERE sender_id = ?", senderID)
}

func (s *Store) count(ctx context.Context, query, arg string) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, query, arg).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count mails: %w", unavailable(err))
	}
	return n, nil
}

// UpdateStatus unconditionally sets the status of a record.
func (s *Store) UpdateStatus(ctx context.Context, id string, status string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE mails SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", unavailable(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrMailNotFound
	}
	return nil
}

// MarkClaimed flips items_claimed with a conditional update. The WHERE
// clause is the single linearization point of the claim protocol: only one
// of any number of concurrent claims can match items_claimed = 0.
// Claiming also promotes the record to READ.
func (s *Store) MarkClaimed(ctx context.Context, id string) error {
	query := `
		UPDATE mails SET items_claimed = 1, status = 'READ'
		WHERE id = ? AND items_claimed = 0 AND attachments != '[]'
	`
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark claimed: %w", unavailable(err))
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}

	// No row matched: decide which contract violation this was.
	var claimed int
	var attachments string
	err = s.db.QueryRowContext(ctx, "SELECT items_claimed, attachments FROM mails WHERE id = ?", id).Scan(&claimed, &attachments)
	if err != nil {
		if err == sql.ErrNoRows {
			return store.ErrMailNotFound
		}
		return fmt.Errorf("failed to inspect claim state: %w", unavailable(err))
	}
	if attachments == "[]" {
		return store.ErrNoAttachments
	}
	return store.ErrAlreadyClaimed
}

// DeleteRead removes all READ records for a recipient and returns how
// many were deleted.
func (s *Store) DeleteRead(ctx context.Context, recipientID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM mails WHERE recipient_id = ? AND status = 'READ'", recipientID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete read mails: %w", unavailable(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted mails: %w", err)
	}
	return n, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*store.Record, error) {
	var rec store.Record
	var claimed int
	var attachmentsJSON string

	err := row.Scan(
		&rec.ID,
		&rec.SenderID,
		&rec.SenderName,
		&rec.RecipientID,
		&rec.RecipientName,
		&rec.Body,
		&rec.CreatedAt,
		&rec.Status,
		&claimed,
		&attachmentsJSON,
	)
	if err != nil {
		return nil, err
	}
	rec.ItemsClaimed = claimed != 0

	if err := json.Unmarshal([]byte(attachmentsJSON), &rec.Attachments); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attachments: %w", err)
	}
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
