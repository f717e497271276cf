package types

import "time"

// MailStatus is the read state of a mail record. The transition is
// monotonic: UNREAD -> READ, never back.
type MailStatus string

const (
	StatusUnread MailStatus = "UNREAD"
	StatusRead   MailStatus = "READ"
)

// Mail represents a persisted message with optional binary attachments.
// Identity, body, and timestamp are fixed at creation; only Status and
// ItemsClaimed change afterwards.
type Mail struct {
	ID            string     `json:"id"`
	SenderID      string     `json:"sender_id"`
	SenderName    string     `json:"sender_name"`
	RecipientID   string     `json:"recipient_id"`
	RecipientName string     `json:"recipient_name"`
	Body          string     `json:"body"`
	CreatedAt     time.Time  `json:"created_at"`
	Status        MailStatus `json:"status"`
	ItemsClaimed  bool       `json:"items_claimed"`
	Attachments   [][]byte   `json:"attachments,omitempty"`
}

// HasAttachments reports whether the mail carries any attachment payloads.
func (m *Mail) HasAttachments() bool {
	return len(m.Attachments) > 0
}

// Unread reports whether the mail has not been read yet.
func (m *Mail) Unread() bool {
	return m.Status == StatusUnread
}

// Preview returns the body truncated to max runes, with an ellipsis when
// anything was cut off.
func (m *Mail) Preview(max int) string {
	r := []rune(m.Body)
	if len(r) <= max {
		return m.Body
	}
	return string(r[:max]) + "..."
}

// InboxPage is a bounded, ordered slice of a recipient's mail, newest
// first. CurrentPage is zero-indexed and already clamped into the valid
// range; TotalPages is at least 1 even for an empty inbox.
type InboxPage struct {
	Messages    []*Mail `json:"messages"`
	CurrentPage int     `json:"current_page"`
	TotalPages  int     `json:"total_pages"`
	TotalCount  int     `json:"total_count"`
}

// HasNextPage reports whether a later page exists.
func (p *InboxPage) HasNextPage() bool {
	return p.CurrentPage < p.TotalPages-1
}

// HasPreviousPage reports whether an earlier page exists.
func (p *InboxPage) HasPreviousPage() bool {
	return p.CurrentPage > 0
}

// ClaimResult describes the outcome of redeeming a mail's attachments.
// Delivered items were placed with the recipient, overflowed items were
// handed off by the fallback path (dropped); nothing is lost.
type ClaimResult struct {
	Delivered  int `json:"delivered"`
	Overflowed int `json:"overflowed"`
}

// MailStats summarizes an actor's mail activity.
type MailStats struct {
	TotalReceived int64 `json:"total_received"`
	TotalSent     int64 `json:"total_sent"`
	Unread        int64 `json:"unread"`
}
