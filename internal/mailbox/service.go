package mailbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oumaimaa/mailvault/internal/config"
	"github.com/oumaimaa/mailvault/internal/metrics"
	"github.com/oumaimaa/mailvault/internal/store"
	"github.com/oumaimaa/mailvault/pkg/types"
)

// ItemSink hands claimed attachment payloads to a recipient. The hand-off
// may partially succeed (some items placed, the rest dropped nearby) but
// must never lose an item; delivered+overflowed always equals len(items).
type ItemSink interface {
	Deliver(ctx context.Context, recipientID string, items [][]byte) (delivered, overflowed int)
}

// SinkFunc adapts a function to the ItemSink interface.
type SinkFunc func(ctx context.Context, recipientID string, items [][]byte) (int, int)

func (f SinkFunc) Deliver(ctx context.Context, recipientID string, items [][]byte) (int, int) {
	return f(ctx, recipientID, items)
}

// Service is the business rules layer over the repository: it validates
// and creates mail, orchestrates claim-once redemption, and computes inbox
// pages. Methods block until the store call completes; callers that must
// not block run them from their own goroutine.
type Service struct {
	repo    *Repository
	dir     Directory
	sink    ItemSink
	cfg     config.MailboxConfig
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

// Configuration bundles the service's collaborators.
type Configuration struct {
	Repository *Repository
	Directory  Directory
	Sink       ItemSink
	Config     config.MailboxConfig
	Logger     *logrus.Logger
	Metrics    *metrics.Metrics // optional
}

// NewService creates the delivery service.
func NewService(cfg Configuration) *Service {
	return &Service{
		repo:    cfg.Repository,
		dir:     cfg.Directory,
		sink:    cfg.Sink,
		cfg:     cfg.Config,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}
}

// SendMail validates the request and persists a new unread mail. The
// rules run in a fixed order and the first violation wins; nothing is
// written unless every rule passes.
func (s *Service) SendMail(ctx context.Context, senderID, senderName, recipientID, recipientName, body string, attachments [][]byte) (*types.Mail, error) {
	if senderID == recipientID {
		return nil, ErrCannotSendToSelf
	}
	if strings.TrimSpace(body) == "" {
		return nil, ErrMessageEmpty
	}
	if utf8.RuneCountInString(body) > s.cfg.MaxMessageLength {
		return nil, ErrMessageTooLong
	}
	if len(attachments) > s.cfg.MaxAttachments {
		return nil, ErrTooManyAttachments
	}

	resolvable, err := s.dir.Resolvable(ctx, recipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve recipient: %w", err)
	}
	if !resolvable {
		return nil, ErrRecipientNotFound
	}

	mail := &types.Mail{
		ID:            uuid.NewString(),
		SenderID:      senderID,
		SenderName:    senderName,
		RecipientID:   recipientID,
		RecipientName: recipientName,
		Body:          body,
		CreatedAt:     time.Now(),
		Status:        types.StatusUnread,
		ItemsClaimed:  false,
		Attachments:   attachments,
	}

	if err := s.repo.Save(ctx, mail); err != nil {
		return nil, err
	}

	s.metrics.MailSent()
	s.logger.WithFields(logrus.Fields{
		"mail":      mail.ID,
		"sender":    senderName,
		"recipient": recipientName,
		"items":     len(attachments),
	}).Info("Mail sent")

	return mail, nil
}

// ClaimItems redeems a mail's attachments exactly once. Items are handed
// to the sink first, then the claim is recorded through the store's
// conditional update. A caller that loses that race gets
// store.ErrAlreadyClaimed even though it already distributed items; the
// conflict is counted and logged rather than silently accepted as a
// second success.
func (s *Service) ClaimItems(ctx context.Context, mail *types.Mail) (*types.ClaimResult, error) {
	if !mail.HasAttachments() {
		return nil, store.ErrNoAttachments
	}
	if mail.ItemsClaimed {
		return nil, store.ErrAlreadyClaimed
	}

	delivered, overflowed := s.sink.Deliver(ctx, mail.RecipientID, mail.Attachments)

	if err := s.repo.MarkClaimed(ctx, mail.ID); err != nil {
		if errors.Is(err, store.ErrAlreadyClaimed) {
			s.metrics.ClaimConflict()
			s.logger.WithFields(logrus.Fields{
				"mail":      mail.ID,
				"recipient": mail.RecipientID,
			}).Warn("Lost claim race after distributing items")
		}
		return nil, err
	}

	mail.ItemsClaimed = true
	mail.Status = types.StatusRead

	s.metrics.MailClaimed()
	s.logger.WithFields(logrus.Fields{
		"mail":       mail.ID,
		"delivered":  delivered,
		"overflowed": overflowed,
	}).Info("Items claimed")

	return &types.ClaimResult{Delivered: delivered, Overflowed: overflowed}, nil
}

// InboxPage returns one page of the recipient's inbox, newest first. The
// requested page is clamped into the valid range; an empty inbox still
// has one (empty) page. A pageSize below 1 falls back to the configured
// messages-per-page.
func (s *Service) InboxPage(ctx context.Context, recipientID string, page, pageSize int) (*types.InboxPage, error) {
	if pageSize < 1 {
		pageSize = s.cfg.MessagesPerPage
	}

	all, err := s.repo.ByRecipient(ctx, recipientID)
	if err != nil {
		return nil, err
	}

	total := len(all)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	current := page
	if current > totalPages-1 {
		current = totalPages - 1
	}
	if current < 0 {
		current = 0
	}

	start := current * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}
	if start > total {
		start = total
	}

	return &types.InboxPage{
		Messages:    all[start:end],
		CurrentPage: current,
		TotalPages:  totalPages,
		TotalCount:  total,
	}, nil
}

// MailByID returns a single mail by id.
func (s *Service) MailByID(ctx context.Context, id string) (*types.Mail, error) {
	return s.repo.ByID(ctx, id)
}

// MarkRead marks a mail as read. The transition is one-way; callers never
// mark mail unread again.
func (s *Service) MarkRead(ctx context.Context, id string) error {
	return s.repo.UpdateStatus(ctx, id, types.StatusRead)
}

// UnreadCount returns the recipient's unread message count.
func (s *Service) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	return s.repo.CountUnread(ctx, recipientID)
}

// ClearRead removes all read mail for a recipient and returns how many
// records were deleted. Zero is a valid result.
func (s *Service) ClearRead(ctx context.Context, recipientID string) (int64, error) {
	deleted, err := s.repo.DeleteRead(ctx, recipientID)
	if err != nil {
		return 0, err
	}
	s.metrics.ReadPurged(deleted)
	if deleted > 0 {
		s.logger.WithFields(logrus.Fields{
			"recipient": recipientID,
			"deleted":   deleted,
		}).Info("Cleared read mail")
	}
	return deleted, nil
}

// Stats summarizes an actor's mail activity.
func (s *Service) Stats(ctx context.Context, actorID string) (*types.MailStats, error) {
	received, err := s.repo.CountReceived(ctx, actorID)
	if err != nil {
		return nil, err
	}
	sent, err := s.repo.CountSent(ctx, actorID)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.CountUnread(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return &types.MailStats{
		TotalReceived: received,
		TotalSent:     sent,
		Unread:        unread,
	}, nil
}
