package store

import "errors"

var (
	// ErrMailNotFound is returned when no record exists for a given id.
	ErrMailNotFound = errors.New("mail not found")

	// ErrAlreadyClaimed is returned by a conditional claim when the stored
	// flag was already set. Legitimate under concurrent redemption.
	ErrAlreadyClaimed = errors.New("items already claimed")

	// ErrNoAttachments is returned when a claim targets a mail that was
	// created without attachments.
	ErrNoAttachments = errors.New("mail has no attachments")

	// ErrUnavailable is returned when the backing store cannot be reached.
	// Callers may request a reconnect; the store never retries on its own.
	ErrUnavailable = errors.New("store unavailable")
)
