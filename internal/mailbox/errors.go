package mailbox

import "errors"

// Validation errors. All are caller-fixable and never retried internally.
var (
	ErrCannotSendToSelf   = errors.New("cannot send mail to yourself")
	ErrMessageEmpty       = errors.New("message is empty")
	ErrMessageTooLong     = errors.New("message exceeds maximum length")
	ErrTooManyAttachments = errors.New("too many attachments")
	ErrRecipientNotFound  = errors.New("recipient not found")
)
