package sqlite

// Schema contains the SQL schema for the mail store
const Schema = `
CREATE TABLE IF NOT EXISTS mails (
    id TEXT PRIMARY KEY,
    sender_id TEXT NOT NULL,
    sender_name TEXT NOT NULL,
    recipient_id TEXT NOT NULL,
    recipient_name TEXT NOT NULL,
    body TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    status TEXT NOT NULL DEFAULT 'UNREAD',
    items_claimed INTEGER NOT NULL DEFAULT 0,
    attachments TEXT NOT NULL DEFAULT '[]'
);

-- Query paths: inbox by recipient, unread counts, newest-first ordering
CREATE INDEX IF NOT EXISTS idx_mails_recipient ON mails(recipient_id);
CREATE INDEX IF NOT EXISTS idx_mails_recipient_status ON mails(recipient_id, status);
CREATE INDEX IF NOT EXISTS idx_mails_created_at ON mails(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_mails_sender ON mails(sender_id);
`
