// Package mail composes and delivers the mail-merge messages.
//
// A Sender runs in one of two modes chosen at construction. In dry-run mode
// every message is rendered to <dir>/<fs_id>.eml and the Gate is armed. In real
// mode the Gate must have been armed within the last 30 minutes, otherwise
// NewSender fails with ErrDryRunRequired before asking for a password; then
// messages go out over SMTP (STARTTLS, port 587) and a copy is appended to the
// IMAP sent folder with the \Seen flag.
package mail
