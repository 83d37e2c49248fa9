// Package journal keeps an optional SQLite log of mail-merge deliveries
// (table sent_mails). It is informational only: nothing reads it back to
// resume an interrupted run.
package journal
