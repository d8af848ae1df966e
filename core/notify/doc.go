// Package notify delivers reconciliation results.
//
// MailNotifier formats the update set as a plain text mail and hands it to a
// Sender; SMTPSender is the production sender. ArchiveNotifier keeps a copy of
// every payload in object storage. Multi chains several notifiers.
package notify
