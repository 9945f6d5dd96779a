// Package email sends transactional messages through Postmark, or writes
// them to disk with DevSender when no Postmark token is configured. Members
// without a usable phone number receive their notifications and receipts
// this way.
package email
