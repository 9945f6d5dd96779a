// Package membership implements the subscription lifecycle of a gym member:
// enrollment, activation, plan changes within the grace period,
// cancellation, renewal, administrative updates and the daily expiry sweep.
//
// # Lifecycle
//
//	pending --activate--> active
//	pending --cancel----> cancelled
//	active  --cancel----> cancelled
//	active  --change_plan (in grace)--> active
//	active  --expire----> expired
//	active  --complete--> completed   (renewed)
//	expired --complete--> completed   (renewed)
//
// The grace period is 30 days for plans of 365 days or more and 10 days
// otherwise, counted from the start date and inclusive of its last day.
//
// # Consistency
//
// Each mutating Service method runs in one Store transaction. The member row
// is locked first, so operations on the same member are serialized, and the
// storage layer additionally rejects a second active subscription per
// member. Subscription updates go through a single save path that records
// the prior row in history whenever plan, status, dates or the renewal flag
// change; saves that change nothing write nothing.
//
// # Notifications
//
// Operations enqueue notification payloads (SubscriptionEnrolled,
// PlanChanged, SubscriptionRenewed, SubscriptionCancelled, ExpiryReminder)
// through the transaction's outbox. They become visible to the queue worker
// only on commit. An enqueue failure is logged and never fails the
// operation.
//
// # Errors
//
// Business rule violations are returned as *Error with a Kind (not_found,
// validation_error, conflict, invalid_state). Use KindOf or the Is* helpers
// to branch on them.
package membership
