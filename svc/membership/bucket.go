package membership

import "time"

// Bucket groups members by the state of their current subscription.
type Bucket string

const (
	BucketActive       Bucket = "active"
	BucketExpiringSoon Bucket = "expiring_soon"
	BucketExpired      Bucket = "expired"
	BucketCancelled    Bucket = "cancelled"
	BucketPending      Bucket = "pending"
	BucketNoMembership Bucket = "no_membership"
)

// Buckets lists every bucket in display order.
var Buckets = []Bucket{BucketActive, BucketExpiringSoon, BucketExpired, BucketCancelled, BucketPending, BucketNoMembership}

// ExpiringSoonDays is the largest days-remaining value still counted as
// expiring soon. Zero days remaining (ends today) counts as expiring soon.
const ExpiringSoonDays = 7

// BucketFor classifies a member by their current subscription; nil means
// the member never subscribed. Active rows past their end date (the sweep
// has not run yet) count as expired, as do completed rows.
func BucketFor(cur *Subscription, today time.Time) Bucket {
	if cur == nil {
		return BucketNoMembership
	}
	switch cur.Status {
	case StatusActive:
		d := cur.DaysRemaining(today)
		switch {
		case d < 0:
			return BucketExpired
		case d <= ExpiringSoonDays:
			return BucketExpiringSoon
		default:
			return BucketActive
		}
	case StatusPending:
		return BucketPending
	case StatusCancelled:
		return BucketCancelled
	default:
		return BucketExpired
	}
}
