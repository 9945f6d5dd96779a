package notify

import "errors"

var (
	ErrLoadSubscription = errors.New("notify: failed to load subscription")
	ErrLoadMember       = errors.New("notify: failed to load member")
	ErrLoadPlan         = errors.New("notify: failed to load plan")
	ErrRenderReceipt    = errors.New("notify: failed to render receipt")
	ErrStoreReceipt     = errors.New("notify: failed to store receipt")
	ErrDeliver          = errors.New("notify: delivery failed")
)
