package notify

import (
	"log/slog"

	"github.com/dmitrymomot/gymcrm/pkg/clock"
	"github.com/dmitrymomot/gymcrm/pkg/email"
	"github.com/dmitrymomot/gymcrm/pkg/whatsapp"
)

// DeliveryObserver counts delivered and skipped notifications.
type DeliveryObserver interface {
	ObserveNotification(kind, channel string)
}

type Option func(*Notifier)

func WithWhatsApp(s whatsapp.Sender) Option {
	return func(n *Notifier) { n.whatsapp = s }
}

func WithEmail(s email.Sender) Option {
	return func(n *Notifier) { n.email = s }
}

// WithReceipts enables PDF receipts for enrollments, plan changes and
// renewals.
func WithReceipts(r *Receipts) Option {
	return func(n *Notifier) { n.receipts = r }
}

func WithObserver(o DeliveryObserver) Option {
	return func(n *Notifier) { n.observer = o }
}

func WithClock(c clock.Clock) Option {
	return func(n *Notifier) {
		if c != nil {
			n.clock = c
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(n *Notifier) {
		if l != nil {
			n.log = l
		}
	}
}
