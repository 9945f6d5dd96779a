// Package notify delivers member notifications for subscription lifecycle
// events.
//
// The membership engine enqueues one task per event inside the transaction
// that produced it. The handlers returned by Notifier.Handlers run on the
// queue worker after commit: they reload the subscription, member and plan,
// render the message text and, for enrollments, plan changes and renewals,
// a PDF receipt with a QR code that is stored through pkg/file.
//
// Delivery prefers WhatsApp. Members without a usable phone number get an
// email when they have an address, with the receipt attached; members with
// neither are skipped and the task completes. Provider errors are returned
// so the worker retries the task with backoff.
//
//	n := notify.New(cfg, svc, directory, plans,
//		notify.WithWhatsApp(whatsapp.New(waCfg, log)),
//		notify.WithEmail(mailer),
//		notify.WithReceipts(notify.NewReceipts(storage, cfg, clk)),
//	)
//	worker.RegisterHandlers(n.Handlers()...)
package notify
