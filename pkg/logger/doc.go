// Package logger builds *slog.Logger instances with consistent attribute
// naming and context-derived fields.
//
// New assembles a text or JSON slog handler from Option values and wraps it
// with NewContextHandler, which runs registered ContextExtractor callbacks on
// every record. That is how request ids and client addresses reach log lines
// without being passed around explicitly:
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "gymcrm"),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "subscription renewed",
//		logger.SubscriptionID(sub.ID),
//		logger.MemberID(sub.MemberID),
//	)
//
// Member phone numbers and emails never reach the output in clear: string
// attributes under the redacted keys ("phone", "email", "to" by default) are
// masked down to their last four digits or first letter and domain.
//
// NewFromConfig does the same from an env-tagged Config. Attribute helpers in
// attr.go return an empty slog.Attr for nil inputs so call sites never need
// conditionals.
package logger
