// Package statemachine provides a generic, stateless transition table.
//
// States and events are string-based types. Edges may carry guards that
// return an error to block the edge; when every candidate edge is blocked the
// error surfaces wrapped in *ErrTransitionRejected so callers can recover the
// guard's reason with errors.As / errors.Is.
//
//	type Status string
//	type Event string
//
//	table := statemachine.NewTable[Status, Event]().
//		Add("pending", "activate", "active").
//		Add("active", "change_plan", "active", inGrace).
//		Terminal("cancelled")
//
//	next, err := table.Next(ctx, sub.Status, "change_plan", sub)
//
// The table does not hold the current state, so a single instance can drive
// any number of persisted records concurrently.
package statemachine
