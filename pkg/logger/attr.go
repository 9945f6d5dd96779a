package logger

import (
	"fmt"
	"log/slog"
	"time"
)

// Error records a single error under "error". Nil yields an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component names the subsystem emitting the record.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event names what happened, e.g. "subscription.renewed".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// Actor records who triggered a mutation. Empty actors are logged as "system".
func Actor(actor string) slog.Attr {
	if actor == "" {
		actor = "system"
	}
	return slog.String("actor", actor)
}

func SubscriptionID(id fmt.Stringer) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.String("subscription_id", id.String())
}

func PlanID(id fmt.Stringer) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.String("plan_id", id.String())
}

func MemberID(id int64) slog.Attr {
	return slog.Int64("member_id", id)
}

func Status(status string) slog.Attr {
	return slog.String("status", status)
}

func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

func TaskID(id fmt.Stringer) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.String("task_id", id.String())
}

func TaskName(name string) slog.Attr {
	return slog.String("task", name)
}

func RetryCount(count int) slog.Attr {
	return slog.Int("retry_count", count)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

func Count(n int) slog.Attr {
	return slog.Int("count", n)
}

// Channel names a delivery channel such as "whatsapp" or "email".
func Channel(name string) slog.Attr {
	return slog.String("channel", name)
}

func ClientIP(ip string) slog.Attr {
	return slog.String("client_ip", ip)
}
