package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Handler executes tasks with a matching TaskName.
type Handler interface {
	Name() string
	Handle(ctx context.Context, payload json.RawMessage) error
}

type (
	TaskHandlerFunc[T any]  func(ctx context.Context, payload T) error
	PeriodicTaskHandlerFunc func(ctx context.Context) error
)

// NewTaskHandler binds fn to tasks enqueued with a T payload. The handler
// name is T's qualified type name, the same name Enqueue derives.
func NewTaskHandler[T any](fn TaskHandlerFunc[T]) Handler {
	var payload T
	return &typedHandler[T]{name: taskNameOf(payload), fn: fn}
}

// NewNamedTaskHandler binds fn to tasks enqueued with WithTaskName(name).
func NewNamedTaskHandler[T any](name string, fn TaskHandlerFunc[T]) Handler {
	return &typedHandler[T]{name: name, fn: fn}
}

// NewPeriodicTaskHandler binds fn to tasks the Scheduler creates for name.
func NewPeriodicTaskHandler(name string, fn PeriodicTaskHandlerFunc) Handler {
	return &periodicHandler{name: name, fn: fn}
}

type typedHandler[T any] struct {
	name string
	fn   TaskHandlerFunc[T]
}

func (h *typedHandler[T]) Name() string { return h.name }

func (h *typedHandler[T]) Handle(ctx context.Context, payload json.RawMessage) error {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return err
	}
	return h.fn(ctx, t)
}

type periodicHandler struct {
	name string
	fn   PeriodicTaskHandlerFunc
}

func (h *periodicHandler) Name() string { return h.name }

func (h *periodicHandler) Handle(ctx context.Context, _ json.RawMessage) error {
	return h.fn(ctx)
}

// taskNameOf returns "pkg.Type" for v, ignoring pointer indirection.
func taskNameOf(v any) string {
	return strings.TrimLeft(fmt.Sprintf("%T", v), "*")
}
