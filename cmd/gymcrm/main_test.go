package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gymcrm/pkg/queue"
)

func TestJobsConfigValidate(t *testing.T) {
	t.Parallel()

	valid := jobsConfig{ExpireSweep: "5 0 * * *", ExpiryReminders: "0 9 * * *", ReminderDays: []int{7, 3, 1}}
	assert.NoError(t, valid.Validate())

	badCron := valid
	badCron.ExpiryReminders = "every morning"
	assert.Error(t, badCron.Validate())

	badDays := valid
	badDays.ReminderDays = []int{7, 0}
	assert.Error(t, badDays.Validate())
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	t.Parallel()

	root := newRootCommand()
	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	assert.Subset(t, names, []string{"serve", "migrate", "seed-plans", "expire", "dead-letters"})
}

func TestPrintDeadLetters(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, printDeadLetters(&buf, nil))
	assert.Equal(t, "no dead letters\n", buf.String())

	buf.Reset()
	id := uuid.MustParse("0190c2a4-0000-7000-8000-000000000001")
	err := printDeadLetters(&buf, []queue.DeadLetter{{
		ID:         id,
		TaskName:   "membership.Enrolled",
		RetryCount: 3,
		FailedAt:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("IST", 19800)),
		Error:      strings.Repeat("x", 100),
	}})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], id.String())
	assert.Contains(t, lines[1], "membership.Enrolled")
	assert.Contains(t, lines[1], "2024-01-01T21:34:05Z")
	assert.Contains(t, lines[1], strings.Repeat("x", 79)+"…")
	assert.NotContains(t, lines[1], strings.Repeat("x", 80))
}
