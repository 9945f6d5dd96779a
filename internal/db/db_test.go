package db_test

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gymcrm/internal/db"
)

func TestMigrationsAreEmbedded(t *testing.T) {
	t.Parallel()

	entries, err := fs.ReadDir(db.Migrations, db.MigrationsDir)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	for _, e := range entries {
		body, err := fs.ReadFile(db.Migrations, db.MigrationsDir+"/"+e.Name())
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up", e.Name())
		assert.Contains(t, string(body), "-- +goose Down", e.Name())
	}
}

func TestSingleActiveIndexExists(t *testing.T) {
	t.Parallel()

	body, err := fs.ReadFile(db.Migrations, db.MigrationsDir+"/00002_subscriptions.sql")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "subscriptions_one_active_per_member"))
	assert.Contains(t, string(body), "WHERE status = 'active'")
}
