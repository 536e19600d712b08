package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestAppendAndRead(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, d.Append(ctx, "MOOD", []string{"date", "time_of_day", "mood"}))
	require.NoError(t, d.Append(ctx, "MOOD", []string{"2026-10-18", "morning", "7"}))
	require.NoError(t, d.Append(ctx, "FINANCE", []string{"2026-10-18", "12.5"}))

	rows, err := d.Read(ctx, "MOOD", 0, 5)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"date", "time_of_day", "mood"},
		{"2026-10-18", "morning", "7"},
	}, rows)

	rows, err = d.Read(ctx, "MOOD", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"time_of_day"}, {"morning"}}, rows)

	rows, err = d.Read(ctx, "EMPTY", 0, 3)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestUpdatePadsAndOverwrites(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, d.Append(ctx, "HEALTH", []string{"2026-10-18", "84"}))
	require.NoError(t, d.Update(ctx, "HEALTH", 1, 5, []string{"73.5", "36.6"}))
	require.NoError(t, d.Update(ctx, "HEALTH", 1, 1, []string{"85"}))

	rows, err := d.Read(ctx, "HEALTH", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"2026-10-18", "85", "", "", "", "73.5", "36.6"}}, rows)
}

func TestUpdateCreatesMissingRow(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, d.Update(ctx, "HEALTH", 3, 0, []string{"2026-10-18"}))
	rows, err := d.Read(ctx, "HEALTH", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{}, {}, {"2026-10-18"}}, rows)

	require.NoError(t, d.Append(ctx, "HEALTH", []string{"next"}))
	rows, err = d.Read(ctx, "HEALTH", 0, 0)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"next"}, rows[3])

	assert.Error(t, d.Update(ctx, "HEALTH", 0, 0, []string{"x"}))
}

func TestRebind(t *testing.T) {
	pg := &DB{dialect: postgresDialect}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", pg.rebind("SELECT a FROM t WHERE x = ? AND y = ?"))
	lite := &DB{dialect: sqliteDialect}
	assert.Equal(t, "x = ?", lite.rebind("x = ?"))
}

func TestIsPostgresDSN(t *testing.T) {
	assert.True(t, IsPostgresDSN("postgres://u:p@localhost/zeroism"))
	assert.True(t, IsPostgresDSN("postgresql://localhost/zeroism"))
	assert.True(t, IsPostgresDSN("host=localhost dbname=zeroism sslmode=disable"))
	assert.False(t, IsPostgresDSN("./zeroism.db"))
	assert.False(t, IsPostgresDSN(":memory:"))
}
