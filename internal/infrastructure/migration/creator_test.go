package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add products table", "add_products_table"},
		{"Add-Stock-Sync-Queue", "add_stock_sync_queue"},
		{"ADD_ORDERS", "add_orders"},
		{"add__product__variants", "add_product_variants"},
		{"backfill stock 2", "backfill_stock_2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	tmpDir := t.TempDir()

	mf, err := CreateMigration(tmpDir, "add products table")
	require.NoError(t, err)
	require.NotNil(t, mf)

	// Version is a sortable YYYYMMDDHHMMSS timestamp
	assert.Len(t, mf.Version, 14)
	assert.True(t, strings.HasSuffix(mf.UpPath, ".up.sql"))
	assert.True(t, strings.HasSuffix(mf.DownPath, ".down.sql"))

	upBase := strings.TrimSuffix(filepath.Base(mf.UpPath), ".up.sql")
	downBase := strings.TrimSuffix(filepath.Base(mf.DownPath), ".down.sql")
	assert.Equal(t, upBase, downBase)

	for _, path := range []string{mf.UpPath, mf.DownPath} {
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "-- Migration: add products table")
	}
}

func TestListMigrations(t *testing.T) {
	tmpDir := t.TempDir()

	migrations, err := ListMigrations(tmpDir)
	require.NoError(t, err)
	assert.Empty(t, migrations)

	for _, name := range []string{
		"000001_create_catalog.up.sql",
		"000001_create_catalog.down.sql",
		"000002_create_orders.up.sql",
		"000002_create_orders.down.sql",
		"notes.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, name), []byte("-- sql\n"), 0644))
	}

	migrations, err = ListMigrations(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_create_catalog", "000002_create_orders"}, migrations)
}

func TestListMigrationsMissingDirectory(t *testing.T) {
	migrations, err := ListMigrations(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, migrations)
}
