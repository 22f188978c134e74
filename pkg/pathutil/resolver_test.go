package pathutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	p := New(Config{LedgerRoot: "/ledger"})

	assert.Equal(t, "/ledger", p.GetLedgerRoot())
	assert.Equal(t, filepath.Join("/ledger", ".import", "history.db"), p.GetDatabasePath())
	assert.Equal(t, filepath.Join("/ledger", "documents"), p.GetDocumentsDir())

	custom := New(Config{LedgerRoot: "/ledger", DatabasePath: "/tmp/h.db", DocumentsDir: "/docs"})
	assert.Equal(t, "/tmp/h.db", custom.GetDatabasePath())
	assert.Equal(t, "/docs", custom.GetDocumentsDir())
}

func TestGetMonthFilePath(t *testing.T) {
	p := New(Config{LedgerRoot: "/ledger"})

	tests := []struct {
		name      string
		yearMonth string
		expected  string
		wantErr   bool
	}{
		{"valid", "2024-01", filepath.Join("/ledger", "2024", "2024-01.beancount"), false},
		{"short month", "2024-1", "", true},
		{"date instead of month", "2024-01-02", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := p.GetMonthFilePath(tt.yearMonth)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, path)
		})
	}
}

func TestGetDocumentPath(t *testing.T) {
	p := New(Config{LedgerRoot: "/ledger"})
	date := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	path, err := p.GetDocumentPath("Assets:WeChat:Pocket", date, "/downloads/微信支付账单.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/ledger", "documents", "Assets", "WeChat", "Pocket", "2024-01-31.微信支付账单.csv"), path)

	_, err = p.GetDocumentPath("", date, "a.csv")
	assert.Error(t, err)

	_, err = p.GetDocumentPath("Assets:..:Escape", date, "a.csv")
	assert.Error(t, err)
}

func TestEnsureParentDir(t *testing.T) {
	root := t.TempDir()
	p := New(Config{LedgerRoot: root})

	target := filepath.Join(root, "a", "b", "file.txt")
	require.NoError(t, p.EnsureParentDir(target))
	assert.True(t, p.FileExists(filepath.Join(root, "a", "b")))
	assert.False(t, p.FileExists(target))
}
