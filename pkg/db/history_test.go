package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestHistory(t *testing.T) *History {
	t.Helper()

	conn, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewHistory(conn)
}

func sampleRun(sha string) (ImportRun, []ImportedTxn) {
	run := ImportRun{
		Profile:       "wechat",
		SourceFile:    "微信支付账单.csv",
		ContentSHA256: sha,
		TxnCount:      2,
		MaxDate:       "2021-06-03",
	}
	txns := []ImportedTxn{
		{Profile: "wechat", TxnKey: sha + "-1", LedgerFile: "2021/2021-06.beancount", TxnDate: "2021-06-01", Amount: "1200.00"},
		{Profile: "wechat", TxnKey: sha + "-2", LedgerFile: "2021/2021-06.beancount", TxnDate: "2021-06-03", Amount: "35.00"},
	}
	return run, txns
}

func TestHistory_RecordRun(t *testing.T) {
	ctx := context.Background()
	h := openTestHistory(t)

	imported, err := h.IsImported(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, imported)

	run, txns := sampleRun("abc")
	runID, err := h.RecordRun(ctx, run, txns)
	require.NoError(t, err)
	_, err = uuid.Parse(runID)
	assert.NoError(t, err, "generated run id is a UUID")

	imported, err = h.IsImported(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, imported)

	got, err := h.GetRun(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, runID, got.RunID)
	assert.Equal(t, "wechat", got.Profile)
	assert.Equal(t, 2, got.TxnCount)
	assert.Equal(t, "2021-06-03", got.MaxDate)
	assert.False(t, got.ImportedAt.IsZero())

	keys, err := h.GetImportedKeys(ctx, "wechat")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"abc-1": true, "abc-2": true}, keys)

	keys, err = h.GetImportedKeys(ctx, "alipay")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestHistory_RecordRunReplacesSameContent(t *testing.T) {
	ctx := context.Background()
	h := openTestHistory(t)

	run, txns := sampleRun("abc")
	first, err := h.RecordRun(ctx, run, txns)
	require.NoError(t, err)

	second, err := h.RecordRun(ctx, run, txns[:1])
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	got, err := h.GetRun(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, second, got.RunID)

	keys, err := h.GetImportedKeys(ctx, "wechat")
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestHistory_DeleteRunCascades(t *testing.T) {
	ctx := context.Background()
	h := openTestHistory(t)

	run, txns := sampleRun("abc")
	run.RunID = "run-1"
	runID, err := h.RecordRun(ctx, run, txns)
	require.NoError(t, err)
	assert.Equal(t, "run-1", runID)

	deleted, err := h.DeleteRun(ctx, runID)
	require.NoError(t, err)
	assert.True(t, deleted)

	keys, err := h.GetImportedKeys(ctx, "wechat")
	require.NoError(t, err)
	assert.Empty(t, keys)

	deleted, err = h.DeleteRun(ctx, runID)
	require.NoError(t, err)
	assert.False(t, deleted)

	got, err := h.GetRun(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestHistory_RecordRunMovesSharedKeys(t *testing.T) {
	ctx := context.Background()
	h := openTestHistory(t)

	run, txns := sampleRun("abc")
	first, err := h.RecordRun(ctx, run, txns)
	require.NoError(t, err)

	overlap, _ := sampleRun("def")
	overlap.SourceFile = "微信支付账单(2).csv"
	second, err := h.RecordRun(ctx, overlap, txns[1:])
	require.NoError(t, err)

	keys, err := h.GetImportedKeys(ctx, "wechat")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"abc-1": true, "abc-2": true}, keys)

	deleted, err := h.DeleteRun(ctx, first)
	require.NoError(t, err)
	assert.True(t, deleted)

	keys, err = h.GetImportedKeys(ctx, "wechat")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"abc-2": true}, keys, "the shared key belongs to %s", second)
}

func TestHistory_Documents(t *testing.T) {
	ctx := context.Background()
	h := openTestHistory(t)

	path := "documents/Assets/WeChat/Pocket/2021-06-30.微信支付账单.csv"
	filed, err := h.IsDocumentFiled(ctx, path)
	require.NoError(t, err)
	assert.False(t, filed)

	doc := FiledDocument{SourceFile: "微信支付账单.csv", DocumentPath: path, FileDate: "2021-06-30"}
	require.NoError(t, h.RecordDocument(ctx, doc))
	require.NoError(t, h.RecordDocument(ctx, doc))

	filed, err = h.IsDocumentFiled(ctx, path)
	require.NoError(t, err)
	assert.True(t, filed)
}

func TestHistory_Stats(t *testing.T) {
	ctx := context.Background()
	h := openTestHistory(t)

	stats, err := h.GetStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalRuns)
	assert.False(t, stats.LastImport.Valid)
	assert.Empty(t, stats.Profiles)

	run, txns := sampleRun("abc")
	_, err = h.RecordRun(ctx, run, txns)
	require.NoError(t, err)

	alipay := ImportRun{Profile: "alipay", SourceFile: "alipay_record.csv", ContentSHA256: "def"}
	_, err = h.RecordRun(ctx, alipay, nil)
	require.NoError(t, err)

	require.NoError(t, h.RecordDocument(ctx, FiledDocument{SourceFile: "a.csv", DocumentPath: "documents/a.csv", FileDate: "2021-06-30"}))

	stats, err = h.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalRuns)
	assert.Equal(t, 2, stats.TotalTransactions)
	assert.Equal(t, 1, stats.TotalDocuments)
	assert.True(t, stats.LastImport.Valid)
	assert.Equal(t, []ProfileStats{
		{Profile: "alipay", Runs: 1, Transactions: 0},
		{Profile: "wechat", Runs: 1, Transactions: 2},
	}, stats.Profiles)
}

func TestHistory_Metadata(t *testing.T) {
	ctx := context.Background()
	h := openTestHistory(t)

	value, err := h.GetMetadata(ctx, "last_profile")
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, h.SetMetadata(ctx, "last_profile", "wechat"))
	require.NoError(t, h.SetMetadata(ctx, "last_profile", "alipay"))

	value, err = h.GetMetadata(ctx, "last_profile")
	require.NoError(t, err)
	assert.Equal(t, "alipay", value)
}
