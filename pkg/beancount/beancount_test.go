package beancount

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/georgecao/Beancount-CSVImporter/pkg/pathutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTransaction() Transaction {
	return Transaction{
		Date:      time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC),
		Flag:      FlagOK,
		Payee:     "星巴克",
		Narration: `拿铁 "大杯"`,
		Metadata:  map[string]string{"time": "12:30:00", "date": "2021-06-01"},
		Postings: []Posting{
			{Account: "Expenses:FoodBeverage:Coffee", Amount: decimal.RequireFromString("-35"), Currency: "CNY"},
			{Account: "Assets:WeChat:Pocket", Amount: decimal.RequireFromString("35.5"), Currency: "CNY"},
		},
	}
}

func TestFormat(t *testing.T) {
	out := Format(sampleTransaction())
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 5)

	assert.Equal(t, `2021-06-01 * "星巴克" "拿铁 \"大杯\""`, lines[0])
	assert.Equal(t, "  date: 2021-06-01", lines[1])
	assert.Equal(t, `  time: "12:30:00"`, lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "  Expenses:FoodBeverage:Coffee "))
	assert.True(t, strings.HasSuffix(lines[3], "-35.00 CNY"))
	assert.True(t, strings.HasSuffix(lines[4], "35.50 CNY"))
	assert.Equal(t, len(lines[3]), len(lines[4]), "amounts are right-aligned")
}

func TestFormat_DefaultsAndTags(t *testing.T) {
	txn := sampleTransaction()
	txn.Flag = ""
	txn.Payee = ""
	txn.Metadata = nil
	txn.Tags = []string{"refund"}
	txn.Links = []string{"order-1"}
	txn.Postings[0].Comment = "退款"

	out := Format(txn)
	assert.True(t, strings.HasPrefix(out, `2021-06-01 * "拿铁 \"大杯\"" #refund ^order-1`+"\n"))
	assert.Contains(t, out, "-35.00 CNY ; 退款")
}

func TestFormat_EmptyAccount(t *testing.T) {
	txn := sampleTransaction()
	txn.Flag = FlagWarning
	txn.Postings[0].Account = ""

	lines := strings.Split(strings.TrimSuffix(Format(txn), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[3], "  "+UnresolvedAccount+" "))
	assert.True(t, strings.HasSuffix(lines[3], "-35.00 CNY"))
	assert.Equal(t, len(lines[3]), len(lines[4]))
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount   string
		expected string
	}{
		{"1200", "1200.00 CNY"},
		{"-0.5", "-0.50 CNY"},
		{"3.125", "3.125 CNY"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			p := Posting{Amount: decimal.RequireFromString(tt.amount), Currency: "CNY"}
			assert.Equal(t, tt.expected, FormatAmount(p))
		})
	}
}

func TestTransaction_Balance(t *testing.T) {
	txn := sampleTransaction()
	assert.Equal(t, "0.5", txn.Balance().String())
	assert.Equal(t, "2021-06", txn.MonthKey())
}

func TestGroupByMonth(t *testing.T) {
	a := sampleTransaction()
	b := sampleTransaction()
	b.Date = time.Date(2021, 5, 31, 0, 0, 0, 0, time.UTC)
	c := sampleTransaction()
	c.Narration = "second june"

	months, groups := GroupByMonth([]Transaction{a, b, c})
	assert.Equal(t, []string{"2021-05", "2021-06"}, months)
	require.Len(t, groups["2021-06"], 2)
	assert.Equal(t, "second june", groups["2021-06"][1].Narration)
}

func TestFileSystemRepository(t *testing.T) {
	root := t.TempDir()
	repo := NewFileSystemRepository(pathutil.New(pathutil.Config{LedgerRoot: root}))
	repo.now = func() time.Time { return time.Date(2021, 7, 1, 0, 0, 0, 0, time.UTC) }

	assert.False(t, repo.MonthFileExists("2021-06"))

	txn := sampleTransaction()
	require.NoError(t, repo.AppendTransactions("2021-06", []Transaction{txn}, "wechat.csv"))
	require.NoError(t, repo.AppendTransactions("2021-06", []Transaction{txn}))
	assert.True(t, repo.MonthFileExists("2021-06"))

	data, err := os.ReadFile(filepath.Join(root, "2021", "2021-06.beancount"))
	require.NoError(t, err)
	content := string(data)
	assert.True(t, strings.HasPrefix(content, "; Beancount file for 2021-06\n; Generated at 2021-07-01T00:00:00Z\n\n; wechat.csv\n"))
	assert.Equal(t, 2, strings.Count(content, "2021-06-01 * "))

	require.NoError(t, repo.EnsureMonthFile("2021-01"))
	assert.True(t, repo.MonthFileExists("2021-01"))
	require.NoError(t, repo.EnsureMonthFile("2021-01"), "existing file is left alone")

	err = repo.AppendTransactions("2021-6", []Transaction{txn})
	assert.Error(t, err)
}
