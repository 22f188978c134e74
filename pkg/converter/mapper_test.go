package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAccountMap(t *testing.T) *AccountMap {
	t.Helper()

	accounts, err := NewAccountMap(map[Role]map[string]string{
		RoleAsset: {
			DefaultKey: "Assets:Unknown",
			"零钱":       "Assets:WeChat:Pocket",
			"余额宝":      "Assets:Alipay:Yuebao",
			"花呗":       "Liabilities:CreditPay:Alipay:HuaBei",
		},
		RoleDebit: {
			DefaultKey: "Expenses:DailyNecessities",
			"超市":       "Expenses:DailyNecessities",
			"天猫超市":     "Expenses:Shopping:TMall",
			"星巴克":      "Expenses:FoodBeverage:Coffee",
			"餐饮美食":     "Expenses:FoodBeverage",
			"(ab)":     "Expenses:Regex",
			"ab":       "Expenses:Exact",
			"a.":       "Expenses:A",
			"b.":       "Expenses:B",
		},
		RoleCredit: {
			DefaultKey: "Income:Unknown",
			"工资":       "Income:Salary",
		},
	})
	require.NoError(t, err)
	return accounts
}

func TestRuleTable_Match(t *testing.T) {
	accounts := newTestAccountMap(t)
	table, err := accounts.Table(RoleDebit)
	require.NoError(t, err)

	tests := []struct {
		name     string
		keyword  string
		account  string
		length   int
		expected bool
	}{
		{"exact key", "星巴克", "Expenses:FoodBeverage:Coffee", 3, true},
		{"exact beats regex on same span", "ab", "Expenses:Exact", 2, true},
		{"longest match wins", "天猫超市购物", "Expenses:Shopping:TMall", 4, true},
		{"substring match", "美宜佳便利超市", "Expenses:DailyNecessities", 2, true},
		{"tie goes to smallest key", "xbyaz", "Expenses:A", 2, true},
		{"no match", "地铁", "", 0, false},
		{"empty keyword", "", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account, length, ok := table.Match(tt.keyword)
			assert.Equal(t, tt.expected, ok)
			assert.Equal(t, tt.account, account)
			assert.Equal(t, tt.length, length)
		})
	}
}

func TestAccountMap_Resolve(t *testing.T) {
	accounts := newTestAccountMap(t)

	tests := []struct {
		name      string
		direction Direction
		keywords  []string
		expected  string
	}{
		{"first keyword wins", Debit, []string{"星巴克", "天猫超市"}, "Expenses:FoodBeverage:Coffee"},
		{"later keyword when earlier misses", Debit, []string{"地铁", "餐饮美食"}, "Expenses:FoodBeverage"},
		{"empty keywords skipped", Debit, []string{"", "超市"}, "Expenses:DailyNecessities"},
		{"asset table is the backup", Debit, []string{"零钱"}, "Assets:WeChat:Pocket"},
		{"credit backup", Credit, []string{"余额宝"}, "Assets:Alipay:Yuebao"},
		{"credit table", Credit, []string{"本月工资"}, "Income:Salary"},
		{"role default", Credit, []string{"不存在"}, "Income:Unknown"},
		{"uncertain uses asset table", Uncertain, []string{"花呗"}, "Liabilities:CreditPay:Alipay:HuaBei"},
		{"uncertain default", Uncertain, []string{"星巴克"}, "Assets:Unknown"},
		{"no keywords", Debit, nil, "Expenses:DailyNecessities"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account, err := accounts.Resolve(tt.direction, tt.keywords)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, account)
		})
	}
}

func TestAccountMap_Deterministic(t *testing.T) {
	accounts := newTestAccountMap(t)

	first, err := accounts.Resolve(Debit, []string{"xbyaz"})
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := accounts.Resolve(Debit, []string{"xbyaz"})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestAccountMap_MissingDefault(t *testing.T) {
	accounts, err := NewAccountMap(map[Role]map[string]string{
		RoleAsset: {DefaultKey: "Assets:Unknown"},
		RoleDebit: {"超市": "Expenses:DailyNecessities"},
	})
	require.NoError(t, err, "missing DEFAULT must not fail at load time")

	t.Run("table without DEFAULT", func(t *testing.T) {
		_, err := accounts.Resolve(Debit, []string{"超市"})
		assert.ErrorIs(t, err, ErrMissingDefault)
	})

	t.Run("missing table", func(t *testing.T) {
		_, err := accounts.Resolve(Credit, []string{"工资"})
		assert.ErrorIs(t, err, ErrMissingDefault)
	})

	t.Run("backup table without DEFAULT", func(t *testing.T) {
		noAssetDefault, err := NewAccountMap(map[Role]map[string]string{
			RoleAsset: {"零钱": "Assets:WeChat:Pocket"},
			RoleDebit: {DefaultKey: "Expenses:Other"},
		})
		require.NoError(t, err)

		_, err = noAssetDefault.Resolve(Debit, []string{"地铁"})
		assert.ErrorIs(t, err, ErrMissingDefault)
	})
}

func TestNewAccountMap_InvalidPattern(t *testing.T) {
	_, err := NewAccountMap(map[Role]map[string]string{
		RoleDebit: {DefaultKey: "Expenses:Other", "招商银行(5407": "Assets:Card:CMB"},
	})
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestParseDirectionAndRole(t *testing.T) {
	d, err := ParseDirection("Credit")
	require.NoError(t, err)
	assert.Equal(t, Credit, d)
	assert.Equal(t, RoleCredit, d.Role())

	d, err = ParseDirection("uncertainty")
	require.NoError(t, err)
	assert.Equal(t, Uncertain, d)
	assert.Equal(t, RoleAsset, d.Role())

	_, err = ParseDirection("sideways")
	assert.Error(t, err)

	r, err := ParseRole("assets")
	require.NoError(t, err)
	assert.Equal(t, RoleAsset, r)

	_, err = ParseRole("equity")
	assert.Error(t, err)
}
