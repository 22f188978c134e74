package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const wechatHead = `微信支付账单明细
微信昵称：[零钥]
----------------------微信支付账单明细列表--------------------
交易时间,交易类型,交易对方,商品,收/支,金额(元),支付方式,当前状态,交易单号
2021-06-01 12:00:00,商户消费,星巴克,拿铁,支出,¥35.00,零钱,支付成功,4200001001202106011111
2021-06-02 08:30:10,商户消费,美宜佳,矿泉水,支出,¥3.50,零钱,支付成功,4200001002202106022222
`

func TestNormalize_WithHeader(t *testing.T) {
	cfg := Config{
		TxnID:         ByName("交易单号"),
		TxnDate:       ByName("交易时间"),
		Payee:         ByName("交易对方"),
		Amount:        ByName("金额(元)"),
		DirectionMark: ByName("收/支"),
		Status:        ByIndex(7),
	}

	fields, hasHeader, err := Normalize(cfg, wechatHead, 3)
	require.NoError(t, err)
	assert.True(t, hasHeader)
	assert.Equal(t, FieldMap{
		TxnID:         8,
		TxnDate:       0,
		Payee:         2,
		Amount:        5,
		DirectionMark: 4,
		Status:        7,
	}, fields)
}

func TestNormalize_UnknownColumn(t *testing.T) {
	cfg := Config{
		TxnID:   ByName("交易单号"),
		Balance: ByName("余额"),
	}

	_, _, err := Normalize(cfg, wechatHead, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfig))

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, Balance, cfgErr.Field)
}

func TestNormalize_NoHeader(t *testing.T) {
	content := strings.Join([]string{
		"1001,2021-01-01,5.00",
		"1002,2021-01-02,6.25",
		"1003,2021-01-03,7.50",
	}, "\n")

	t.Run("index fields pass through", func(t *testing.T) {
		fields, hasHeader, err := Normalize(Config{TxnID: ByIndex(0), Amount: ByIndex(2)}, content, 0)
		require.NoError(t, err)
		assert.False(t, hasHeader)
		assert.Equal(t, FieldMap{TxnID: 0, Amount: 2}, fields)
	})

	t.Run("name field is rejected", func(t *testing.T) {
		_, _, err := Normalize(Config{TxnID: ByIndex(0), Amount: ByName("amount")}, content, 0)
		require.Error(t, err)

		var cfgErr *ConfigError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, Amount, cfgErr.Field)
	})
}

func TestNormalize_SingleDataRow(t *testing.T) {
	fields, hasHeader, err := Normalize(Config{Narration: ByName("名称"), Status: ByName("状态")}, "名称,状态\n拿铁,成功\n", 0)
	require.NoError(t, err)
	assert.True(t, hasHeader)
	assert.Equal(t, FieldMap{Narration: 0, Status: 1}, fields)
}

func TestNormalize_NegativeSkip(t *testing.T) {
	_, _, err := Normalize(Config{}, wechatHead, -1)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestHasHeader(t *testing.T) {
	tests := []struct {
		name     string
		rows     [][]string
		expected bool
	}{
		{"empty", nil, false},
		{"single line votes header", [][]string{{"a", "b"}}, true},
		{
			"text header over numeric data",
			[][]string{{"id", "amount"}, {"1", "2.50"}, {"2", "3.75"}},
			true,
		},
		{
			"numeric first row",
			[][]string{{"7", "1.25"}, {"1", "2.50"}, {"2", "3.75"}},
			false,
		},
		{
			"same length text",
			[][]string{{"abc", "x"}, {"def", "y"}, {"ghi", "z"}},
			false,
		},
		{
			"irregular columns are ignored",
			[][]string{{"name", "qty"}, {"apple", "1"}, {"kiwi", "2"}},
			true,
		},
		{
			"one text row under a text header",
			[][]string{{"名称", "状态"}, {"拿铁", "成功"}},
			true,
		},
		{
			"one numeric row under a numeric row",
			[][]string{{"1001", "2021-01-01", "5.00"}, {"1002", "2021-01-02", "6.25"}},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HasHeader(tt.rows))
		})
	}
}

func TestReadRows(t *testing.T) {
	content := "a , b ,c\n\n , , \n\" x, y \",z\n"

	rows, err := ReadRows(strings.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b", "c"}, {"x, y", "z"}}, rows)
}

func TestSkipLines(t *testing.T) {
	assert.Equal(t, "c\nd", SkipLines("a\nb\nc\nd", 2))
	assert.Equal(t, "", SkipLines("a\nb", 5))
	assert.Equal(t, "a", SkipLines("a", 0))
}

func TestRowMarkers(t *testing.T) {
	assert.True(t, IsComment([]string{"# exported"}))
	assert.False(t, IsComment([]string{"2021-01-01"}))
	assert.True(t, IsTerminator([]string{"------------------------"}))
	assert.False(t, IsTerminator([]string{"-5.00"}))
}

func TestConfig_UnmarshalYAML(t *testing.T) {
	var cfg Config
	err := yaml.Unmarshal([]byte("txn_id: 交易单号\namount: 5\nstatus: \"7\"\n"), &cfg)
	require.NoError(t, err)

	assert.Equal(t, ByName("交易单号"), cfg[TxnID])
	assert.Equal(t, ByIndex(5), cfg[Amount])
	assert.Equal(t, ByName("7"), cfg[Status])
}

func TestConfig_UnmarshalYAMLUnknownField(t *testing.T) {
	var cfg Config
	err := yaml.Unmarshal([]byte("bogus: 1\n"), &cfg)
	assert.Error(t, err)
}
