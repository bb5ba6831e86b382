package trade

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullRow() []string {
	return []string{
		"2024/1/10", "トヨタ自動車", "7203", "東証", "株式現物買",
		"現物", "特定", "一般", "100", "2,500.5", "55", "0",
		"2024/1/12", "250,105",
	}
}

func TestNormalizeFullRow(t *testing.T) {
	n := NewNormalizer(nil, nil)
	records, err := n.Normalize([][]string{fullRow()})
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	require.NotNil(t, rec.Date)
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), *rec.Date)
	assert.Equal(t, TxBuy, rec.TransactionType)
	assert.Equal(t, "株式現物買", rec.TransactionLabel)
	require.NotNil(t, rec.UnitPrice)
	assert.True(t, rec.UnitPrice.Equal(decimal.RequireFromString("2500.5")))
	require.NotNil(t, rec.SettlementAmount)
	assert.True(t, rec.SettlementAmount.Equal(decimal.NewFromInt(250105)))
	require.NotNil(t, rec.SettlementDate)
	assert.Equal(t, time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC), *rec.SettlementDate)
}

func TestNormalizeSellAndOtherLabels(t *testing.T) {
	n := NewNormalizer(nil, nil)
	sell := fullRow()
	sell[4] = "株式現物売"
	other := fullRow()
	other[4] = "投信買付"

	records, err := n.Normalize([][]string{sell, other})
	require.NoError(t, err)
	assert.Equal(t, TxSell, records[0].TransactionType)
	assert.Equal(t, TxOther, records[1].TransactionType)
}

func TestNormalizeCustomLabels(t *testing.T) {
	n := NewNormalizer([]string{"買付"}, []string{"売付"})
	row := fullRow()
	row[4] = "買付"
	records, err := n.Normalize([][]string{row})
	require.NoError(t, err)
	assert.Equal(t, TxBuy, records[0].TransactionType)
}

func TestNormalizeShortRowPadsNulls(t *testing.T) {
	n := NewNormalizer(nil, nil)
	short := fullRow()[:9] // 受渡日以降が欠落
	records, err := n.Normalize([][]string{fullRow(), short})
	require.NoError(t, err)
	require.Len(t, records, 2)

	rec := records[1]
	require.NotNil(t, rec.Quantity)
	assert.Nil(t, rec.UnitPrice)
	assert.Nil(t, rec.SettlementDate)
	assert.Nil(t, rec.SettlementAmount)
}

func TestNormalizeNarrowTableRejected(t *testing.T) {
	n := NewNormalizer(nil, nil)
	_, err := n.Normalize([][]string{{"a", "b", "c"}, {"d", "e"}})
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestNormalizeMalformedCellsBecomeNil(t *testing.T) {
	n := NewNormalizer(nil, nil)
	row := fullRow()
	row[0] = "約定日なし"
	row[13] = "---"
	records, err := n.Normalize([][]string{row})
	require.NoError(t, err)
	assert.Nil(t, records[0].Date)
	assert.Nil(t, records[0].SettlementAmount)
}

func TestParseDateSingleDigit(t *testing.T) {
	d := parseDate("2024/3/5")
	require.NotNil(t, d)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), *d)
}
