package trade

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrSchemaMismatch 表示表格宽度与 14 列模型不兼容。
var ErrSchemaMismatch = errors.New("row shape incompatible with the 14-column trade schema")

// 列位置。按名字解析一次，之后不再出现裸下标。
const (
	colDate = iota
	colInstrumentName
	colInstrumentCode
	colMarket
	colTransactionType
	colPeriod
	colAccountType
	colTaxCategory
	colQuantity
	colUnitPrice
	colFee
	colTax
	colSettlementDate
	colSettlementAmount
)

// 券商默认的种别文本（SBI 现物取引）。
var (
	DefaultBuyLabels  = []string{"株式現物買"}
	DefaultSellLabels = []string{"株式現物売"}
)

const dateLayout = "2006/1/2"

// Normalizer 把矩形字符串表转成类型化的交易记录。
type Normalizer struct {
	buyLabels  map[string]bool
	sellLabels map[string]bool
}

// NewNormalizer 构造 Normalizer；标签列表为空时使用 SBI 默认值。
func NewNormalizer(buyLabels, sellLabels []string) *Normalizer {
	if len(buyLabels) == 0 {
		buyLabels = DefaultBuyLabels
	}
	if len(sellLabels) == 0 {
		sellLabels = DefaultSellLabels
	}
	return &Normalizer{
		buyLabels:  labelSet(buyLabels),
		sellLabels: labelSet(sellLabels),
	}
}

func labelSet(labels []string) map[string]bool {
	set := make(map[string]bool, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l != "" {
			set[l] = true
		}
	}
	return set
}

// Normalize 转换整张表，输出与输入行数一致。
// 表格整体解析不出 14 列时返回 ErrSchemaMismatch。
func (n *Normalizer) Normalize(rows [][]string) ([]Record, error) {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if width < FieldCount {
		return nil, fmt.Errorf("%w: 解析到 %d 列", ErrSchemaMismatch, width)
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, n.normalizeRow(row))
	}
	return out, nil
}

// normalizeRow 容忍短行：缺失的尾部列保持零值/nil。
func (n *Normalizer) normalizeRow(row []string) Record {
	cell := func(idx int) string {
		if idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}
	label := cell(colTransactionType)
	return Record{
		Date:             parseDate(cell(colDate)),
		InstrumentName:   cell(colInstrumentName),
		InstrumentCode:   cell(colInstrumentCode),
		Market:           cell(colMarket),
		TransactionType:  n.classify(label),
		TransactionLabel: label,
		Period:           cell(colPeriod),
		AccountType:      cell(colAccountType),
		TaxCategory:      cell(colTaxCategory),
		Quantity:         parseAmount(cell(colQuantity)),
		UnitPrice:        parseAmount(cell(colUnitPrice)),
		Fee:              parseAmount(cell(colFee)),
		Tax:              parseAmount(cell(colTax)),
		SettlementDate:   parseDate(cell(colSettlementDate)),
		SettlementAmount: parseAmount(cell(colSettlementAmount)),
	}
}

func (n *Normalizer) classify(label string) TransactionType {
	switch {
	case n.buyLabels[label]:
		return TxBuy
	case n.sellLabels[label]:
		return TxSell
	default:
		return TxOther
	}
}

// parseDate 解析 YYYY/MM/DD。不匹配的值返回 nil 而不是报错。
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

// parseAmount 去掉千位分隔符后按 decimal 解析，残留非数字返回 nil。
func parseAmount(s string) *decimal.Decimal {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "，", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}
