package trade

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType 是交易种别的分类结果。
type TransactionType string

const (
	TxBuy   TransactionType = "buy"
	TxSell  TransactionType = "sell"
	TxOther TransactionType = "other"
)

// Record 是券商交易履历的一行，固定 14 列。
// 无法解析的单元格保持 nil，不中断整个文件。
type Record struct {
	Date             *time.Time       `json:"date"`
	InstrumentName   string           `json:"instrument_name"`
	InstrumentCode   string           `json:"instrument_code"`
	Market           string           `json:"market"`
	TransactionType  TransactionType  `json:"transaction_type"`
	TransactionLabel string           `json:"transaction_label"` // 原始种别文本
	Period           string           `json:"period"`
	AccountType      string           `json:"account_type"`
	TaxCategory      string           `json:"tax_category"`
	Quantity         *decimal.Decimal `json:"quantity"`
	UnitPrice        *decimal.Decimal `json:"unit_price"`
	Fee              *decimal.Decimal `json:"fee"`
	Tax              *decimal.Decimal `json:"tax"`
	SettlementDate   *time.Time       `json:"settlement_date"`
	SettlementAmount *decimal.Decimal `json:"settlement_amount"`
}

// FieldCount 是列模型的固定宽度。
const FieldCount = 14
