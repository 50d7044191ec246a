package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideTypeBuy  Side = "BUY"
	SideTypeSell Side = "SELL"
)

// Trade is one executed order leg. Shares is negative for sells. Value is
// the gross traded value after slippage; Cost is the fee for buys and
// fee plus tax for sells.
type Trade struct {
	Date   time.Time
	Ticker string
	Side   Side
	Shares decimal.Decimal
	Price  decimal.Decimal
	Value  decimal.Decimal
	Cost   decimal.Decimal
}
