package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLot is the single merged position an owner holds in a symbol.
// AverageCost carries full precision; rounding happens only when the value
// is rendered.
type StockLot struct {
	ID           int             `json:"id"`
	UserID       int             `json:"-"`
	Symbol       string          `json:"symbol"`
	Quantity     int64           `json:"quantity"`
	AverageCost  decimal.Decimal `json:"averageCost"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

type StockPrice struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	AsOf   time.Time       `json:"asOf"`
}

type PortfolioSummary struct {
	Positions   int             `json:"positions"`
	TotalValue  decimal.Decimal `json:"totalValue"`
	TotalCost   decimal.Decimal `json:"totalCost"`
	Gain        decimal.Decimal `json:"gain"`
	GainPercent decimal.Decimal `json:"gainPercent"`
}
