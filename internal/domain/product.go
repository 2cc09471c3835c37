package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry with a live stock counter.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Image       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Available reports whether any units remain in stock.
func (p *Product) Available() bool {
	return p.Stock > 0
}
