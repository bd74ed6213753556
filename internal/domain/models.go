package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry sold at the till.
type Product struct {
	ID         int64           `json:"id"`
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	TaxPercent decimal.Decimal `json:"tax_percent"`
	Stock      int64           `json:"stock"`
}

// Denomination is a note or coin value together with how many are in the drawer.
type Denomination struct {
	Value int64 `json:"value"`
	Count int64 `json:"count"`
}

// BillItem is one requested cart line before pricing.
type BillItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// PurchaseItem is a priced line. Price and tax are frozen at sale time.
type PurchaseItem struct {
	ProductID    int64           `json:"product_id"`
	ProductCode  string          `json:"product_code"`
	ProductName  string          `json:"product_name"`
	Quantity     int64           `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TaxPercent   decimal.Decimal `json:"tax_percent"`
	LineSubtotal decimal.Decimal `json:"line_subtotal"`
	LineTax      decimal.Decimal `json:"line_tax"`
	LineTotal    decimal.Decimal `json:"line_total"`
}

// Purchase is an immutable sale record.
type Purchase struct {
	ID            int64           `json:"id"`
	CustomerEmail string          `json:"customer_email"`
	CreatedAt     time.Time       `json:"created_at"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxTotal      decimal.Decimal `json:"tax_total"`
	Total         decimal.Decimal `json:"total"`
	CashPaid      decimal.Decimal `json:"cash_paid"`
	ChangeGiven   decimal.Decimal `json:"change_given"`
	Change        ChangeBreakdown `json:"change_breakdown"`
	Items         []PurchaseItem  `json:"items"`
}
