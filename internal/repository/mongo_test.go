package repository

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"billdesk/internal/domain"
)

func TestPurchaseDoc_KeepsMoneyExact(t *testing.T) {
	in := domain.Purchase{
		ID:            7,
		CustomerEmail: "a@x.io",
		CreatedAt:     time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Subtotal:      decimal.RequireFromString("200.39"),
		TaxTotal:      decimal.RequireFromString("10.05"),
		Total:         decimal.RequireFromString("210.44"),
		CashPaid:      decimal.RequireFromString("300.00"),
		ChangeGiven:   decimal.RequireFromString("89.56"),
		Change:        domain.Infeasible(9),
		Items: []domain.PurchaseItem{{
			ProductID: 1, ProductCode: "P-1", ProductName: "Rice", Quantity: 2,
			UnitPrice:    decimal.RequireFromString("100.195"),
			TaxPercent:   decimal.RequireFromString("5"),
			LineSubtotal: decimal.RequireFromString("200.39"),
			LineTax:      decimal.RequireFromString("10.05"),
			LineTotal:    decimal.RequireFromString("210.44"),
		}},
	}

	doc, err := newPurchaseDoc(in)
	require.NoError(t, err)
	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var back purchaseDoc
	require.NoError(t, bson.Unmarshal(raw, &back))
	out, err := back.purchase()
	require.NoError(t, err)

	assert.True(t, out.Total.Equal(in.Total))
	assert.True(t, out.ChangeGiven.Equal(in.ChangeGiven))
	assert.True(t, out.Items[0].UnitPrice.Equal(in.Items[0].UnitPrice))
	assert.Equal(t, in.Change, out.Change)
	assert.Equal(t, in.CreatedAt, out.CreatedAt)
}

func TestProductDoc_RejectsNaN(t *testing.T) {
	nan, err := primitive.ParseDecimal128("NaN")
	require.NoError(t, err)
	_, err = productDoc{ID: 1, Price: nan, TaxPercent: nan}.product()
	assert.Error(t, err)
}

func TestProductQuery(t *testing.T) {
	lo := decimal.NewFromInt(5)
	q, err := productQuery(ProductFilter{NameSubstring: "a.b", MinPrice: &lo})
	require.NoError(t, err)
	re, ok := q["name"].(primitive.Regex)
	require.True(t, ok)
	assert.Equal(t, `a\.b`, re.Pattern)
	assert.Equal(t, "i", re.Options)
	price, ok := q["price"].(bson.M)
	require.True(t, ok)
	assert.Contains(t, price, "$gte")
	assert.NotContains(t, price, "$lte")

	q, err = productQuery(ProductFilter{})
	require.NoError(t, err)
	assert.Empty(t, q)
}
