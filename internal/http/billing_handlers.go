package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"billdesk/internal/billing"
	"billdesk/internal/domain"
	"billdesk/internal/service"
)

// IdempotencyKeyHeader makes POST /bills safe to retry.
const IdempotencyKeyHeader = "Idempotency-Key"

// @Summary List denominations
// @Description Cash drawer contents, highest value first
// @Tags denominations
// @Produce json
// @Success 200 {array} domain.Denomination
// @Router /denominations [get]
func (s *Server) listDenominations(c *gin.Context) {
	list, err := s.denominations.List(c)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type setDenominationReq struct {
	Count int64 `json:"count"`
}

// @Summary Set denomination count
// @Tags denominations
// @Accept json
// @Produce json
// @Param value path int true "Denomination value"
// @Param input body setDenominationReq true "Count on hand"
// @Success 200 {object} domain.Denomination
// @Failure 400 {object} map[string]string
// @Router /denominations/{value} [put]
func (s *Server) setDenomination(c *gin.Context) {
	value, err := parseID(c.Param("value"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid value"})
		return
	}
	var req setDenominationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	d, err := s.denominations.SetCount(c, value, req.Count)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

type createBillReq struct {
	CustomerEmail string            `json:"customer_email" example:"buyer@example.com"`
	Items         []domain.BillItem `json:"items"`
	// number or string; anything unparseable counts as zero
	CashPaid json.RawMessage `json:"cash_paid" swaggertype:"string" example:"300.00"`
}

// bindBill reads either a JSON body or the product[]/qty[] form the till page posts.
func bindBill(c *gin.Context) (service.BillRequest, error) {
	switch c.ContentType() {
	case gin.MIMEPOSTForm, gin.MIMEMultipartPOSTForm:
		items, err := service.PairItems(c.PostFormArray("product[]"), c.PostFormArray("qty[]"))
		if err != nil {
			return service.BillRequest{}, err
		}
		return service.BillRequest{
			CustomerEmail: c.PostForm("customer_email"),
			Items:         items,
			CashPaid:      billing.ParseAmount(c.PostForm("cash_paid")),
		}, nil
	default:
		var req createBillReq
		if err := c.ShouldBindJSON(&req); err != nil {
			return service.BillRequest{}, &service.ValidationError{Reason: "invalid json"}
		}
		return service.BillRequest{
			CustomerEmail: req.CustomerEmail,
			Items:         req.Items,
			CashPaid:      billing.ParseAmount(string(req.CashPaid)),
		}, nil
	}
}

// @Summary Generate bill
// @Description Prices the cart, dispenses change from the drawer and records the purchase.
// @Description When exact change is impossible the sale is still recorded with change_breakdown.kind=infeasible.
// @Tags bills
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param Idempotency-Key header string false "Replays the first result for a repeated key"
// @Param input body createBillReq true "Cart"
// @Success 201 {object} domain.Purchase
// @Success 200 {object} domain.Purchase "replayed"
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /bills [post]
func (s *Server) createBill(c *gin.Context) {
	req, err := bindBill(c)
	if err != nil {
		writeError(c, err)
		return
	}
	p, replayed, err := s.bills.GenerateBillOnce(c, c.GetHeader(IdempotencyKeyHeader), req)
	if err != nil {
		writeError(c, err)
		return
	}
	if replayed {
		c.Header("Idempotent-Replayed", "true")
		c.JSON(http.StatusOK, p)
		return
	}
	c.Header("Location", "/api/v1/purchases/"+strconv.FormatInt(p.ID, 10))
	c.JSON(http.StatusCreated, p)
}

// @Summary List purchases
// @Description Newest first
// @Tags purchases
// @Produce json
// @Param email query string false "Customer email"
// @Success 200 {array} domain.Purchase
// @Router /purchases [get]
func (s *Server) listPurchases(c *gin.Context) {
	list, err := s.purchases.List(c, c.Query("email"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Get purchase by id
// @Tags purchases
// @Produce json
// @Param id path int true "Purchase ID"
// @Success 200 {object} domain.Purchase
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /purchases/{id} [get]
func (s *Server) getPurchase(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	p, err := s.purchases.Get(c, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
