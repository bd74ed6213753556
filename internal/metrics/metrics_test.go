package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"billdesk/internal/domain"
)

func TestSetInventory_ReplacesGauges(t *testing.T) {
	SetInventory([]domain.Denomination{{Value: 50, Count: 2}, {Value: 10, Count: 5}})
	assert.Equal(t, 2, testutil.CollectAndCount(DenominationCount))
	assert.Equal(t, float64(5), testutil.ToFloat64(DenominationCount.WithLabelValues("10")))

	SetInventory([]domain.Denomination{{Value: 100, Count: 1}})
	assert.Equal(t, 1, testutil.CollectAndCount(DenominationCount))
}

func TestObserveBill(t *testing.T) {
	before := testutil.ToFloat64(BillsTotal.WithLabelValues("infeasible"))
	ObserveBill(domain.ChangeInfeasible)
	assert.Equal(t, before+1, testutil.ToFloat64(BillsTotal.WithLabelValues("infeasible")))
}

func TestPrometheusMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(PrometheusMiddleware())
	r.GET("/ping/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping/1", nil))

	assert.Equal(t, float64(1), testutil.ToFloat64(HttpRequestsTotal.WithLabelValues("GET", "/ping/:id", "418")))
}
