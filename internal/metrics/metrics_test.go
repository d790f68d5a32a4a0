package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveWebhookCountsByResult(t *testing.T) {
	before := testutil.ToFloat64(webhookDeliveries.WithLabelValues("ok"))
	ObserveWebhook(" OK ", 10*time.Millisecond)
	after := testutil.ToFloat64(webhookDeliveries.WithLabelValues("ok"))
	assert.Equal(t, before+1, after)
}

func TestIncOrderTransition(t *testing.T) {
	before := testutil.ToFloat64(orderTransitions.WithLabelValues("invoice.paid", "noop"))
	IncOrderTransition("invoice.paid", "noop")
	assert.Equal(t, before+1, testutil.ToFloat64(orderTransitions.WithLabelValues("invoice.paid", "noop")))
}

func TestObserveAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(apiRequests.WithLabelValues("create_invoice", "201"))
	ObserveAPIRequest("create_invoice", 201, time.Second)
	assert.Equal(t, before+1, testutil.ToFloat64(apiRequests.WithLabelValues("create_invoice", "201")))
}

func TestCounters(t *testing.T) {
	inv := testutil.ToFloat64(invoicesCreated.WithLabelValues("ok"))
	IncInvoiceCreated("ok")
	assert.Equal(t, inv+1, testutil.ToFloat64(invoicesCreated.WithLabelValues("ok")))

	hits := testutil.ToFloat64(tokenCacheRequests.WithLabelValues("hit"))
	IncTokenCache("HIT")
	assert.Equal(t, hits+1, testutil.ToFloat64(tokenCacheRequests.WithLabelValues("hit")))
}

func TestMustRegisterIsIdempotentAndServes(t *testing.T) {
	require.NotPanics(t, MustRegister)
	require.NotPanics(t, MustRegister)

	IncTokenCache("miss")
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "lightpay_token_cache_requests_total"))
}
