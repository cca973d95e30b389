package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deliverar/marketplace-service/internal/correlation"
)

// resolvingPublisher simula al hub: ante un get.balances.request resuelve el
// pending del trace id con una respuesta fija.
type resolvingPublisher struct {
	reg      *correlation.Registry
	response []byte

	topic   string
	payload balanceRequestPayload
}

func (p *resolvingPublisher) Publish(topic string, payload any) {
	p.topic = topic
	p.payload = payload.(balanceRequestPayload)
	if p.response != nil {
		go p.reg.Resolve(p.payload.TraceData.TraceID, p.response)
	}
}

func newBalanceMux(h *BalanceHandler) *chi.Mux {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func TestGetBalanceResolved(t *testing.T) {
	reg := correlation.New(5 * time.Second)
	pub := &resolvingPublisher{reg: reg, response: []byte(`{"fiatBalance":120.5,"cryptoBalance":3.25}`)}
	mux := newBalanceMux(&BalanceHandler{Correlations: reg, Publisher: pub})

	req := httptest.NewRequest(http.MethodGet, "/tenants/TEN_1/balance?email=cliente%40tenant.com", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"fiatBalance":120.5,"cryptoBalance":3.25}}`, rec.Body.String())

	assert.Equal(t, "get.balances.request", pub.topic)
	assert.Equal(t, "TEN_1", pub.payload.TenantID)
	assert.Equal(t, "cliente@tenant.com", pub.payload.Email)
	assert.Equal(t, "marketplace-service", pub.payload.TraceData.OriginModule)
	assert.NotEmpty(t, pub.payload.TraceData.TraceID)
}

func TestGetBalanceTimeout(t *testing.T) {
	reg := correlation.New(20 * time.Millisecond)
	pub := &resolvingPublisher{reg: reg} // nunca responde
	mux := newBalanceMux(&BalanceHandler{Correlations: reg, Publisher: pub})

	req := httptest.NewRequest(http.MethodGet, "/tenants/TEN_1/balance?email=cliente%40tenant.com", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"timeout esperando respuesta de balance"}`, rec.Body.String())
}

func TestGetBalanceMissingEmail(t *testing.T) {
	reg := correlation.New(time.Second)
	pub := &resolvingPublisher{reg: reg}
	mux := newBalanceMux(&BalanceHandler{Correlations: reg, Publisher: pub})

	req := httptest.NewRequest(http.MethodGet, "/tenants/TEN_1/balance", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, pub.topic, "sin email no se publica nada")
}
