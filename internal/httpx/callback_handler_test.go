package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deliverar/marketplace-service/internal/events"
)

func newCallbackMux(router *events.Router) *chi.Mux {
	r := chi.NewRouter()
	h := &CallbackHandler{Router: router}
	h.Register(r)
	return r
}

func TestVerifyEchoesChallenge(t *testing.T) {
	mux := newCallbackMux(events.NewRouter())

	req := httptest.NewRequest(http.MethodGet, "/callback?topic=pedido.creado&challenge=abc-123", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	assert.Equal(t, "abc-123", rec.Body.String(), "el challenge se devuelve tal cual, sin envolver")
}

func TestVerifyMissingParams(t *testing.T) {
	mux := newCallbackMux(events.NewRouter())

	for _, target := range []string{"/callback", "/callback?topic=x", "/callback?challenge=y"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "target %s", target)
		assert.JSONEq(t, `{"success":false,"message":"los parametros topic y challenge son requeridos"}`, rec.Body.String())
	}
}

func TestIngestProcessedEvent(t *testing.T) {
	router := events.NewRouter()
	var seen events.Envelope
	router.Register(events.TopicPedidoCreado, events.HandlerFunc(func(ctx context.Context, ev events.Envelope) bool {
		seen = ev
		return true
	}))
	mux := newCallbackMux(router)

	body := `{"topic":"pedido.creado","payload":{"pedidoId":"ORD_1"}}`
	req := httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.JSONEq(t, `{"pedidoId":"ORD_1"}`, string(seen.Payload))
}

func TestIngestBarePayloadIsNormalized(t *testing.T) {
	router := events.NewRouter()
	delivered := false
	router.Register(events.TopicPedidoEntregado, events.HandlerFunc(func(ctx context.Context, ev events.Envelope) bool {
		delivered = true
		return true
	}))
	mux := newCallbackMux(router)

	req := httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader(`{"pedidoId":"ORD_2","estado":"ENTREGADO"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, delivered)
}

func TestIngestUnknownTopicNo500(t *testing.T) {
	mux := newCallbackMux(events.NewRouter())

	req := httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader(`{"topic":"otro.modulo.evento","payload":{}}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	// nunca 5xx: un topic ajeno no debe provocar reintentos del hub
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"topic no soportado: otro.modulo.evento"}`, rec.Body.String())
}

func TestIngestHandlerFailureNo500(t *testing.T) {
	router := events.NewRouter()
	router.Register(events.TopicPedidoCreado, events.HandlerFunc(func(ctx context.Context, ev events.Envelope) bool {
		return false
	}))
	mux := newCallbackMux(router)

	req := httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader(`{"topic":"pedido.creado","payload":{}}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"evento no pudo ser procesado"}`, rec.Body.String())
}

func TestIngestInvalidStructure(t *testing.T) {
	mux := newCallbackMux(events.NewRouter())

	for _, body := range []string{`no es json`, `{}`, `{"payload":{"a":1}}`} {
		req := httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader(body))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, "body %s", body)
		assert.JSONEq(t, `{"success":false,"message":"estructura de evento invalida"}`, rec.Body.String())
	}
}
