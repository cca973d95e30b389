package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hubStub struct {
	logins    atomic.Int32
	publishes atomic.Int32
	// publishStatus decide la respuesta de /hub/publish segun el intento
	publishStatus func(attempt int32, token string) int
}

func (h *hubStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		n := h.logins.Add(1)
		var creds map[string]string
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds["username"] == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-" + string(rune('0'+n))})
	})
	mux.HandleFunc("POST /hub/publish", func(w http.ResponseWriter, r *http.Request) {
		n := h.publishes.Add(1)
		w.WriteHeader(h.publishStatus(n, r.Header.Get("Authorization")))
	})
	return mux
}

func TestPublishLazyLogin(t *testing.T) {
	stub := &hubStub{publishStatus: func(int32, string) int { return http.StatusOK }}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	c := NewClient(srv.URL, "marketplace-service", "secret")
	require.NoError(t, c.Publish(context.Background(), "pedido.confirmar", map[string]string{"pedidoId": "ORD_1"}))
	require.NoError(t, c.Publish(context.Background(), "pedido.confirmar", map[string]string{"pedidoId": "ORD_2"}))

	assert.EqualValues(t, 1, stub.logins.Load(), "el token se adquiere una vez y se cachea")
	assert.EqualValues(t, 2, stub.publishes.Load())
}

func TestPublishRefreshesOnceOn401(t *testing.T) {
	stub := &hubStub{}
	stub.publishStatus = func(attempt int32, token string) int {
		if attempt == 1 {
			return http.StatusUnauthorized
		}
		return http.StatusOK
	}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	c := NewClient(srv.URL, "marketplace-service", "secret")
	require.NoError(t, c.Publish(context.Background(), "stock.actualizado", nil))

	assert.EqualValues(t, 2, stub.logins.Load(), "login inicial + refresh")
	assert.EqualValues(t, 2, stub.publishes.Load(), "exactamente un reintento")
}

func TestPublishGivesUpOnSecond401(t *testing.T) {
	stub := &hubStub{publishStatus: func(int32, string) int { return http.StatusUnauthorized }}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	c := NewClient(srv.URL, "marketplace-service", "secret")
	err := c.Publish(context.Background(), "stock.actualizado", nil)
	require.ErrorIs(t, err, ErrUpstreamAuth)
	assert.EqualValues(t, 2, stub.publishes.Load(), "no se reintenta mas de una vez")
}

func TestPublishFailsOnServerError(t *testing.T) {
	stub := &hubStub{publishStatus: func(int32, string) int { return http.StatusBadGateway }}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	c := NewClient(srv.URL, "marketplace-service", "secret")
	err := c.Publish(context.Background(), "stock.actualizado", nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUpstreamAuth)
	assert.EqualValues(t, 1, stub.publishes.Load(), "un 502 no se reintenta")
}

func TestLoginRejected(t *testing.T) {
	stub := &hubStub{publishStatus: func(int32, string) int { return http.StatusOK }}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	c := NewClient(srv.URL, "", "")
	err := c.Publish(context.Background(), "stock.actualizado", nil)
	assert.ErrorIs(t, err, ErrUpstreamAuth)
}
