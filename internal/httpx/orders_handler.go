package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/deliverar/marketplace-service/internal/orders"
	"github.com/deliverar/marketplace-service/internal/redisx"
)

type OrderReader interface {
	GetByID(ctx context.Context, orderID string) (*orders.Order, error)
	GetByComercio(ctx context.Context, comercioID string) ([]orders.Order, error)
}

type OrdersHandler struct {
	Repo  OrderReader
	Redis *redis.Client
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Get("/orders/comercio/{comercioID}", h.byComercio)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/estado", h.getEstado)
}

func (h *OrdersHandler) byComercio(w http.ResponseWriter, r *http.Request) {
	comercioID := chi.URLParam(r, "comercioID")
	ordenes, err := h.Repo.GetByComercio(r.Context(), comercioID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"message": "error al obtener las ordenes",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": ordenes})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, orders.ErrOrderNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"message": "orden no encontrada",
		})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"message": "error al obtener la orden",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": o})
}

// getEstado sirve el estado desde cache con TTL corto; las transiciones lo
// invalidan.
func (h *OrdersHandler) getEstado(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)

	if h.Redis != nil {
		if s, err := h.Redis.Get(r.Context(), key).Result(); err == nil && s != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(s))
			return
		}
	}

	o, err := h.Repo.GetByID(r.Context(), orderID)
	if errors.Is(err, orders.ErrOrderNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"message": "orden no encontrada",
		})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"message": "error al obtener la orden",
		})
		return
	}

	body, _ := json.Marshal(map[string]any{"orden_id": o.ID, "estado": o.Estado})
	if h.Redis != nil {
		_ = h.Redis.Set(r.Context(), key, body, redisx.TTLStatusCache).Err()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
