package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/deliverar/marketplace-service/internal/correlation"
	"github.com/deliverar/marketplace-service/internal/events"
)

// BalanceHandler implementa la consulta sincronica de balance sobre el canal
// asincronico del hub: publica get.balances.request con un trace id fresco y
// espera el pending hasta que la respuesta entrante lo resuelva o venza.
type BalanceHandler struct {
	Correlations *correlation.Registry
	Publisher    events.Publisher
}

func (h *BalanceHandler) Register(r *chi.Mux) {
	r.Get("/tenants/{tenantID}/balance", h.getBalance)
}

type balanceRequestPayload struct {
	TraceData events.TraceData `json:"traceData"`
	TenantID  string           `json:"tenant_id"`
	Email     string           `json:"email"`
}

func (h *BalanceHandler) getBalance(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "el parametro email es requerido",
		})
		return
	}

	traceID := uuid.NewString()
	fut := h.Correlations.CreatePending(traceID)
	h.Publisher.Publish(events.TopicBalancesRequest, balanceRequestPayload{
		TraceData: events.TraceData{TraceID: traceID, OriginModule: events.OriginModule},
		TenantID:  chi.URLParam(r, "tenantID"),
		Email:     email,
	})

	data, err := fut.Await(r.Context())
	if errors.Is(err, correlation.ErrTimeout) {
		writeJSON(w, http.StatusGatewayTimeout, map[string]any{
			"success": false,
			"message": "timeout esperando respuesta de balance",
		})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"message": "error esperando respuesta de balance",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": json.RawMessage(data)})
}
