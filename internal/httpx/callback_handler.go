package httpx

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/deliverar/marketplace-service/internal/events"
)

const maxEventBody = 1 << 20 // 1 MiB

// CallbackHandler es el gateway de webhooks del hub: verificacion de
// suscripcion por GET e ingesta de eventos por POST, ambos sobre /callback.
//
// Contrato de respuesta (requisito de protocolo, no de estilo): 204 si el
// evento quedo procesado; 200 {success:false} ante cualquier fallo de
// procesamiento. El hub reintenta sobre todo lo que no sea 2xx y una
// re-entrega de un evento no idempotente (doble descuento de stock) es peor
// que descartarlo.
type CallbackHandler struct {
	Router *events.Router
}

func (h *CallbackHandler) Register(r *chi.Mux) {
	r.Get("/callback", h.verify)
	r.Post("/callback", h.ingest)
}

func (h *CallbackHandler) verify(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	challenge := r.URL.Query().Get("challenge")
	if topic == "" || challenge == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "los parametros topic y challenge son requeridos",
		})
		return
	}

	log.Info().Str("topic", topic).Msg("verificacion de suscripcion del hub")

	// el hub espera el challenge tal cual, como texto plano
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(challenge))
}

func (h *CallbackHandler) ingest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBody))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"message": "error leyendo el evento",
		})
		return
	}

	ev, err := events.Normalize(body)
	if err != nil {
		log.Warn().Err(err).Msg("evento del hub con estructura invalida")
		writeJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"message": "estructura de evento invalida",
		})
		return
	}

	switch err := h.Router.Dispatch(r.Context(), ev); {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, events.ErrUnknownTopic):
		log.Warn().Str("topic", ev.Topic).Msg("topic sin handler registrado")
		writeJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"message": "topic no soportado: " + ev.Topic,
		})
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"message": "evento no pudo ser procesado",
		})
	}
}
