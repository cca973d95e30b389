package events

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownTopic  = errors.New("topic no soportado")
	ErrEventRejected = errors.New("evento no pudo ser procesado")
)

// Handler procesa un evento entrante. Devuelve true solo si el evento quedo
// aplicado; false significa "no reintentar" (el gateway responde 200 con
// success:false para que el hub no re-entregue).
type Handler interface {
	ProcessEvent(ctx context.Context, ev Envelope) bool
}

type HandlerFunc func(ctx context.Context, ev Envelope) bool

func (f HandlerFunc) ProcessEvent(ctx context.Context, ev Envelope) bool { return f(ctx, ev) }

// Router mapea topic -> handler. El registro es estatico: se puebla al
// arrancar el proceso y no se muta despues.
type Router struct {
	handlers map[string]Handler
}

func NewRouter() *Router {
	return &Router{handlers: map[string]Handler{}}
}

func (r *Router) Register(topic string, h Handler) {
	r.handlers[topic] = h
}

// Dispatch busca el handler del topic y lo invoca. Un panic del handler se
// recupera y cuenta como rechazo; nunca llega a la capa HTTP.
func (r *Router) Dispatch(ctx context.Context, ev Envelope) error {
	h, ok := r.handlers[ev.Topic]
	if !ok {
		return ErrUnknownTopic
	}
	if !invoke(ctx, h, ev) {
		return ErrEventRejected
	}
	return nil
}

func invoke(ctx context.Context, h Handler, ev Envelope) (processed bool) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("topic", ev.Topic).Interface("panic", rec).Msg("panic procesando evento")
			processed = false
		}
	}()
	return h.ProcessEvent(ctx, ev)
}
