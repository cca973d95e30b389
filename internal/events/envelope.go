package events

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Envelope es la entidad de wire del hub: {topic, payload}. No se persiste.
type Envelope struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

// Publisher publica un envelope hacia el hub. La entrega es best-effort:
// se encola despues del commit de la tx que origino el evento y no bloquea
// al caller.
type Publisher interface {
	Publish(topic string, payload any)
}

// TraceData viaja en los eventos correlacionados: el trace id vuelve intacto
// en la respuesta y originModule identifica al solicitante.
type TraceData struct {
	TraceID      string `json:"traceId"`
	OriginModule string `json:"originModule"`
}

var ErrUnrecognizedEvent = errors.New("estructura de evento invalida")

// Normalize decodifica el body entrante probando formas conocidas en orden
// fijo:
//  1. {topic, payload} con ambos presentes -> se despacha por topic.
//  2. payload pelado con campos pedidoId+estado (productor legado) -> se
//     asume pedido.entregado, el topic de menor riesgo: su handler no muta
//     stock y valida el estado antes de tocar la orden.
//  3. cualquier otra cosa -> ErrUnrecognizedEvent, nunca se adivina.
func Normalize(body []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Topic != "" && len(env.Payload) > 0 {
		return env, nil
	}

	var bare struct {
		PedidoID string `json:"pedidoId"`
		Estado   string `json:"estado"`
	}
	if err := json.Unmarshal(body, &bare); err == nil && bare.PedidoID != "" && bare.Estado != "" {
		return Envelope{Topic: TopicPedidoEntregado, Payload: json.RawMessage(body)}, nil
	}

	return Envelope{}, ErrUnrecognizedEvent
}

// UnwrapPayload decodifica el payload especifico de un topic.
func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}

func MustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
