package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/deliverar/marketplace-service/internal/events"
	"github.com/deliverar/marketplace-service/internal/orders"
	"github.com/deliverar/marketplace-service/internal/redisx"
)

type deliveryPayload struct {
	PedidoID string `json:"pedidoId"`
	Estado   string `json:"estado"`
}

// DeliverySuccessful procesa pedido.entregado: listo -> finalizada.
type DeliverySuccessful struct {
	Orders OrderService
	Redis  *redis.Client
}

func (h *DeliverySuccessful) ProcessEvent(ctx context.Context, ev events.Envelope) bool {
	p, err := events.UnwrapPayload[deliveryPayload](ev.Payload)
	if err != nil || p.PedidoID == "" || p.Estado == "" {
		log.Error().Err(err).Msg("payload de pedido.entregado invalido")
		return false
	}
	if strings.ToUpper(p.Estado) != "ENTREGADO" {
		log.Error().Str("estado", p.Estado).Str("orden_id", p.PedidoID).Msg("estado inesperado para pedido.entregado")
		return false
	}
	if err := h.Orders.DeliverSuccess(ctx, p.PedidoID); err != nil {
		log.Error().Err(err).Str("orden_id", p.PedidoID).Msg("no se pudo finalizar la orden")
		return false
	}
	invalidateStatus(ctx, h.Redis, p.PedidoID)
	return true
}

// DeliveryFailed procesa pedido.cancelado: recupera stock y cancela.
type DeliveryFailed struct {
	Orders OrderService
	Redis  *redis.Client
}

func (h *DeliveryFailed) ProcessEvent(ctx context.Context, ev events.Envelope) bool {
	p, err := events.UnwrapPayload[deliveryPayload](ev.Payload)
	if err != nil || p.PedidoID == "" || p.Estado == "" {
		log.Error().Err(err).Msg("payload de pedido.cancelado invalido")
		return false
	}
	if strings.ToUpper(p.Estado) != "CANCELADO" {
		log.Error().Str("estado", p.Estado).Str("orden_id", p.PedidoID).Msg("estado inesperado para pedido.cancelado")
		return false
	}
	if err := h.Orders.Cancel(ctx, p.PedidoID); err != nil {
		log.Error().Err(err).Str("orden_id", p.PedidoID).Msg("no se pudo cancelar la orden")
		return false
	}
	invalidateStatus(ctx, h.Redis, p.PedidoID)
	return true
}

// StatusUpdate procesa pedido.actualizado: transiciones intermedias sin
// efecto de stock (aceptada, listo, rechazada).
type StatusUpdate struct {
	Orders OrderService
	Redis  *redis.Client
}

var estadoDestino = map[string]orders.Status{
	"ACEPTADO":  orders.StatusAceptada,
	"RECHAZADO": orders.StatusRechazada,
	"LISTO":     orders.StatusListo,
}

func (h *StatusUpdate) ProcessEvent(ctx context.Context, ev events.Envelope) bool {
	p, err := events.UnwrapPayload[deliveryPayload](ev.Payload)
	if err != nil || p.PedidoID == "" || p.Estado == "" {
		log.Error().Err(err).Msg("payload de pedido.actualizado invalido")
		return false
	}
	to, ok := estadoDestino[strings.ToUpper(p.Estado)]
	if !ok {
		log.Error().Str("estado", p.Estado).Str("orden_id", p.PedidoID).Msg("estado desconocido para pedido.actualizado")
		return false
	}
	if err := h.Orders.Advance(ctx, p.PedidoID, to); err != nil {
		log.Error().Err(err).Str("orden_id", p.PedidoID).Msg("no se pudo actualizar la orden")
		return false
	}
	invalidateStatus(ctx, h.Redis, p.PedidoID)
	return true
}

func invalidateStatus(ctx context.Context, rdb *redis.Client, orderID string) {
	if rdb == nil {
		return
	}
	_ = rdb.Del(ctx, fmt.Sprintf(redisx.KeyOrderStatus, orderID)).Err()
}
