package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/deliverar/marketplace-service/internal/events"
	"github.com/deliverar/marketplace-service/internal/orders"
	"github.com/deliverar/marketplace-service/internal/redisx"
)

// OrderCreated procesa pedido.creado: valida stock, reserva y persiste la
// orden. La verdad para duplicados es la clave primaria de ordenes; el dedup
// en Redis solo corta rapido la re-entrega del hub.
type OrderCreated struct {
	Orders OrderService
	Redis  *redis.Client
}

func (h *OrderCreated) ProcessEvent(ctx context.Context, ev events.Envelope) bool {
	in, err := events.UnwrapPayload[orders.CreateOrder](ev.Payload)
	if err != nil {
		log.Error().Err(err).Msg("payload de pedido.creado invalido")
		return false
	}
	if in.PedidoID == "" || in.ComercioID == "" || len(in.Productos) == 0 {
		log.Error().Interface("payload", in).Msg("pedido.creado incompleto")
		return false
	}

	dkey := fmt.Sprintf(redisx.KeyCallbackDedup, events.TopicPedidoCreado, in.PedidoID)
	if h.Redis != nil {
		if exists, _ := redisx.Exists(ctx, h.Redis, dkey); exists {
			log.Info().Str("orden_id", in.PedidoID).Msg("pedido.creado ya procesado")
			return true
		}
	}

	if err := h.Orders.Create(ctx, in); err != nil {
		if errors.Is(err, orders.ErrInsufficientStock) {
			log.Warn().Err(err).Str("orden_id", in.PedidoID).Msg("pedido rechazado por stock")
		} else {
			log.Error().Err(err).Str("orden_id", in.PedidoID).Msg("error creando orden")
		}
		return false
	}

	if h.Redis != nil {
		_ = h.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}
	return true
}
