package handlers

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/deliverar/marketplace-service/internal/events"
	"github.com/deliverar/marketplace-service/internal/orders"
)

type rangoFechasPayload struct {
	FechaDesde string `json:"fechaDesde"`
	FechaHasta string `json:"fechaHasta"`
}

// montos con IVA del 21% incluido en el total
func desglosarIva(total float64) (subtotal, montoIva float64) {
	subtotal = round2(total / 1.21)
	montoIva = round2(total - subtotal)
	return
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }

// IvaPedido responde iva.pedido con el desglose de IVA de las ordenes del
// rango pedido, via iva.respuesta.
type IvaPedido struct {
	Repo      ReportStore
	Publisher events.Publisher
}

type pedidoIva struct {
	PedidoID string  `json:"pedidoId"`
	Fecha    string  `json:"fecha"`
	Subtotal float64 `json:"subtotal"`
	MontoIva float64 `json:"montoIva"`
	Total    float64 `json:"total"`
}

func (h *IvaPedido) ProcessEvent(ctx context.Context, ev events.Envelope) bool {
	desde, hasta, ok := decodeRango(ev)
	if !ok {
		return false
	}
	ordenes, err := h.Repo.FindByDateRange(ctx, desde, hasta)
	if err != nil {
		log.Error().Err(err).Msg("consultando ordenes para iva.pedido")
		return false
	}

	out := make([]pedidoIva, 0, len(ordenes))
	for _, o := range ordenes {
		subtotal, montoIva := desglosarIva(o.Total)
		out = append(out, pedidoIva{
			PedidoID: o.ID,
			Fecha:    o.FechaCreacion.Format(time.RFC3339),
			Subtotal: subtotal,
			MontoIva: montoIva,
			Total:    round2(o.Total),
		})
	}
	h.Publisher.Publish(events.TopicIvaRespuesta, out)
	return true
}

// VentasMes responde ventas.mes con las ordenes finalizadas del rango,
// desglose de IVA por orden y por producto.
type VentasMes struct {
	Repo      ReportStore
	Publisher events.Publisher
}

type ventaProducto struct {
	ProductoID     string  `json:"producto_id"`
	Nombre         string  `json:"nombre"`
	Cantidad       int     `json:"cantidad"`
	PrecioUnitario float64 `json:"precio_unitario"`
	Subtotal       float64 `json:"subtotal"`
	MontoIva       float64 `json:"monto_iva"`
	Total          float64 `json:"total"`
}

type ventaOrden struct {
	OrdenID          string          `json:"orden_id"`
	ComercioID       string          `json:"comercio_id"`
	FechaCreacion    string          `json:"fecha_creacion"`
	Subtotal         float64         `json:"subtotal"`
	MontoIva         float64         `json:"monto_iva"`
	Total            float64         `json:"total"`
	DireccionEntrega string          `json:"direccion_entrega"`
	Productos        []ventaProducto `json:"productos"`
}

func (h *VentasMes) ProcessEvent(ctx context.Context, ev events.Envelope) bool {
	desde, hasta, ok := decodeRango(ev)
	if !ok {
		return false
	}
	ordenes, err := h.Repo.FindFinalizadasWithItems(ctx, desde, hasta)
	if err != nil {
		log.Error().Err(err).Msg("consultando ventas para ventas.mes")
		return false
	}

	ventas := make([]ventaOrden, 0, len(ordenes))
	for _, o := range ordenes {
		subtotal, montoIva := desglosarIva(o.Total)
		v := ventaOrden{
			OrdenID:          o.ID,
			ComercioID:       o.ComercioID,
			FechaCreacion:    o.FechaCreacion.Format(time.RFC3339),
			Subtotal:         subtotal,
			MontoIva:         montoIva,
			Total:            round2(o.Total),
			DireccionEntrega: o.DireccionEntrega,
		}
		for _, p := range o.Productos {
			ps, piva := desglosarIva(p.Subtotal)
			v.Productos = append(v.Productos, ventaProducto{
				ProductoID:     p.ProductoID,
				Nombre:         p.NombreProducto,
				Cantidad:       p.Cantidad,
				PrecioUnitario: p.PrecioUnitario,
				Subtotal:       ps,
				MontoIva:       piva,
				Total:          round2(p.Subtotal),
			})
		}
		ventas = append(ventas, v)
	}
	h.Publisher.Publish(events.TopicVentasMesRespuesta, ventas)
	return true
}

// OrdenesPorTenant responde ordenesbytenant.pedido con los totales del
// tenant via ordenesbytenant.respuesta.
type OrdenesPorTenant struct {
	Repo      ReportStore
	Publisher events.Publisher
}

type totalesPorTenant struct {
	TenantID  string              `json:"tenant_id"`
	Totales   orders.TenantTotals `json:"totales"`
	Timestamp string              `json:"timestamp"`
}

func (h *OrdenesPorTenant) ProcessEvent(ctx context.Context, ev events.Envelope) bool {
	p, err := events.UnwrapPayload[struct {
		TenantID string `json:"tenant_id"`
	}](ev.Payload)
	if err != nil || p.TenantID == "" {
		log.Error().Err(err).Msg("payload de ordenesbytenant.pedido invalido")
		return false
	}
	totales, err := h.Repo.TotalsByTenant(ctx, p.TenantID)
	if err != nil {
		log.Error().Err(err).Str("tenant_id", p.TenantID).Msg("consultando totales por tenant")
		return false
	}
	h.Publisher.Publish(events.TopicOrdenesPorTenantResp, totalesPorTenant{
		TenantID:  p.TenantID,
		Totales:   totales,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	return true
}

func decodeRango(ev events.Envelope) (time.Time, time.Time, bool) {
	p, err := events.UnwrapPayload[rangoFechasPayload](ev.Payload)
	if err != nil || p.FechaDesde == "" || p.FechaHasta == "" {
		log.Error().Err(err).Str("topic", ev.Topic).Msg("rango de fechas invalido")
		return time.Time{}, time.Time{}, false
	}
	desde, err := parseFecha(p.FechaDesde)
	if err != nil {
		log.Error().Err(err).Str("fecha", p.FechaDesde).Msg("fechaDesde invalida")
		return time.Time{}, time.Time{}, false
	}
	hasta, err := parseFecha(p.FechaHasta)
	if err != nil {
		log.Error().Err(err).Str("fecha", p.FechaHasta).Msg("fechaHasta invalida")
		return time.Time{}, time.Time{}, false
	}
	return desde, hasta, true
}
