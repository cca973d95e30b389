// Package handlers contiene los handlers de topics entrantes del hub. Cada
// handler devuelve true solo si el evento quedo aplicado; cualquier fallo es
// false para que el gateway responda sin provocar reintentos.
package handlers

import (
	"context"
	"time"

	"github.com/deliverar/marketplace-service/internal/orders"
)

type OrderService interface {
	Create(ctx context.Context, in orders.CreateOrder) error
	DeliverSuccess(ctx context.Context, orderID string) error
	Cancel(ctx context.Context, orderID string) error
	Advance(ctx context.Context, orderID string, to orders.Status) error
}

type ReportStore interface {
	FindByDateRange(ctx context.Context, desde, hasta time.Time) ([]orders.Order, error)
	FindFinalizadasWithItems(ctx context.Context, desde, hasta time.Time) ([]orders.OrderWithItems, error)
	TotalsByTenant(ctx context.Context, tenantID string) (orders.TenantTotals, error)
}

// Los rangos de fecha llegan como fecha pelada o como timestamp completo
// segun el productor.
func parseFecha(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
