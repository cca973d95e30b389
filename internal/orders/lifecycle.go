package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/deliverar/marketplace-service/internal/events"
)

// Lifecycle orquesta el ciclo de vida de una orden: creacion con reserva de
// stock, entrega y cancelacion con recupero. Las publicaciones al hub salen
// siempre despues del commit; un hub caido no puede abortar ni demorar una tx.
type Lifecycle struct {
	DB        *pgxpool.Pool
	Repo      *Repo
	Stock     *StockLedger
	Publisher events.Publisher
}

type CreateOrder struct {
	PedidoID         string    `json:"pedidoId"`
	ComercioID       string    `json:"comercio_id"`
	ClienteNombre    string    `json:"cliente_nombre"`
	DireccionEntrega string    `json:"direccion_entrega"`
	MediosPago       string    `json:"medios_pago"`
	Productos        []ItemQty `json:"productos"`
}

// Create: resuelve comercio->tenant, reserva stock, persiste orden + items y
// descuenta stock en una sola tx, estado inicial pendiente. La confirmacion
// se publica al salir. Una orden duplicada (mismo orden_id) es un no-op.
func (l *Lifecycle) Create(ctx context.Context, in CreateOrder) error {
	if in.PedidoID == "" || in.ComercioID == "" || len(in.Productos) == 0 {
		return fmt.Errorf("pedido invalido: se requieren pedidoId, comercio_id y productos")
	}
	for _, it := range in.Productos {
		if it.Cantidad <= 0 {
			return fmt.Errorf("cantidad invalida para producto %s", it.ProductoID)
		}
	}

	tenantID, err := l.Repo.TenantIDByComercio(ctx, in.ComercioID)
	if err != nil {
		return err
	}

	// short-circuit: el hub re-entrega con at-least-once
	if exists, err := l.Repo.Exists(ctx, in.PedidoID); err != nil {
		return err
	} else if exists {
		log.Info().Str("orden_id", in.PedidoID).Msg("orden duplicada, ignorando")
		return nil
	}

	tx, err := l.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	changes, err := l.Stock.ReserveTx(ctx, tx, in.ComercioID, in.Productos)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(in.Productos))
	for _, it := range in.Productos {
		ids = append(ids, it.ProductoID)
	}
	info, err := l.Repo.productInfoTx(ctx, tx, ids)
	if err != nil {
		return err
	}

	var total float64
	items := make([]OrderItem, 0, len(in.Productos))
	for _, it := range in.Productos {
		p, ok := info[it.ProductoID]
		if !ok {
			return fmt.Errorf("producto no encontrado: %s", it.ProductoID)
		}
		subtotal := p.Precio * float64(it.Cantidad)
		total += subtotal
		items = append(items, OrderItem{
			ProductoID:     it.ProductoID,
			NombreProducto: p.Nombre,
			Cantidad:       it.Cantidad,
			PrecioUnitario: p.Precio,
			Subtotal:       subtotal,
		})
	}

	order := &Order{
		ID:               in.PedidoID,
		TenantID:         tenantID,
		ComercioID:       in.ComercioID,
		ClienteNombre:    in.ClienteNombre,
		DireccionEntrega: in.DireccionEntrega,
		MediosPago:       in.MediosPago,
		Estado:           StatusPendiente,
		Total:            total,
	}
	inserted, err := l.Repo.InsertTx(ctx, tx, order, items)
	if err != nil {
		return err
	}
	if !inserted {
		// carrera con una entrega duplicada: rollback devuelve la reserva
		log.Info().Str("orden_id", in.PedidoID).Msg("orden duplicada durante la tx, ignorando")
		return nil
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	l.publishStockChanges(tenantID, changes)
	l.Publisher.Publish(events.TopicPedidoConfirmar, PedidoConfirmarPayload{
		PedidoID:         in.PedidoID,
		ComercioID:       in.ComercioID,
		ClienteNombre:    in.ClienteNombre,
		DireccionEntrega: in.DireccionEntrega,
		Productos:        items,
	})
	return nil
}

// DeliverSuccess: listo -> finalizada, sin cambio de stock.
func (l *Lifecycle) DeliverSuccess(ctx context.Context, orderID string) error {
	o, err := l.Repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if o.Estado != StatusListo {
		return &InvalidTransitionError{OrderID: orderID, From: o.Estado, To: StatusFinalizada}
	}
	ok, err := l.Repo.UpdateStatusGuarded(ctx, orderID, StatusListo, StatusFinalizada)
	if err != nil {
		return err
	}
	if !ok {
		// otra transicion gano la carrera
		return &InvalidTransitionError{OrderID: orderID, From: o.Estado, To: StatusFinalizada}
	}
	return nil
}

// Cancel: {pendiente, aceptada, listo} -> cancelada, recuperando el stock de
// todos los items en la misma tx que cambia el estado. Una orden terminal o
// inexistente falla sin efectos.
func (l *Lifecycle) Cancel(ctx context.Context, orderID string) error {
	tx, err := l.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var comercioID, tenantID string
	var estado Status
	err = tx.QueryRow(ctx,
		`SELECT comercio_id, tenant_id, estado FROM ordenes WHERE orden_id=$1 FOR UPDATE`,
		orderID).Scan(&comercioID, &tenantID, &estado)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrOrderNotFound
	}
	if err != nil {
		return err
	}
	if !CanTransition(estado, StatusCancelada) {
		return &InvalidTransitionError{OrderID: orderID, From: estado, To: StatusCancelada}
	}

	items, err := l.Repo.ItemsByOrderTx(ctx, tx, orderID)
	if err != nil {
		return err
	}
	qtys := make([]ItemQty, 0, len(items))
	for _, it := range items {
		qtys = append(qtys, ItemQty{ProductoID: it.ProductoID, Cantidad: it.Cantidad})
	}
	changes, err := l.Stock.RecoverTx(ctx, tx, comercioID, qtys)
	if err != nil {
		return err
	}
	if err := l.Repo.updateStatusTx(ctx, tx, orderID, StatusCancelada); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	l.publishStockChanges(tenantID, changes)
	return nil
}

// Advance aplica una transicion intermedia sin efecto sobre stock
// (pendiente->aceptada, aceptada->listo, pendiente->rechazada). Cancelada y
// finalizada tienen sus propias operaciones.
func (l *Lifecycle) Advance(ctx context.Context, orderID string, to Status) error {
	switch to {
	case StatusAceptada, StatusListo, StatusRechazada:
	default:
		return &InvalidTransitionError{OrderID: orderID, To: to}
	}
	o, err := l.Repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !CanTransition(o.Estado, to) {
		return &InvalidTransitionError{OrderID: orderID, From: o.Estado, To: to}
	}
	ok, err := l.Repo.UpdateStatusGuarded(ctx, orderID, o.Estado, to)
	if err != nil {
		return err
	}
	if !ok {
		return &InvalidTransitionError{OrderID: orderID, From: o.Estado, To: to}
	}
	return nil
}

type PedidoConfirmarPayload struct {
	PedidoID         string      `json:"pedidoId"`
	ComercioID       string      `json:"comercio_id"`
	ClienteNombre    string      `json:"cliente_nombre"`
	DireccionEntrega string      `json:"direccion_entrega"`
	Productos        []OrderItem `json:"productos"`
}

type StockActualizadoPayload struct {
	ComercioID string      `json:"comercio_id"`
	TenantID   string      `json:"tenant_id"`
	ProductoID string      `json:"producto_id"`
	Stock      StockCounts `json:"stock"`
	Timestamp  string      `json:"timestamp"`
}

type StockCounts struct {
	CantidadAnterior int `json:"cantidad_anterior"`
	CantidadNueva    int `json:"cantidad_nueva"`
}

func (l *Lifecycle) publishStockChanges(tenantID string, changes []StockChange) {
	now := time.Now().UTC().Format(time.RFC3339)
	for _, ch := range changes {
		l.Publisher.Publish(events.TopicStockActualizado, StockActualizadoPayload{
			ComercioID: ch.ComercioID,
			TenantID:   tenantID,
			ProductoID: ch.ProductoID,
			Stock:      StockCounts{CantidadAnterior: ch.CantidadAnterior, CantidadNueva: ch.CantidadNueva},
			Timestamp:  now,
		})
	}
}
