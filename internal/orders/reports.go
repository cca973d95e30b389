package orders

import (
	"context"
	"time"
)

type TenantTotals struct {
	CantidadOrdenes  int     `json:"cantidad_ordenes"`
	MontoTotal       float64 `json:"monto_total"`
	PromedioPorOrden float64 `json:"promedio_por_orden"`
}

type OrderWithItems struct {
	Order
	Productos []OrderItem `json:"productos"`
}

// Consultas de solo lectura para los reportes de IVA y ventas; los estados
// terminales se retienen justamente para esto.

func (r *Repo) FindByDateRange(ctx context.Context, desde, hasta time.Time) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT orden_id, tenant_id, comercio_id, cliente_nombre, direccion_entrega,
		       medios_pago, estado, total, fecha_creacion, fecha_actualizacion
		FROM ordenes
		WHERE fecha_creacion >= $1 AND fecha_creacion <= $2
		ORDER BY fecha_creacion`, desde, hasta)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (r *Repo) FindFinalizadasWithItems(ctx context.Context, desde, hasta time.Time) ([]OrderWithItems, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT o.orden_id, o.tenant_id, o.comercio_id, o.cliente_nombre, o.direccion_entrega,
		       o.medios_pago, o.estado, o.total, o.fecha_creacion, o.fecha_actualizacion,
		       p.producto_id, p.nombre_producto, p.cantidad, p.precio_unitario, p.subtotal
		FROM ordenes o
		JOIN orden_productos p ON p.orden_id = o.orden_id
		WHERE o.estado = $1 AND o.fecha_creacion >= $2 AND o.fecha_creacion <= $3
		ORDER BY o.fecha_creacion, o.orden_id`, StatusFinalizada, desde, hasta)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderWithItems
	index := map[string]int{}
	for rows.Next() {
		var o Order
		var it OrderItem
		if err := rows.Scan(&o.ID, &o.TenantID, &o.ComercioID, &o.ClienteNombre, &o.DireccionEntrega,
			&o.MediosPago, &o.Estado, &o.Total, &o.FechaCreacion, &o.FechaActualizacion,
			&it.ProductoID, &it.NombreProducto, &it.Cantidad, &it.PrecioUnitario, &it.Subtotal); err != nil {
			return nil, err
		}
		i, ok := index[o.ID]
		if !ok {
			out = append(out, OrderWithItems{Order: o})
			i = len(out) - 1
			index[o.ID] = i
		}
		out[i].Productos = append(out[i].Productos, it)
	}
	return out, rows.Err()
}

func (r *Repo) TotalsByTenant(ctx context.Context, tenantID string) (TenantTotals, error) {
	var t TenantTotals
	err := r.DB.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total), 0), COALESCE(AVG(total), 0)
		FROM ordenes WHERE tenant_id = $1`, tenantID).
		Scan(&t.CantidadOrdenes, &t.MontoTotal, &t.PromedioPorOrden)
	return t, err
}
