package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo persiste ordenes y sus items. Las ordenes nunca se borran: los
// estados terminales quedan para auditoria y reportes de IVA.
type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) GetByID(ctx context.Context, orderID string) (*Order, error) {
	var o Order
	err := r.DB.QueryRow(ctx, `
		SELECT orden_id, tenant_id, comercio_id, cliente_nombre, direccion_entrega,
		       medios_pago, estado, total, fecha_creacion, fecha_actualizacion
		FROM ordenes WHERE orden_id=$1`, orderID).
		Scan(&o.ID, &o.TenantID, &o.ComercioID, &o.ClienteNombre, &o.DireccionEntrega,
			&o.MediosPago, &o.Estado, &o.Total, &o.FechaCreacion, &o.FechaActualizacion)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repo) Exists(ctx context.Context, orderID string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM ordenes WHERE orden_id=$1)`, orderID).Scan(&exists)
	return exists, err
}

func (r *Repo) GetByComercio(ctx context.Context, comercioID string) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT orden_id, tenant_id, comercio_id, cliente_nombre, direccion_entrega,
		       medios_pago, estado, total, fecha_creacion, fecha_actualizacion
		FROM ordenes WHERE comercio_id=$1
		ORDER BY fecha_creacion DESC`, comercioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (r *Repo) TenantIDByComercio(ctx context.Context, comercioID string) (string, error) {
	var tenantID string
	err := r.DB.QueryRow(ctx, `SELECT tenant_id FROM comercios WHERE comercio_id=$1`, comercioID).Scan(&tenantID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrComercioNotFound
	}
	return tenantID, err
}

type productInfo struct {
	Nombre string
	Precio float64
}

// precios y nombres desde la tabla productos; no se confia en los valores
// que manda el hub en el payload.
func (r *Repo) productInfoTx(ctx context.Context, tx pgx.Tx, productoIDs []string) (map[string]productInfo, error) {
	rows, err := tx.Query(ctx,
		`SELECT producto_id, nombre_producto, precio FROM productos WHERE producto_id = ANY($1)`,
		productoIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]productInfo{}
	for rows.Next() {
		var id string
		var p productInfo
		if err := rows.Scan(&id, &p.Nombre, &p.Precio); err != nil {
			return nil, err
		}
		out[id] = p
	}
	return out, rows.Err()
}

// InsertTx inserta la orden y sus items dentro de la tx del caller.
// Devuelve false si la orden ya existia (orden_id duplicado -> no-op).
func (r *Repo) InsertTx(ctx context.Context, tx pgx.Tx, o *Order, items []OrderItem) (bool, error) {
	ct, err := tx.Exec(ctx, `
		INSERT INTO ordenes(orden_id, tenant_id, comercio_id, cliente_nombre, direccion_entrega,
		                    medios_pago, estado, total)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (orden_id) DO NOTHING`,
		o.ID, o.TenantID, o.ComercioID, o.ClienteNombre, o.DireccionEntrega,
		o.MediosPago, o.Estado, o.Total)
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() == 0 {
		return false, nil
	}
	for _, it := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO orden_productos(orden_id, producto_id, nombre_producto, cantidad, precio_unitario, subtotal)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			o.ID, it.ProductoID, it.NombreProducto, it.Cantidad, it.PrecioUnitario, it.Subtotal); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (r *Repo) ItemsByOrderTx(ctx context.Context, tx pgx.Tx, orderID string) ([]OrderItem, error) {
	rows, err := tx.Query(ctx, `
		SELECT producto_id, nombre_producto, cantidad, precio_unitario, subtotal
		FROM orden_productos WHERE orden_id=$1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ProductoID, &it.NombreProducto, &it.Cantidad, &it.PrecioUnitario, &it.Subtotal); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// UpdateStatusGuarded actualiza el estado solo si el estado actual coincide;
// el WHERE hace de guarda contra carreras entre dos eventos sobre la misma
// orden. Devuelve false si no habia fila en el estado esperado.
func (r *Repo) UpdateStatusGuarded(ctx context.Context, orderID string, from, to Status) (bool, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE ordenes SET estado=$3, fecha_actualizacion=NOW()
		WHERE orden_id=$1 AND estado=$2`, orderID, from, to)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

func (r *Repo) updateStatusTx(ctx context.Context, tx pgx.Tx, orderID string, to Status) error {
	_, err := tx.Exec(ctx, `
		UPDATE ordenes SET estado=$2, fecha_actualizacion=NOW()
		WHERE orden_id=$1`, orderID, to)
	return err
}

func scanOrders(rows pgx.Rows) ([]Order, error) {
	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.TenantID, &o.ComercioID, &o.ClienteNombre, &o.DireccionEntrega,
			&o.MediosPago, &o.Estado, &o.Total, &o.FechaCreacion, &o.FechaActualizacion); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
