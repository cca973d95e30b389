package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// dbtx es el subconjunto de pgx.Tx que usa el ledger.
type dbtx interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// StockLedger muta la tabla stock, clave (comercio_id, producto_id).
// Toda mutacion corre dentro de la tx del caller con lock de fila
// (SELECT ... FOR UPDATE) para evitar lost updates entre pedidos
// concurrentes; dos creaciones sobre el mismo producto serializan en el
// lock de fila de Postgres, no en la aplicacion.
type StockLedger struct{ DB *pgxpool.Pool }

// ReserveTx: lock por producto -> valida disponible -> descuenta.
// Todo-o-nada: si algun item no alcanza, devuelve InsufficientStockError con
// el detalle por producto y el caller hace rollback de la tx completa.
func (l *StockLedger) ReserveTx(ctx context.Context, tx dbtx, comercioID string, items []ItemQty) ([]StockChange, error) {
	var shortages []StockShortage
	changes := make([]StockChange, 0, len(items))

	for _, it := range items {
		var disponible int
		err := tx.QueryRow(ctx,
			`SELECT cantidad FROM stock WHERE comercio_id=$1 AND producto_id=$2 FOR UPDATE`,
			comercioID, it.ProductoID).Scan(&disponible)
		if errors.Is(err, pgx.ErrNoRows) {
			shortages = append(shortages, StockShortage{ProductoID: it.ProductoID, Solicitado: it.Cantidad, Disponible: 0})
			continue
		}
		if err != nil {
			return nil, err
		}
		if disponible < it.Cantidad {
			shortages = append(shortages, StockShortage{ProductoID: it.ProductoID, Solicitado: it.Cantidad, Disponible: disponible})
			continue
		}
		changes = append(changes, StockChange{
			ComercioID:       comercioID,
			ProductoID:       it.ProductoID,
			CantidadAnterior: disponible,
			CantidadNueva:    disponible - it.Cantidad,
		})
	}

	if len(shortages) > 0 {
		return nil, &InsufficientStockError{ComercioID: comercioID, Shortages: shortages}
	}

	for _, ch := range changes {
		if _, err := tx.Exec(ctx,
			`UPDATE stock SET cantidad=$3 WHERE comercio_id=$1 AND producto_id=$2`,
			ch.ComercioID, ch.ProductoID, ch.CantidadNueva); err != nil {
			return nil, err
		}
	}
	return changes, nil
}

// RecoverTx es la inversa de ReserveTx: devuelve stock al cancelar o fallar
// una entrega. Corre en una sola tx por orden.
func (l *StockLedger) RecoverTx(ctx context.Context, tx dbtx, comercioID string, items []ItemQty) ([]StockChange, error) {
	changes := make([]StockChange, 0, len(items))
	for _, it := range items {
		var actual int
		err := tx.QueryRow(ctx,
			`SELECT cantidad FROM stock WHERE comercio_id=$1 AND producto_id=$2 FOR UPDATE`,
			comercioID, it.ProductoID).Scan(&actual)
		if errors.Is(err, pgx.ErrNoRows) {
			// fila borrada despues de crear la orden; se recrea con la cantidad recuperada
			if _, err := tx.Exec(ctx,
				`INSERT INTO stock(comercio_id, producto_id, cantidad) VALUES ($1,$2,$3)`,
				comercioID, it.ProductoID, it.Cantidad); err != nil {
				return nil, err
			}
			changes = append(changes, StockChange{ComercioID: comercioID, ProductoID: it.ProductoID, CantidadAnterior: 0, CantidadNueva: it.Cantidad})
			continue
		}
		if err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE stock SET cantidad = cantidad + $3 WHERE comercio_id=$1 AND producto_id=$2`,
			comercioID, it.ProductoID, it.Cantidad); err != nil {
			return nil, err
		}
		changes = append(changes, StockChange{
			ComercioID:       comercioID,
			ProductoID:       it.ProductoID,
			CantidadAnterior: actual,
			CantidadNueva:    actual + it.Cantidad,
		})
	}
	return changes, nil
}

// Quantity lee el disponible actual sin lock (solo consulta).
func (l *StockLedger) Quantity(ctx context.Context, comercioID, productoID string) (int, error) {
	var n int
	err := l.DB.QueryRow(ctx,
		`SELECT cantidad FROM stock WHERE comercio_id=$1 AND producto_id=$2`,
		comercioID, productoID).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return n, err
}
