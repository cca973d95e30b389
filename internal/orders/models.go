package orders

import "time"

type Order struct {
	ID                 string    `json:"orden_id"`
	TenantID           string    `json:"tenant_id"`
	ComercioID         string    `json:"comercio_id"`
	ClienteNombre      string    `json:"cliente_nombre"`
	DireccionEntrega   string    `json:"direccion_entrega"`
	MediosPago         string    `json:"medios_pago"`
	Estado             Status    `json:"estado"`
	Total              float64   `json:"total"`
	FechaCreacion      time.Time `json:"fecha_creacion"`
	FechaActualizacion time.Time `json:"fecha_actualizacion"`
}

type OrderItem struct {
	ProductoID     string  `json:"producto_id"`
	NombreProducto string  `json:"nombre_producto"`
	Cantidad       int     `json:"cantidad"`
	PrecioUnitario float64 `json:"precio_unitario"`
	Subtotal       float64 `json:"subtotal"`
}

// ItemQty es la forma minima de un item pedido: producto + cantidad.
type ItemQty struct {
	ProductoID string `json:"producto_id"`
	Cantidad   int    `json:"cantidad"`
}

// StockChange describe una mutacion de stock ya commiteada; se usa para
// publicar stock.actualizado despues del commit, nunca dentro de la tx.
type StockChange struct {
	ComercioID       string `json:"comercio_id"`
	ProductoID       string `json:"producto_id"`
	CantidadAnterior int    `json:"cantidad_anterior"`
	CantidadNueva    int    `json:"cantidad_nueva"`
}

type StockShortage struct {
	ProductoID string `json:"producto_id"`
	Solicitado int    `json:"solicitado"`
	Disponible int    `json:"disponible"`
}
