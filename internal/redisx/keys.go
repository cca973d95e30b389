package redisx

import "time"

const (
	// Dedup de eventos del hub ya procesados: dedup:callback:{topic}:{id}
	// (id = orden_id o trace id segun el topic). El hub reintenta con
	// at-least-once; la clave evita re-procesar un evento ya commiteado.
	KeyCallbackDedup = "dedup:callback:%s:%s"

	// Cache de estado de orden: orden_estado:{orden_id} -> {"estado": "..."}
	KeyOrderStatus = "orden_estado:%s"
)

var (
	TTLDedup       = 48 * time.Hour
	TTLStatusCache = 5 * time.Minute
)
