package events

// Topics entrantes (hub -> servicio).
const (
	TopicPedidoCreado      = "pedido.creado"
	TopicPedidoActualizado = "pedido.actualizado"
	TopicPedidoEntregado   = "pedido.entregado"
	TopicPedidoCancelado   = "pedido.cancelado"
	TopicBalancesResponse  = "get.balances.response"
	TopicIvaPedido         = "iva.pedido"
	TopicVentasMes         = "ventas.mes"
	TopicOrdenesPorTenant  = "ordenesbytenant.pedido"
)

// Topics salientes (servicio -> hub).
const (
	TopicPedidoConfirmar      = "pedido.confirmar"
	TopicStockActualizado     = "stock.actualizado"
	TopicBalancesRequest      = "get.balances.request"
	TopicIvaRespuesta         = "iva.respuesta"
	TopicVentasMesRespuesta   = "ventas.mes.respuesta"
	TopicOrdenesPorTenantResp = "ordenesbytenant.respuesta"
)

// OriginModule identifica a este servicio en traceData de los eventos
// correlacionados; las respuestas para otros modulos se ignoran.
const OriginModule = "marketplace-service"
