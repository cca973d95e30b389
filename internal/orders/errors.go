package orders

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound     = errors.New("orden no encontrada")
	ErrComercioNotFound  = errors.New("comercio no encontrado")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrInvalidTransition = errors.New("transicion de estado invalida")
)

// InsufficientStockError es una falla de validacion recuperable: el caller
// decide el siguiente paso (tipicamente rechazar el pedido). Lleva el detalle
// por producto para que el operador pueda actuar.
type InsufficientStockError struct {
	ComercioID string
	Shortages  []StockShortage
}

func (e *InsufficientStockError) Error() string {
	if len(e.Shortages) == 1 {
		s := e.Shortages[0]
		return fmt.Sprintf("stock insuficiente para producto %s: solicitado %d, disponible %d",
			s.ProductoID, s.Solicitado, s.Disponible)
	}
	return fmt.Sprintf("stock insuficiente para %d productos del comercio %s", len(e.Shortages), e.ComercioID)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

type InvalidTransitionError struct {
	OrderID string
	From    Status
	To      Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("orden %s en estado %q: transicion a %q no permitida", e.OrderID, e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }
