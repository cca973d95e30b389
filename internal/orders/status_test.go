package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusPendiente, StatusAceptada},
		{StatusPendiente, StatusRechazada},
		{StatusPendiente, StatusCancelada},
		{StatusAceptada, StatusListo},
		{StatusAceptada, StatusCancelada},
		{StatusListo, StatusFinalizada},
		{StatusListo, StatusCancelada},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s deberia permitirse", tc.from, tc.to)
	}

	rejected := []struct{ from, to Status }{
		{StatusPendiente, StatusFinalizada}, // finalizada solo via listo
		{StatusPendiente, StatusListo},
		{StatusAceptada, StatusFinalizada},
		{StatusAceptada, StatusRechazada},
		{StatusFinalizada, StatusCancelada},
		{StatusCancelada, StatusListo},
		{StatusRechazada, StatusAceptada},
		{StatusListo, StatusPendiente},
	}
	for _, tc := range rejected {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s deberia rechazarse", tc.from, tc.to)
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	for _, s := range []Status{StatusRechazada, StatusCancelada, StatusFinalizada} {
		assert.True(t, IsTerminal(s), "%s es terminal", s)
		for _, to := range []Status{StatusPendiente, StatusAceptada, StatusListo, StatusFinalizada, StatusCancelada, StatusRechazada} {
			assert.False(t, CanTransition(s, to))
		}
	}
	assert.False(t, IsTerminal(StatusPendiente))
	assert.False(t, IsTerminal(StatusListo))
	assert.False(t, IsTerminal(Status("")), "estado desconocido no es terminal")
}

func TestInsufficientStockErrorIs(t *testing.T) {
	err := &InsufficientStockError{
		ComercioID: "COM_1",
		Shortages:  []StockShortage{{ProductoID: "PRD_9", Solicitado: 4, Disponible: 2}},
	}
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), "PRD_9")
	assert.Contains(t, err.Error(), "disponible 2")
}

func TestInvalidTransitionErrorIs(t *testing.T) {
	err := &InvalidTransitionError{OrderID: "ORD_1", From: StatusPendiente, To: StatusFinalizada}
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, err.Error(), "ORD_1")
	assert.Contains(t, err.Error(), "pendiente")
}
