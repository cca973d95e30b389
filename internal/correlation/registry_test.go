package correlation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDeliversData(t *testing.T) {
	r := New(time.Second)
	fut := r.CreatePending("trace-1")

	ok := r.Resolve("trace-1", json.RawMessage(`{"fiatBalance":100}`))
	require.True(t, ok)

	data, err := fut.Await(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"fiatBalance":100}`, string(data))
}

func TestResolveUnknownTraceIsNotFound(t *testing.T) {
	r := New(time.Second)

	assert.False(t, r.Resolve("nunca-emitido", nil))
	assert.False(t, r.Reject("nunca-emitido", errors.New("x")))
}

func TestDoubleResolveIsNoop(t *testing.T) {
	r := New(time.Second)
	fut := r.CreatePending("trace-2")

	require.True(t, r.Resolve("trace-2", json.RawMessage(`1`)))
	assert.False(t, r.Resolve("trace-2", json.RawMessage(`2`)), "segunda entrega debe ser not found")

	data, err := fut.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))
}

func TestTimeout(t *testing.T) {
	r := New(20 * time.Millisecond)
	fut := r.CreatePending("trace-3")

	_, err := fut.Await(context.Background())
	require.ErrorIs(t, err, ErrTimeout)

	// vencido: resolver despues no encuentra nada
	assert.False(t, r.Resolve("trace-3", nil))
}

func TestImmediateTimeoutStillFires(t *testing.T) {
	// un timeout minimo no puede dejar el pending huerfano: el timer debe
	// encontrarlo en el mapa y entregar ErrTimeout
	r := New(time.Nanosecond)
	fut := r.CreatePending("trace-ya-vencido")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := fut.Await(ctx)
	require.ErrorIs(t, err, ErrTimeout)
}

func TestReject(t *testing.T) {
	r := New(time.Second)
	fut := r.CreatePending("trace-4")

	boom := errors.New("respuesta invalida")
	require.True(t, r.Reject("trace-4", boom))

	_, err := fut.Await(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestAwaitHonorsContext(t *testing.T) {
	r := New(time.Minute)
	fut := r.CreatePending("trace-5")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := fut.Await(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
