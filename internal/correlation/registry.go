// Package correlation implementa request/response sobre el canal de eventos
// unidireccional del hub: el caller publica un evento con un trace id, crea
// un pending y espera; un evento entrante con el mismo trace id lo resuelve.
package correlation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

var ErrTimeout = errors.New("timeout esperando respuesta correlacionada")

const DefaultTimeout = 30 * time.Second

type outcome struct {
	data json.RawMessage
	err  error
}

// Future es la respuesta pendiente de un trace id. Se consume una sola vez.
type Future struct {
	ch chan outcome
}

func (f *Future) Await(ctx context.Context) (json.RawMessage, error) {
	select {
	case out := <-f.ch:
		return out.data, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Registry mapea trace id -> pending. Es estado local del proceso: un
// restart abandona los pendings en vuelo y los callers reciben timeout, no
// se cuelgan.
type Registry struct {
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]*entry
}

type entry struct {
	fut   *Future
	timer *time.Timer
}

func New(timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Registry{timeout: timeout, pending: map[string]*entry{}}
}

// CreatePending registra un trace id y devuelve su Future. Si el timeout
// vence antes de Resolve/Reject, el Future falla con ErrTimeout.
func (r *Registry) CreatePending(traceID string) *Future {
	fut := &Future{ch: make(chan outcome, 1)}
	e := &entry{fut: fut}

	// el pending tiene que estar en el mapa antes de que el timer pueda
	// vencer: un timeout que dispare primero no lo encontraria y quedaria
	// huerfano. El lock cubre insercion y armado; take serializa con el
	// mismo mutex, asi que quien saque la entrada ve e.timer ya asignado.
	r.mu.Lock()
	r.pending[traceID] = e
	e.timer = time.AfterFunc(r.timeout, func() {
		if r.take(traceID) != nil {
			fut.ch <- outcome{err: ErrTimeout}
		}
	})
	r.mu.Unlock()
	return fut
}

// Resolve completa el pending del trace id. Devuelve false si el id no
// existe (ya resuelto, vencido o nunca emitido): entregas duplicadas o
// tardias de un canal at-least-once son no-ops.
func (r *Registry) Resolve(traceID string, data json.RawMessage) bool {
	e := r.take(traceID)
	if e == nil {
		return false
	}
	e.timer.Stop()
	e.fut.ch <- outcome{data: data}
	return true
}

func (r *Registry) Reject(traceID string, err error) bool {
	e := r.take(traceID)
	if e == nil {
		return false
	}
	e.timer.Stop()
	e.fut.ch <- outcome{err: err}
	return true
}

func (r *Registry) take(traceID string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.pending[traceID]
	if !ok {
		return nil
	}
	delete(r.pending, traceID)
	return e
}
