package hub

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

type queued struct {
	topic   string
	payload any
}

// Publisher desacopla la publicacion del caller: los eventos se encolan en un
// canal acotado y un goroutine los drena contra el hub. La entrega es
// best-effort: si el hub esta caido el evento se pierde (se loguea), nunca
// se bloquea ni aborta la tx que lo origino.
type Publisher struct {
	client  *Client
	inbox   chan queued
	closeCh chan struct{}
}

func NewPublisher(c *Client, buf int) *Publisher {
	if buf <= 0 {
		buf = 1024
	}
	return &Publisher{
		client:  c,
		inbox:   make(chan queued, buf),
		closeCh: make(chan struct{}),
	}
}

func (p *Publisher) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				// drenar lo que quedo encolado antes de salir
				for {
					select {
					case ev := <-p.inbox:
						p.send(ev)
					default:
						return
					}
				}
			case ev, ok := <-p.inbox:
				if !ok {
					return
				}
				p.send(ev)
			}
		}
	}()
}

func (p *Publisher) send(ev queued) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := p.client.Publish(ctx, ev.topic, ev.payload); err != nil {
		log.Error().Err(err).Str("topic", ev.topic).Msg("no se pudo publicar el evento")
	}
}

// Publish encola sin bloquear. Con la cola llena el evento se descarta y se
// loguea; la entrega al hub no esta garantizada ni siquiera una vez.
func (p *Publisher) Publish(topic string, payload any) {
	select {
	case p.inbox <- queued{topic: topic, payload: payload}:
	default:
		log.Warn().Str("topic", topic).Msg("cola de publicacion llena, evento descartado")
	}
}

// WaitClosed espera a que el goroutine termine de drenar.
func (p *Publisher) WaitClosed() { <-p.closeCh }
