package handlers

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/deliverar/marketplace-service/internal/correlation"
	"github.com/deliverar/marketplace-service/internal/events"
)

type balanceResponsePayload struct {
	TraceData     *events.TraceData `json:"traceData"`
	Email         string            `json:"email"`
	FiatBalance   *float64          `json:"fiatBalance"`
	CryptoBalance *float64          `json:"cryptoBalance"`
	LastUpdated   string            `json:"lastUpdated"`
}

// BalanceResponse procesa get.balances.response resolviendo el pending del
// trace id. Una respuesta tardia o duplicada no encuentra pending y se
// descarta sin error.
type BalanceResponse struct {
	Correlations *correlation.Registry
}

func (h *BalanceResponse) ProcessEvent(ctx context.Context, ev events.Envelope) bool {
	p, err := events.UnwrapPayload[balanceResponsePayload](ev.Payload)
	if err != nil {
		log.Error().Err(err).Msg("payload de get.balances.response invalido")
		return false
	}
	if p.Email == "" || p.FiatBalance == nil || p.CryptoBalance == nil {
		log.Error().Msg("get.balances.response con datos incompletos")
		return false
	}
	if p.TraceData == nil || p.TraceData.TraceID == "" {
		log.Warn().Str("email", p.Email).Msg("get.balances.response sin trace id")
		return false
	}
	if p.TraceData.OriginModule != events.OriginModule {
		// respuesta para otro modulo
		return true
	}

	data := events.MustMarshal(map[string]float64{
		"fiatBalance":   *p.FiatBalance,
		"cryptoBalance": *p.CryptoBalance,
	})
	if !h.Correlations.Resolve(p.TraceData.TraceID, data) {
		log.Info().Str("trace_id", p.TraceData.TraceID).Msg("sin pending para el trace id (tardio o duplicado)")
	}
	return true
}
