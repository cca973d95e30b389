package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/deliverar/marketplace-service/internal/config"
	"github.com/deliverar/marketplace-service/internal/correlation"
	"github.com/deliverar/marketplace-service/internal/events"
	"github.com/deliverar/marketplace-service/internal/events/handlers"
	"github.com/deliverar/marketplace-service/internal/httpx"
	"github.com/deliverar/marketplace-service/internal/hub"
	"github.com/deliverar/marketplace-service/internal/orders"
	"github.com/deliverar/marketplace-service/internal/postgres"
	"github.com/deliverar/marketplace-service/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	log.Logger = log.With().Str("service", cfg.ServiceName).Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("conectando a postgres")
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Publisher hacia el hub (best-effort, encolado)
	hubClient := hub.NewClient(cfg.HubBaseURL, cfg.HubUsername, cfg.HubPassword)
	publisher := hub.NewPublisher(hubClient, cfg.PublishBuffer)
	publisher.Start(ctx)

	// Dominio
	repo := &orders.Repo{DB: db}
	stock := &orders.StockLedger{DB: db}
	lifecycle := &orders.Lifecycle{DB: db, Repo: repo, Stock: stock, Publisher: publisher}
	correlations := correlation.New(time.Duration(cfg.CorrelationTimeoutMs) * time.Millisecond)

	// Registro estatico de topics entrantes
	router := events.NewRouter()
	router.Register(events.TopicPedidoCreado, &handlers.OrderCreated{Orders: lifecycle, Redis: rdb})
	router.Register(events.TopicPedidoActualizado, &handlers.StatusUpdate{Orders: lifecycle, Redis: rdb})
	router.Register(events.TopicPedidoEntregado, &handlers.DeliverySuccessful{Orders: lifecycle, Redis: rdb})
	router.Register(events.TopicPedidoCancelado, &handlers.DeliveryFailed{Orders: lifecycle, Redis: rdb})
	router.Register(events.TopicBalancesResponse, &handlers.BalanceResponse{Correlations: correlations})
	router.Register(events.TopicIvaPedido, &handlers.IvaPedido{Repo: repo, Publisher: publisher})
	router.Register(events.TopicVentasMes, &handlers.VentasMes{Repo: repo, Publisher: publisher})
	router.Register(events.TopicOrdenesPorTenant, &handlers.OrdenesPorTenant{Repo: repo, Publisher: publisher})

	// HTTP
	mux := httpx.NewRouter()
	httpx.RegisterStatus(mux, db)
	(&httpx.CallbackHandler{Router: router}).Register(mux)
	(&httpx.OrdersHandler{Repo: repo, Redis: rdb}).Register(mux)
	(&httpx.BalanceHandler{Correlations: correlations, Publisher: publisher}).Register(mux)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP escuchando")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("apagando...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = srv.Shutdown(shutdownCtx)

	cancel()               // frena el drain del publisher
	publisher.WaitClosed() // espera el flush de eventos encolados
}
