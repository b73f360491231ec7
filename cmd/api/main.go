package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/bitrix-leadsync/internal/infra/database"
	"github.com/xavierca1/bitrix-leadsync/internal/infra/http/handlers"
	"github.com/xavierca1/bitrix-leadsync/internal/infra/http/middleware"
	"github.com/xavierca1/bitrix-leadsync/internal/infra/integration/bitrix"
	"github.com/xavierca1/bitrix-leadsync/internal/infra/mail"
	"github.com/xavierca1/bitrix-leadsync/internal/infra/queue"
	"github.com/xavierca1/bitrix-leadsync/internal/infra/worker"
	"github.com/xavierca1/bitrix-leadsync/internal/usecase"
)

func main() {
	godotenv.Load()

	db, err := database.NewDBConnection(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	rabbitMQ, err := queue.NewRabbitMQ(
		envOr("RABBITMQ_USER", "user"),
		envOr("RABBITMQ_PASS", "password"),
		envOr("RABBITMQ_HOST", "localhost"),
		envOr("RABBITMQ_PORT", "5672"),
	)
	if err != nil {
		panic(err)
	}
	defer rabbitMQ.Conn.Close()
	defer rabbitMQ.Ch.Close()

	// 1. Repositórios
	leadRepo := database.NewLeadRepository(db)
	syncLogRepo := database.NewSyncLogRepository(db)

	// 2. Integrações e adapters
	bitrixClient := bitrix.NewClient(os.Getenv("BITRIX_WEBHOOK"))
	producer := queue.NewProducer(rabbitMQ.Conn, rabbitMQ.Ch)

	var alerts usecase.AlertService
	if os.Getenv("MAIL_HOST") != "" {
		alerts = mail.NewAlertSender(
			os.Getenv("MAIL_HOST"), 587,
			os.Getenv("MAIL_USER"), os.Getenv("MAIL_PASS"),
			os.Getenv("MAIL_FROM"), os.Getenv("MAIL_ALERT_TO"),
		)
	}

	// 3. UseCases
	syncUC := usecase.NewSyncLeadsUseCase(
		leadRepo, syncLogRepo, bitrixClient, producer, alerts, businessFilters(),
	)
	fixUC := &usecase.FixHistoricalLeadsUseCase{Repo: leadRepo}

	// 4. Worker da fila de backfill
	backfillWorker := queue.NewWorker(rabbitMQ, syncUC)
	go backfillWorker.Start(queue.BackfillQueueName)

	// 5. Scheduler (substitui o cron)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	scheduler := worker.NewSyncScheduler(syncUC, backfillDays())
	go scheduler.Start(ctx)

	// 6. Handlers
	syncHandler := handlers.NewSyncHandler(syncUC, fixUC, producer)
	leadsHandler := handlers.NewLeadsHandler(leadRepo)
	lastSyncHandler := handlers.NewLastSyncHandler(syncLogRepo)
	healthHandler := handlers.NewHealthHandler(db, rabbitMQ.Conn)

	// 7. Router
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:3000", "*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
	}))

	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/sync/day", syncHandler.HandleSyncDay)
	r.Get("/sync/range", syncHandler.HandleSyncRange)
	r.Get("/sync/current", syncHandler.HandleSyncCurrent)
	r.Post("/sync/backfill", syncHandler.HandleEnqueueBackfill)
	r.Post("/admin/fix-historical", syncHandler.HandleFixHistorical)

	r.Get("/leads", leadsHandler.HandleList)
	r.Get("/last-sync", lastSyncHandler.Handle)

	port := ":" + envOr("PORT", "8080")
	log.Printf("🔥 Server LeadSync rodando na porta %s", port)
	http.ListenAndServe(port, r)
}

// businessFilters monta os filtros fixos de negócio aplicados em toda
// busca no Bitrix, além do BEGINDATE do dia.
func businessFilters() map[string]string {
	filters := map[string]string{}
	if v := os.Getenv("BITRIX_SOURCE_ID"); v != "" {
		filters["SOURCE_ID"] = v
	}
	if v := os.Getenv("BITRIX_CREATED_BY_ID"); v != "" {
		filters["CREATED_BY_ID"] = v
	}
	if v := os.Getenv("BITRIX_CATEGORY_ID"); v != "" {
		filters["CATEGORY_ID"] = v
	}
	return filters
}

func backfillDays() int {
	days, err := strconv.Atoi(os.Getenv("SYNC_BACKFILL_DAYS"))
	if err != nil || days < 1 {
		return 30
	}
	return days
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
