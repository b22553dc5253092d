package main

import (
	"net/http"

	"github.com/Ishimwe-William/irembopay-gateway/config"
	"github.com/Ishimwe-William/irembopay-gateway/internal/db"
	"github.com/Ishimwe-William/irembopay-gateway/internal/handlers"
	"github.com/Ishimwe-William/irembopay-gateway/internal/irembopay"
	"github.com/Ishimwe-William/irembopay-gateway/internal/middleware"
	"github.com/Ishimwe-William/irembopay-gateway/internal/reconcile"
	"github.com/Ishimwe-William/irembopay-gateway/logging"
	"github.com/go-chi/chi/v5"
)

func main() {
	logger := logging.GetSugaredLogger()
	defer logger.Sync()

	cfg := config.GetConfig()

	database, err := db.NewManager(cfg)
	if err != nil {
		logger.Fatal(err)
	}
	defer database.Close()

	client := irembopay.NewClient(cfg, logger)
	engine := reconcile.NewEngine(database, client, cfg, logger)

	h := handlers.Handler{
		Config:   cfg,
		Database: database,
		Engine:   engine,
		Logger:   logger,
	}

	r := initRouter(h)

	err = http.ListenAndServe(cfg.RunAddress, r)
	logger.Fatalw("failed to start server", "error", err)
}

func initRouter(h handlers.Handler) *chi.Mux {
	r := chi.NewRouter()
	// The webhook gets no body-transforming middleware: signature
	// verification needs the raw bytes exactly as the provider sent them.
	r.Post(`/api/webhook/irembopay`, h.Webhook)
	r.Post(`/api/orders`,
		func(w http.ResponseWriter, r *http.Request) {
			middleware.Conveyor(
				http.HandlerFunc(h.CreateOrder),
				h.Logger,
				middleware.WriteWithCompression,
				middleware.ReadWithCompression,
			).ServeHTTP(w, r)
		},
	)
	r.Post(`/api/checkout/{orderID}/pay`,
		func(w http.ResponseWriter, r *http.Request) {
			middleware.Conveyor(
				http.HandlerFunc(h.Pay),
				h.Logger,
				middleware.WriteWithCompression,
			).ServeHTTP(w, r)
		},
	)
	r.Get(`/api/orders/{orderID}/receipt`,
		func(w http.ResponseWriter, r *http.Request) {
			middleware.Conveyor(
				http.HandlerFunc(h.Receipt),
				h.Logger,
				middleware.WriteWithCompression,
			).ServeHTTP(w, r)
		},
	)
	r.Post(`/api/admin/register`,
		func(w http.ResponseWriter, r *http.Request) {
			middleware.Conveyor(
				http.HandlerFunc(h.Register),
				h.Logger,
				middleware.WriteWithCompression,
				middleware.ReadWithCompression,
			).ServeHTTP(w, r)
		},
	)
	r.Post(`/api/admin/login`,
		func(w http.ResponseWriter, r *http.Request) {
			middleware.Conveyor(
				http.HandlerFunc(h.Login),
				h.Logger,
				middleware.WriteWithCompression,
				middleware.ReadWithCompression,
			).ServeHTTP(w, r)
		},
	)
	r.Get(`/api/admin/orders/{orderID}/payment`,
		func(w http.ResponseWriter, r *http.Request) {
			middleware.Conveyor(
				http.HandlerFunc(h.PaymentDetails),
				h.Logger,
				middleware.WriteWithCompression,
				middleware.ValidateAuth(h.Config.JWTSecret),
			).ServeHTTP(w, r)
		},
	)
	r.Get(`/api/admin/settings`,
		func(w http.ResponseWriter, r *http.Request) {
			middleware.Conveyor(
				http.HandlerFunc(h.Settings),
				h.Logger,
				middleware.WriteWithCompression,
				middleware.ValidateAuth(h.Config.JWTSecret),
			).ServeHTTP(w, r)
		},
	)
	return r
}
