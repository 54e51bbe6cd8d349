package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jonathan/adwriter/internal/adgen"
	"github.com/jonathan/adwriter/internal/ads"
	"github.com/jonathan/adwriter/internal/config"
	"github.com/jonathan/adwriter/internal/credits"
	"github.com/jonathan/adwriter/internal/docstore"
	"github.com/jonathan/adwriter/internal/events"
	"github.com/jonathan/adwriter/internal/jobs"
	"github.com/jonathan/adwriter/internal/llm"
	"github.com/jonathan/adwriter/internal/payments"
	"github.com/jonathan/adwriter/internal/profiles"
	"github.com/jonathan/adwriter/internal/server/middleware"
	"github.com/jonathan/adwriter/internal/staleness"
)

// Server is the HTTP front of the job-ad manager.
type Server struct {
	httpServer *http.Server
	log        *zap.Logger
	validate   *validator.Validate

	store     docstore.Store
	repo      *profiles.Repository
	jobs      *jobs.Service
	ads       *ads.Service
	ledger    *credits.Ledger
	checkout  *payments.Checkout
	processor *payments.Processor
	producer  *events.Producer
	initiator payments.CheckoutInitiator
	llmClient llm.Client
	markers   staleness.MarkerStore
	auth      func(http.Handler) http.Handler

	webhookSecret string
}

// New wires the full service from configuration. initiator may be nil when
// no payment provider is configured; checkout initiation then returns 501
// while webhooks and credit consumption still work.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, initiator payments.CheckoutInitiator) (*Server, error) {
	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store = docstore.WithTimeout(store, cfg.StoreTimeout)

	llmClient, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.GeminiAPIKey)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	var markers staleness.MarkerStore = staleness.DocumentMarkers{}
	if cfg.RedisURL != "" {
		redisMarkers, err := staleness.NewRedisMarkers(ctx, cfg.RedisURL, cfg.MarkerTTL)
		if err != nil {
			store.Close()
			_ = llmClient.Close()
			return nil, err
		}
		markers = redisMarkers
		log.Info("using redis staleness markers")
	}

	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		log.Info("event publishing enabled", zap.Strings("brokers", cfg.KafkaBrokers))
	}

	repo := profiles.NewRepository(store, log)
	jobSvc := jobs.NewService(repo, log)
	gateway := adgen.NewGateway(llmClient, cfg.LLMTimeout)
	tracker := staleness.NewTracker(markers)
	adSvc := ads.NewService(repo, jobSvc, gateway, tracker, producer, log)
	ledger := credits.NewLedger(repo, log)

	s := &Server{
		log:           log.Named("server"),
		validate:      validator.New(),
		store:         store,
		repo:          repo,
		jobs:          jobSvc,
		ads:           adSvc,
		ledger:        ledger,
		checkout:      payments.NewCheckout(ledger, jobSvc, producer, log),
		processor:     payments.NewProcessor(store, ledger, producer, log),
		producer:      producer,
		initiator:     initiator,
		llmClient:     llmClient,
		markers:       markers,
		webhookSecret: cfg.WebhookSecret,
	}

	s.auth = middleware.Auth(NewJWTService(cfg.JWTSecret))

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// routes builds the request router. Webhook and health endpoints bypass user
// authentication; everything else requires a bearer token.
func (s *Server) routes() http.Handler {
	auth := s.auth

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /webhooks/payment", s.handlePaymentWebhook)

	// Company profile
	mux.Handle("GET /company-profile", auth(http.HandlerFunc(s.handleGetCompanyProfile)))
	mux.Handle("PUT /company-profile", auth(http.HandlerFunc(s.handlePutCompanyProfile)))
	mux.Handle("GET /company-profile/credits", auth(http.HandlerFunc(s.handleGetCredits)))

	// Job profiles
	mux.Handle("GET /jobs", auth(http.HandlerFunc(s.handleListJobs)))
	mux.Handle("POST /jobs", auth(http.HandlerFunc(s.handleCreateJob)))
	mux.Handle("GET /jobs/{id}", auth(http.HandlerFunc(s.handleGetJob)))
	mux.Handle("PUT /jobs/{id}", auth(http.HandlerFunc(s.handleUpdateJob)))
	mux.Handle("DELETE /jobs/{id}", auth(http.HandlerFunc(s.handleDeleteJob)))
	mux.Handle("POST /jobs/{id}/recover", auth(http.HandlerFunc(s.handleRecoverJob)))
	mux.Handle("POST /jobs/{id}/clone", auth(http.HandlerFunc(s.handleCloneJob)))

	// Advertisements
	mux.Handle("GET /jobs/{id}/ad", auth(http.HandlerFunc(s.handleGetAd)))
	mux.Handle("POST /jobs/{id}/ad/regenerate", auth(http.HandlerFunc(s.handleRegenerateAd)))
	mux.Handle("PUT /jobs/{id}/ad", auth(http.HandlerFunc(s.handlePutAdText)))

	// Payments
	mux.Handle("POST /jobs/{id}/submit", auth(http.HandlerFunc(s.handleSubmitJob)))
	mux.Handle("POST /checkout", auth(http.HandlerFunc(s.handleInitiateCheckout)))

	return middleware.RequestID(mux)
}

func newStore(ctx context.Context, cfg *config.Config) (docstore.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreFile:
		return docstore.NewFileStore(cfg.FileStoreDir)
	case config.StoreMemory:
		return docstore.NewMemoryStore(), nil
	default:
		return docstore.ConnectPostgres(ctx, cfg.DatabaseURL)
	}
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.close()
		return err
	case <-stop:
	}
	s.log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.close()
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.close()
	s.log.Info("server stopped")
	return nil
}

func (s *Server) close() {
	if err := s.producer.Close(); err != nil {
		s.log.Warn("failed to close event producer", zap.Error(err))
	}
	if closer, ok := s.markers.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.log.Warn("failed to close marker store", zap.Error(err))
		}
	}
	if err := s.llmClient.Close(); err != nil {
		s.log.Warn("failed to close LLM client", zap.Error(err))
	}
	if err := s.store.Close(); err != nil {
		s.log.Warn("failed to close document store", zap.Error(err))
	}
}

// Handler exposes the routed handler (for tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
