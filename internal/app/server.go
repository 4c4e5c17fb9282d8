// internal/app/server.go
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"gymflow-service/internal/config"
	"gymflow-service/internal/db"
	billingHandler "gymflow-service/internal/handlers/billing"
	rollupHandler "gymflow-service/internal/handlers/rollup"
	settlementHandler "gymflow-service/internal/handlers/settlement"
	subscriptionHandler "gymflow-service/internal/handlers/subscription"
	wsHandler "gymflow-service/internal/handlers/ws"
	"gymflow-service/internal/middleware"
	"gymflow-service/internal/pkg/jwt"
	"gymflow-service/internal/repository/postgres"
	billingService "gymflow-service/internal/service/billing"
	"gymflow-service/internal/service/gateway"
	rollupService "gymflow-service/internal/service/rollup"
	settlementService "gymflow-service/internal/service/settlement"
	subscriptionService "gymflow-service/internal/service/subscription"
	ws "gymflow-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	http   *http.Server
	logger *zap.Logger
}

func NewServer() *Server {
	cfg := config.Load()
	engine := gin.Default()
	return &Server{cfg: cfg, engine: engine}
}

func (s *Server) Start() error {
	ctx := context.Background()

	// ----- Logger -----
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	s.logger = logger

	// ----- PostgreSQL -----
	pool, err := postgres.Connect(ctx, s.cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Println("[REDIS] connected")

	// ----- JWT Verifier -----
	verifier, err := jwt.LoadVerifier(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT verifier: %w", err)
	}

	// ----- Repositories -----
	membershipRepo := postgres.NewMembershipRepository(pool)
	billRepo := postgres.NewBillRepository(pool)
	paymentRepo := postgres.NewPaymentEventRepository(pool)
	subscriptionRepo := postgres.NewSubscriptionPaymentRepository(pool)

	// ----- WebSocket Hub -----
	hub := ws.NewHub(logger)

	// ----- Gateway Client -----
	gatewayClient := gateway.NewClient(s.cfg.Gateway, logger)

	// ----- Services -----
	billingSvc := billingService.NewService(membershipRepo, billRepo, paymentRepo, logger)
	settlementSvc := settlementService.NewService(
		billingSvc,
		paymentRepo,
		gatewayClient,
		redisClient,
		hub,
		s.cfg.Currency,
		logger,
	)
	rollupSvc := rollupService.NewService(billingSvc, membershipRepo, subscriptionRepo, logger)
	subscriptionSvc := subscriptionService.NewService(subscriptionRepo, logger)

	// ----- Handlers -----
	billingHandlerInst := billingHandler.NewBillingHandler(billingSvc)
	settlementHandlerInst := settlementHandler.NewSettlementHandler(settlementSvc)
	rollupHandlerInst := rollupHandler.NewRollupHandler(rollupSvc)
	subscriptionHandlerInst := subscriptionHandler.NewSubscriptionHandler(subscriptionSvc)
	wsHandlerInst := wsHandler.NewWebSocketHandler(hub, logger)

	// ----- Middlewares -----
	authMiddleware := middleware.NewAuthMiddleware(verifier)

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(),
	)

	// ----- Router -----
	handlers := &Handlers{
		BillingHandler:      billingHandlerInst,
		SettlementHandler:   settlementHandlerInst,
		RollupHandler:       rollupHandlerInst,
		SubscriptionHandler: subscriptionHandlerInst,
		WSHandler:           wsHandlerInst,
		AuthMiddleware:      authMiddleware,
	}
	SetupRouter(s.engine, logger, handlers)

	// ----- Start HTTP -----
	s.http = &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.engine,
	}
	log.Printf("server running on %s", s.cfg.HTTPAddr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the HTTP listener and waits for in-flight requests
// to drain, up to the deadline on ctx.
func (s *Server) Shutdown(ctx context.Context) {
	if s.http == nil {
		return
	}
	if err := s.http.Shutdown(ctx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}
