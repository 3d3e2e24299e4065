package http

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/vaultmeet/vaultmeet/internal/config"
	"github.com/vaultmeet/vaultmeet/internal/http/middleware"
	"github.com/vaultmeet/vaultmeet/internal/metrics"
	"github.com/vaultmeet/vaultmeet/internal/repository"
	"github.com/vaultmeet/vaultmeet/internal/service/intake"
	"github.com/vaultmeet/vaultmeet/internal/service/review"
	"github.com/vaultmeet/vaultmeet/internal/upload"
)

type Server struct{ e *echo.Echo }

func NewServer(cfg config.Config, mysqlDB, clickhouseDB *sqlx.DB, rds *redis.Client) (*Server, error) {
	// repos (MySQL)
	applicantsRepo := repository.NewApplicantsRepository(mysqlDB)
	notificationsRepo := repository.NewNotificationsRepository(mysqlDB)
	outboxRepo := repository.NewOutboxRepository(mysqlDB)
	contactsRepo := repository.NewContactsRepository(mysqlDB)

	// repos (ClickHouse)
	chDecisionsRepo := repository.NewCHDecisionsRepository(clickhouseDB)

	// proof storage
	proofs, err := upload.New(cfg.Proofs)
	if err != nil {
		return nil, err
	}

	// services
	intakeSvc := intake.New(applicantsRepo, proofs)
	reviewSvc := review.New(mysqlDB, applicantsRepo, notificationsRepo, outboxRepo)

	// echo
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMid.Recover(), echoMid.Logger())

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// middlewares
	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Redis:          rds,
		RPS:            cfg.RateLimit.RPS,
		KeyPrefix:      "rl:ip:",
		Window:         time.Second,
		RetryAfterHint: true,
	})
	adminMW := middleware.AdminTokenMiddleware(cfg.Admin.JWTSecret)

	// public routes (rate-limited per client IP)
	v1 := e.Group("/v1", rlMW)
	v1.POST("/applications/:kind", applyHandler(intakeSvc))
	v1.POST("/contact", contactHandler(contactsRepo))
	v1.POST("/admin/login", adminLoginHandler(cfg.Admin))

	// review routes (Bearer token from /admin/login); not IP-limited
	admin := e.Group("/v1/admin", adminMW)
	admin.GET("/applications/:kind", listApplicationsHandler(reviewSvc))
	admin.POST("/applications/:kind/:id/decision", decisionHandler(reviewSvc))
	admin.DELETE("/applications/:kind/:id", deleteApplicationHandler(reviewSvc))
	admin.GET("/reports/decisions", decisionsReportHandler(chDecisionsRepo))

	return &Server{e: e}, nil
}

func (s *Server) Start(addr string) error {
	log.Printf("http: listening on %s", addr)
	return s.e.Start(addr)
}
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
