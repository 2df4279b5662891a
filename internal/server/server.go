package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/gstbook/internal/config"
	"github.com/smallbiznis/gstbook/internal/idempotency"
	invoicedomain "github.com/smallbiznis/gstbook/internal/invoice/domain"
	"github.com/smallbiznis/gstbook/internal/observability"
	obsmiddleware "github.com/smallbiznis/gstbook/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/gstbook/internal/observability/metrics"
	obstracing "github.com/smallbiznis/gstbook/internal/observability/tracing"
	"github.com/smallbiznis/gstbook/internal/reference"
	referencedomain "github.com/smallbiznis/gstbook/internal/reference/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	reference.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	if httpMetrics != nil {
		r.Use(httpMetrics.GinMiddleware())
	}
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, s *Server, log *zap.Logger) {
	addr := strings.TrimSpace(cfg.HTTPAddr)
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	log         *zap.Logger
	invoicing   config.InvoicingConfigProvider
	invoiceSvc  invoicedomain.Service
	idempotency *idempotency.Store
	refrepo     referencedomain.Repository
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Log         *zap.Logger
	Invoicing   config.InvoicingConfigProvider
	InvoiceSvc  invoicedomain.Service
	Idempotency *idempotency.Store `optional:"true"`
	Refrepo     referencedomain.Repository
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		log:         p.Log.Named("http"),
		invoicing:   p.Invoicing,
		invoiceSvc:  p.InvoiceSvc,
		idempotency: p.Idempotency,
		refrepo:     p.Refrepo,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	// -------- Reference --------
	ref := s.engine.Group("/api/reference")
	{
		ref.GET("/states", s.ListStates)
		ref.GET("/states/:code", s.GetState)
	}

	api := s.engine.Group("/api")
	api.Use(BusinessContext())

	// -------- Invoices --------
	invoices := api.Group("/invoices")
	{
		invoices.POST("/quote", s.QuoteInvoice)
		invoices.GET("/next-number", s.PreviewInvoiceNumber)
		invoices.POST("", RequireUser(), s.CreateInvoice)
		invoices.GET("", s.ListInvoices)
		invoices.GET("/:id", s.GetInvoiceByID)
		invoices.PATCH("/:id", s.UpdateInvoice)
		invoices.DELETE("/:id", s.DeleteInvoice)
	}
}
