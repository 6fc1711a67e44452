package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/navlink/navlink/internal/account"
	accountdomain "github.com/navlink/navlink/internal/account/domain"
	"github.com/navlink/navlink/internal/billing"
	billingdomain "github.com/navlink/navlink/internal/billing/domain"
	"github.com/navlink/navlink/internal/clock"
	"github.com/navlink/navlink/internal/config"
	"github.com/navlink/navlink/internal/notification"
	"github.com/navlink/navlink/internal/observability"
	obslogger "github.com/navlink/navlink/internal/observability/logger"
	"github.com/navlink/navlink/internal/payment"
	"github.com/navlink/navlink/internal/providers"
	"github.com/navlink/navlink/internal/providers/pdf"
	"github.com/navlink/navlink/internal/ratelimit"
	"github.com/navlink/navlink/internal/reference"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	config.Module,
	observability.Module,
	clock.Module,
	fx.Provide(registerGin),
	account.Module,
	billing.Module,
	payment.Module,
	providers.Module,
	notification.Module,
	ratelimit.Module,
	reference.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
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
	engine       *gin.Engine
	cfg          config.Config
	billingSvc   billingdomain.Service
	accountSvc   accountdomain.Service
	referenceSvc *reference.Service
	pdfSvc       pdf.Provider
	clk          clock.Clock
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	BillingSvc   billingdomain.Service
	AccountSvc   accountdomain.Service
	ReferenceSvc *reference.Service
	PDFSvc       pdf.Provider
	Clk          clock.Clock
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		billingSvc:   p.BillingSvc,
		accountSvc:   p.AccountSvc,
		referenceSvc: p.ReferenceSvc,
		pdfSvc:       p.PDFSvc,
		clk:          p.Clk,
	}

	svc.registerRoutes()

	return svc
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")

	billings := api.Group("/billings")
	billings.POST("", s.CreateBilling)
	billings.GET("", s.ListBillings)
	billings.GET("/:id", s.GetBilling)
	billings.GET("/:id/statement", s.GetBillingStatement)
	billings.POST("/:id/pay", s.PayBilling)
	billings.POST("/:id/payUsingCredit", s.PayBillingUsingCredit)
	billings.POST("/:id/changePlan", s.ChangeBillingPlan)
	billings.POST("/:id/reprocess", s.ReprocessBilling)
	billings.POST("/:id/sendNotification", s.SendBillingNotification)
	billings.GET("/:id/gcashPay", s.GcashPay)
	billings.GET("/:id/gcashSuccess", s.GcashSuccess)
	billings.GET("/:id/gcashFailed", s.GcashFailed)

	api.GET("/references", s.GetReferences)

	accounts := api.Group("/accounts")
	accounts.GET("", s.ListAccounts)
	accounts.GET("/cutoff", s.ListCutOffAccounts)
	accounts.GET("/:id", s.GetAccount)
	accounts.PUT("/:id/serviceInterrupt", s.AddServiceInterruption)
}
