// Package api exposes the eligibility evaluator, account snapshots and the
// pending-action flag over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"LeveredVault/internal/metrics"
	"LeveredVault/internal/model"
	"LeveredVault/internal/pending"
	"LeveredVault/internal/recorder"
)

// Evaluator evaluates requests against an account's live state.
type Evaluator interface {
	Snapshot(ctx context.Context, account common.Address) (*model.Snapshot, error)
	Deposit(ctx context.Context, account common.Address, amount decimal.Decimal, currency model.Currency, source string) (model.Decision, *model.Snapshot, error)
	Withdraw(ctx context.Context, account common.Address, amount decimal.Decimal, source string) (model.Decision, *model.Snapshot, error)
}

// Server holds the HTTP handlers' dependencies.
type Server struct {
	evaluator Evaluator
	pending   *pending.Registry
	recorder  recorder.Recorder
	metrics   *metrics.Metrics
	gatherer  prometheus.Gatherer
	logger    *zap.Logger
}

func NewServer(ev Evaluator, reg *pending.Registry, rec recorder.Recorder, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	return &Server{evaluator: ev, pending: reg, recorder: rec, metrics: m, gatherer: gatherer, logger: logger}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(ginzap.Ginzap(s.logger, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(s.logger, true))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	v1 := r.Group("/v1")
	{
		v1.POST("/eligibility/deposit", s.evaluateDeposit)
		v1.POST("/eligibility/withdraw", s.evaluateWithdraw)

		accounts := v1.Group("/accounts/:address")
		accounts.Use(requireAddress)
		{
			accounts.GET("/snapshot", s.getSnapshot)
			accounts.POST("/deposit", s.accountDeposit)
			accounts.POST("/withdraw", s.accountWithdraw)
			accounts.GET("/pending", s.getPending)
			accounts.PUT("/pending", s.beginPending)
			accounts.DELETE("/pending", s.finishPending)
		}
	}
	return r
}
