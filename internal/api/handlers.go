package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"LeveredVault/internal/eligibility"
	"LeveredVault/internal/model"
	"LeveredVault/internal/pending"
	"LeveredVault/internal/recorder"
	"LeveredVault/internal/units"
)

const accountKey = "account"

// balancesBody carries explicit balances as decimal strings.
type balancesBody struct {
	Native    string `json:"native_balance"`
	Wrapped   string `json:"wrapped_token_balance"`
	Vault     string `json:"vault_token_balance"`
	Allowance string `json:"allowance_amount"`
}

func (b balancesBody) balances() model.AccountBalances {
	return model.AccountBalances{
		Native:  units.ParseAmount(b.Native),
		Wrapped: units.ParseAmount(b.Wrapped),
		Vault:   units.ParseAmount(b.Vault),
	}
}

// DepositRequest is the body of the deposit endpoints. Balances are only
// read by the explicit-input endpoint.
type DepositRequest struct {
	Currency string `json:"currency" binding:"required"`
	Amount   string `json:"amount"`
	balancesBody
}

// WithdrawRequest is the body of the withdraw endpoints.
type WithdrawRequest struct {
	Amount string `json:"amount"`
	balancesBody
}

// PendingRequest is the body of PUT /pending and DELETE /pending.
type PendingRequest struct {
	Action string `json:"action" binding:"required"`
}

// DecisionResponse wraps a decision with the state it was made against.
type DecisionResponse struct {
	model.Decision
	Pending  model.PendingAction `json:"pending,omitempty"`
	Snapshot *model.Snapshot     `json:"snapshot,omitempty"`
}

func requireAddress(c *gin.Context) {
	addr := c.Param("address")
	if !common.IsHexAddress(addr) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid account address"})
		return
	}
	c.Set(accountKey, common.HexToAddress(addr))
	c.Next()
}

func accountFrom(c *gin.Context) common.Address {
	return c.MustGet(accountKey).(common.Address)
}

func (s *Server) evaluateDeposit(c *gin.Context) {
	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	currency, err := model.ParseCurrency(req.Currency)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount := units.ParseAmount(req.Amount)
	d := eligibility.EvaluateDeposit(eligibility.DepositInput{
		Currency:  currency,
		Amount:    amount,
		Balances:  req.balances(),
		Allowance: model.AllowanceState{Amount: units.ParseAmount(req.Allowance)},
	})
	s.record(&recorder.Evaluation{Kind: recorder.KindDeposit, Currency: currency, Amount: amount.String(), Decision: d, Source: "api"})
	c.JSON(http.StatusOK, DecisionResponse{Decision: d})
}

func (s *Server) evaluateWithdraw(c *gin.Context) {
	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount := units.ParseAmount(req.Amount)
	d := eligibility.EvaluateWithdraw(eligibility.WithdrawInput{Amount: amount, Balances: req.balances()})
	s.record(&recorder.Evaluation{Kind: recorder.KindWithdraw, Amount: amount.String(), Decision: d, Source: "api"})
	c.JSON(http.StatusOK, DecisionResponse{Decision: d})
}

func (s *Server) getSnapshot(c *gin.Context) {
	snap, err := s.evaluator.Snapshot(c.Request.Context(), accountFrom(c))
	if err != nil {
		s.chainError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) accountDeposit(c *gin.Context) {
	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	currency, err := model.ParseCurrency(req.Currency)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	account := accountFrom(c)
	d, snap, err := s.evaluator.Deposit(c.Request.Context(), account, units.ParseAmount(req.Amount), currency, "api")
	if err != nil {
		s.chainError(c, err)
		return
	}
	action, _ := s.pending.Current(account.Hex())
	c.JSON(http.StatusOK, DecisionResponse{Decision: d, Pending: action, Snapshot: snap})
}

func (s *Server) accountWithdraw(c *gin.Context) {
	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	account := accountFrom(c)
	d, snap, err := s.evaluator.Withdraw(c.Request.Context(), account, units.ParseAmount(req.Amount), "api")
	if err != nil {
		s.chainError(c, err)
		return
	}
	action, _ := s.pending.Current(account.Hex())
	c.JSON(http.StatusOK, DecisionResponse{Decision: d, Pending: action, Snapshot: snap})
}

func (s *Server) getPending(c *gin.Context) {
	action, since := s.pending.Current(accountFrom(c).Hex())
	resp := gin.H{"action": action}
	if !since.IsZero() {
		resp["since"] = since
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) beginPending(c *gin.Context) {
	action, ok := bindPending(c)
	if !ok {
		return
	}
	account := accountFrom(c)
	if err := s.pending.Begin(account.Hex(), action); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, pending.ErrActionInFlight) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	s.recordPending(&recorder.PendingEvent{Account: account.Hex(), Action: action, Phase: "BEGIN"})
	c.JSON(http.StatusOK, gin.H{"action": action})
}

func (s *Server) finishPending(c *gin.Context) {
	action, ok := bindPending(c)
	if !ok {
		return
	}
	account := accountFrom(c)
	_, since := s.pending.Current(account.Hex())
	if !s.pending.Finish(account.Hex(), action) {
		c.JSON(http.StatusConflict, gin.H{"error": "action is not in flight"})
		return
	}
	s.recordPending(&recorder.PendingEvent{Account: account.Hex(), Action: action, Phase: "FINISH", Elapsed: time.Since(since)})
	c.JSON(http.StatusOK, gin.H{"action": model.PendingNone})
}

func bindPending(c *gin.Context) (model.PendingAction, bool) {
	var req PendingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	action, err := model.ParsePendingAction(req.Action)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return action, true
}

func (s *Server) chainError(c *gin.Context, err error) {
	s.logger.Error("read account state", zap.Error(err))
	c.JSON(http.StatusBadGateway, gin.H{"error": "account state unavailable"})
}

func (s *Server) record(evt *recorder.Evaluation) {
	s.metrics.Evaluations.WithLabelValues(string(evt.Kind), string(evt.Decision.Outcome)).Inc()
	if err := s.recorder.RecordEvaluation(evt); err != nil {
		s.logger.Error("record evaluation", zap.Error(err))
	}
}

func (s *Server) recordPending(evt *recorder.PendingEvent) {
	if err := s.recorder.RecordPending(evt); err != nil {
		s.logger.Error("record pending event", zap.Error(err))
	}
}
