package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"crash-rounds-backend/internal/models"
	"crash-rounds-backend/internal/services"
)

type RoundHandler struct {
	scheduler *services.RoundScheduler
	ledger    *services.PlayerLedger
	fairness  *services.FairnessEngine
	store     *services.RoundStore
}

func NewRoundHandler(scheduler *services.RoundScheduler, ledger *services.PlayerLedger,
	fairness *services.FairnessEngine, store *services.RoundStore) *RoundHandler {
	return &RoundHandler{
		scheduler: scheduler,
		ledger:    ledger,
		fairness:  fairness,
		store:     store,
	}
}

func (h *RoundHandler) PlaceBet(c *gin.Context) {
	playerID := c.GetString("player_id")

	var req models.BetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bet, err := h.ledger.PlaceBet(playerID, req.Amount, req.CoinType)
	if err != nil {
		c.JSON(rejectionStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"bet": gin.H{
			"player_id":   bet.PlayerID,
			"round_id":    bet.RoundID,
			"bet_amount":  bet.BetAmount,
			"coin_type":   bet.CoinType,
			"accepted_at": bet.AcceptedAt,
		},
	})
}

func (h *RoundHandler) CashOut(c *gin.Context) {
	playerID := c.GetString("player_id")

	// The payout multiplier is read from the engine's own clock, the
	// same one that arms the crash timer, never from the client.
	multiplier := h.scheduler.CurrentMultiplier()

	result, err := h.ledger.RequestCashOut(c.Request.Context(), playerID, multiplier)
	if err != nil {
		c.JSON(rejectionStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}

func (h *RoundHandler) GetCurrentRound(c *gin.Context) {
	round := h.scheduler.CurrentRound()
	if round == nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"round":   nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"round":      round,
		"multiplier": h.scheduler.CurrentMultiplier(),
	})
}

// GetSnapshot serves the live leaderboard: every bet of the active
// round in acceptance order.
func (h *RoundHandler) GetSnapshot(c *gin.Context) {
	bets := h.ledger.Snapshot()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"players": bets,
		"count":   len(bets),
	})
}

func (h *RoundHandler) GetRoundHistory(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "50")
	limit, err := strconv.ParseInt(limitStr, 10, 64)
	if err != nil || limit <= 0 || limit > 100 {
		limit = 50
	}

	rounds, err := h.store.GetRoundHistory(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get round history",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"rounds":  rounds,
		"count":   len(rounds),
	})
}

// VerifyRound lets anyone recompute a revealed round: the commit hash
// must match SHA3-256(secret||salt) and the derived multiplier must
// match the one the round settled with.
func (h *RoundHandler) VerifyRound(c *gin.Context) {
	var req models.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	commitValid := h.fairness.VerifyReveal(req.CommitHash, req.Secret, req.Salt)
	derived := h.fairness.DeriveCrashMultiplier(req.Secret, req.Salt)

	resultValid := true
	if req.CrashMultiplier > 0 {
		resultValid = h.fairness.VerifyRoundResult(req.Secret, req.Salt, req.CrashMultiplier)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"commit_valid":       commitValid,
		"result_valid":       resultValid,
		"derived_multiplier": derived,
	})
}

// GetReconciliationQueue exposes cash-outs whose settlement failed
// after acceptance, for operator review.
func (h *RoundHandler) GetReconciliationQueue(c *gin.Context) {
	bets, err := h.store.GetReconciliationQueue()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to read reconciliation queue",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"bets":    bets,
		"count":   len(bets),
	})
}

func rejectionStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrRoundCrashed),
		errors.Is(err, services.ErrBettingClosed),
		errors.Is(err, services.ErrRoundNotRunning):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
