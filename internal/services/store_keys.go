package services

import "time"

const (
	KeyRound           = "round:%s"
	KeyRoundBets       = "round:%s:bets"
	KeyRoundHistory    = "rounds:history"
	KeyTransaction     = "transaction:%s"
	KeyReconciliation  = "reconciliation:queue"
	KeyPlayer          = "player:%s"
	KeyRateLimit       = "ratelimit:%s:%s"

	TTLRound       = 7 * 24 * time.Hour
	TTLTransaction = 30 * 24 * time.Hour

	// History keeps the last 100 rounds for the lobby view.
	RoundHistoryDepth = 100

	DefaultRateLimitBets     = 30 // per minute
	DefaultRateLimitCashouts = 60 // per minute
)
