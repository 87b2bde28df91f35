package models

type PlayerBet struct {
	PlayerID  string  `json:"player_id" redis:"player_id"`
	RoundID   string  `json:"round_id" redis:"round_id"`
	BetAmount float64 `json:"bet_amount" redis:"bet_amount"`
	CoinType  string  `json:"coin_type" redis:"coin_type"`

	// CashOutMultiplier is 0 until the player cashes out; once set it
	// is immutable for the round.
	CashOutMultiplier float64 `json:"cash_out_multiplier" redis:"cash_out_multiplier"`

	// NeedsReconciliation is set when the in-memory cash-out was
	// accepted but its settlement transaction later failed. Such bets
	// are handed to an operator, never auto-reversed.
	NeedsReconciliation bool `json:"needs_reconciliation,omitempty" redis:"needs_reconciliation"`

	AcceptedAt int64 `json:"accepted_at" redis:"accepted_at"`
}

func (b *PlayerBet) CashedOut() bool {
	return b.CashOutMultiplier > 0
}

type BetRequest struct {
	Amount   float64 `json:"amount" binding:"required"`
	CoinType string  `json:"coin_type"`
}

type CashOutResult struct {
	PlayerID   string  `json:"player_id"`
	Multiplier float64 `json:"multiplier"`
	Payout     float64 `json:"payout"`
}

type VerifyRequest struct {
	CommitHash      string  `json:"commit_hash" binding:"required"`
	Secret          string  `json:"secret" binding:"required"`
	Salt            string  `json:"salt" binding:"required"`
	CrashMultiplier float64 `json:"crash_multiplier"`
}
