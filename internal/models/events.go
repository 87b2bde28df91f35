package models

// Broadcast event names, one per round-lifecycle or ledger action.
// Payload shapes are fixed so viewers can decode without negotiation.
const (
	EventRoundCommitted   = "ROUND_COMMITTED"
	EventRoundStarted     = "ROUND_STARTED"
	EventBetConfirmed     = "BET_CONFIRMED"
	EventCashOutConfirmed = "CASH_OUT_CONFIRMED"
	EventRoundCrashed     = "ROUND_CRASHED"
	EventRoundSettled     = "ROUND_SETTLED"
	EventRoundFailed      = "ROUND_FAILED"
)

type RoundCommittedEvent struct {
	RoundID    string `json:"round_id"`
	CommitHash string `json:"commit_hash"`
}

// RoundStartedEvent deliberately omits the crash multiplier; it is
// disclosed only by RoundCrashedEvent after the tick fires.
type RoundStartedEvent struct {
	RoundID   string `json:"round_id"`
	StartTime int64  `json:"start_time"`
}

type BetConfirmedEvent struct {
	PlayerID  string  `json:"player_id"`
	BetAmount float64 `json:"bet_amount"`
	CoinType  string  `json:"coin_type"`
}

type CashOutConfirmedEvent struct {
	PlayerID   string  `json:"player_id"`
	Multiplier float64 `json:"multiplier"`
	Payout     float64 `json:"payout"`
}

type RoundCrashedEvent struct {
	RoundID         string  `json:"round_id"`
	CrashMultiplier float64 `json:"crash_multiplier"`
	Secret          string  `json:"secret"`
	Salt            string  `json:"salt"`
}

type RoundSettledEvent struct {
	RoundID string `json:"round_id"`
}

type RoundFailedEvent struct {
	RoundID string `json:"round_id"`
	Reason  string `json:"reason,omitempty"`
}
