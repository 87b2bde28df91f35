package models

type TransactionType string

const (
	TransactionTypeBet     TransactionType = "bet"
	TransactionTypeCashOut TransactionType = "cash_out"
	TransactionTypePayout  TransactionType = "payout"
)

// Transaction records the outcome of one settlement-gateway transfer,
// kept for audit and for the manual reconciliation queue.
type Transaction struct {
	ID          string          `json:"id" redis:"id"`
	PlayerID    string          `json:"player_id" redis:"player_id"`
	RoundID     string          `json:"round_id" redis:"round_id"`
	Type        TransactionType `json:"type" redis:"type"`
	Amount      float64         `json:"amount" redis:"amount"`
	Multiplier  float64         `json:"multiplier,omitempty" redis:"multiplier"`
	TxnHash     string          `json:"txn_hash,omitempty" redis:"txn_hash"`
	Description string          `json:"description" redis:"description"`
	CreatedAt   int64           `json:"created_at" redis:"created_at"`
}
