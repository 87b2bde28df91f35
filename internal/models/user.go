package models

// Player is the read-only profile the user directory resolves for
// display. The round engine never mutates balances directly; all value
// transfer goes through the settlement gateway.
type Player struct {
	ID       string `json:"id" redis:"id"`
	Username string `json:"username" redis:"username"`

	Balance  float64 `json:"balance" redis:"balance"`
	CoinType string  `json:"coin_type" redis:"coin_type"`

	CreatedAt int64 `json:"created_at" redis:"created_at"`
}
