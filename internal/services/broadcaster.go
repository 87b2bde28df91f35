package services

import "crash-rounds-backend/internal/models"

// Broadcaster is the publish side of the viewer transport. Delivery is
// best-effort; implementations must preserve emission order per
// channel.
type Broadcaster interface {
	RoundCommitted(models.RoundCommittedEvent)
	RoundStarted(models.RoundStartedEvent)
	BetConfirmed(models.BetConfirmedEvent)
	CashOutConfirmed(models.CashOutConfirmedEvent)
	RoundCrashed(models.RoundCrashedEvent)
	RoundSettled(models.RoundSettledEvent)
	RoundFailed(models.RoundFailedEvent)
}

// UserDirectory resolves a player to their profile for display. The
// round engine never writes through this interface.
type UserDirectory interface {
	GetPlayer(playerID string) (*models.Player, error)
}
