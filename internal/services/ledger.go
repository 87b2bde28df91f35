package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"crash-rounds-backend/internal/models"
)

var (
	ErrBettingClosed    = errors.New("betting is closed for this round")
	ErrDuplicateBet     = errors.New("player already has a bet this round")
	ErrInvalidAmount    = errors.New("bet amount must be positive")
	ErrRoundNotRunning  = errors.New("round is not running")
	ErrRoundCrashed     = errors.New("round already crashed")
	ErrNoBet            = errors.New("player has no bet this round")
	ErrAlreadyCashedOut = errors.New("player already cashed out")
)

// PlayerLedger holds the bet and cash-out state for the single active
// round. One mutex guards every mutation and the crashed flag, so a
// cash-out can never be accepted after the crash tick flipped it.
type PlayerLedger struct {
	mu      sync.Mutex
	roundID string
	phase   models.RoundPhase
	crashed bool
	bets    map[string]*models.PlayerBet
	order   []string

	gateway     SettlementGateway
	broadcaster Broadcaster
	store       *RoundStore // optional, reconciliation + audit
	wg          sync.WaitGroup
}

func NewPlayerLedger(gateway SettlementGateway, broadcaster Broadcaster, store *RoundStore) *PlayerLedger {
	return &PlayerLedger{
		phase:       models.PhasePending,
		bets:        make(map[string]*models.PlayerBet),
		gateway:     gateway,
		broadcaster: broadcaster,
		store:       store,
	}
}

// SetPhase is called only by the scheduler, which owns all phase
// transitions for the active round.
func (pl *PlayerLedger) SetPhase(roundID string, phase models.RoundPhase) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	pl.roundID = roundID
	pl.phase = phase
}

// MarkCrashed flips the crashed flag. Every cash-out request that
// acquires the mutex afterwards is rejected, which is what makes the
// crash tick an atomic cutoff.
func (pl *PlayerLedger) MarkCrashed() {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	pl.crashed = true
	pl.phase = models.PhaseCrashed
}

func (pl *PlayerLedger) PlaceBet(playerID string, amount float64, coinType string) (*models.PlayerBet, error) {
	if coinType == "" {
		coinType = models.DefaultCoinType
	}

	pl.mu.Lock()
	if amount <= 0 {
		pl.mu.Unlock()
		return nil, ErrInvalidAmount
	}
	if pl.phase != models.PhasePending && pl.phase != models.PhaseCountdown {
		pl.mu.Unlock()
		return nil, ErrBettingClosed
	}
	if _, exists := pl.bets[playerID]; exists {
		pl.mu.Unlock()
		return nil, ErrDuplicateBet
	}

	bet := &models.PlayerBet{
		PlayerID:   playerID,
		RoundID:    pl.roundID,
		BetAmount:  amount,
		CoinType:   coinType,
		AcceptedAt: time.Now().UnixMilli(),
	}
	pl.bets[playerID] = bet
	pl.order = append(pl.order, playerID)
	pl.mu.Unlock()

	pl.broadcaster.BetConfirmed(models.BetConfirmedEvent{
		PlayerID:  playerID,
		BetAmount: amount,
		CoinType:  coinType,
	})

	return bet, nil
}

// RequestCashOut adjudicates a cash-out against the crash tick. The
// in-memory mark is applied synchronously so the caller gets an
// immediate answer; the settlement transfer runs on its own goroutine,
// keyed per player, and the confirmation broadcast waits for the
// gateway's acknowledgment.
func (pl *PlayerLedger) RequestCashOut(ctx context.Context, playerID string, currentMultiplier float64) (*models.CashOutResult, error) {
	pl.mu.Lock()
	if pl.phase != models.PhaseRunning {
		pl.mu.Unlock()
		return nil, ErrRoundNotRunning
	}
	if pl.crashed {
		pl.mu.Unlock()
		return nil, ErrRoundCrashed
	}
	bet, exists := pl.bets[playerID]
	if !exists {
		pl.mu.Unlock()
		return nil, ErrNoBet
	}
	if bet.CashedOut() {
		pl.mu.Unlock()
		return nil, ErrAlreadyCashedOut
	}

	bet.CashOutMultiplier = currentMultiplier
	payout := models.CalculatePayout(bet.BetAmount, currentMultiplier)
	roundID := pl.roundID
	pl.mu.Unlock()

	// The caller's request context dies with the HTTP response; the
	// settlement transfer must outlive it.
	pl.wg.Add(1)
	go pl.settleCashOut(context.WithoutCancel(ctx), roundID, playerID, currentMultiplier, payout)

	return &models.CashOutResult{
		PlayerID:   playerID,
		Multiplier: currentMultiplier,
		Payout:     payout,
	}, nil
}

func (pl *PlayerLedger) settleCashOut(ctx context.Context, roundID, playerID string, multiplier, payout float64) {
	defer pl.wg.Done()

	receipt, err := pl.gateway.ExecuteCashOut(ctx, playerID, multiplier)
	if err != nil {
		log.Printf("cash-out settlement failed for %s in %s: %v, queued for manual reconciliation", playerID, roundID, err)
		pl.markForReconciliation(roundID, playerID)
		return
	}

	pl.broadcaster.CashOutConfirmed(models.CashOutConfirmedEvent{
		PlayerID:   playerID,
		Multiplier: multiplier,
		Payout:     payout,
	})

	if pl.store != nil {
		if err := pl.store.SaveTransaction(&models.Transaction{
			ID:          receipt.TxnHash,
			PlayerID:    playerID,
			RoundID:     roundID,
			Type:        models.TransactionTypeCashOut,
			Amount:      payout,
			Multiplier:  multiplier,
			TxnHash:     receipt.TxnHash,
			Description: "cash-out settled",
			CreatedAt:   time.Now().UnixMilli(),
		}); err != nil {
			log.Printf("failed to record cash-out transaction for %s: %v", playerID, err)
		}
	}
}

// markForReconciliation flags a bet whose settlement failed after the
// in-memory cash-out was already accepted. It is never auto-reversed:
// an automatic reversal could double-pay or double-charge.
func (pl *PlayerLedger) markForReconciliation(roundID, playerID string) {
	pl.mu.Lock()
	bet, exists := pl.bets[playerID]
	var copied models.PlayerBet
	if exists && bet.RoundID == roundID {
		bet.NeedsReconciliation = true
		copied = *bet
	}
	pl.mu.Unlock()

	if exists && pl.store != nil {
		if err := pl.store.QueueReconciliation(&copied); err != nil {
			log.Printf("failed to queue reconciliation for %s: %v", playerID, err)
		}
	}
}

// Snapshot returns a point-in-time copy of every bet in acceptance
// order. No partially-applied cash-out is ever visible because the
// copy happens under the same mutex as mutations.
func (pl *PlayerLedger) Snapshot() []models.PlayerBet {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	snapshot := make([]models.PlayerBet, 0, len(pl.order))
	for _, playerID := range pl.order {
		snapshot = append(snapshot, *pl.bets[playerID])
	}
	return snapshot
}

// Clear wipes all bets. Called only by the scheduler when
// transitioning into the next round's PENDING.
func (pl *PlayerLedger) Clear() {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	pl.bets = make(map[string]*models.PlayerBet)
	pl.order = nil
	pl.crashed = false
	pl.phase = models.PhasePending
}

// Wait blocks until every in-flight cash-out settlement has finished,
// for shutdown and for deterministic tests.
func (pl *PlayerLedger) Wait() {
	pl.wg.Wait()
}
