package models_test

import (
	"testing"

	"crash-rounds-backend/internal/models"
)

func TestRoundPhases(t *testing.T) {
	nonTerminal := []models.RoundPhase{
		models.PhasePending, models.PhaseCountdown, models.PhaseRunning,
		models.PhaseCrashed, models.PhaseSettling,
	}
	for _, phase := range nonTerminal {
		if phase.Terminal() {
			t.Errorf("%s should not be terminal", phase)
		}
	}

	if !models.PhaseComplete.Terminal() || !models.PhaseFailed.Terminal() {
		t.Error("COMPLETE and FAILED are the terminal phases")
	}
}

func TestBetRequestValidation(t *testing.T) {
	valid := &models.BetRequest{Amount: 10}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid bet should pass: %v", err)
	}

	for _, amount := range []float64{0, -1, 10001} {
		bad := &models.BetRequest{Amount: amount}
		if err := bad.Validate(); err == nil {
			t.Errorf("amount %.2f should fail validation", amount)
		}
	}
}

func TestHelpers(t *testing.T) {
	if models.GenerateRoundID() == "" {
		t.Error("round ID should not be empty")
	}
	if models.GenerateRoundID() == models.GenerateRoundID() {
		t.Error("round IDs should be unique")
	}

	secret, err := models.GenerateSecret()
	if err != nil {
		t.Fatalf("failed to generate secret: %v", err)
	}
	if len(secret) != 32 {
		t.Errorf("secret should be 32 hex chars, got %d", len(secret))
	}

	if payout := models.CalculatePayout(10, 2.0); payout != 20 {
		t.Errorf("expected payout 20, got %.2f", payout)
	}
}

func TestPlayerBetCashedOut(t *testing.T) {
	bet := &models.PlayerBet{PlayerID: "player_1", BetAmount: 10}
	if bet.CashedOut() {
		t.Error("fresh bet should not be cashed out")
	}

	bet.CashOutMultiplier = 2.0
	if !bet.CashedOut() {
		t.Error("bet with a multiplier set is cashed out")
	}
}
