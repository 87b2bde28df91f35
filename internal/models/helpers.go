package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const DefaultCoinType = "zAPT"

func GenerateRoundID() string {
	return fmt.Sprintf("round_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

// GenerateSecret returns 128 bits of hex entropy for a round's house
// secret or salt.
func GenerateSecret() (string, error) {
	bytes := make([]byte, 16)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate secret: %v", err)
	}
	return hex.EncodeToString(bytes), nil
}

func (br *BetRequest) Validate() error {
	if br.Amount <= 0 {
		return fmt.Errorf("bet amount must be positive")
	}
	if br.Amount > 10000 {
		return fmt.Errorf("maximum bet amount is 10000")
	}
	return nil
}

func CalculatePayout(betAmount, multiplier float64) float64 {
	return betAmount * multiplier
}
