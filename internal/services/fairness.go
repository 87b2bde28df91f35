package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"math/big"

	"golang.org/x/crypto/sha3"
)

const (
	// HouseEdge is also the exact instant-crash probability: hash
	// values whose curve output would land below 1.00x return 0.
	HouseEdge = 0.01

	// MaxCrashMultiplier caps the curve output.
	MaxCrashMultiplier = 1000.0

	// crashPointBits is the digest prefix width interpreted as the
	// uniform random integer r (13 hex characters).
	crashPointBits = 52
)

// FairnessEngine derives and verifies crash multipliers. Pure
// functions of the (secret, salt) pair; no state, no I/O.
type FairnessEngine struct{}

func NewFairnessEngine() *FairnessEngine {
	return &FairnessEngine{}
}

// CommitHash returns the hex SHA3-256 of secret||salt, published
// before the round starts so the derivation is later verifiable.
func (fe *FairnessEngine) CommitHash(secret, salt string) string {
	hash := sha3.Sum256([]byte(secret + salt))
	return hex.EncodeToString(hash[:])
}

// DeriveCrashMultiplier maps a (secret, salt) pair to a crash
// multiplier. HMAC-SHA256 keyed on the secret over the salt, first 52
// bits of the digest as r, then
//
//	multiplier = floor((1-e) * 2^52 / (r+1) * 100) / 100
//
// Outputs below 1.00x collapse to 0, an instant-crash round, which
// happens with probability exactly HouseEdge.
func (fe *FairnessEngine) DeriveCrashMultiplier(secret, salt string) float64 {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(salt))
	digest := hex.EncodeToString(h.Sum(nil))

	prefix := digest[:crashPointBits/4]
	n := new(big.Int)
	n.SetString(prefix, 16)
	r := float64(n.Int64())

	scale := math.Pow(2, crashPointBits)
	multiplier := math.Floor((1-HouseEdge)*scale/(r+1)*100) / 100

	if multiplier < 1.0 {
		return 0
	}
	if multiplier > MaxCrashMultiplier {
		return MaxCrashMultiplier
	}
	return multiplier
}

// VerifyReveal checks a revealed (secret, salt) pair against the
// pre-committed hash.
func (fe *FairnessEngine) VerifyReveal(commitHash, secret, salt string) bool {
	return fe.CommitHash(secret, salt) == commitHash
}

// VerifyRoundResult recomputes the multiplier from a revealed pair and
// compares it to the value a round settled with.
func (fe *FairnessEngine) VerifyRoundResult(secret, salt string, claimed float64) bool {
	return math.Abs(fe.DeriveCrashMultiplier(secret, salt)-claimed) < 0.005
}
