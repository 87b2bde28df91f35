package services

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrPermanent wraps gateway failures that retrying cannot fix
// (rejected transaction, failed commit verification). Everything else
// is treated as transient.
var ErrPermanent = errors.New("permanent settlement error")

func Permanent(err error) error {
	return fmt.Errorf("%w: %v", ErrPermanent, err)
}

type RoundHandle struct {
	TxnHash string `json:"txn_hash"`
	// StartTime is the ledger's clock for the round start, epoch ms.
	StartTime int64 `json:"start_time"`
}

type SettlementResult struct {
	TxnHash string `json:"txn_hash"`
	// CrashMultiplier is the value the ledger settled the round with,
	// recomputed on its side from the revealed pair. A mismatch with
	// our derivation is a fairness violation.
	CrashMultiplier float64 `json:"crash_multiplier"`
}

type TxReceipt struct {
	TxnHash string `json:"txn_hash"`
}

// SettlementGateway abstracts the external settlement ledger. Calls
// may take seconds and fail independently of engine state.
type SettlementGateway interface {
	CommitRound(ctx context.Context, commitHash string) (*RoundHandle, error)
	RevealAndSettle(ctx context.Context, secret, salt string) (*SettlementResult, error)
	ExecuteCashOut(ctx context.Context, playerID string, multiplier float64) (*TxReceipt, error)
}

type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
	}
}

// retryingGateway wraps any SettlementGateway with bounded
// exponential backoff on transient errors.
type retryingGateway struct {
	inner  SettlementGateway
	policy RetryPolicy
}

func NewRetryingGateway(inner SettlementGateway, policy RetryPolicy) SettlementGateway {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &retryingGateway{inner: inner, policy: policy}
}

func (g *retryingGateway) CommitRound(ctx context.Context, commitHash string) (*RoundHandle, error) {
	var handle *RoundHandle
	err := g.retry(ctx, "commitRound", func() error {
		var err error
		handle, err = g.inner.CommitRound(ctx, commitHash)
		return err
	})
	return handle, err
}

func (g *retryingGateway) RevealAndSettle(ctx context.Context, secret, salt string) (*SettlementResult, error) {
	var result *SettlementResult
	err := g.retry(ctx, "revealAndSettle", func() error {
		var err error
		result, err = g.inner.RevealAndSettle(ctx, secret, salt)
		return err
	})
	return result, err
}

func (g *retryingGateway) ExecuteCashOut(ctx context.Context, playerID string, multiplier float64) (*TxReceipt, error) {
	var receipt *TxReceipt
	err := g.retry(ctx, "executeCashOut", func() error {
		var err error
		receipt, err = g.inner.ExecuteCashOut(ctx, playerID, multiplier)
		return err
	})
	return receipt, err
}

func (g *retryingGateway) retry(ctx context.Context, op string, call func() error) error {
	delay := g.policy.InitialDelay
	var err error

	for attempt := 1; attempt <= g.policy.MaxAttempts; attempt++ {
		err = call()
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrPermanent) {
			return err
		}
		if attempt == g.policy.MaxAttempts {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		delay *= 2
		if g.policy.MaxDelay > 0 && delay > g.policy.MaxDelay {
			delay = g.policy.MaxDelay
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", op, g.policy.MaxAttempts, err)
}
