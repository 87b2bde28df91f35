package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"crash-rounds-backend/internal/services"
)

func testRetryPolicy(attempts int) services.RetryPolicy {
	return services.RetryPolicy{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	}
}

func TestRetryRecoversFromTransientFailures(t *testing.T) {
	inner := newFakeGateway()
	inner.failCommits = 2
	gateway := services.NewRetryingGateway(inner, testRetryPolicy(3))

	handle, err := gateway.CommitRound(context.Background(), "deadbeef")
	if err != nil {
		t.Fatalf("expected recovery on third attempt: %v", err)
	}
	if handle == nil || handle.TxnHash == "" {
		t.Error("expected a round handle")
	}

	if commits, _, _ := inner.counts(); commits != 3 {
		t.Errorf("expected 3 commit attempts, got %d", commits)
	}
}

func TestRetryExhaustion(t *testing.T) {
	inner := newFakeGateway()
	inner.failSettles = 10
	gateway := services.NewRetryingGateway(inner, testRetryPolicy(3))

	_, err := gateway.RevealAndSettle(context.Background(), "secret", "salt")
	if err == nil {
		t.Fatal("expected exhaustion error")
	}
	if !strings.Contains(err.Error(), "3 attempts") {
		t.Errorf("error should mention the attempt budget: %v", err)
	}

	if _, settles, _ := inner.counts(); settles != 3 {
		t.Errorf("expected exactly 3 settle attempts, got %d", settles)
	}
}

// Callers inspect the cause of an exhausted retry with errors.Is, so
// the wrapper must keep the last failure in the chain.
func TestRetryExhaustionPreservesCause(t *testing.T) {
	cause := errors.New("ledger maintenance window")
	inner := newFakeGateway()
	inner.cashOutErr = cause
	gateway := services.NewRetryingGateway(inner, testRetryPolicy(3))

	_, err := gateway.ExecuteCashOut(context.Background(), "player_1", 2.0)
	if err == nil {
		t.Fatal("expected exhaustion error")
	}
	if !errors.Is(err, cause) {
		t.Errorf("exhaustion error should wrap the last failure, got %v", err)
	}
	if errors.Is(err, services.ErrPermanent) {
		t.Errorf("a transient exhaustion must not read as permanent: %v", err)
	}
	if _, _, cashOuts := inner.counts(); cashOuts != 3 {
		t.Errorf("expected the full attempt budget, got %d attempts", cashOuts)
	}
}

func TestPermanentErrorShortCircuits(t *testing.T) {
	inner := newFakeGateway()
	inner.cashOutErr = services.Permanent(errors.New("transaction rejected"))
	gateway := services.NewRetryingGateway(inner, testRetryPolicy(3))

	_, err := gateway.ExecuteCashOut(context.Background(), "player_1", 2.0)
	if !errors.Is(err, services.ErrPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}

	if _, _, cashOuts := inner.counts(); cashOuts != 1 {
		t.Errorf("permanent errors must not be retried, got %d attempts", cashOuts)
	}
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	inner := newFakeGateway()
	inner.failCommits = 10
	gateway := services.NewRetryingGateway(inner, services.RetryPolicy{
		MaxAttempts:  5,
		InitialDelay: time.Hour, // backoff should never elapse
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := gateway.CommitRound(ctx, "deadbeef")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if commits, _, _ := inner.counts(); commits != 1 {
		t.Errorf("expected a single attempt before cancellation, got %d", commits)
	}
}
