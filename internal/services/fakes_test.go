package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"crash-rounds-backend/internal/models"
	"crash-rounds-backend/internal/services"
)

// fakeGateway is an in-memory settlement ledger with scriptable
// failures. It derives settlement multipliers with the real fairness
// engine so reveal verification passes unless told otherwise.
type fakeGateway struct {
	mu sync.Mutex

	commitCalls  int
	settleCalls  int
	cashOutCalls int

	failCommits  int // fail this many CommitRound calls before succeeding
	failSettles  int
	failCashOuts int

	cashOutErr   error   // overrides failCashOuts when set
	settleSkew   float64 // added to the settled multiplier
	slowCashOut  time.Duration
	fairness     *services.FairnessEngine
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{fairness: services.NewFairnessEngine()}
}

func (g *fakeGateway) CommitRound(ctx context.Context, commitHash string) (*services.RoundHandle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.commitCalls++
	if g.failCommits > 0 {
		g.failCommits--
		return nil, errors.New("ledger unavailable")
	}
	return &services.RoundHandle{
		TxnHash:   "txn_commit",
		StartTime: time.Now().UnixMilli(),
	}, nil
}

func (g *fakeGateway) RevealAndSettle(ctx context.Context, secret, salt string) (*services.SettlementResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.settleCalls++
	if g.failSettles > 0 {
		g.failSettles--
		return nil, errors.New("ledger unavailable")
	}
	return &services.SettlementResult{
		TxnHash:         "txn_settle",
		CrashMultiplier: g.fairness.DeriveCrashMultiplier(secret, salt) + g.settleSkew,
	}, nil
}

func (g *fakeGateway) ExecuteCashOut(ctx context.Context, playerID string, multiplier float64) (*services.TxReceipt, error) {
	if g.slowCashOut > 0 {
		time.Sleep(g.slowCashOut)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cashOutCalls++
	if g.cashOutErr != nil {
		return nil, g.cashOutErr
	}
	if g.failCashOuts > 0 {
		g.failCashOuts--
		return nil, errors.New("ledger unavailable")
	}
	return &services.TxReceipt{TxnHash: "txn_cashout"}, nil
}

func (g *fakeGateway) counts() (commits, settles, cashOuts int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.commitCalls, g.settleCalls, g.cashOutCalls
}

type recordedEvent struct {
	Type    string
	At      time.Time
	Payload interface{}
}

// fakeBroadcaster records every event with its emission timestamp and
// signals waiters.
type fakeBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
	ch     chan recordedEvent
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{ch: make(chan recordedEvent, 256)}
}

func (b *fakeBroadcaster) record(eventType string, payload interface{}) {
	ev := recordedEvent{Type: eventType, At: time.Now(), Payload: payload}
	b.mu.Lock()
	b.events = append(b.events, ev)
	b.mu.Unlock()
	select {
	case b.ch <- ev:
	default:
	}
}

func (b *fakeBroadcaster) RoundCommitted(e models.RoundCommittedEvent) {
	b.record(models.EventRoundCommitted, e)
}
func (b *fakeBroadcaster) RoundStarted(e models.RoundStartedEvent) {
	b.record(models.EventRoundStarted, e)
}
func (b *fakeBroadcaster) BetConfirmed(e models.BetConfirmedEvent) {
	b.record(models.EventBetConfirmed, e)
}
func (b *fakeBroadcaster) CashOutConfirmed(e models.CashOutConfirmedEvent) {
	b.record(models.EventCashOutConfirmed, e)
}
func (b *fakeBroadcaster) RoundCrashed(e models.RoundCrashedEvent) {
	b.record(models.EventRoundCrashed, e)
}
func (b *fakeBroadcaster) RoundSettled(e models.RoundSettledEvent) {
	b.record(models.EventRoundSettled, e)
}
func (b *fakeBroadcaster) RoundFailed(e models.RoundFailedEvent) {
	b.record(models.EventRoundFailed, e)
}

// waitFor blocks until an event of the given type arrives.
func (b *fakeBroadcaster) waitFor(t *testing.T, eventType string, timeout time.Duration) recordedEvent {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-b.ch:
			if ev.Type == eventType {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", eventType)
			return recordedEvent{}
		}
	}
}

func (b *fakeBroadcaster) snapshot() []recordedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]recordedEvent, len(b.events))
	copy(out, b.events)
	return out
}

func (b *fakeBroadcaster) countOf(eventType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, ev := range b.events {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}
