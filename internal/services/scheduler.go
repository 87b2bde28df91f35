package services

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"crash-rounds-backend/internal/models"
)

type SchedulerConfig struct {
	// Countdown is the betting window before the multiplier starts.
	Countdown time.Duration
	// Summary is the pause after a terminal round before the next
	// PENDING.
	Summary time.Duration
	// GrowthFactor is the per-second exponential factor of the
	// displayed multiplier curve; the crash delay is its log inverse.
	GrowthFactor float64
	// StartRetryDelay is the pause after an aborted round start.
	StartRetryDelay time.Duration
	// MaxConsecutiveFailures pauses round cycling once crossed.
	MaxConsecutiveFailures int
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Countdown:              20 * time.Second,
		Summary:                5 * time.Second,
		GrowthFactor:           1.06,
		StartRetryDelay:        2 * time.Second,
		MaxConsecutiveFailures: 5,
	}
}

// RoundScheduler drives the round lifecycle:
//
//	PENDING -> COUNTDOWN -> RUNNING -> CRASHED -> SETTLING -> COMPLETE/FAILED
//
// A single goroutine (Run) owns every transition, so at most one round
// is ever in a non-terminal phase and at most one timer is outstanding.
type RoundScheduler struct {
	cfg         SchedulerConfig
	fairness    *FairnessEngine
	ledger      *PlayerLedger
	gateway     SettlementGateway
	broadcaster Broadcaster
	store       *RoundStore // optional archive

	mu       sync.Mutex
	round    *models.Round
	failures int

	resume  chan struct{}
	alert   func(format string, args ...any)
	secrets func() (secret, salt string, err error)
}

func NewRoundScheduler(cfg SchedulerConfig, fairness *FairnessEngine, ledger *PlayerLedger,
	gateway SettlementGateway, broadcaster Broadcaster, store *RoundStore) *RoundScheduler {
	return &RoundScheduler{
		cfg:         cfg,
		fairness:    fairness,
		ledger:      ledger,
		gateway:     gateway,
		broadcaster: broadcaster,
		store:       store,
		resume:      make(chan struct{}, 1),
		alert: func(format string, args ...any) {
			log.Printf("ALERT: "+format, args...)
		},
		secrets: randomSecrets,
	}
}

func randomSecrets() (string, string, error) {
	secret, err := models.GenerateSecret()
	if err != nil {
		return "", "", err
	}
	salt, err := models.GenerateSecret()
	if err != nil {
		return "", "", err
	}
	return secret, salt, nil
}

// SetAlertFunc replaces the operator alert hook.
func (rs *RoundScheduler) SetAlertFunc(fn func(format string, args ...any)) {
	rs.alert = fn
}

// SetSecretSource replaces the secret generator for the rounds that
// follow. Must be called before Run.
func (rs *RoundScheduler) SetSecretSource(fn func() (secret, salt string, err error)) {
	rs.secrets = fn
}

// Run cycles rounds until ctx is cancelled. When consecutive failures
// cross the operational threshold, cycling pauses until Resume.
func (rs *RoundScheduler) Run(ctx context.Context) {
	for ctx.Err() == nil {
		if rs.cfg.MaxConsecutiveFailures > 0 && rs.consecutiveFailures() >= rs.cfg.MaxConsecutiveFailures {
			rs.alert("round cycling paused after %d consecutive failures, operator resume required", rs.consecutiveFailures())
			select {
			case <-rs.resume:
				rs.resetFailures()
			case <-ctx.Done():
				return
			}
		}

		rs.runRound(ctx)
	}
}

// Resume restarts cycling after an operational pause.
func (rs *RoundScheduler) Resume() {
	select {
	case rs.resume <- struct{}{}:
	default:
	}
}

func (rs *RoundScheduler) runRound(ctx context.Context) {
	round, err := rs.newRound()
	if err != nil {
		log.Printf("failed to create round: %v", err)
		rs.recordFailure()
		rs.wait(ctx, rs.cfg.StartRetryDelay)
		return
	}

	rs.setRound(round)
	rs.ledger.Clear()
	rs.ledger.SetPhase(round.ID, models.PhasePending)

	// Shutdown must not abandon an in-flight ledger commit, so the
	// call survives ctx cancellation and finishes or fails on its own.
	handle, err := rs.gateway.CommitRound(context.WithoutCancel(ctx), round.CommitHash)
	if err != nil {
		// Aborted start: no broadcast was emitted, the round is
		// discarded and a fresh one is attempted after a short delay.
		log.Printf("commitRound failed, discarding round %s: %v", round.ID, err)
		rs.recordFailure()
		rs.clearRound()
		rs.wait(ctx, rs.cfg.StartRetryDelay)
		return
	}
	rs.mu.Lock()
	round.LedgerHandle = handle.TxnHash
	rs.mu.Unlock()

	rs.transition(round, models.PhaseCountdown)
	rs.broadcaster.RoundCommitted(models.RoundCommittedEvent{
		RoundID:    round.ID,
		CommitHash: round.CommitHash,
	})

	if !rs.wait(ctx, rs.cfg.Countdown) {
		return
	}

	rs.mu.Lock()
	round.StartTime = time.Now().UnixMilli()
	rs.mu.Unlock()
	rs.transition(round, models.PhaseRunning)
	rs.broadcaster.RoundStarted(models.RoundStartedEvent{
		RoundID:   round.ID,
		StartTime: round.StartTime,
	})

	// Armed once; the crash delay is never recomputed.
	if !rs.wait(ctx, crashDelay(round.CrashMultiplier, rs.cfg.GrowthFactor)) {
		return
	}

	// Flip the crashed flag before anything else so in-flight
	// cash-outs are rejected from this instant on.
	rs.ledger.MarkCrashed()
	rs.transition(round, models.PhaseCrashed)
	rs.broadcaster.RoundCrashed(models.RoundCrashedEvent{
		RoundID:         round.ID,
		CrashMultiplier: round.CrashMultiplier,
		Secret:          round.Secret,
		Salt:            round.Salt,
	})

	rs.transition(round, models.PhaseSettling)
	rs.settle(ctx, round)

	rs.archive(round)
	rs.wait(ctx, rs.cfg.Summary)
}

func (rs *RoundScheduler) newRound() (*models.Round, error) {
	secret, salt, err := rs.secrets()
	if err != nil {
		return nil, err
	}

	return &models.Round{
		ID:              models.GenerateRoundID(),
		Phase:           models.PhasePending,
		CrashMultiplier: rs.fairness.DeriveCrashMultiplier(secret, salt),
		CommitHash:      rs.fairness.CommitHash(secret, salt),
		Secret:          secret,
		Salt:            salt,
		CreatedAt:       time.Now().UnixMilli(),
	}, nil
}

// settle is the single serialization point at round end: the next
// round cannot start until revealAndSettle resolved one way or the
// other.
func (rs *RoundScheduler) settle(ctx context.Context, round *models.Round) {
	result, err := rs.gateway.RevealAndSettle(context.WithoutCancel(ctx), round.Secret, round.Salt)
	if err != nil {
		rs.failRound(round, "settlement failed")
		rs.alert("revealAndSettle failed for round %s: %v", round.ID, err)
		return
	}

	if !rs.fairness.VerifyRoundResult(round.Secret, round.Salt, result.CrashMultiplier) {
		// The ledger settled with a multiplier our derivation does not
		// reproduce. The fairness guarantee may be violated, so this
		// is surfaced loudly and never retried.
		rs.failRound(round, "settlement multiplier mismatch")
		rs.alert("fairness violation: round %s settled at %.2f, derived %.2f",
			round.ID, result.CrashMultiplier, round.CrashMultiplier)
		return
	}

	rs.mu.Lock()
	round.EndedAt = time.Now().UnixMilli()
	rs.mu.Unlock()
	rs.transition(round, models.PhaseComplete)
	rs.broadcaster.RoundSettled(models.RoundSettledEvent{RoundID: round.ID})
	rs.resetFailures()
}

func (rs *RoundScheduler) failRound(round *models.Round, reason string) {
	rs.mu.Lock()
	round.EndedAt = time.Now().UnixMilli()
	rs.mu.Unlock()
	rs.transition(round, models.PhaseFailed)
	rs.broadcaster.RoundFailed(models.RoundFailedEvent{RoundID: round.ID, Reason: reason})
	rs.recordFailure()
}

func (rs *RoundScheduler) archive(round *models.Round) {
	if rs.store == nil {
		return
	}
	if err := rs.store.ArchiveRound(round, rs.ledger.Snapshot()); err != nil {
		log.Printf("failed to archive round %s: %v", round.ID, err)
	}
}

func (rs *RoundScheduler) transition(round *models.Round, phase models.RoundPhase) {
	rs.mu.Lock()
	round.Phase = phase
	rs.mu.Unlock()

	switch phase {
	case models.PhaseCrashed:
		// ledger flag already flipped by MarkCrashed
	default:
		rs.ledger.SetPhase(round.ID, phase)
	}
}

// wait arms a single cancellable timer. Returning false means ctx was
// cancelled and the round cycle is shutting down.
func (rs *RoundScheduler) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// CurrentRound returns a copy of the active round with the secret,
// salt and crash multiplier redacted until the crash tick has fired.
func (rs *RoundScheduler) CurrentRound() *models.Round {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.round == nil {
		return nil
	}

	copied := *rs.round
	switch copied.Phase {
	case models.PhasePending, models.PhaseCountdown, models.PhaseRunning:
		copied.Secret = ""
		copied.Salt = ""
		copied.CrashMultiplier = 0
	}
	return &copied
}

// CurrentMultiplier is the live readout of the display curve, 1.00
// outside RUNNING.
func (rs *RoundScheduler) CurrentMultiplier() float64 {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.round == nil || rs.round.Phase != models.PhaseRunning {
		return 1.0
	}

	elapsed := float64(time.Now().UnixMilli()-rs.round.StartTime) / 1000.0
	if elapsed <= 0 {
		return 1.0
	}
	return math.Pow(rs.cfg.GrowthFactor, elapsed)
}

func (rs *RoundScheduler) setRound(round *models.Round) {
	rs.mu.Lock()
	rs.round = round
	rs.mu.Unlock()
}

func (rs *RoundScheduler) clearRound() {
	rs.mu.Lock()
	rs.round = nil
	rs.mu.Unlock()
}

func (rs *RoundScheduler) recordFailure() {
	rs.mu.Lock()
	rs.failures++
	rs.mu.Unlock()
}

func (rs *RoundScheduler) resetFailures() {
	rs.mu.Lock()
	rs.failures = 0
	rs.mu.Unlock()
}

func (rs *RoundScheduler) consecutiveFailures() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.failures
}

// crashDelay inverts the growth curve: the instant the displayed
// multiplier reaches the crash multiplier. Zero for instant-crash
// rounds.
func crashDelay(multiplier, growth float64) time.Duration {
	if multiplier <= 1.0 {
		return 0
	}
	seconds := math.Log(multiplier) / math.Log(growth)
	return time.Duration(seconds * float64(time.Second))
}
