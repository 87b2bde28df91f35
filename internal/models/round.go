package models

type RoundPhase string

const (
	PhasePending   RoundPhase = "PENDING"
	PhaseCountdown RoundPhase = "COUNTDOWN"
	PhaseRunning   RoundPhase = "RUNNING"
	PhaseCrashed   RoundPhase = "CRASHED"
	PhaseSettling  RoundPhase = "SETTLING"
	PhaseComplete  RoundPhase = "COMPLETE"
	PhaseFailed    RoundPhase = "FAILED"
)

// Terminal reports whether the phase ends a round's lifecycle.
func (p RoundPhase) Terminal() bool {
	return p == PhaseComplete || p == PhaseFailed
}

type Round struct {
	ID    string     `json:"id" redis:"id"`
	Phase RoundPhase `json:"phase" redis:"phase"`

	// StartTime is the epoch millisecond at which the multiplier
	// starts climbing from 1.00x. Zero until RUNNING.
	StartTime int64 `json:"start_time" redis:"start_time"`

	// CrashMultiplier is fixed at round creation but withheld from
	// clients and the ledger until the crash tick fires. 0 means an
	// instant-crash round.
	CrashMultiplier float64 `json:"crash_multiplier" redis:"crash_multiplier"`

	CommitHash string `json:"commit_hash" redis:"commit_hash"`

	// Secret and Salt are disclosed only after the crash tick so any
	// observer can recompute CrashMultiplier against CommitHash.
	Secret string `json:"secret,omitempty" redis:"secret"`
	Salt   string `json:"salt,omitempty" redis:"salt"`

	LedgerHandle string `json:"ledger_handle,omitempty" redis:"ledger_handle"`

	CreatedAt int64 `json:"created_at" redis:"created_at"`
	EndedAt   int64 `json:"ended_at" redis:"ended_at"`
}
