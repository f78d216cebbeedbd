package governance

import (
	"fmt"
	"math/big"
	"strings"
	"time"
)

// State is the lifecycle state of a proposal. It is derived on read and never
// stored, except for the executed and cancelled flags which come from events.
type State string

const (
	StatePending   State = "PENDING"
	StateActive    State = "ACTIVE"
	StateCancelled State = "CANCELLED"
	StateDefeated  State = "DEFEATED"
	StateSucceeded State = "SUCCEEDED"
	StateQueued    State = "QUEUED"
	StateExpired   State = "EXPIRED"
	StateExecuted  State = "EXECUTED"
)

var allStates = []State{
	StatePending, StateActive, StateCancelled, StateDefeated,
	StateSucceeded, StateQueued, StateExpired, StateExecuted,
}

// ParseState parses a state name case-insensitively.
func ParseState(s string) (State, error) {
	for _, st := range allStates {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown proposal state %q", s)
}

// Rules are the governance parameters state derivation depends on.
type Rules struct {
	// Quorum is the minimum total vote weight for a binding outcome.
	Quorum         *big.Int
	ExecutionDelay time.Duration
	GracePeriod    time.Duration
}

// DeriveState computes the state of p at now. Executed and cancelled are
// sticky and win over any time based state.
func DeriveState(p *Proposal, now time.Time, rules Rules) State {
	switch {
	case p.Executed:
		return StateExecuted
	case p.Cancelled:
		return StateCancelled
	case now.Before(p.StartTime):
		return StatePending
	case now.Before(p.EndTime):
		return StateActive
	}

	if !Passed(p, rules.Quorum) {
		return StateDefeated
	}

	if rules.ExecutionDelay > 0 && now.Before(p.EndTime.Add(rules.ExecutionDelay)) {
		return StateQueued
	}
	if rules.GracePeriod > 0 && !now.Before(p.EndTime.Add(rules.ExecutionDelay+rules.GracePeriod)) {
		return StateExpired
	}
	return StateSucceeded
}

// Passed reports whether quorum is met and for strictly exceeds against.
func Passed(p *Proposal, quorum *big.Int) bool {
	return QuorumReached(p.TotalVotes(), quorum) && cmp(p.ForVotes, p.AgainstVotes) > 0
}

// QuorumReached reports total >= quorum. A nil quorum is treated as zero.
func QuorumReached(total, quorum *big.Int) bool {
	if quorum == nil {
		return true
	}
	return total.Cmp(quorum) >= 0
}

func cmp(a, b *big.Int) int {
	if a == nil {
		a = new(big.Int)
	}
	if b == nil {
		b = new(big.Int)
	}
	return a.Cmp(b)
}

// NewRules builds Rules from a decimal quorum string.
func NewRules(quorum string, executionDelay, gracePeriod time.Duration) (Rules, error) {
	q, err := ParseAmount(quorum)
	if err != nil {
		return Rules{}, fmt.Errorf("invalid quorum: %w", err)
	}
	return Rules{Quorum: q, ExecutionDelay: executionDelay, GracePeriod: gracePeriod}, nil
}

// ParseAmount parses a non-negative decimal integer.
func ParseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, fmt.Errorf("%q is not a decimal integer", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%q is negative", s)
	}
	return v, nil
}
