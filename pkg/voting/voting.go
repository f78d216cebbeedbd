// Package voting computes snapshot voting power and holds the request and
// response types of the voting service.
package voting

import (
	"encoding/json"
	"math/big"
	"time"

	"github.com/chainsafe/dao-governance/pkg/governance"
)

// Reason explains why a voter is not eligible.
type Reason string

const (
	ReasonNotStarted    Reason = "not started"
	ReasonPeriodEnded   Reason = "period ended"
	ReasonAlreadyVoted  Reason = "already voted"
	ReasonNoVotingPower Reason = "no voting power"
)

// Eligibility is the verdict of an eligibility check.
type Eligibility struct {
	Eligible      bool
	Reason        Reason
	VotingPower   *big.Int
	RemainingTime time.Duration
	SnapshotBlock uint64
}

// MarshalJSON encodes voting power as a decimal string and the remaining time in seconds.
func (e Eligibility) MarshalJSON() ([]byte, error) {
	power := "0"
	if e.VotingPower != nil {
		power = e.VotingPower.String()
	}
	return json.Marshal(struct {
		Eligible         bool   `json:"eligible"`
		Reason           Reason `json:"reason,omitempty"`
		VotingPower      string `json:"voting_power"`
		RemainingSeconds int64  `json:"remaining_seconds"`
		SnapshotBlock    uint64 `json:"snapshot_block"`
	}{
		Eligible:         e.Eligible,
		Reason:           e.Reason,
		VotingPower:      power,
		RemainingSeconds: int64(e.RemainingTime / time.Second),
		SnapshotBlock:    e.SnapshotBlock,
	})
}

// Ineligible returns a negative verdict.
func Ineligible(reason Reason) *Eligibility {
	return &Eligibility{Reason: reason, VotingPower: new(big.Int)}
}

// VoteRequest stages a vote. ProposalID is taken from the route.
type VoteRequest struct {
	ProposalID    *big.Int `json:"-"`
	Voter         string   `json:"voter" validate:"required,eth_addr"`
	Support       *uint8   `json:"support" validate:"required,lte=2"`
	Reason        string   `json:"reason,omitempty" validate:"max=1000"`
	KycCommitment string   `json:"kyc_commitment,omitempty" validate:"omitempty,len=66,hexadecimal"`
	ProofHash     string   `json:"proof_hash,omitempty" validate:"omitempty,len=66,hexadecimal"`
}

// ConfirmRequest reports the transaction that carried a staged vote.
type ConfirmRequest struct {
	TxHash string `json:"tx_hash" validate:"required,len=66,hexadecimal"`
}

// VoteView is the API representation of a vote.
type VoteView struct {
	ProposalID  string  `json:"proposal_id"`
	Voter       string  `json:"voter"`
	Support     uint8   `json:"support"`
	Weight      string  `json:"weight"`
	Reason      string  `json:"reason,omitempty"`
	Status      string  `json:"status"`
	TxHash      string  `json:"tx_hash,omitempty"`
	BlockNumber *uint64 `json:"block_number,omitempty"`
}

// NewVoteView converts v for API responses.
func NewVoteView(v *governance.Vote) *VoteView {
	weight := "0"
	if v.Weight != nil {
		weight = v.Weight.String()
	}
	return &VoteView{
		ProposalID:  v.ProposalID.String(),
		Voter:       v.Voter.Hex(),
		Support:     uint8(v.Support),
		Weight:      weight,
		Reason:      v.Reason,
		Status:      string(v.Status),
		TxHash:      v.TxHash,
		BlockNumber: v.BlockNumber,
	}
}

// VoteResponse carries the staged vote and the transaction to submit.
type VoteResponse struct {
	Vote        *VoteView            `json:"vote"`
	Transaction governance.TxRequest `json:"transaction"`
}

// TallyResponse is the tally of one proposal.
type TallyResponse struct {
	ProposalID string           `json:"proposal_id"`
	State      governance.State `json:"state"`
	Tally      governance.Tally `json:"tally"`
}
