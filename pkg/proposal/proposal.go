// Package proposal holds the request and response types of the proposal service.
package proposal

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/chainsafe/dao-governance/pkg/governance"
)

// Pagination bounds for proposal listings.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	MaxPage      = 1_000_000
)

// CreateProposalRequest describes a proposal to be submitted on chain. Target,
// value and call data are only set for executable proposals.
type CreateProposalRequest struct {
	Title         string `json:"title" validate:"required,max=200"`
	Description   string `json:"description" validate:"required,max=10000"`
	Target        string `json:"target,omitempty" validate:"omitempty,eth_addr"`
	Value         string `json:"value,omitempty" validate:"omitempty,numeric"`
	CallData      string `json:"call_data,omitempty" validate:"omitempty,hexadecimal"`
	KycCommitment string `json:"kyc_commitment,omitempty" validate:"omitempty,len=66,hexadecimal"`
	ProofHash     string `json:"proof_hash,omitempty" validate:"omitempty,len=66,hexadecimal"`
}

// Executable reports whether the request carries an action.
func (r *CreateProposalRequest) Executable() bool {
	return r.Target != "" || r.CallData != "" || (r.Value != "" && r.Value != "0")
}

// Metadata is the JSON document pinned to IPFS for every new proposal.
type Metadata struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Proposer    string    `json:"proposer"`
	Target      string    `json:"target,omitempty"`
	Value       string    `json:"value,omitempty"`
	CallData    string    `json:"call_data,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateProposalResponse carries the pinned metadata reference and the
// transaction the proposer has to submit.
type CreateProposalResponse struct {
	CID         string               `json:"cid"`
	MetadataURL string               `json:"metadata_url"`
	Transaction governance.TxRequest `json:"transaction"`
}

// ValidationResult is returned by the dry-run endpoint.
type ValidationResult struct {
	Valid       bool   `json:"valid"`
	VotingPower string `json:"voting_power"`
	Threshold   string `json:"threshold"`
}

// ListFilter selects and pages proposals. Zero page and limit use the defaults.
type ListFilter struct {
	Status   string `json:"status,omitempty"`
	Proposer string `json:"proposer,omitempty" validate:"omitempty,eth_addr"`
	Page     int    `json:"page,omitempty" validate:"omitempty,min=1,max=1000000"`
	Limit    int    `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
}

// View is the API representation of a proposal with its derived state.
type View struct {
	ID             string           `json:"id"`
	Proposer       string           `json:"proposer"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	Target         string           `json:"target,omitempty"`
	Value          string           `json:"value,omitempty"`
	CallData       string           `json:"call_data,omitempty"`
	MetadataCID    string           `json:"metadata_cid,omitempty"`
	SnapshotBlock  uint64           `json:"snapshot_block"`
	StartTime      time.Time        `json:"start_time"`
	EndTime        time.Time        `json:"end_time"`
	State          governance.State `json:"state"`
	Tally          governance.Tally `json:"tally"`
	ExecutedTxHash string           `json:"executed_tx_hash,omitempty"`
	ExecutedAt     *time.Time       `json:"executed_at,omitempty"`
	CancelledAt    *time.Time       `json:"cancelled_at,omitempty"`
	CreatedTxHash  string           `json:"created_tx_hash"`
	CreatedBlock   uint64           `json:"created_block"`
	CreatedAt      time.Time        `json:"created_at"`
}

// NewView converts p for API responses.
func NewView(p *governance.Proposal, state governance.State, quorum *big.Int) *View {
	v := &View{
		ID:             p.ID.String(),
		Proposer:       p.Proposer.Hex(),
		Title:          p.Title,
		Description:    p.Description,
		MetadataCID:    p.MetadataCID,
		SnapshotBlock:  p.SnapshotBlock,
		StartTime:      p.StartTime,
		EndTime:        p.EndTime,
		State:          state,
		Tally:          governance.NewTally(p, quorum),
		ExecutedTxHash: p.ExecutedTxHash,
		ExecutedAt:     p.ExecutedAt,
		CancelledAt:    p.CancelledAt,
		CreatedTxHash:  p.CreatedTxHash,
		CreatedBlock:   p.CreatedBlock,
		CreatedAt:      p.CreatedAt,
	}
	if p.Target != nil {
		v.Target = p.Target.Hex()
	}
	if p.Value != nil && p.Value.Sign() > 0 {
		v.Value = p.Value.String()
	}
	if len(p.CallData) > 0 {
		v.CallData = hexutil.Encode(p.CallData)
	}
	return v
}

// Page is one page of a proposal listing.
type Page struct {
	Items      []*View `json:"items"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalPages int     `json:"total_pages"`
}
