package indexer

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chainsafe/dao-governance/pkg/ethereum/contracts"
	"github.com/chainsafe/dao-governance/pkg/governance"
)

// Event is a decoded chain log ready to be applied by the pipeline.
type Event interface {
	// Type is the name of the contract event the value was decoded from.
	Type() string
	Block() uint64
	Timestamp() time.Time
}

// ProposalCreated carries a newly observed proposal.
type ProposalCreated struct {
	Proposal *governance.Proposal
}

func (e *ProposalCreated) Type() string         { return contracts.EventProposalCreated }
func (e *ProposalCreated) Block() uint64        { return e.Proposal.CreatedBlock }
func (e *ProposalCreated) Timestamp() time.Time { return e.Proposal.CreatedAt }

// VoteCast carries a vote observed in a Voted event.
type VoteCast struct {
	Vote *governance.Vote
}

func (e *VoteCast) Type() string         { return contracts.EventVoted }
func (e *VoteCast) Block() uint64        { return *e.Vote.BlockNumber }
func (e *VoteCast) Timestamp() time.Time { return *e.Vote.BlockTimestamp }

// ProposalExecuted marks a proposal as executed.
type ProposalExecuted struct {
	ProposalID  *big.Int
	Executor    common.Address
	TxHash      string
	BlockNumber uint64
	At          time.Time
}

func (e *ProposalExecuted) Type() string         { return contracts.EventProposalExecuted }
func (e *ProposalExecuted) Block() uint64        { return e.BlockNumber }
func (e *ProposalExecuted) Timestamp() time.Time { return e.At }

// ProposalCancelled marks a proposal as cancelled.
type ProposalCancelled struct {
	ProposalID  *big.Int
	CancelledBy common.Address
	BlockNumber uint64
	At          time.Time
}

func (e *ProposalCancelled) Type() string         { return contracts.EventProposalCancelled }
func (e *ProposalCancelled) Block() uint64        { return e.BlockNumber }
func (e *ProposalCancelled) Timestamp() time.Time { return e.At }

// TreasuryMovement is a deposit or withdrawal on the treasury contract.
type TreasuryMovement struct {
	Event string
	Tx    *governance.TreasuryTransaction
}

func (e *TreasuryMovement) Type() string         { return e.Event }
func (e *TreasuryMovement) Block() uint64        { return e.Tx.BlockNumber }
func (e *TreasuryMovement) Timestamp() time.Time { return e.Tx.BlockTimestamp }

// DelegationChanged is a DelegateChanged event on the governance token.
type DelegationChanged struct {
	Delegation *governance.Delegation
	At         time.Time
}

func (e *DelegationChanged) Type() string         { return contracts.EventDelegateChanged }
func (e *DelegationChanged) Block() uint64        { return e.Delegation.BlockNumber }
func (e *DelegationChanged) Timestamp() time.Time { return e.At }
