package indexer

import (
	"time"

	"github.com/chainsafe/dao-governance/pkg/governance"
)

// Notifier receives real-time updates produced while applying events.
type Notifier interface {
	Notify(n governance.Notification)
}

// ProposalPayload is sent with proposal_created.
type ProposalPayload struct {
	ProposalID    string    `json:"proposal_id"`
	Proposer      string    `json:"proposer"`
	Title         string    `json:"title"`
	MetadataCID   string    `json:"metadata_cid,omitempty"`
	SnapshotBlock uint64    `json:"snapshot_block"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
}

// VotePayload is sent with vote_cast.
type VotePayload struct {
	ProposalID  string `json:"proposal_id"`
	Voter       string `json:"voter"`
	Support     uint8  `json:"support"`
	Weight      string `json:"weight"`
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
}

// TallyPayload is sent with tally_updated.
type TallyPayload struct {
	ProposalID string           `json:"proposal_id"`
	Tally      governance.Tally `json:"tally"`
}

// LifecyclePayload is sent with proposal_executed and proposal_cancelled.
type LifecyclePayload struct {
	ProposalID  string    `json:"proposal_id"`
	By          string    `json:"by"`
	TxHash      string    `json:"tx_hash,omitempty"`
	BlockNumber uint64    `json:"block_number"`
	At          time.Time `json:"at"`
}

// TreasuryPayload is sent with treasury_transaction.
type TreasuryPayload struct {
	TxHash       string `json:"tx_hash"`
	Type         string `json:"type"`
	Asset        string `json:"asset"`
	Amount       string `json:"amount"`
	Counterparty string `json:"counterparty"`
	BlockNumber  uint64 `json:"block_number"`
}

type nopNotifier struct{}

func (nopNotifier) Notify(governance.Notification) {}
