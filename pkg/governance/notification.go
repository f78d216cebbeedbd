package governance

import "math/big"

// NotificationType names a real-time update pushed to websocket observers.
type NotificationType string

const (
	NotifyProposalCreated     NotificationType = "proposal_created"
	NotifyVoteCast            NotificationType = "vote_cast"
	NotifyTallyUpdated        NotificationType = "tally_updated"
	NotifyProposalExecuted    NotificationType = "proposal_executed"
	NotifyProposalCancelled   NotificationType = "proposal_cancelled"
	NotifyTreasuryTransaction NotificationType = "treasury_transaction"
)

// Notification is an update for the room of ProposalID, or for every
// connected observer when ProposalID is nil.
type Notification struct {
	Type       NotificationType
	ProposalID *big.Int
	Payload    any
}

// Global reports whether the notification goes to all observers.
func (n Notification) Global() bool {
	return n.ProposalID == nil
}
