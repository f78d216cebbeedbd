package governance

import (
	"encoding/json"
	"math/big"

	"github.com/shopspring/decimal"
)

// Tally is the aggregated result of all chain-confirmed votes on a proposal.
type Tally struct {
	For           *big.Int
	Against       *big.Int
	Abstain       *big.Int
	Total         *big.Int
	ForPct        decimal.Decimal
	AgainstPct    decimal.Decimal
	AbstainPct    decimal.Decimal
	Quorum        *big.Int
	QuorumReached bool
}

// MarshalJSON encodes vote weights as decimal strings and percentages as numbers.
func (t Tally) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		For           string      `json:"for"`
		Against       string      `json:"against"`
		Abstain       string      `json:"abstain"`
		Total         string      `json:"total"`
		ForPct        json.Number `json:"for_pct"`
		AgainstPct    json.Number `json:"against_pct"`
		AbstainPct    json.Number `json:"abstain_pct"`
		Quorum        string      `json:"quorum"`
		QuorumReached bool        `json:"quorum_reached"`
	}{
		For:           orZero(t.For).String(),
		Against:       orZero(t.Against).String(),
		Abstain:       orZero(t.Abstain).String(),
		Total:         orZero(t.Total).String(),
		ForPct:        json.Number(t.ForPct.StringFixed(2)),
		AgainstPct:    json.Number(t.AgainstPct.StringFixed(2)),
		AbstainPct:    json.Number(t.AbstainPct.StringFixed(2)),
		Quorum:        orZero(t.Quorum).String(),
		QuorumReached: t.QuorumReached,
	})
}

// NewTally builds the tally of p against quorum.
func NewTally(p *Proposal, quorum *big.Int) Tally {
	forVotes, against, abstain := orZero(p.ForVotes), orZero(p.AgainstVotes), orZero(p.AbstainVotes)
	total := p.TotalVotes()
	return Tally{
		For:           forVotes,
		Against:       against,
		Abstain:       abstain,
		Total:         total,
		ForPct:        Percentage(forVotes, total),
		AgainstPct:    Percentage(against, total),
		AbstainPct:    Percentage(abstain, total),
		Quorum:        quorum,
		QuorumReached: QuorumReached(total, quorum),
	}
}

// Percentage returns round(v*10000/total)/100, or zero when total is zero.
func Percentage(v, total *big.Int) decimal.Decimal {
	if total == nil || total.Sign() == 0 {
		return decimal.Zero
	}
	basisPoints := decimal.NewFromBigInt(v, 0).
		Mul(decimal.NewFromInt(10000)).
		Div(decimal.NewFromBigInt(total, 0)).
		Round(0)
	return basisPoints.Div(decimal.NewFromInt(100))
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
