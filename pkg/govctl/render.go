package govctl

import (
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/chainsafe/dao-governance/pkg/governance"
)

const titleWidth = 40

type proposalRow struct {
	Proposal *governance.Proposal
	State    governance.State
}

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateRows = false
	t.Style().Format.Footer = text.FormatDefault
	return t
}

func renderProposals(out io.Writer, rows []proposalRow) {
	if len(rows) == 0 {
		fmt.Fprintln(out, "No proposals found")
		return
	}

	t := newTable(out)
	t.AppendHeader(table.Row{"ID", "Title", "Proposer", "State", "For", "Against", "Abstain", "Ends"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Title", WidthMax: titleWidth, WidthMaxEnforcer: text.Trim},
		{Name: "For", Align: text.AlignRight},
		{Name: "Against", Align: text.AlignRight},
		{Name: "Abstain", Align: text.AlignRight},
	})
	for _, r := range rows {
		p := r.Proposal
		t.AppendRow(table.Row{
			p.ID.String(),
			p.Title,
			p.Proposer.Hex(),
			string(r.State),
			weight(p.ForVotes),
			weight(p.AgainstVotes),
			weight(p.AbstainVotes),
			p.EndTime.UTC().Format(time.RFC3339),
		})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d proposals", len(rows))})
	t.Render()
}

func renderTally(out io.Writer, p *governance.Proposal, state governance.State, tally governance.Tally) {
	fmt.Fprintf(out, "Proposal %s: %s\n", p.ID, p.Title)
	fmt.Fprintf(out, "State: %s\n", state)

	t := newTable(out)
	t.AppendHeader(table.Row{"Choice", "Weight", "Share"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Weight", Align: text.AlignRight},
		{Name: "Share", Align: text.AlignRight},
	})
	t.AppendRows([]table.Row{
		{"For", tally.For.String(), tally.ForPct.StringFixed(2) + "%"},
		{"Against", tally.Against.String(), tally.AgainstPct.StringFixed(2) + "%"},
		{"Abstain", tally.Abstain.String(), tally.AbstainPct.StringFixed(2) + "%"},
	})
	t.AppendFooter(table.Row{"Total", tally.Total.String(), ""})
	t.Render()

	reached := "not reached"
	if tally.QuorumReached {
		reached = "reached"
	}
	fmt.Fprintf(out, "Quorum: %s (%s)\n", tally.Quorum, reached)
}

func weight(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
