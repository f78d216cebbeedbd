package govdb

import (
	"context"
	"log"

	"github.com/chainsafe/dao-governance/pkg/govstore"
	mghelper "github.com/chainsafe/dao-governance/pkg/pgutil/migrations"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating proposals table...")
		return mghelper.CreateTable(ctx, db, &govstore.ProposalDao{}, mghelper.WithIndexes("proposer", "created_block"))
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping proposals table...")
		return mghelper.DropTables(ctx, db, &govstore.ProposalDao{})
	})
}
