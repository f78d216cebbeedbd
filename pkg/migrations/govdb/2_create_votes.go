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
		log.Println("creating votes table...")
		return mghelper.CreateTable(ctx, db, &govstore.VoteDao{},
			mghelper.WithForeignKey(`("proposal_id") REFERENCES "proposals" ("proposal_id") ON DELETE CASCADE`),
			mghelper.WithIndexes("voter", "block_number"),
		)
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping votes table...")
		return mghelper.DropTables(ctx, db, &govstore.VoteDao{})
	})
}
