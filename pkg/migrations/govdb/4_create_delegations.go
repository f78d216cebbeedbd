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
		log.Println("creating delegations table...")
		return mghelper.CreateTable(ctx, db, &govstore.DelegationDao{}, mghelper.WithIndexes("delegator", "to_delegate", "block_number"))
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping delegations table...")
		return mghelper.DropTables(ctx, db, &govstore.DelegationDao{})
	})
}
