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
		log.Println("creating treasury_transactions table...")
		return mghelper.CreateTable(ctx, db, &govstore.TreasuryTransactionDao{}, mghelper.WithIndexes("type", "asset", "block_number"))
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping treasury_transactions table...")
		return mghelper.DropTables(ctx, db, &govstore.TreasuryTransactionDao{})
	})
}
