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
		log.Println("creating indexer_cursor table...")
		return mghelper.CreateTable(ctx, db, &govstore.IndexerCursorDao{})
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping indexer_cursor table...")
		return mghelper.DropTables(ctx, db, &govstore.IndexerCursorDao{})
	})
}
