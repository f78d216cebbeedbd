package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"

	"github.com/chainsafe/dao-governance/pkg/config"
	"github.com/chainsafe/dao-governance/pkg/migrations/govdb"
	"github.com/chainsafe/dao-governance/pkg/pgutil"
	mghelper "github.com/chainsafe/dao-governance/pkg/pgutil/migrations"

	"github.com/uptrace/bun/migrate"
)

func main() {
	cfgPath := flag.String("config", "config.example.yaml", "Path to configuration file")
	flag.Usage = mghelper.Usage
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("error reading configuration file: %s", err.Error())
	}

	// Connect to database
	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		log.Fatalf("error connecting to database: %s", err.Error())
	}
	defer db.Close()

	log.Printf("Running migrations for governance database (%s)...\n", cfg.Database.Database)

	migrator := migrate.NewMigrator(db, govdb.Migrations)

	err = mghelper.Run(context.Background(), migrator, os.Stdout, flag.Args()...)
	if errors.Is(err, mghelper.ErrNoCommand) {
		mghelper.Exitf(err.Error())
	}
	if err != nil {
		log.Fatalf("migration failed: %s", err.Error())
	}
}
