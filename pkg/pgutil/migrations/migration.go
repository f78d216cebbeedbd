// Package migrations holds the helpers shared by the governance migrations
// and the migrate command.
package migrations

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"reflect"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

const usageText = `Usage:
  go run cmd/api-server/migrate/main.go [flags] <command>

Commands:
  - init   - creates the migration bookkeeping tables
  - up     - applies every pending migration as one group
  - down   - rolls back the last migration group
  - status - prints applied and pending migrations

Examples:
  go run cmd/api-server/migrate/main.go -config config.yaml init
  go run cmd/api-server/migrate/main.go -config config.yaml up
  go run cmd/api-server/migrate/main.go -config config.yaml status
`

// ErrNoCommand is returned by Run when no command was given.
var ErrNoCommand = errors.New("no command provided")

// Usage prints command usage
func Usage() {
	fmt.Print(usageText)
	flag.PrintDefaults()
	os.Exit(2)
}

// Exitf prints the message and the usage, then exits.
func Exitf(s string, args ...any) {
	fmt.Fprintf(os.Stderr, s+"\n", args...)
	Usage()
}

type tableOptions struct {
	indexes     []string
	foreignKeys []string
}

// TableOption configures CreateTable.
type TableOption func(*tableOptions)

// WithIndexes adds a single column index named idx_<table>_<column> for each
// column.
func WithIndexes(columns ...string) TableOption {
	return func(o *tableOptions) { o.indexes = append(o.indexes, columns...) }
}

// WithForeignKey adds a FOREIGN KEY clause, e.g.
// `("proposal_id") REFERENCES "proposals" ("proposal_id") ON DELETE CASCADE`.
func WithForeignKey(clause string) TableOption {
	return func(o *tableOptions) { o.foreignKeys = append(o.foreignKeys, clause) }
}

// CreateTable creates the model's table when missing, then its indexes.
func CreateTable(ctx context.Context, db bun.IDB, model any, opts ...TableOption) error {
	o := &tableOptions{}
	for _, opt := range opts {
		opt(o)
	}

	log.Println("Creating Table for", reflect.TypeOf(model))
	q := db.NewCreateTable().Model(model).IfNotExists()
	for _, fk := range o.foreignKeys {
		q = q.ForeignKey(fk)
	}
	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("create table for %T: %w", model, err)
	}
	return CreateModelIndexes(ctx, db, model, o.indexes...)
}

// CreateTables creates plain tables for the models, in order.
func CreateTables(ctx context.Context, db bun.IDB, models ...any) error {
	for _, model := range models {
		if err := CreateTable(ctx, db, model); err != nil {
			return err
		}
	}
	return nil
}

// DropTables drops the models' tables with CASCADE.
func DropTables(ctx context.Context, db bun.IDB, models ...any) error {
	for _, model := range models {
		log.Println("Dropping Table for", reflect.TypeOf(model))
		_, err := db.NewDropTable().
			Model(model).
			IfExists().
			Cascade().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("drop table for %T: %w", model, err)
		}
	}
	return nil
}

// CreateModelIndexes creates one index per column on the model's table.
func CreateModelIndexes(ctx context.Context, db bun.IDB, model any, columns ...string) error {
	for _, column := range columns {
		indexName, err := IndexName(db, model, column)
		if err != nil {
			return err
		}
		if _, err = db.NewCreateIndex().
			Model(model).
			Index(indexName).
			Column(column).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("create index %s: %w", indexName, err)
		}
	}
	return nil
}

// IndexName returns idx_<table>_<column> for the model's table.
func IndexName(db bun.IDB, model any, column string) (string, error) {
	if model == nil {
		return "", fmt.Errorf("model cannot be nil")
	}
	tableName := db.NewCreateIndex().Model(model).GetTableName()
	if tableName == "" {
		return "", fmt.Errorf("failed to resolve table name for model %T", model)
	}

	indexTableName := strings.NewReplacer(`"`, "", ".", "_").Replace(tableName)
	return fmt.Sprintf("idx_%s_%s", indexTableName, column), nil
}

// Run executes one migrate command and reports the outcome on out.
func Run(ctx context.Context, migrator *migrate.Migrator, out io.Writer, args ...string) error {
	if len(args) == 0 {
		return ErrNoCommand
	}

	switch args[0] {
	case "init":
		if err := migrator.Init(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "migration table created")
		return nil

	case "up":
		return withLock(ctx, migrator, func() error {
			group, err := migrator.Migrate(ctx)
			if err != nil {
				return err
			}
			if group.IsZero() {
				fmt.Fprintln(out, "database is up to date")
			} else {
				fmt.Fprintf(out, "migrated to %s\n", group)
			}
			return nil
		})

	case "down":
		return withLock(ctx, migrator, func() error {
			group, err := migrator.Rollback(ctx)
			if err != nil {
				return err
			}
			if group.IsZero() {
				fmt.Fprintln(out, "nothing to roll back")
			} else {
				fmt.Fprintf(out, "rolled back %s\n", group)
			}
			return nil
		})

	case "status":
		ms, err := migrator.MigrationsWithStatus(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "applied: %d, pending: %d\n", len(ms.Applied()), len(ms.Unapplied()))
		if pending := ms.Unapplied(); len(pending) > 0 {
			fmt.Fprintf(out, "pending migrations: %s\n", pending)
		}
		fmt.Fprintf(out, "last migration group: %s\n", ms.LastGroup())
		return nil

	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func withLock(ctx context.Context, migrator *migrate.Migrator, fn func() error) error {
	if err := migrator.Lock(ctx); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	defer func() {
		if err := migrator.Unlock(ctx); err != nil {
			log.Printf("failed to release migration lock: %v", err)
		}
	}()
	return fn()
}
