// Package govctl implements the operator command line for the governance
// backend: historical backfills, cursor management and read-only queries.
package govctl

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chainsafe/dao-governance/pkg/config"
	"github.com/chainsafe/dao-governance/pkg/ethereum"
	"github.com/chainsafe/dao-governance/pkg/govstore"
	"github.com/chainsafe/dao-governance/pkg/pgutil"
)

// Env holds the resources a command runs against.
type Env struct {
	Config *config.Config
	Store  govstore.Store
	// Chain is only set when the command asked for it.
	Chain  *ethereum.Client
	Logger *zap.Logger

	closers []func()
}

// Close releases everything the opener acquired, in reverse order.
func (e *Env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
	e.closers = nil
}

// Opener builds an Env from a config file path.
type Opener func(ctx context.Context, configPath string, withChain bool) (*Env, error)

// DefaultOpener connects to the configured database and, when asked, to the
// chain.
func DefaultOpener(_ context.Context, configPath string, withChain bool) (*Env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	env := &Env{Config: cfg, Logger: logger}
	env.closers = append(env.closers, func() { _ = logger.Sync() })

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("connect db: %w", err)
	}
	env.closers = append(env.closers, func() { _ = db.Close() })
	env.Store = govstore.NewStore(db)

	if withChain {
		client, err := ethereum.NewClient(&cfg.Ethereum, logger, ethereum.WithTimestampCacheSize(cfg.Indexer.TimestampCache))
		if err != nil {
			env.Close()
			return nil, fmt.Errorf("create ethereum client: %w", err)
		}
		env.closers = append(env.closers, client.Close)
		env.Chain = client
	}
	return env, nil
}

type cli struct {
	open       Opener
	configPath string
}

// NewRootCommand builds the govctl command tree. open is used by every
// subcommand to acquire its resources.
func NewRootCommand(open Opener) *cobra.Command {
	c := &cli{open: open}

	root := &cobra.Command{
		Use:   "govctl",
		Short: "Operate the DAO governance indexer",
		Long: `govctl runs maintenance tasks against the governance database:
historical backfills, indexer cursor inspection and read-only views of
proposals and tallies.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "config.yaml", "Path to configuration file")

	root.AddCommand(
		c.backfillCommand(),
		c.cursorCommand(),
		c.proposalsCommand(),
		c.tallyCommand(),
	)
	return root
}

// Execute runs the command line with the default opener.
func Execute() error {
	return NewRootCommand(DefaultOpener).Execute()
}

func (c *cli) env(cmd *cobra.Command, withChain bool) (*Env, error) {
	return c.open(cmd.Context(), c.configPath, withChain)
}
