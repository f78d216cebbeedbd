package govctl

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func (c *cli) cursorCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "cursor",
		Short: "Inspect or move the indexer cursor",
	}
	cmd.PersistentFlags().StringVar(&name, "name", "", "Cursor name (defaults to indexer.cursor_name)")

	cursorName := func(env *Env) string {
		if name != "" {
			return name
		}
		return env.Config.Indexer.CursorName
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the last fully processed block",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := c.env(cmd, false)
			if err != nil {
				return err
			}
			defer env.Close()

			n := cursorName(env)
			block, ok, err := env.Store.GetCursor(cmd.Context(), n)
			if err != nil {
				return fmt.Errorf("failed to load cursor: %w", err)
			}
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: not set (indexing starts at block %d)\n", n, env.Config.Indexer.StartBlock)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", n, block)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <block>",
		Short: "Overwrite the cursor, including moving it backwards",
		Long: `Overwrite the cursor. Moving it backwards makes the next run re-index
the blocks after it; events are upserted, so re-indexing is safe.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			block, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid block %q: %w", args[0], err)
			}

			env, err := c.env(cmd, false)
			if err != nil {
				return err
			}
			defer env.Close()

			n := cursorName(env)
			if err := env.Store.SetCursor(cmd.Context(), n, block); err != nil {
				return fmt.Errorf("failed to set cursor: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", n, block)
			return nil
		},
	})

	return cmd
}
