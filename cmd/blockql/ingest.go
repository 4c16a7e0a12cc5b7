package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hanpama/blockql/internal/store"
)

func newIngestCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest FILE...",
		Short: "Append the blocks of YAML or JSON block files to the store",
		Long: `Append the blocks of YAML or JSON block files to the store, in order.
Use - to read from standard input. A file looks like:

  blocks:
    - number: 1
      entities:
        - {entity: Token, id: t1, data: {symbol: ABC}}
        - {entity: Token, id: t2, remove: true}`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := store.Open(ctx, opts.cfg.Store, store.WithLogger(opts.logger))
			if err != nil {
				return err
			}
			defer st.Close()

			for _, name := range args {
				var r io.Reader = cmd.InOrStdin()
				if name != "-" {
					f, err := os.Open(name)
					if err != nil {
						return err
					}
					defer f.Close()
					r = f
				}
				last, err := store.Ingest(ctx, st, r)
				if err != nil {
					return fmt.Errorf("ingest %s: %w", name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: head is block %d\n", name, last.Number)
			}
			return nil
		},
	}
}
