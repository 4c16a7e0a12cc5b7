package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hanpama/blockql/internal/schema"
)

func newPrintSchemaCommand(opts *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "print-schema",
		Short: "Validate the schema and print it as SDL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sch, err := loadSchema(opts.cfg)
			if err != nil {
				return err
			}
			sdl := schema.Render(sch)
			if out == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), sdl)
				return err
			}
			return os.WriteFile(out, []byte(sdl), 0o644)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the SDL to a file instead of stdout")
	return cmd
}
