package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hanpama/blockql/internal/config"
	"github.com/hanpama/blockql/internal/schema"
)

const rootLong = `blockql serves GraphQL queries over block-versioned entities.

Every setting can be given as a flag or as a GRAPH_* environment variable,
for example --query-cache-blocks or GRAPH_QUERY_CACHE_BLOCKS. Flags win.`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// rootOptions holds the configuration loaded before any subcommand runs.
type rootOptions struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "blockql",
		Short:        "GraphQL over block-versioned entities",
		Long:         rootLong,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			level, err := cfg.Level()
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return nil
		},
	}
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newIngestCommand(opts))
	cmd.AddCommand(newPrintSchemaCommand(opts))
	return cmd
}

// loadSchema builds the schema named by the configuration. Its id defaults
// to the file name without extension.
func loadSchema(cfg *config.Config) (*schema.Schema, error) {
	if cfg.Schema == "" {
		return nil, fmt.Errorf("--schema is required")
	}
	sdl, err := os.ReadFile(cfg.Schema)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	id := cfg.SchemaID
	if id == "" {
		id = strings.TrimSuffix(filepath.Base(cfg.Schema), filepath.Ext(cfg.Schema))
	}
	sch, err := schema.BuildFromSDL(id, string(sdl))
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}
	return sch, nil
}
