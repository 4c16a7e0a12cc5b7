package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/hanpama/blockql/internal/blockptr"
	"github.com/hanpama/blockql/internal/eventbus"
	"github.com/hanpama/blockql/internal/executor"
	"github.com/hanpama/blockql/internal/introspection"
	"github.com/hanpama/blockql/internal/otel"
	"github.com/hanpama/blockql/internal/querycache"
	"github.com/hanpama/blockql/internal/server"
	"github.com/hanpama/blockql/internal/store"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP GraphQL server backed by the entity store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ln, err := net.Listen("tcp", opts.cfg.Addr)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), opts, ln)
		},
	}
}

// serve answers queries on ln until ctx is done.
func serve(ctx context.Context, opts *rootOptions, ln net.Listener) error {
	cfg, logger := opts.cfg, opts.logger
	sch, err := loadSchema(cfg)
	if err != nil {
		return err
	}

	bus := eventbus.New()
	shutdownTracing, err := otel.Setup(ctx, bus, cfg.OTelEndpoint, cfg.OTelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	st, err := store.Open(ctx, cfg.Store, store.WithLogger(logger), store.WithEventBus(bus))
	if err != nil {
		return err
	}
	defer st.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	cache := querycache.New[*executor.ExecutionResult](cfg.Cache(),
		querycache.WithLogger(logger),
		querycache.WithMetrics(querycache.NewMetrics(reg)))
	eopts := []executor.Option{
		executor.WithCache(cache),
		executor.WithLogger(logger),
		executor.WithMaxFirst(cfg.MaxFirst),
		executor.WithTimeout(cfg.QueryTimeout),
	}
	if cfg.Introspection {
		eopts = append(eopts, executor.WithIntrospection(introspection.New(sch)))
	}
	exec := executor.NewExecutor(sch, eopts...)

	sopts := []server.Option{server.WithLogger(logger), server.WithEventBus(bus), server.WithRegistry(reg)}
	if cfg.Pretty {
		sopts = append(sopts, server.WithPretty())
	}
	h, err := server.New(exec, st, func(b blockptr.Ptr) executor.Resolver {
		return store.NewResolver(st, sch, b)
	}, sopts...)
	if err != nil {
		return fmt.Errorf("server init: %w", err)
	}

	srv := &http.Server{Handler: server.Mux(h, reg), ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	logger.Info("GraphQL server listening", "addr", ln.Addr().String(), "schema", sch.ID)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
