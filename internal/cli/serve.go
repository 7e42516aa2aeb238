package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/blockwatch/internal/api"
	"github.com/gyaneshwarpardhi/blockwatch/internal/config"
	"github.com/gyaneshwarpardhi/blockwatch/internal/engine"
	"github.com/gyaneshwarpardhi/blockwatch/internal/metrics"
	"github.com/gyaneshwarpardhi/blockwatch/internal/migrate"
	"github.com/gyaneshwarpardhi/blockwatch/internal/sink"
	"github.com/gyaneshwarpardhi/blockwatch/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	FlushOnShutdown bool
	Registry        *prometheus.Registry // nil means the default registry
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the flush scheduler and the HTTP ingress",
		Long: `Open the configured backend, apply pending migrations, then accept events
over HTTP and flush them on the configured interval.

Events still queued at shutdown are dropped unless --flush-on-shutdown is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.FlushOnShutdown, "flush-on-shutdown", false, "run one last flush cycle before exiting")

	return cmd
}

func serve(ctx context.Context, opts *ServeOptions) error {
	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := loadConfig(opts.RootOptions, logOutput)
	if err != nil {
		return err
	}
	cfg := loader.Config()

	// ── Backend ───────────────────────────────────────────────────────────────
	db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("backend opened", "backend", cfg.Database.Backend)

	reg := prometheus.DefaultRegisterer
	gatherer := prometheus.DefaultGatherer
	if opts.Registry != nil {
		reg, gatherer = opts.Registry, opts.Registry
	}
	mt := metrics.New(reg)

	// ── Schema ────────────────────────────────────────────────────────────────
	migrator, err := migrate.New(db, migrate.Steps()...)
	if err != nil {
		return err
	}
	if res, err := migrator.WithMetrics(mt).Apply(ctx); err != nil {
		slog.Error("schema migration incomplete, continuing on the current schema",
			"version", res.To, "err", err)
	} else if len(res.Applied) > 0 {
		slog.Info("schema migrated", "from", res.From, "to", res.To)
	}

	// ── Engine ────────────────────────────────────────────────────────────────
	mirror := sink.NewFlatFile(filepath.Join(cfg.Pipeline.DataDir, "logs"))
	eng := engine.New(sink.NewRelational(db), mirror, cfg.Pipeline, mt)
	eng.Start(ctx)

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.Config) {
		if err := config.Validate(newCfg); err != nil {
			slog.Warn("hot-reload skipped: config invalid", "err", err)
			return
		}
		eng.SetInterval(newCfg.Pipeline.FlushInterval())
		eng.SetMirroring(newCfg.Pipeline.FlatLog)
		if newCfg.Database != cfg.Database {
			slog.Warn("database settings changed; restart to apply")
		}
		slog.Info("pipeline config reloaded", "interval", eng.Interval(), "mirroring", eng.Mirroring())
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.New(eng, db, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
	}
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	eng.Shutdown()
	if opts.FlushOnShutdown {
		res := eng.Flush(shutCtx)
		slog.Info("final flush", "persisted", res.Persisted, "error", res.Error)
	}
	slog.Info("goodbye", "persisted_total", eng.Persisted(), "dropped", eng.QueueLen())
	return runErr
}
