// Entry point for the carelog extraction engine: ingest .eml files, run
// extraction, serve the reporting API, or expose the engine over MCP stdio.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/hivecare/carelog/catalog"
	"github.com/hivecare/carelog/classify"
	"github.com/hivecare/carelog/ingest"
	"github.com/hivecare/carelog/pipeline"
	"github.com/hivecare/carelog/report"
	"github.com/hivecare/carelog/store"
)

const version = "1.0.0"

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config (defaults apply when empty)")
		doIngest   = flag.Bool("ingest", false, "scan the inbox directory for new .eml files")
		doExtract  = flag.Bool("extract", false, "run extraction over pending messages")
		doReport   = flag.Bool("report", false, "print report summaries as JSON on stdout")
		doServe    = flag.Bool("serve", false, "serve the reporting HTTP API")
		doMCP      = flag.Bool("mcp", false, "serve the engine over MCP stdio")
		inboxDir   = flag.String("inbox", "", "override the configured inbox directory")
		dbPath     = flag.String("db", "", "override the configured database path")
	)
	flag.Parse()

	cfg := pipeline.DefaultConfig()
	if *configPath != "" {
		loaded, err := pipeline.LoadConfig(*configPath)
		if err != nil {
			slog.Error("config", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *inboxDir != "" {
		cfg.InboxDir = *inboxDir
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	// MCP stdio owns stdout; logs always go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if !*doIngest && !*doExtract && !*doReport && !*doServe && !*doMCP {
		fmt.Fprintln(os.Stderr, "nothing to do: pass -ingest, -extract, -report, -serve or -mcp")
		flag.Usage()
		os.Exit(2)
	}

	modes := modeFlags{ingest: *doIngest, extract: *doExtract, report: *doReport, serve: *doServe, mcp: *doMCP}
	if err := run(ctx, logger, cfg, modes); err != nil {
		slog.Error("carelog", "error", err)
		os.Exit(1)
	}
}

type modeFlags struct {
	ingest, extract, report, serve, mcp bool
}

func run(ctx context.Context, logger *slog.Logger, cfg *pipeline.Config, modes modeFlags) error {
	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		loaded, err := catalog.Load(cfg.CatalogPath)
		if err != nil {
			return err
		}
		cat = loaded
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ingestor := ingest.New(st, classify.New(cat), cfg.BlobDir, logger)
	pipe := pipeline.New(st, cat, logger, cfg.Workers, cfg.BatchSize)

	if modes.ingest {
		res, err := ingestor.IngestDir(ctx, cfg.InboxDir)
		if err != nil {
			return fmt.Errorf("ingest: %w", err)
		}
		logger.Info("ingest finished", "scanned", res.Scanned,
			"ingested", res.Ingested, "duplicates", res.Duplicates, "failed", res.Failed)
	}

	if modes.extract {
		res, err := pipe.Run(ctx)
		if err != nil {
			return fmt.Errorf("extract: %w", err)
		}
		logger.Info("extract finished", "processed", res.Processed,
			"complete", res.Complete, "incomplete", res.Incomplete,
			"unclassified", res.Unclassified, "failed", res.Failed)
	}

	if modes.report {
		if err := printReport(ctx, st); err != nil {
			return fmt.Errorf("report: %w", err)
		}
	}

	if modes.mcp {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "carelog",
			Version: version,
		}, nil)
		pipeline.NewMCPService(pipe, ingestor, st).RegisterMCP(mcpSrv)
		logger.Info("MCP stdio starting")
		return mcpSrv.Run(ctx, &mcp.StdioTransport{})
	}

	if modes.serve {
		return serveHTTP(ctx, st, logger, cfg.Listen)
	}
	return nil
}

func printReport(ctx context.Context, st *store.Store) error {
	rep := report.New(st)
	stats, err := st.Stats(ctx)
	if err != nil {
		return err
	}
	days, err := rep.DailyShiftSummaries(ctx, "", "")
	if err != nil {
		return err
	}
	incidents, err := rep.IncidentBreakdown(ctx)
	if err != nil {
		return err
	}
	out := map[string]any{
		"stats":      stats,
		"shift_days": days,
		"incidents":  incidents,
		"generated":  time.Now().Format(time.RFC3339),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func serveHTTP(ctx context.Context, st *store.Store, logger *slog.Logger, addr string) error {
	svc := report.NewService(st, logger)
	srv := &http.Server{
		Addr:              addr,
		Handler:           svc.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
