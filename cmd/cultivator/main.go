// Cultivator grows a knowledge graph of concepts and relations from
// ingested text, continuously deriving, questioning, and forgetting
// through its cultivation cycle.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/epistemicgarden/cultivator/internal/api"
	"github.com/epistemicgarden/cultivator/internal/config"
	"github.com/epistemicgarden/cultivator/internal/cultivate"
	"github.com/epistemicgarden/cultivator/internal/embed"
	"github.com/epistemicgarden/cultivator/internal/event"
	"github.com/epistemicgarden/cultivator/internal/infer"
	"github.com/epistemicgarden/cultivator/internal/ingest"
	"github.com/epistemicgarden/cultivator/internal/kb"
	"github.com/epistemicgarden/cultivator/internal/server"
	auditstore "github.com/epistemicgarden/cultivator/internal/store"
	"github.com/epistemicgarden/cultivator/internal/version"
)

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	if len(args) > 0 && args[0] == "serve" {
		return runServe(args[1:], out)
	}

	fs := flag.NewFlagSet("cultivator", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	showVersion := fs.Bool("version", false, "Show version information")
	showHelp := fs.Bool("help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}
	if *showHelp {
		printHelp(out)
		return 0
	}

	fmt.Fprintln(out, version.String()) //nolint:errcheck
	return 0
}

func runServe(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := config.Load()
	defaultPort := addrPort(cfg.ListenAddr)
	port := fs.Int("port", defaultPort, "HTTP port")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	bus := event.New()
	embedder, err := newEmbedder(cfg)
	if err != nil {
		fmt.Fprintf(out, "embedder init failed: %v\n", err) //nolint:errcheck
		return 1
	}

	store := kb.NewStore(kb.Config{
		MergeThreshold:    cfg.MergeThreshold,
		QueryThreshold:    cfg.QueryThreshold,
		EmbeddingDim:      cfg.EmbeddingDim,
		EvidentialHorizon: cfg.EvidentialHorizon,
		DecayRate:         cfg.DecayRate,
		DormantThreshold:  cfg.DormantThreshold,
		FadingThreshold:   cfg.FadingThreshold,
		ArchiveAfterTicks: cfg.ArchiveAfterTicks,
	})

	orchestrator := cultivate.New(store, embedder, bus, cultivate.Config{
		InferConfig:            infer.Config{MaxDerivationsPerCycle: cfg.MaxDerivationsPerCycle},
		GerminateTopN:          cfg.GerminateTopN,
		GerminateEnergyHigh:    cfg.GerminateEnergyHigh,
		GerminateConfidenceLow: cfg.GerminateConfidenceLow,
	})
	pipeline := ingest.NewPipeline(ingest.PlainTextExtractor{}, orchestrator, bus, cfg.ChunkSize)

	if cfg.TickIntervalSeconds > 0 {
		tickCtx, cancelTick := context.WithCancel(context.Background())
		defer cancelTick()
		go orchestrator.RunTicker(tickCtx, time.Duration(cfg.TickIntervalSeconds)*time.Second)
	}

	var audit *auditstore.AuditLog
	if cfg.WALPath != "" {
		db, dbErr := auditstore.Open(cfg.WALPath)
		if dbErr != nil {
			fmt.Fprintf(out, "audit log init failed: %v\n", dbErr) //nolint:errcheck
			return 1
		}
		defer db.Close()
		audit = auditstore.NewAuditLog(db)

		followCtx, cancelFollow := context.WithCancel(context.Background())
		defer cancelFollow()
		go audit.Follow(followCtx, bus)
	}

	handler := api.NewHandler(store, pipeline, embedder, bus, audit)
	srvCfg := server.DefaultConfig()
	srvCfg.Port = *port
	srv := server.NewServer(handler, srvCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	select {
	case err := <-errCh:
		if err != nil {
			fmt.Fprintf(out, "server failed: %v\n", err) //nolint:errcheck
			return 1
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(out, "shutdown error: %v\n", err) //nolint:errcheck
			return 1
		}
	}
	return 0
}

func newEmbedder(cfg config.Config) (embed.Embedder, error) {
	switch cfg.EmbedderBackend {
	case "http":
		return embed.NewHTTPEmbedder(cfg.EmbedderBaseURL, cfg.EmbedderModel, cfg.EmbeddingDim), nil
	case "local", "":
		return embed.NewLocalEmbedder(cfg.EmbeddingDim), nil
	default:
		return nil, fmt.Errorf("unknown EMBEDDER_BACKEND %q", cfg.EmbedderBackend)
	}
}

// addrPort extracts the numeric port from a "host:port" listen address,
// falling back to 8080 if addr doesn't parse.
func addrPort(addr string) int {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 8080
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 8080
	}
	return port
}

func printHelp(out io.Writer) {
	helpText := `Cultivator - epistemic knowledge core

Usage:
  cultivator [options]
  cultivator serve [--port N]

Options:
  --version    Show version information
  --help       Show this help message

Examples:
  cultivator --version
  cultivator serve --port 8080`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}
