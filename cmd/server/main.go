package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/cardinal-itn/pkg/api"
	"github.com/hazyhaar/cardinal-itn/pkg/cardinal"
	"github.com/hazyhaar/cardinal-itn/pkg/chassis"
	"github.com/hazyhaar/cardinal-itn/pkg/importer"
	"github.com/hazyhaar/cardinal-itn/pkg/logging"
	"github.com/hazyhaar/cardinal-itn/pkg/metrics"
	"github.com/hazyhaar/cardinal-itn/pkg/registry"
)

type config struct {
	Addr               string        `yaml:"addr"`
	LexiconsDir        string        `yaml:"lexicons_dir"`
	LogFile            string        `yaml:"log_file"`
	LogLevel           string        `yaml:"log_level"`
	CacheSize          int           `yaml:"cache_size"`
	DefaultFillPenalty float64       `yaml:"default_fill_penalty"`
	SourcesDB          string        `yaml:"sources_db"`
	RunsDB             string        `yaml:"runs_db"`
	CheckInterval      time.Duration `yaml:"check_interval"`
	// QUIC serves HTTPS, HTTP/3 and MCP over QUIC on Addr instead of
	// plain HTTP.
	QUIC    bool   `yaml:"quic"`
	TLSCert string `yaml:"tls_cert"`
	TLSKey  string `yaml:"tls_key"`
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "serve-mcp":
		cmdServeMCP(os.Args[2:])
	case "normalize":
		cmdNormalize(os.Args[2:])
	case "eval":
		cmdEval(os.Args[2:])
	case "import":
		cmdImport(os.Args[2:])
	case "snapshot":
		cmdSnapshot(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: cardinal-itn <command> [flags]

Commands:
  serve       Start the HTTP server
  serve-mcp   Serve the MCP tools over stdio
  normalize   Normalize spoken cardinals from arguments or stdin
  eval        Score a lexicon against a labelled TSV file
  import      Download lexicon bundles from their registered sources
  snapshot    Write gob snapshots of lexicon tables
`)
}

// setup reads the config and installs the process logger. The returned
// closer flushes the log file.
func setup(cfgPath string) (config, *slog.Logger, io.Closer) {
	boot := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	cfg := loadConfig(cfgPath, boot)

	logger, closer, err := logging.New(logging.Config{File: cfg.LogFile, Level: cfg.LogLevel})
	if err != nil {
		boot.Error("logging", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)
	return cfg, logger, closer
}

// loadRegistry compiles every lexicon under cfg.LexiconsDir.
func loadRegistry(ctx context.Context, cfg config, logger *slog.Logger, m *metrics.Metrics) *registry.Registry {
	reg := registry.New(cfg.LexiconsDir,
		registry.WithCompileOptions(cardinal.WithDefaultFillPenalty(cfg.DefaultFillPenalty)),
		registry.WithCacheSize(cfg.CacheSize),
		registry.WithMetrics(m),
	)
	if err := reg.Load(ctx); err != nil {
		logger.Error("failed to load lexicons", "error", err)
		os.Exit(1)
	}
	return reg
}

func logLanguages(logger *slog.Logger, reg *registry.Registry) {
	for _, info := range reg.Languages() {
		logger.Info("language ready",
			"lang", info.Lang,
			"forms", info.Forms,
			"states", humanize.Comma(int64(info.States)),
			"arcs", humanize.Comma(int64(info.Arcs)),
			"compile_time", info.CompileTime,
		)
	}
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	cfg, logger, closer := setup(*cfgPath)
	defer closer.Close()

	// SIGINT/SIGTERM: graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	reg := loadRegistry(ctx, cfg, logger, m)
	logLanguages(logger, reg)

	router := api.NewRouter(reg, api.RouterOptions{Logger: logger, Metrics: m})

	if cfg.CheckInterval > 0 {
		sdb, err := importer.OpenSourceDB(cfg.sourcesDB())
		if err != nil {
			logger.Error("open sources db", "error", err)
			os.Exit(1)
		}
		defer sdb.Close()
		go importer.NewChecker(sdb, logger, cfg.CheckInterval).Start(ctx)
	}

	// SIGHUP: hot reload lexicons.
	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	go func() {
		for range sighup {
			logger.Info("SIGHUP received, reloading lexicons")
			if err := reg.Reload(ctx); err != nil {
				logger.Error("reload failed", "error", err)
			} else {
				logger.Info("lexicons reloaded", "languages", reg.Count())
			}
		}
	}()

	if cfg.QUIC {
		serveChassis(ctx, cfg, logger, reg, router)
		return
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("cardinal-itn listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

// serveChassis runs the TLS chassis: HTTPS on TCP, HTTP/3 and the MCP
// tools on QUIC.
func serveChassis(ctx context.Context, cfg config, logger *slog.Logger, reg *registry.Registry, router http.Handler) {
	mcpSrv := newMCPServer(reg, logger)
	ch, err := chassis.New(chassis.Config{
		Addr:      cfg.Addr,
		CertFile:  cfg.TLSCert,
		KeyFile:   cfg.TLSKey,
		Handler:   router,
		MCPServer: mcpSrv,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("chassis", "error", err)
		os.Exit(1)
	}
	if err := ch.Start(ctx); err != nil {
		logger.Error("chassis", "error", err)
		os.Exit(1)
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ch.Stop(shutdownCtx)
}

func defaultConfig() config {
	return config{
		Addr:               ":8420",
		LexiconsDir:        "lexicons",
		LogLevel:           "info",
		CacheSize:          registry.DefaultCacheSize,
		DefaultFillPenalty: cardinal.DefaultFillPenalty,
	}
}

// sourcesDB defaults to sources.db inside the lexicons directory.
func (c config) sourcesDB() string {
	if c.SourcesDB != "" {
		return c.SourcesDB
	}
	return filepath.Join(c.LexiconsDir, "sources.db")
}

// runsDB defaults to runs.db inside the lexicons directory.
func (c config) runsDB() string {
	if c.RunsDB != "" {
		return c.RunsDB
	}
	return filepath.Join(c.LexiconsDir, "runs.db")
}

func loadConfig(path string, logger *slog.Logger) config {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("no config file, using defaults", "path", path)
			return cfg
		}
		logger.Error("read config", "error", err)
		os.Exit(1)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logger.Error("parse config", "error", err)
		os.Exit(1)
	}
	return cfg
}
