package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/brunobiangulo/goprovenance"
	"github.com/brunobiangulo/goprovenance/logging"
	"github.com/brunobiangulo/goprovenance/parser"
)

var version = "0.1.0"

// globals holds the persistent flag values shared by every subcommand.
type globals struct {
	configPath string
	logLevel   string
	logFormat  string
	cachePath  string
	noCache    bool
	envFile    string

	cfg goprovenance.Config
	log *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "provenance",
		Short: "Attribute archive documents to canonical entities",
		Long: `provenance builds a canonical entity index from glossary reference
pages, then extracts author, date and keyword metadata from archive
documents and links it to the index.

Example:
  provenance index build --refs ./glossary
  provenance process --refs ./glossary --docs ./archive --out records.jsonl
  provenance link "Marx" --year 1848`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.setup()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "path to config file (YAML or JSON)")
	pf.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&g.logFormat, "log-format", "", "log format: json or pretty")
	pf.StringVar(&g.cachePath, "cache", "", "snapshot cache database path")
	pf.BoolVar(&g.noCache, "no-cache", false, "disable the snapshot cache")
	pf.StringVar(&g.envFile, "env-file", ".env", "dotenv file to load before reading PROVENANCE_* variables")

	root.AddCommand(indexCmd(g))
	root.AddCommand(processCmd(g))
	root.AddCommand(linkCmd(g))
	root.AddCommand(graphCmd(g))
	return root
}

// setup resolves configuration in order: defaults, config file, .env and
// environment, then flags.
func (g *globals) setup() error {
	if g.envFile != "" {
		if err := godotenv.Load(g.envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("loading %s: %w", g.envFile, err)
		}
	}

	cfg := goprovenance.DefaultConfig()
	if g.configPath != "" {
		var err error
		if cfg, err = goprovenance.LoadConfig(g.configPath); err != nil {
			return err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if g.logFormat != "" {
		cfg.LogFormat = g.logFormat
	}
	if g.cachePath != "" {
		cfg.CachePath = g.cachePath
	}
	if g.noCache {
		cfg.CachePath = ""
		cfg.StorageDir = "none"
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(log)
	g.cfg, g.log = cfg, log
	return nil
}

func (g *globals) openEngine() (goprovenance.Engine, error) {
	e, err := goprovenance.New(g.cfg, goprovenance.WithLogger(g.log))
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	return e, nil
}

// readyEngine opens an engine and activates an index: built from refsDir
// when given, otherwise the newest cached snapshot.
func (g *globals) readyEngine(ctx context.Context, refsDir string) (goprovenance.Engine, *goprovenance.IndexStatus, error) {
	e, err := g.openEngine()
	if err != nil {
		return nil, nil, err
	}

	var status *goprovenance.IndexStatus
	if refsDir == "" {
		status, err = e.LoadCachedIndex(ctx)
		if err != nil {
			e.Close()
			return nil, nil, fmt.Errorf("no --refs given and no cached index: %w", err)
		}
		return e, status, nil
	}

	refs, err := parser.LoadDir(ctx, refsDir, nil, g.log)
	if err != nil {
		e.Close()
		return nil, nil, fmt.Errorf("loading references: %w", err)
	}
	status, err = e.PrepareIndex(ctx, refs)
	if err != nil && e.Index() == nil {
		e.Close()
		return nil, status, err
	}
	if err != nil {
		g.log.Warn("provenance: continuing on previous index", "source", status.Source, "error", err)
	}
	return e, status, nil
}
