package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/johndauphine/mariadb-migrate/internal/checkpoint"
	"github.com/johndauphine/mariadb-migrate/internal/config"
	"github.com/johndauphine/mariadb-migrate/internal/driver"
	"github.com/johndauphine/mariadb-migrate/internal/generator"
	"github.com/johndauphine/mariadb-migrate/internal/logging"
	"github.com/johndauphine/mariadb-migrate/internal/migrations"
	"github.com/johndauphine/mariadb-migrate/internal/notify"
	"github.com/johndauphine/mariadb-migrate/internal/processor"
	"github.com/johndauphine/mariadb-migrate/internal/progress"
	"github.com/johndauphine/mariadb-migrate/internal/runner"
)

// session bundles everything one command needs to talk to the database.
type session struct {
	cfg      *config.Config
	registry *runner.Registry
	proc     processor.Processor
	runner   *runner.Runner
	journal  checkpoint.Journal
	reporter progress.Reporter
}

type sessionOptions struct {
	// offline skips opening a connection; only Expressions works.
	offline bool
	preview bool
	journal bool
}

func openSession(c *cli.Context, so sessionOptions) (*session, error) {
	cfg, profileName, configPath, err := loadConfigWithOrigin(c)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dir := c.String("migrations"); dir != "" {
		cfg.Migrations.Dir = dir
	}
	if tags := c.StringSlice("tag"); len(tags) > 0 {
		cfg.Migrations.Tags = tags
	}

	dir, err := filepath.Abs(cfg.Migrations.Dir)
	if err != nil {
		return nil, err
	}
	reg := runner.NewRegistry()
	n, err := migrations.Load(dir, reg)
	if err != nil {
		return nil, err
	}
	logging.Debug("Registered %d migrations", n)

	drv, err := driver.Get(cfg.Database.Type)
	if err != nil {
		return nil, err
	}
	mode, err := generator.ParseCompatibilityMode(cfg.Runner.Compatibility)
	if err != nil {
		return nil, err
	}

	preview := so.preview || cfg.Runner.Preview
	s := &session{cfg: cfg, registry: reg, reporter: &progress.NullReporter{}}
	if !so.offline {
		s.proc, err = drv.Open(cfg.DSN(), mode, processor.Options{
			PreviewOnly: preview,
			Timeout:     cfg.Database.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to %s: %w", drv.Name(), err)
		}
	}

	var options []runner.Option
	if so.journal && !preview {
		j, err := openJournal(c, cfg)
		if err != nil {
			s.Close()
			return nil, err
		}
		if j != nil {
			s.journal = j
			options = append(options, runner.WithJournal(j))
		}
		options = append(options, runner.WithNotifier(notify.New(&cfg.Slack)))
	}
	if so.journal {
		s.reporter = newReporter(c)
		options = append(options, runner.WithReporter(s.reporter))
	}

	s.runner = runner.New(s.proc, drv.Generator(mode), drv.Conventions(cfg.Runner.DefaultSchema, dir), reg, runner.Options{
		VersionTable:       cfg.Runner.VersionTable,
		Schema:             cfg.Runner.DefaultSchema,
		TransactionMode:    cfg.Runner.TransactionMode,
		Tags:               cfg.Migrations.Tags,
		WorkingDirectory:   dir,
		StrictVersionOrder: cfg.Runner.StrictVersionOrder,
		Preview:            preview,
		Database:           cfg.DatabaseName(),
		Config:             cfg.Sanitized(),
		ProfileName:        profileName,
		ConfigPath:         configPath,
	}, options...)
	return s, nil
}

func (s *session) Close() {
	s.reporter.Close()
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			logging.Warn("Warning: closing journal: %v", err)
		}
	}
	if s.proc != nil {
		if err := s.proc.Close(); err != nil {
			logging.Warn("Warning: closing connection: %v", err)
		}
	}
}

// newReporter picks a progress bar on a terminal and JSON lines when the
// result is piped.
func newReporter(c *cli.Context) progress.Reporter {
	if c.Bool("output-json") {
		return progress.NewJSONReporter(os.Stderr, 2*time.Second)
	}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return progress.New()
	}
	return &progress.NullReporter{}
}

// openJournal returns nil when the journal is disabled.
func openJournal(c *cli.Context, cfg *config.Config) (checkpoint.Journal, error) {
	if path := c.String("state-file"); path != "" {
		return checkpoint.NewFileState(path)
	}

	switch cfg.Journal.Backend {
	case config.JournalNone:
		return nil, nil
	case config.JournalFile:
		return checkpoint.NewFileState(cfg.Journal.Path)
	}

	state, err := checkpoint.New(cfg.Journal.Path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	if cfg.Journal.RetentionDays > 0 {
		if n, err := state.CleanupOldRuns(cfg.Journal.RetentionDays); err != nil {
			logging.Warn("Warning: journal cleanup: %v", err)
		} else if n > 0 {
			logging.Debug("Removed %d runs older than %d days", n, cfg.Journal.RetentionDays)
		}
	}
	return state, nil
}

// signalContext is cancelled on SIGINT or SIGTERM. A cancelled run stops
// after the migration in flight and rolls back its transaction.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\nInterrupted. Rolling back the current migration...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func loadConfigWithOrigin(c *cli.Context) (*config.Config, string, string, error) {
	if profileName := c.String("profile"); profileName != "" {
		cfg, err := loadProfileConfig(profileName)
		return cfg, profileName, "", err
	}

	configPath := c.String("config")
	if _, err := os.Stat(configPath); os.IsNotExist(err) && !c.IsSet("config") {
		return nil, "", "", fmt.Errorf("configuration file not found: %s", configPath)
	}
	cfg, err := config.Load(configPath)
	return cfg, "", configPath, err
}

func openProfileStore() (*checkpoint.State, error) {
	dataDir, err := config.DefaultDataDir()
	if err != nil {
		return nil, err
	}
	return checkpoint.New(dataDir)
}

func loadProfileConfig(name string) (*config.Config, error) {
	state, err := openProfileStore()
	if err != nil {
		return nil, err
	}
	defer state.Close()

	blob, err := state.GetProfile(name)
	if err != nil {
		return nil, err
	}
	return config.LoadBytes(blob)
}
