package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/johndauphine/mariadb-migrate/internal/checkpoint"
	"github.com/johndauphine/mariadb-migrate/internal/config"
	"github.com/johndauphine/mariadb-migrate/internal/logging"
	"github.com/johndauphine/mariadb-migrate/internal/runner"
	"github.com/johndauphine/mariadb-migrate/internal/tui"
)

var (
	styleHeader  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	styleApplied = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	stylePending = lipgloss.NewStyle().Foreground(lipgloss.Color("#9e9e9e"))
	styleMissing = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4141"))
)

func migrateUp(c *cli.Context) error {
	s, err := openSession(c, sessionOptions{preview: c.Bool("preview"), journal: true})
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := signalContext()
	defer cancel()

	target := int64(math.MaxInt64)
	if c.IsSet("to") {
		target = c.Int64("to")
	}
	result, err := s.runner.MigrateUpTo(ctx, target)
	return finishRun(c, result, err)
}

func migrateDown(c *cli.Context) error {
	s, err := openSession(c, sessionOptions{preview: c.Bool("preview"), journal: true})
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := signalContext()
	defer cancel()

	result, err := s.runner.MigrateDown(ctx, c.Int64("to"))
	return finishRun(c, result, err)
}

func rollback(c *cli.Context) error {
	s, err := openSession(c, sessionOptions{preview: c.Bool("preview"), journal: true})
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := signalContext()
	defer cancel()

	result, err := s.runner.Rollback(ctx, c.Int("steps"))
	return finishRun(c, result, err)
}

// runOutput is the JSON document written by --output-json.
type runOutput struct {
	*runner.Result
	Error string `json:"error,omitempty"`
}

func finishRun(c *cli.Context, result *runner.Result, runErr error) error {
	if result != nil && (c.Bool("output-json") || c.String("output-file") != "") {
		out := runOutput{Result: result}
		if runErr != nil {
			out.Error = runErr.Error()
		}
		if err := outputJSON(c, out); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to output JSON: %v\n", err)
		}
	}
	return runErr
}

func listMigrations(c *cli.Context) error {
	s, err := openSession(c, sessionOptions{})
	if err != nil {
		return err
	}
	defer s.Close()

	statuses, err := s.runner.ListMigrations(c.Context)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return printJSON(statuses)
	}
	if len(statuses) == 0 {
		fmt.Println("No migrations found")
		return nil
	}

	fmt.Println(styleHeader.Render(fmt.Sprintf("%-16s %-10s %-20s %s", "Version", "State", "Applied", "Description")))
	for _, st := range statuses {
		state, style := "pending", stylePending
		switch {
		case st.Missing:
			state, style = "missing", styleMissing
		case st.Applied:
			state, style = "applied", styleApplied
		}
		applied := ""
		if st.AppliedOn != nil {
			applied = st.AppliedOn.Format("2006-01-02 15:04:05")
		}
		fmt.Printf("%-16d %s %-20s %s\n", st.Version, style.Render(fmt.Sprintf("%-10s", state)), applied, st.Description)
	}
	return nil
}

func previewMigrations(c *cli.Context) error {
	s, err := openSession(c, sessionOptions{})
	if err != nil {
		return err
	}
	defer s.Close()

	dir, target := runner.Up, int64(math.MaxInt64)
	if c.Bool("down") {
		dir, target = runner.Down, 0
	}
	if c.IsSet("to") {
		target = c.Int64("to")
	}

	planned, err := s.runner.Preview(c.Context, dir, target)
	if err != nil {
		return err
	}
	if len(planned) == 0 {
		fmt.Println("Nothing to do")
		return nil
	}
	for _, p := range planned {
		label := "version table"
		if p.Version != 0 {
			label = fmt.Sprintf("%d: %s", p.Version, p.Description)
		}
		fmt.Println(styleHeader.Render(fmt.Sprintf("-- %s (%s)", label, p.Direction)))
		for _, stmt := range p.Statements {
			fmt.Printf("%s;\n", stmt)
		}
		fmt.Println()
	}
	return nil
}

// validateMigrations builds every migration both ways without touching the
// schema. Unless --offline is given it also checks the order against the
// version table.
func validateMigrations(c *cli.Context) error {
	offline := c.Bool("offline")
	s, err := openSession(c, sessionOptions{offline: offline})
	if err != nil {
		return err
	}
	defer s.Close()

	var problems []error
	for _, info := range s.registry.Sorted() {
		for _, dir := range []runner.Direction{runner.Up, runner.Down} {
			if _, err := s.runner.Expressions(dir, info); err != nil {
				problems = append(problems, fmt.Errorf("%s: %w", dir, err))
			}
		}
	}
	if !offline {
		if err := s.runner.ValidateVersionOrder(c.Context); err != nil {
			problems = append(problems, err)
		}
	}
	if len(problems) > 0 {
		for _, p := range problems {
			logging.Error("%v", p)
		}
		return fmt.Errorf("validation failed: %d problem(s)", len(problems))
	}
	logging.Info("All %d migrations are valid", s.registry.Len())
	return nil
}

func healthCheck(c *cli.Context) error {
	s, err := openSession(c, sessionOptions{})
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := s.runner.HealthCheck(c.Context)
	if err != nil {
		return err
	}
	if c.Bool("json") || c.Bool("output-json") {
		if err := printJSON(result); err != nil {
			return err
		}
	} else {
		state := styleApplied.Render("healthy")
		if !result.Healthy {
			state = styleMissing.Render("unhealthy")
		}
		fmt.Printf("%s %s (%dms)\n", result.DatabaseType, state, result.LatencyMs)
		if result.Error != "" {
			fmt.Printf("  error: %s\n", result.Error)
		}
		fmt.Printf("  version table: %v, applied: %d, pending: %d, latest: %d\n",
			result.VersionTable, result.AppliedCount, result.PendingCount, result.LatestVersion)
	}
	if !result.Healthy {
		return errors.New("health check failed: " + result.Error)
	}
	return nil
}

func showHistory(c *cli.Context) error {
	cfg, _, _, err := loadConfigWithOrigin(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	journal, err := openJournal(c, cfg)
	if err != nil {
		return err
	}
	if journal == nil {
		return errors.New("journal is disabled (journal.backend: none)")
	}
	defer journal.Close()

	if runID := c.String("run"); runID != "" {
		return printRun(journal, runID)
	}

	runs, err := journal.GetAllRuns()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded")
		return nil
	}
	fmt.Println(styleHeader.Render(fmt.Sprintf("%-10s %-6s %-10s %-20s %-20s %s", "Run", "Dir", "Status", "Started", "Database", "Error")))
	for _, r := range runs {
		fmt.Printf("%-10s %-6s %s %-20s %-20s %s\n",
			r.ID, r.Direction, statusStyle(r.Status).Render(fmt.Sprintf("%-10s", r.Status)),
			r.StartedAt.Format("2006-01-02 15:04:05"), r.Database, firstLine(r.Error))
	}
	return nil
}

func printRun(journal checkpoint.Journal, runID string) error {
	run, err := journal.GetRunByID(runID)
	if err != nil {
		return err
	}
	steps, err := journal.GetSteps(runID)
	if err != nil {
		return err
	}

	fmt.Println(styleHeader.Render("Run " + run.ID))
	fmt.Printf("  Direction: %s\n", run.Direction)
	fmt.Printf("  Status:    %s\n", statusStyle(run.Status).Render(run.Status))
	fmt.Printf("  Database:  %s\n", run.Database)
	fmt.Printf("  Started:   %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	if run.CompletedAt != nil {
		fmt.Printf("  Completed: %s (%s)\n", run.CompletedAt.Format("2006-01-02 15:04:05"),
			run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
	if run.ProfileName != "" {
		fmt.Printf("  Profile:   %s\n", run.ProfileName)
	}
	if run.ConfigPath != "" {
		fmt.Printf("  Config:    %s\n", run.ConfigPath)
	}
	if run.Error != "" {
		fmt.Printf("  Error:     %s\n", run.Error)
	}
	if len(steps) > 0 {
		fmt.Println()
		for _, st := range steps {
			fmt.Printf("  %-16d %s %-10s %s\n", st.Version,
				statusStyle(st.Status).Render(fmt.Sprintf("%-8s", st.Status)), st.Duration.Round(time.Millisecond), st.Description)
			if st.Error != "" {
				fmt.Printf("  %16s %s\n", "", styleMissing.Render(firstLine(st.Error)))
			}
		}
	}
	return nil
}

func statusStyle(status string) lipgloss.Style {
	switch status {
	case checkpoint.StatusSuccess:
		return styleApplied
	case checkpoint.StatusFailed, checkpoint.StatusCancelled:
		return styleMissing
	}
	return stylePending
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}

func startTUI(c *cli.Context) error {
	s, err := openSession(c, sessionOptions{})
	if err != nil {
		return err
	}
	defer s.Close()
	return tui.Start(context.Background(), s.runner)
}

func saveProfile(c *cli.Context) error {
	configPath := c.String("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	name := c.String("name")
	if name == "" {
		if cfg.Profile.Name != "" {
			name = cfg.Profile.Name
		} else {
			base := filepath.Base(configPath)
			name = strings.TrimSuffix(base, filepath.Ext(base))
		}
	}
	payload, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	state, err := openProfileStore()
	if err != nil {
		return err
	}
	defer state.Close()

	if err := state.SaveProfile(name, cfg.Profile.Description, payload); err != nil {
		return err
	}
	fmt.Printf("Saved profile %q\n", name)
	return nil
}

func listProfiles(c *cli.Context) error {
	state, err := openProfileStore()
	if err != nil {
		return err
	}
	defer state.Close()

	profiles, err := state.ListProfiles()
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		fmt.Println("No profiles found")
		return nil
	}
	fmt.Println(styleHeader.Render(fmt.Sprintf("%-20s %-40s %-20s %-20s", "Name", "Description", "Created", "Updated")))
	for _, p := range profiles {
		desc := strings.ReplaceAll(strings.TrimSpace(p.Description), "\n", " ")
		fmt.Printf("%-20s %-40s %-20s %-20s\n",
			p.Name,
			desc,
			p.CreatedAt.Format("2006-01-02 15:04:05"),
			p.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func deleteProfile(c *cli.Context) error {
	name := c.String("name")
	state, err := openProfileStore()
	if err != nil {
		return err
	}
	defer state.Close()

	if err := state.DeleteProfile(name); err != nil {
		return err
	}
	fmt.Printf("Deleted profile %q\n", name)
	return nil
}

func exportProfile(c *cli.Context) error {
	name := c.String("name")
	outPath := c.String("out")

	state, err := openProfileStore()
	if err != nil {
		return err
	}
	defer state.Close()

	blob, err := state.GetProfile(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, blob, 0600); err != nil {
		return err
	}
	fmt.Printf("Exported profile %q to %s\n", name, outPath)
	return nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// outputJSON writes v to stdout and/or the --output-file path.
func outputJSON(c *cli.Context, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if c.Bool("output-json") {
		fmt.Println(string(data))
	}
	if outputFile := c.String("output-file"); outputFile != "" {
		if err := os.WriteFile(outputFile, data, 0600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
	}
	return nil
}
