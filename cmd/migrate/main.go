package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	_ "github.com/johndauphine/mariadb-migrate/internal/driver/mysql"
	"github.com/johndauphine/mariadb-migrate/internal/exitcodes"
	"github.com/johndauphine/mariadb-migrate/internal/logging"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "mariadb-migrate",
		Usage:   "Versioned schema migrations for MySQL and MariaDB",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "Path to configuration file",
			},
			&cli.StringFlag{
				Name:  "profile",
				Usage: "Profile name stored in SQLite (instead of --config)",
			},
			&cli.StringFlag{
				Name:  "state-file",
				Usage: "Keep the run journal in a YAML file instead of SQLite",
			},
			&cli.StringFlag{
				Name:  "migrations",
				Usage: "Directory of YAML migrations (overrides migrations.dir)",
			},
			&cli.StringSliceFlag{
				Name:  "tag",
				Usage: "Only run migrations carrying this tag (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "output-json",
				Usage: "Output JSON result to stdout on completion (logs go to stderr)",
			},
			&cli.StringFlag{
				Name:  "output-file",
				Usage: "Write JSON result to file on completion",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Value: "text",
				Usage: "Log format: text or json",
			},
			&cli.StringFlag{
				Name:  "verbosity",
				Value: "info",
				Usage: "Log verbosity level (debug, info, warn, error)",
			},
		},
		Before: func(c *cli.Context) error {
			level, err := logging.ParseLevel(c.String("verbosity"))
			if err != nil {
				return err
			}
			logging.SetLevel(level)

			if _, err := logging.ParseFormat(c.String("log-format")); err != nil {
				return err
			}
			logging.SetFormat(c.String("log-format"))

			// stdout is reserved for the JSON result
			if c.Bool("output-json") || c.String("output-file") != "" {
				logging.SetOutput(os.Stderr)
			}
			return nil
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return startTUI(c)
			}
			return cli.ShowAppHelp(c)
		},
		Commands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "Apply pending migrations",
				Action: migrateUp,
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:  "to",
						Usage: "Stop after this version (default: latest)",
					},
					&cli.BoolFlag{
						Name:  "preview",
						Usage: "Log the SQL without executing it",
					},
				},
			},
			{
				Name:   "down",
				Usage:  "Revert applied migrations above a version",
				Action: migrateDown,
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:     "to",
						Required: true,
						Usage:    "Keep this version and everything below it (0 reverts all)",
					},
					&cli.BoolFlag{
						Name:  "preview",
						Usage: "Log the SQL without executing it",
					},
				},
			},
			{
				Name:   "rollback",
				Usage:  "Revert the most recently applied migrations",
				Action: rollback,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "steps",
						Value: 1,
						Usage: "Number of migrations to revert",
					},
					&cli.BoolFlag{
						Name:  "preview",
						Usage: "Log the SQL without executing it",
					},
				},
			},
			{
				Name:   "list",
				Usage:  "List migrations and whether each is applied",
				Action: listMigrations,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
				},
			},
			{
				Name:   "preview",
				Usage:  "Print the SQL a run would execute",
				Action: previewMigrations,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "down",
						Usage: "Preview reverting instead of applying",
					},
					&cli.Int64Flag{
						Name:  "to",
						Usage: "Target version (default: latest for up, 0 for down)",
					},
				},
			},
			{
				Name:   "validate",
				Usage:  "Build and validate every migration in both directions",
				Action: validateMigrations,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "offline",
						Usage: "Skip the version order check against the database",
					},
				},
			},
			{
				Name:   "health",
				Usage:  "Check connectivity and the version table",
				Action: healthCheck,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
				},
			},
			{
				Name:  "history",
				Usage: "List runs, or view details of a specific run",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "run",
						Usage: "Show details for a specific run ID",
					},
				},
				Action: showHistory,
			},
			{
				Name:   "tui",
				Usage:  "Browse migrations interactively",
				Action: startTUI,
			},
			{
				Name:  "profile",
				Usage: "Manage encrypted profiles stored in SQLite",
				Subcommands: []*cli.Command{
					{
						Name:   "save",
						Usage:  "Save a profile from a config file",
						Action: saveProfile,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:    "name",
								Aliases: []string{"n"},
								Usage:   "Profile name (inferred from profile.name or filename if omitted)",
							},
						},
					},
					{
						Name:   "list",
						Usage:  "List saved profiles",
						Action: listProfiles,
					},
					{
						Name:   "delete",
						Usage:  "Delete a saved profile",
						Action: deleteProfile,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "name",
								Aliases:  []string{"n"},
								Required: true,
								Usage:    "Profile name",
							},
						},
					},
					{
						Name:   "export",
						Usage:  "Export a profile to a config file",
						Action: exportProfile,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "name",
								Aliases:  []string{"n"},
								Required: true,
								Usage:    "Profile name",
							},
							&cli.StringFlag{
								Name:    "out",
								Aliases: []string{"o"},
								Value:   "config.yaml",
								Usage:   "Output path for exported config",
							},
						},
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		code := exitcodes.FromError(err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if code != exitcodes.Success {
			fmt.Fprintf(os.Stderr, "(%s)\n", exitcodes.Description(code))
		}
		os.Exit(code)
	}
}
