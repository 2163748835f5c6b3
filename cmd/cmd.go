// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// filterFlags are shared by the commands that read a filtered view of the list.
func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "search",
			Aliases: []string{"s"},
			Usage:   "Match title, cast or directors",
		},
		&cli.StringSliceFlag{
			Name:    "genre",
			Aliases: []string{"g"},
			Usage:   "Require a genre (repeatable, any match)",
		},
		&cli.StringSliceFlag{
			Name:  "type",
			Usage: "Require a type such as movie or series (repeatable)",
		},
		&cli.IntFlag{
			Name:  "decade",
			Usage: "Only entries released in the decade starting at this year, e.g. 1990",
		},
		&cli.FloatFlag{
			Name:  "min-rating",
			Usage: "Minimum IMDb rating",
		},
		&cli.StringFlag{
			Name:  "release",
			Usage: "all, released or unreleased",
			Value: "all",
		},
		&cli.BoolFlag{
			Name:  "hide-seen",
			Usage: "Hide entries marked seen",
		},
		&cli.BoolFlag{
			Name:  "recent",
			Usage: "Only entries added in the last 30 days",
		},
		&cli.StringFlag{
			Name:  "sort",
			Usage: "rating, runtime, title, recent, newest or oldest (default from config)",
		},
	}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
			Value: true,
		},
	}
}

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config file from the built-in template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "migrations",
				Usage:  "Show applied and pending migrations",
				Flags:  outputFlags(),
				Action: r.MigrationsStatus,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.MigrationsRollback,
			},
		},
	}
}

// authCommand handles sign-in operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the signed-in account",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in through the identity provider in a browser",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser callback",
						Value: defaultLoginTimeout,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show the signed-in account",
				Action: r.AuthStatus,
			},
			{
				Name:  "logout",
				Usage: "Forget the signed-in account and browse the sample list",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "purge",
						Usage: "Also delete the account's stored watchlist and user record",
					},
				},
				Action: r.AuthLogout,
			},
			{
				Name:  "accounts",
				Usage: "List accounts that have signed in on this machine",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "email",
						Usage: "Only show the account with this email",
					},
				},
				Action: r.AuthAccounts,
			},
		},
	}
}

// listCommand prints one page of the filtered, sorted list.
func listCommand(r *Runner) *cli.Command {
	flags := append(filterFlags(),
		&cli.IntFlag{
			Name:  "page-size",
			Usage: "Entries per page (default from config)",
		},
		&cli.IntFlag{
			Name:    "page",
			Aliases: []string{"p"},
			Usage:   "Page number",
			Value:   1,
		},
	)
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List watchlist entries",
		Flags:   append(flags, outputFlags()...),
		Action:  r.List,
	}
}

// facetsCommand prints the filter values present in the list.
func facetsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "facets",
		Usage:  "Show the genres, types and decades in the list",
		Flags:  outputFlags(),
		Action: r.Facets,
	}
}

func seenCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "seen",
		Usage: "Toggle the seen flag of an entry",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Action: r.ToggleSeen,
	}
}

func removeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "remove",
		Aliases: []string{"rm"},
		Usage:   "Remove an entry from the list",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Action: r.Remove,
	}
}

// bulkCommand applies one operation to a set of ids.
func bulkCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "bulk",
		Usage: "Apply an operation to several entries",
		Commands: []*cli.Command{
			{
				Name:      "seen",
				Usage:     "Mark entries seen",
				ArgsUsage: "<id>...",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "unseen",
						Usage: "Mark entries unseen instead",
					},
				},
				Action: r.BulkSeen,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove entries",
				ArgsUsage: "<id>...",
				Action:    r.BulkRemove,
			},
		},
	}
}

func importCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import a JSON array of entries",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "path"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "replace",
				Usage: "Replace the list instead of merging by id",
			},
		},
		Action: r.Import,
	}
}

func exportCommand(r *Runner) *cli.Command {
	flags := append(filterFlags(),
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "json, csv, markdown or txt",
			Value:   "json",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output file (markdown with --posters: output directory)",
		},
		&cli.StringFlag{
			Name:  "title",
			Usage: "Document title for markdown and text exports",
			Value: "Watchlist",
		},
		&cli.BoolFlag{
			Name:  "posters",
			Usage: "Download posters next to a markdown export",
		},
	)
	return &cli.Command{
		Name:   "export",
		Usage:  "Export the (filtered) list to a file",
		Flags:  flags,
		Action: r.Export,
	}
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the metadata provider for titles to add",
		ArgsUsage: "<title>",
		Flags: append(outputFlags(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results",
				Value: 10,
			},
		),
		Action: r.Search,
	}
}

func addCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Look up an id and add it to the list",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Action: r.Add,
	}
}

func enrichCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "enrich",
		Usage: "Fill in missing ratings",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "source",
				Usage: "ai (completion service) or omdb (metadata provider)",
				Value: "ai",
			},
		},
		Action: r.Enrich,
	}
}

func askCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Ask a natural-language question about the (filtered) list",
		ArgsUsage: "<question>",
		Flags:     append(filterFlags(), outputFlags()...),
		Action:    r.Ask,
	}
}

// tuiCommand returns the top-level TUI command for interactive browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Browse the watchlist interactively",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the TUI owns the terminal",
				Value: "./tmp/wlx-tui.log",
			},
		},
		Action: r.TUI,
	}
}
