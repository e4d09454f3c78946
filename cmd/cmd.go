// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand initializes the database and config scaffold
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Initialize database and run migrations",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// authCommand runs the local Spotify OAuth flow
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "auth",
		Usage:  "Authenticate with Spotify using OAuth2",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Auth,
	}
}

// suggestCommand runs the suggestion pipeline from the terminal
func suggestCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "suggest",
		Aliases: []string{"s"},
		Usage:   "Suggest songs for this day in music history",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "date",
				Aliases: []string{"d"},
				Usage:   "Date override in YYYY-MM-DD form (defaults to today)",
			},
			&cli.StringSliceFlag{
				Name:  "hint",
				Usage: "Taste hint folded into the prompt (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write results to a file (.csv, .md, .json, or plain text)",
			},
			&cli.BoolFlag{
				Name:  "tui",
				Usage: "Browse results in an interactive list",
			},
		},
		Action: r.Suggest,
	}
}

// feedbackCommand manages stored taste feedback
func feedbackCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "feedback",
		Aliases: []string{"fb"},
		Usage:   "Manage taste feedback used to steer suggestions",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Store a taste note",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "text"},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "user",
						Usage: "User the note belongs to",
						Value: "local",
					},
				},
				Action: r.FeedbackAdd,
			},
			{
				Name:  "list",
				Usage: "List stored taste notes, newest first",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "user",
						Usage: "User to list notes for",
						Value: "local",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of notes to return",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.FeedbackList,
			},
		},
	}
}

// serveCommand starts the web API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Start the suggestion web API",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Serve,
	}
}
