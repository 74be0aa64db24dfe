// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func formatFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, csv, markdown or json",
			Value:   "text",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write output to a file instead of stdout",
		},
	}
}

// setupCommand handles setup operations for configuration and the development database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write an example config.toml",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize the development database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// taskCommand handles single task and batch operations against the backend.
func taskCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "task",
		Usage: "Read and save tasks",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Fetch one task's saved code and verdict",
				ArgsUsage: "<task-id>",
				Flags:     formatFlags(),
				Action:    r.TaskGet,
			},
			{
				Name:      "save",
				Usage:     "Save code for a task, optionally with a verdict",
				ArgsUsage: "<task-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "code",
						Usage: "Code to save",
					},
					&cli.StringFlag{
						Name:  "code-file",
						Usage: "Read the code to save from a file",
					},
					&cli.StringFlag{
						Name:  "verdict",
						Usage: "correct, incorrect or undetermined (leaves the stored verdict alone)",
					},
				},
				Action: r.TaskSave,
			},
			{
				Name:      "fetch",
				Usage:     "Refresh several tasks concurrently and print them in order",
				ArgsUsage: "<task-id>...",
				Flags:     formatFlags(),
				Action:    r.TaskFetch,
			},
		},
	}
}

// progressCommand handles the progress map.
func progressCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "progress",
		Usage: "Inspect solved and failed tasks",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Load and print the progress map",
				Flags:  formatFlags(),
				Action: r.ProgressShow,
			},
			{
				Name:      "check",
				Usage:     "Print the verdict for one task",
				ArgsUsage: "<task-id>",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the verdict",
						Value: 10 * time.Second,
					},
				},
				Action: r.ProgressCheck,
			},
		},
	}
}

// apiCommand handles direct backend calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the backend",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET to the backend, prints the JSON response",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Query parameter as key=value, repeatable",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// watchCommand returns the top-level TUI command that follows tasks live.
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Aliases:   []string{"tui", "ui"},
		Usage:     "Launch interactive TUI following tasks and progress",
		ArgsUsage: "<task-id>...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the TUI owns the terminal",
				Value: "./tmp/studyx-watch.log",
			},
		},
		Action: r.Watch,
	}
}

// serveCommand runs the development backend.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the task and progress endpoints from the local database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to server.host:server.port)",
			},
		},
		Action: r.Serve,
	}
}
