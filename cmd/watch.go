package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/studyx/internal/shared"
	"github.com/desertthunder/studyx/internal/ui"
	"github.com/urfave/cli/v3"
)

// Watch launches the interactive terminal UI following the given tasks.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	ids, err := parseTaskIDs(cmd.Args().Slice())
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if listen := r.config.Metrics.Listen; listen != "" {
		addr, err := r.serveMetrics(ctx, listen)
		if err != nil {
			return err
		}
		r.logger.Info("serving metrics", "addr", addr.String())
	}

	model := ui.NewModel(ctx, r.store, ids)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
