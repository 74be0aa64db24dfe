package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/studyx/internal/formatter"
	"github.com/desertthunder/studyx/internal/shared"
	"github.com/urfave/cli/v3"
)

// ProgressShow loads the progress map and renders it.
func (r *Runner) ProgressShow(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	r.logger.Info("loading progress")

	if err := r.store.LoadProgress(ctx); err != nil {
		return err
	}

	data, err := formatter.RenderProgress(r.store.Progress(), format)
	if err != nil {
		return err
	}
	return r.writeRendered(data, cmd.String("output"))
}

// ProgressCheck prints the verdict for one task once progress has loaded.
//
// The verdict view is subscribed before the load so the first value it emits is the loaded one.
func (r *Runner) ProgressCheck(ctx context.Context, cmd *cli.Command) error {
	ids, err := parseTaskIDs(cmd.Args().Slice())
	if err != nil {
		return err
	}
	if len(ids) != 1 {
		return fmt.Errorf("%w: expected exactly one task id", shared.ErrInvalidArgument)
	}

	ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()

	verdicts := r.store.IsTaskCorrect(ctx, ids[0])

	if err := r.store.LoadProgress(ctx); err != nil {
		return err
	}

	verdict, ok := <-verdicts
	if !ok {
		return fmt.Errorf("%w: no verdict for task %d", shared.ErrTimeout, ids[0])
	}
	return r.writePlain("Task %d: %s\n", ids[0], verdict)
}
