package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/studyx/internal/formatter"
	"github.com/desertthunder/studyx/internal/models"
	"github.com/desertthunder/studyx/internal/shared"
	"github.com/desertthunder/studyx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// TaskGet fetches one task and renders it.
func (r *Runner) TaskGet(ctx context.Context, cmd *cli.Command) error {
	ids, err := parseTaskIDs(cmd.Args().Slice())
	if err != nil {
		return err
	}
	if len(ids) != 1 {
		return fmt.Errorf("%w: expected exactly one task id", shared.ErrInvalidArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	r.logger.Info("getting task", "task_id", ids[0])

	task, err := r.store.GetTask(ctx, ids[0])
	if err != nil {
		return err
	}

	data, err := formatter.RenderTasks([]models.Task{task}, format)
	if err != nil {
		return err
	}
	return r.writeRendered(data, cmd.String("output"))
}

// TaskSave saves code for a task and reports the verdict the store now holds.
func (r *Runner) TaskSave(ctx context.Context, cmd *cli.Command) error {
	ids, err := parseTaskIDs(cmd.Args().Slice())
	if err != nil {
		return err
	}
	if len(ids) != 1 {
		return fmt.Errorf("%w: expected exactly one task id", shared.ErrInvalidArgument)
	}
	id := ids[0]

	code := cmd.String("code")
	codeFile := cmd.String("code-file")
	if code != "" && codeFile != "" {
		return fmt.Errorf("%w: cannot specify both --code and --code-file", shared.ErrInvalidArgument)
	}
	if codeFile != "" {
		data, err := os.ReadFile(codeFile)
		if err != nil {
			return fmt.Errorf("failed to read code file: %w", err)
		}
		code = string(data)
	}

	verdict, ok := models.ParseVerdict(cmd.String("verdict"))
	if !ok {
		return fmt.Errorf("%w: unknown verdict %q", shared.ErrInvalidArgument, cmd.String("verdict"))
	}

	r.logger.Info("saving task", "task_id", id, "verdict", verdict)

	if err := r.store.SaveTask(ctx, id, code, verdict.Bool()); err != nil {
		return err
	}

	r.writePlain("✓ Saved task %d\n", id)
	if verdict.Known() {
		r.writePlain("Verdict: %s\n", r.store.Correctness(id))
	}
	return nil
}

// TaskFetch refreshes the given tasks in one batch and renders them in argument order.
func (r *Runner) TaskFetch(ctx context.Context, cmd *cli.Command) error {
	ids, err := parseTaskIDs(cmd.Args().Slice())
	if err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	updates := make(chan tasks.FetchUpdate, len(ids)+2)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range updates {
			r.logger.Info(u.Message, "phase", u.Phase, "step", u.Step, "total", u.Total)
		}
	}()

	list, err := r.store.FetchTasks(ctx, tasksFor(ids), tasks.WithUpdates(updates))
	close(updates)
	<-done
	if err != nil {
		return err
	}

	data, err := formatter.RenderTasks(list, format)
	if err != nil {
		return err
	}
	return r.writeRendered(data, cmd.String("output"))
}
