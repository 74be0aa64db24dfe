package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/studyx/internal/services"
	"github.com/desertthunder/studyx/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request to the backend
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	query, err := parseQuery(cmd.StringSlice("query"))
	if err != nil {
		return err
	}

	r.logger.Info("GET request", "path", path, "query", query.Encode())

	resp, err := r.api.Get(ctx, path, query)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writeResponse(resp, cmd.Bool("pretty"))
}

// APIPost makes a direct POST request to the backend
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data := cmd.String("data")

	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	r.logger.Info("POST request", "path", path)

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	resp, err := r.api.Post(ctx, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writeResponse(resp, true)
}

func (r *Runner) writeResponse(resp *services.APIResponse, pretty bool) error {
	if err := resp.Err(); err != nil {
		return err
	}

	r.logger.Debug("response", "status", resp.StatusCode, "request_id", resp.RequestID)

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}
	return r.writePlain("%s\n", resp.Body)
}

// parseQuery turns key=value pairs into query values.
func parseQuery(pairs []string) (url.Values, error) {
	query := url.Values{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: query %q must be key=value", shared.ErrInvalidArgument, pair)
		}
		query.Add(key, value)
	}
	return query, nil
}
