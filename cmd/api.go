package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/plexdance/internal/shared"
)

// APIGet makes a direct GET request to the Plex server.
//
// With --curl the request is not sent; the equivalent curl command is
// printed instead, token redacted so it is safe to paste into a bug report.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: server path, e.g. /library/sections", shared.ErrMissingArgument)
	}

	client, err := r.ensureClient(cmd)
	if err != nil {
		return err
	}

	if cmd.Bool("curl") {
		curl := client.CurlCommand(path)
		return r.writePlain("%s\n", shared.RedactToken(curl, client.Token()))
	}

	r.logger.Info("GET request", "path", path)

	resp, err := client.Raw(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, !cmd.Bool("json"))
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}
