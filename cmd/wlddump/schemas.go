package main

import (
	"context"
	"fmt"

	cli "github.com/urfave/cli/v3"
)

func (a *app) runSchemas(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	schemas, err := a.schemas(cmd.String("schemas"))
	if err != nil {
		return err
	}

	for _, s := range schemas {
		if _, err := fmt.Fprintf(a.out, "%016x %s\n", s.Fingerprint(), s.Layout()); err != nil {
			return err
		}
	}

	return nil
}
