// Command wlddump decodes single WLD fragment payloads for inspection.
//
// Usage:
//
//	wlddump [--log-level LEVEL] decode [--schemas FILE] --type ID [--compression ALG] PAYLOAD
//	wlddump [--log-level LEVEL] schemas [--schemas FILE]
//
// Without --schemas the built-in catalog is used.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

const appName = "wlddump"

// app carries the state shared by the subcommands.
type app struct {
	log *zap.Logger
	out io.Writer
	in  io.Reader
	err io.Writer
}

func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	log, err := newLogger(cmd.String("log-level"), a.err)
	if err != nil {
		return ctx, err
	}
	a.log = log.Named(appName)
	a.log.Debug("Program started", zap.Strings("args", cmd.Args().Slice()))

	return ctx, nil
}

func (a *app) after(_ context.Context, _ *cli.Command) error {
	if a.log == nil {
		return nil
	}
	// syncing a console writer may fail harmlessly, e.g. on a terminal
	_ = a.log.Sync()

	return nil
}

// exitErr logs subcommand failures; the error itself is returned from Run
// and reported by main.
func (a *app) exitErr(_ context.Context, _ *cli.Command, err error) {
	if a.log != nil {
		a.log.Debug("Program ended with error", zap.Error(err))
	}
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:            appName,
		Usage:           "decodes WLD fragment payloads",
		HideHelpCommand: true,
		Reader:          a.in,
		Writer:          a.out,
		ErrWriter:       a.err,
		Before:          a.before,
		After:           a.after,
		ExitErrHandler:  a.exitErr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Value: "warn",
				Usage: "console log `LEVEL` (none, debug, normal, info, warn, error)"},
		},
		Commands: []*cli.Command{
			{
				Name:      "decode",
				Usage:     "Decodes one fragment payload and prints it as YAML",
				ArgsUsage: "PAYLOAD",
				Action:    a.runDecode,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "schemas", Aliases: []string{"s"}, Usage: "load fragment layouts from `FILE` (YAML)"},
					&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Required: true, Usage: "fragment type `ID`, decimal or 0x hex"},
					&cli.StringFlag{Name: "compression", Aliases: []string{"c"}, Value: "none",
						Usage: "payload file compression `ALG` (none, pfs, zlib, zstd, s2, lz4)"},
					&cli.IntFlag{Name: "offset", Usage: "skip `N` bytes before the payload"},
				},
			},
			{
				Name:   "schemas",
				Usage:  "Lists fragment layouts and their fingerprints",
				Action: a.runSchemas,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "schemas", Aliases: []string{"s"}, Usage: "load fragment layouts from `FILE` (YAML)"},
				},
			},
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := &app{out: os.Stdout, in: os.Stdin, err: os.Stderr}

	var err error
	defer func() {
		stop()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
			os.Exit(1)
		}
	}()
	err = a.command().Run(ctx, os.Args)
}
