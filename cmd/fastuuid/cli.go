package main

import (
	"context"
	"io"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// CLI is the full command line. Flags fall back to FASTUUID_* variables.
type CLI struct {
	Debug bool `help:"Enable debug logging." env:"FASTUUID_DEBUG"`

	Gen     GenCmd     `cmd:"" help:"Generate UUIDs."`
	Inspect InspectCmd `cmd:"" help:"Show every encoding and field of UUIDs."`
	Convert ConvertCmd `cmd:"" help:"Convert UUIDs between encodings."`
}

// runEnv is bound into every command's Run method.
type runEnv struct {
	ctx context.Context
	out io.Writer
	log *logrus.Logger
}

func run(ctx context.Context, args []string, out io.Writer, log *logrus.Logger) error {
	var cli CLI
	k, err := kong.New(&cli,
		kong.Name("fastuuid"),
		kong.Description("Generate, inspect and convert RFC 4122 / RFC 9562 UUIDs."),
		kong.Writers(out, log.Out),
		kong.ShortUsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	if err != nil {
		return errors.Wrap(err, "unable to create new kong instance")
	}

	kctx, err := k.Parse(args)
	if err != nil {
		return errors.Wrap(err, "unable to parse CLI options")
	}

	if cli.Debug {
		log.SetLevel(logrus.DebugLevel)
	}
	log.Debugf("running %q", kctx.Command())

	return kctx.Run(&runEnv{ctx: ctx, out: out, log: log})
}
