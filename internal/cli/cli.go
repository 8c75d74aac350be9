package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"s3put/internal/config"
	"s3put/internal/logging"
	"s3put/internal/state"
)

func Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("s3put", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	configPath, err := state.ConfigPath()
	if err != nil {
		return err
	}
	fs.StringVar(&configPath, "config", configPath, "path to config file")
	var logLevel string
	fs.StringVar(&logLevel, "log-level", "", "override log_level from config (trace|debug|info|warn|error|disabled)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return usageError()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logger := logging.Setup(cfg.LogLevel, os.Stderr)

	switch rest[0] {
	case "put":
		opts, target, source, err := parsePutArgs(rest[1:])
		if err != nil {
			return err
		}
		return runPut(ctx, cfg, logger, opts, target, source)
	case "get":
		opts, target, err := parseGetArgs(rest[1:])
		if err != nil {
			return err
		}
		return runGet(ctx, cfg, logger, opts, target)
	case "bucket":
		if len(rest) < 2 {
			return errors.New("missing bucket subcommand (create|delete)")
		}
		switch rest[1] {
		case "create":
			opts, bucket, err := parseBucketCreateArgs(rest[2:])
			if err != nil {
				return err
			}
			return runBucketCreate(ctx, cfg, opts, bucket)
		case "delete":
			opts, bucket, err := parseBucketDeleteArgs(rest[2:])
			if err != nil {
				return err
			}
			return runBucketDelete(ctx, cfg, opts, bucket)
		default:
			return errors.New("unknown bucket subcommand")
		}
	default:
		return usageError()
	}
}

func usageError() error {
	return errors.New("usage: s3put [-config path] [-log-level level] put|get|bucket ...")
}
