package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/sgaunet/s3-nocheck-resource/pkg/config"
	"github.com/sgaunet/s3-nocheck-resource/pkg/errs"
	"github.com/sgaunet/s3-nocheck-resource/pkg/resource"
)

const (
	cmdCheck = "check"
	cmdIn    = "in"
	cmdOut   = "out"
)

func main() {
	app := newApp(resource.New(), os.Stdin, os.Stdout, os.Stderr)
	if err := app.Run(commandArgs(os.Args)); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}
}

// commandArgs lets the binary be installed as /opt/resource/{check,in,out}:
// when invoked under one of those names, the name becomes the subcommand.
func commandArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}
	switch filepath.Base(args[0]) {
	case cmdCheck, cmdIn, cmdOut:
		out := make([]string, 0, len(args)+1)
		out = append(out, args[0], filepath.Base(args[0]))
		return append(out, args[1:]...)
	}
	return args
}

func newApp(res *resource.Resource, stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	var cancel context.CancelFunc = func() {}

	return &cli.App{
		Name:      "s3resource",
		Usage:     "Concourse resource syncing files with an S3 prefix",
		Writer:    stderr,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"S3_RESOURCE_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "request-file",
				Usage:   "Read the request from a YAML or JSON file instead of stdin",
				EnvVars: []string{"S3_RESOURCE_REQUEST_FILE"},
			},
		},
		Before: func(c *cli.Context) error {
			l := initTrace(c.String("log-level"), stderr)
			res.SetLogger(l)
			var ctx context.Context
			ctx, cancel = context.WithCancel(c.Context)
			SetupCloseHandler(ctx, cancel, l)
			c.Context = ctx
			return nil
		},
		After: func(*cli.Context) error {
			cancel()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  cmdCheck,
				Usage: "Echo the requested version",
				Action: func(c *cli.Context) error {
					var req config.CheckRequest
					if err := readRequest(c, stdin, &req); err != nil {
						return err
					}
					return writeResponse(stdout, res.Check(req))
				},
			},
			{
				Name:      cmdIn,
				Usage:     "Download every object under the version path",
				ArgsUsage: "<destination>",
				Action: func(c *cli.Context) error {
					dir, err := directoryArg(c)
					if err != nil {
						return err
					}
					var req config.InRequest
					if err := readRequest(c, stdin, &req); err != nil {
						return err
					}
					resp, err := res.In(c.Context, req, dir)
					if err != nil {
						return err
					}
					return writeResponse(stdout, resp)
				},
			},
			{
				Name:      cmdOut,
				Usage:     "Upload the files matching the glob under the resolved prefix",
				ArgsUsage: "<source>",
				Action: func(c *cli.Context) error {
					dir, err := directoryArg(c)
					if err != nil {
						return err
					}
					var req config.OutRequest
					if err := readRequest(c, stdin, &req); err != nil {
						return err
					}
					resp, err := res.Out(c.Context, req, dir)
					if err != nil {
						return err
					}
					return writeResponse(stdout, resp)
				},
			},
		},
	}
}

func directoryArg(c *cli.Context) (string, error) {
	dir := c.Args().First()
	if dir == "" {
		return "", errs.Configuration(c.Command.Name, "missing directory argument")
	}
	return dir, nil
}

func readRequest(c *cli.Context, stdin io.Reader, v any) error {
	if fileName := c.String("request-file"); fileName != "" {
		return config.ReadYamlRequestFile(fileName, v)
	}
	return config.ReadRequest(stdin, v)
}

func writeResponse(w io.Writer, v any) error {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("writeResponse: error encoding response: %w", err)
	}
	return nil
}

func SetupCloseHandler(ctx context.Context, cancelFunc context.CancelFunc, log *slog.Logger) {
	c := make(chan os.Signal, 5)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		defer signal.Stop(c)
		select {
		case s := <-c:
			log.Info("INFO: signal received", slog.String("signal", s.String()))
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// initTrace initializes the logger. Stdout carries the response, so logs go
// to w.
func initTrace(debugLevel string, w io.Writer) *slog.Logger {
	handlerOptions := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}

	switch debugLevel {
	case "debug":
		handlerOptions.Level = slog.LevelDebug
		handlerOptions.AddSource = true
	case "info":
		handlerOptions.Level = slog.LevelInfo
	case "warn":
		handlerOptions.Level = slog.LevelWarn
	case "error":
		handlerOptions.Level = slog.LevelError
	default:
		handlerOptions.Level = slog.LevelInfo
	}

	handler := slog.NewTextHandler(w, handlerOptions)
	logger := slog.New(handler)
	return logger
}
