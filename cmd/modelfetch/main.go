//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"go.bug.st/modelfetch"
	"go.bug.st/modelfetch/internal/config"
	"go.bug.st/modelfetch/internal/logger"
	"go.bug.st/modelfetch/manifest"
	"go.uber.org/zap"
)

// Exit codes. Failed downloads are reported on stdout and do not change the
// exit code.
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitInvalidArgs  = 2
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, installDir()))
}

// installDir returns the directory of the running executable, or the
// working directory if it cannot be determined.
func installDir() string {
	exe, err := os.Executable()
	if err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		return filepath.Dir(exe)
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

func run(ctx context.Context, args []string, stdout io.Writer, root string) int {
	cfg, err := config.Load(args, root)
	if errors.Is(err, pflag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Run 'modelfetch --help' for usage.")
		return ExitInvalidArgs
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return ExitGeneralError
	}
	defer func() { _ = log.Sync() }()

	if cfg.Insecure {
		log.Warn("TLS certificate verification is disabled")
	}

	d := modelfetch.New(modelfetch.Config{
		UserAgent:          modelfetch.DefaultUserAgent,
		InsecureSkipVerify: cfg.Insecure,
		TransportRetries:   cfg.TransportRetries,
		KeepPartial:        cfg.KeepPartial,
		Output:             stdout,
		Logger:             log,
	})
	runner := &manifest.Runner{
		Fetcher:    d,
		Out:        stdout,
		Logger:     log,
		MaxRetries: cfg.Retries,
		Timeout:    cfg.Timeout,
	}
	models := manifest.Default(cfg.Root)

	switch cfg.Mode() {
	case config.ModeAll:
		log.Info("downloading manifest", zap.Int("models", len(models)), zap.String("root", cfg.Root))
		runner.Run(ctx, models)
	case config.ModeSingle:
		runner.Fetch(ctx, manifest.Entry{
			Name:        filepath.Base(cfg.Destination),
			URL:         cfg.URL,
			Destination: cfg.Destination,
		})
	default:
		fmt.Fprintln(stdout, "Downloading the default checkpoint...")
		runner.Fetch(ctx, models[0])
	}
	return ExitSuccess
}
