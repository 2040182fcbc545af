//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package manifest

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"go.bug.st/modelfetch"
	"go.uber.org/zap"
)

// Fetcher downloads a single request. *modelfetch.Downloader implements it.
type Fetcher interface {
	Download(ctx context.Context, req modelfetch.Request) bool
}

// Summary lists the destinations processed by Run, grouped by outcome.
type Summary struct {
	Downloaded []string
	Skipped    []string
	Failed     []string
}

// Runner downloads manifest entries sequentially.
type Runner struct {
	Fetcher Fetcher
	// Out receives status lines and remediation text. Defaults to os.Stdout.
	Out io.Writer
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
	// MaxRetries and Timeout are copied into every request; zero values
	// select the downloader defaults.
	MaxRetries int
	Timeout    time.Duration
}

func (r *Runner) out() io.Writer {
	if r.Out == nil {
		return os.Stdout
	}
	return r.Out
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// Run processes every entry in order. Entries whose destination already
// exists are skipped without touching the network. A failed entry prints
// remediation instructions and does not stop the run.
func (r *Runner) Run(ctx context.Context, m Manifest) Summary {
	var sum Summary
	for i, e := range m {
		log := r.logger().With(zap.String("model", e.Name), zap.String("destination", e.Destination))

		exists, err := fileExists(e.Destination)
		if err != nil {
			log.Warn("cannot stat destination, downloading anyway", zap.Error(err))
		}
		if exists {
			color.New(color.FgYellow).Fprintf(r.out(), "[%d/%d] Skipping %s: %s already exists\n", i+1, len(m), e.Name, e.Destination)
			log.Info("skipping existing model")
			sum.Skipped = append(sum.Skipped, e.Destination)
			continue
		}

		color.New(color.FgCyan, color.Bold).Fprintf(r.out(), "[%d/%d] Downloading %s\n", i+1, len(m), e.Name)
		if r.Fetch(ctx, e) {
			sum.Downloaded = append(sum.Downloaded, e.Destination)
		} else {
			sum.Failed = append(sum.Failed, e.Destination)
		}
	}

	log := r.logger()
	log.Info("manifest processed",
		zap.Int("downloaded", len(sum.Downloaded)),
		zap.Int("skipped", len(sum.Skipped)),
		zap.Int("failed", len(sum.Failed)))
	color.New(color.Bold).Fprintf(r.out(), "\nDownloaded: %d, skipped: %d, failed: %d\n",
		len(sum.Downloaded), len(sum.Skipped), len(sum.Failed))
	return sum
}

// Fetch downloads a single entry, printing remediation instructions if it
// fails. The destination is overwritten if present.
func (r *Runner) Fetch(ctx context.Context, e Entry) bool {
	ok := r.Fetcher.Download(ctx, modelfetch.Request{
		URL:         e.URL,
		Destination: e.Destination,
		MaxRetries:  r.MaxRetries,
		Timeout:     r.Timeout,
	})
	if !ok {
		r.logger().Error("model download failed", zap.String("model", e.Name), zap.String("url", e.URL))
		PrintRemediation(r.out(), e)
	}
	return ok
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
