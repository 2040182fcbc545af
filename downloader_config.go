//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package modelfetch

import (
	"context"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultUserAgent is a browser-like User-Agent, some model hosts refuse
// requests coming from generic HTTP clients.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// ChunkSize is the size of the buffer used to stream the response body.
const ChunkSize = 8192

// Config contains the configuration for the downloader
type Config struct {
	// HttpClient to use to perform HTTP requests. If nil a client is built
	// from the other fields (InsecureSkipVerify, TransportRetries).
	HttpClient *http.Client
	// UserAgent sent with every request. Defaults to DefaultUserAgent.
	UserAgent string
	// ExtraHeaders to add to the HTTP requests.
	ExtraHeaders map[string]string
	// AcceptFunc is an optional function that will be called
	// once the response headers are received, before writing to disk.
	// If the function returns an error, the attempt fails.
	AcceptFunc func(resp *http.Response) error
	// InsecureSkipVerify disables TLS certificate verification. Opt-in only.
	InsecureSkipVerify bool
	// TransportRetries is how many times a round trip is retried on
	// connection-level errors, below the attempt loop.
	TransportRetries int
	// BackoffBase is the delay after the first failed attempt; it doubles
	// after every further failure. Defaults to one second.
	BackoffBase time.Duration
	// KeepPartial leaves a truncated destination file in place when an
	// attempt fails. By default it is removed.
	KeepPartial bool
	// Output receives the human readable status and progress lines.
	// Defaults to os.Stdout.
	Output io.Writer
	// Logger receives structured logs. Defaults to a no-op logger.
	Logger *zap.Logger
	// Sleep waits between attempts. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

var defaultConfig Config = Config{
	UserAgent:        DefaultUserAgent,
	TransportRetries: 3,
	BackoffBase:      time.Second,
}
var defaultConfigLock sync.Mutex

// SetDefaultConfig sets the configuration that will be used by the Download
// function.
func SetDefaultConfig(newConfig Config) {
	defaultConfigLock.Lock()
	defer defaultConfigLock.Unlock()
	defaultConfig = newConfig
}

// GetDefaultConfig returns a copy of the default configuration. The default
// configuration can be changed using the SetDefaultConfig function.
func GetDefaultConfig() Config {
	defaultConfigLock.Lock()
	defer defaultConfigLock.Unlock()

	// deep copy struct
	res := defaultConfig
	if defaultConfig.ExtraHeaders != nil {
		res.ExtraHeaders = make(map[string]string, len(defaultConfig.ExtraHeaders))
		for k, v := range defaultConfig.ExtraHeaders {
			res.ExtraHeaders[k] = v
		}
	}
	return res
}

func (c Config) withDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.TransportRetries < 0 {
		c.TransportRetries = 0
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = time.Second
	}
	if c.Output == nil {
		c.Output = os.Stdout
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Sleep == nil {
		c.Sleep = sleepContext
	}
	return c
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
