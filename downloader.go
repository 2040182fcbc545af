//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package modelfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Defaults applied to zero fields of a Request.
const (
	DefaultMaxRetries = 5
	DefaultTimeout    = 600 * time.Second
)

var (
	// ErrInvalidRequest is returned by Request.Validate.
	ErrInvalidRequest = errors.New("invalid download request")
	// ErrHTTPStatus is wrapped by every StatusError.
	ErrHTTPStatus = errors.New("unexpected HTTP status")
)

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s", ErrHTTPStatus, e.Status)
}

func (e *StatusError) Unwrap() error {
	return ErrHTTPStatus
}

// Request describes a single download: the resource at URL is saved to
// Destination, trying at most MaxRetries times. Timeout bounds connecting,
// waiting for the response headers and every pause between two chunks of
// the body.
type Request struct {
	URL         string
	Destination string
	MaxRetries  int
	Timeout     time.Duration
}

func (r Request) withDefaults() Request {
	if r.MaxRetries == 0 {
		r.MaxRetries = DefaultMaxRetries
	}
	if r.Timeout == 0 {
		r.Timeout = DefaultTimeout
	}
	return r
}

// Validate checks that the request can be attempted at all.
func (r Request) Validate() error {
	u, err := url.Parse(r.URL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported URL scheme %q", ErrInvalidRequest, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host in URL %q", ErrInvalidRequest, r.URL)
	}
	if r.Destination == "" {
		return fmt.Errorf("%w: empty destination", ErrInvalidRequest)
	}
	if r.MaxRetries < 1 {
		return fmt.Errorf("%w: max retries must be at least 1, got %d", ErrInvalidRequest, r.MaxRetries)
	}
	if r.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidRequest, r.Timeout)
	}
	return nil
}

// AttemptResult is the outcome of one attempt.
type AttemptResult struct {
	// Attempt is the 1-based attempt number.
	Attempt      int
	Succeeded    bool
	BytesWritten int64
	// TotalSize is the declared Content-Length, or -1 if unknown.
	TotalSize int64
	Err       error
}

// Result is the outcome of a whole download.
type Result struct {
	Succeeded bool
	Attempts  []AttemptResult
}

// Downloader performs downloads with retries.
type Downloader struct {
	cfg Config
}

// New returns a Downloader using the given configuration. Zero fields get
// sensible defaults.
func New(config Config) *Downloader {
	return &Downloader{cfg: config.withDefaults()}
}

// Download saves reqURL to file using the default configuration and the
// default number of retries and timeout.
func Download(ctx context.Context, file string, reqURL string) bool {
	return New(GetDefaultConfig()).Download(ctx, Request{URL: reqURL, Destination: file})
}

// Download runs req and reports whether the destination was fully written.
// Errors are logged and printed, never returned.
func (d *Downloader) Download(ctx context.Context, req Request) bool {
	return d.Do(ctx, req).Succeeded
}

// Do runs req like Download and returns the outcome of every attempt.
func (d *Downloader) Do(ctx context.Context, req Request) Result {
	req = req.withDefaults()
	out := d.cfg.Output
	log := d.cfg.Logger.With(zap.String("url", req.URL), zap.String("destination", req.Destination))

	var res Result
	if err := req.Validate(); err != nil {
		fmt.Fprintf(out, "Cannot download %s: %v\n", req.URL, err)
		log.Error("invalid download request", zap.Error(err))
		return res
	}

	client := d.cfg.HttpClient
	if client == nil {
		client = newHTTPClient(d.cfg, req.Timeout)
	}
	delays := newBackoff(d.cfg.BackoffBase)

	for i := 0; i < req.MaxRetries; i++ {
		fmt.Fprintf(out, "Download attempt %d/%d: %s to %s\n", i+1, req.MaxRetries, req.URL, req.Destination)
		ar := d.attempt(ctx, client, req, i)
		res.Attempts = append(res.Attempts, ar)

		if ar.Succeeded {
			fmt.Fprintf(out, "\nDownload completed: %s\n", req.Destination)
			log.Info("download completed",
				zap.Int("attempt", ar.Attempt),
				zap.Int64("bytes", ar.BytesWritten))
			res.Succeeded = true
			return res
		}

		fmt.Fprintf(out, "\nDownload failed on attempt %d: %v\n", ar.Attempt, ar.Err)
		log.Warn("download attempt failed",
			zap.Int("attempt", ar.Attempt),
			zap.Int64("bytes", ar.BytesWritten),
			zap.Error(ar.Err))

		if i == req.MaxRetries-1 {
			break
		}
		wait := delays.NextBackOff()
		fmt.Fprintf(out, "Retrying in %g seconds...\n", wait.Seconds())
		if err := d.cfg.Sleep(ctx, wait); err != nil {
			fmt.Fprintf(out, "Download aborted: %v\n", err)
			log.Warn("download aborted", zap.Error(err))
			return res
		}
	}

	fmt.Fprintf(out, "All %d download attempts failed.\n", req.MaxRetries)
	log.Error("download failed", zap.Int("attempts", req.MaxRetries))
	return res
}

// attempt performs a single GET and streams the body to the destination,
// which is truncated first. A failed attempt removes the file it wrote,
// unless KeepPartial is set.
func (d *Downloader) attempt(ctx context.Context, client *http.Client, req Request, index int) AttemptResult {
	res := AttemptResult{Attempt: index + 1, TotalSize: -1}

	ctx, wd := newWatchdog(ctx, req.Timeout)
	defer wd.Cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		res.Err = fmt.Errorf("setting up HTTP request: %w", err)
		return res
	}
	httpReq.Header.Set("User-Agent", d.cfg.UserAgent)
	for k, v := range d.cfg.ExtraHeaders {
		httpReq.Header.Set(k, v)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		res.Err = withCause(wd, fmt.Errorf("performing GET request: %w", err))
		return res
	}
	defer resp.Body.Close()
	wd.Kick()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		res.Err = &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
		return res
	}
	if d.cfg.AcceptFunc != nil {
		if err := d.cfg.AcceptFunc(resp); err != nil {
			res.Err = err
			return res
		}
	}
	res.TotalSize = resp.ContentLength

	if err := os.MkdirAll(filepath.Dir(req.Destination), 0755); err != nil {
		res.Err = fmt.Errorf("creating destination directory: %w", err)
		return res
	}
	f, err := os.OpenFile(req.Destination, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		res.Err = fmt.Errorf("opening %s for writing: %w", req.Destination, err)
		return res
	}

	written, copyErr := copyChunks(f, resp.Body, wd, newProgressLine(d.cfg.Output, res.TotalSize))
	res.BytesWritten = written
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		res.Err = withCause(wd, copyErr)
	case closeErr != nil:
		res.Err = fmt.Errorf("closing output file: %w", closeErr)
	case res.TotalSize >= 0 && written != res.TotalSize:
		res.Err = fmt.Errorf("received %d of %d bytes: %w", written, res.TotalSize, io.ErrUnexpectedEOF)
	default:
		res.Succeeded = true
		return res
	}

	if !d.cfg.KeepPartial {
		if err := os.Remove(req.Destination); err != nil && !errors.Is(err, os.ErrNotExist) {
			d.cfg.Logger.Warn("removing partial file", zap.String("destination", req.Destination), zap.Error(err))
		}
	}
	return res
}

// copyChunks streams in to out using a ChunkSize buffer, kicking the
// watchdog and updating progress after every chunk.
func copyChunks(out io.Writer, in io.Reader, wd *watchdog, progress *progressLine) (int64, error) {
	var written int64
	buff := make([]byte, ChunkSize)
	for {
		n, err := in.Read(buff)
		if n > 0 {
			if _, werr := out.Write(buff[:n]); werr != nil {
				return written, fmt.Errorf("writing output file: %w", werr)
			}
			written += int64(n)
			wd.Kick()
			progress.Update(written)
		}
		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, fmt.Errorf("reading response body: %w", err)
		}
	}
}

// withCause attaches the reason the watchdog fired, if any, to err.
func withCause(wd *watchdog, err error) error {
	cause := wd.Err()
	if cause == nil || errors.Is(err, cause) {
		return err
	}
	return fmt.Errorf("%w: %w", cause, err)
}

// newBackoff returns a schedule yielding base, 2*base, 4*base, ... with no
// jitter and no upper bound.
func newBackoff(base time.Duration) backoff.BackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     base,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         time.Duration(math.MaxInt64),
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	b.Reset()
	return b
}
