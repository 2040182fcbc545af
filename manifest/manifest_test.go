//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package manifest

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.bug.st/modelfetch"
)

type fakeFetcher struct {
	requests []modelfetch.Request
	fail     map[string]bool
}

func (f *fakeFetcher) Download(_ context.Context, req modelfetch.Request) bool {
	f.requests = append(f.requests, req)
	if f.fail[req.URL] {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(req.Destination), 0755); err != nil {
		return false
	}
	return os.WriteFile(req.Destination, []byte(req.URL), 0644) == nil
}

func TestDefault(t *testing.T) {
	root := t.TempDir()
	m := Default(root)
	require.Len(t, m, 4)

	dirs := []string{CheckpointsDir, VAEDir, CLIPDir, UNETDir}
	for i, e := range m {
		require.NotEmpty(t, e.Name)
		require.Contains(t, e.URL, "https://")
		require.Equal(t, filepath.Join(root, filepath.FromSlash(dirs[i])), filepath.Dir(e.Destination))
	}
	require.Equal(t, "v1-5-pruned-emaonly-fp16.safetensors", filepath.Base(m[0].Destination))
	require.NotEmpty(t, m[0].Mirrors)
}

func TestRunSkipsExisting(t *testing.T) {
	root := t.TempDir()
	m := Default(root)
	require.NoError(t, os.MkdirAll(filepath.Dir(m[1].Destination), 0755))
	require.NoError(t, os.WriteFile(m[1].Destination, []byte("already here"), 0644))

	f := &fakeFetcher{}
	out := &bytes.Buffer{}
	r := &Runner{Fetcher: f, Out: out, MaxRetries: 2, Timeout: time.Minute}
	sum := r.Run(context.Background(), m)

	require.Len(t, f.requests, 3)
	for _, req := range f.requests {
		require.NotEqual(t, m[1].URL, req.URL)
		require.Equal(t, 2, req.MaxRetries)
		require.Equal(t, time.Minute, req.Timeout)
	}
	require.Equal(t, []string{m[1].Destination}, sum.Skipped)
	require.Equal(t, []string{m[0].Destination, m[2].Destination, m[3].Destination}, sum.Downloaded)
	require.Empty(t, sum.Failed)

	got, err := os.ReadFile(m[1].Destination)
	require.NoError(t, err)
	require.Equal(t, "already here", string(got))
	require.Contains(t, out.String(), "already exists")
}

func TestRunContinuesAfterFailure(t *testing.T) {
	root := t.TempDir()
	m := Default(root)

	f := &fakeFetcher{fail: map[string]bool{m[0].URL: true}}
	out := &bytes.Buffer{}
	r := &Runner{Fetcher: f, Out: out}
	sum := r.Run(context.Background(), m)

	require.Len(t, f.requests, 4)
	require.Equal(t, []string{m[0].Destination}, sum.Failed)
	require.Len(t, sum.Downloaded, 3)

	text := out.String()
	require.Contains(t, text, "=== Download failed ===")
	require.Contains(t, text, "Invoke-WebRequest -Uri '"+m[0].URL+"' -OutFile '"+m[0].Destination+"'")
	require.Contains(t, text, "https://civitai.com/api/download/models/131362")
	require.Contains(t, text, "Downloaded: 3, skipped: 0, failed: 1")
}

func TestFetchDoesNotSkip(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "model.bin")
	require.NoError(t, os.WriteFile(dest, []byte("old"), 0644))

	f := &fakeFetcher{}
	r := &Runner{Fetcher: f, Out: io.Discard}
	require.True(t, r.Fetch(context.Background(), Entry{Name: "custom", URL: "https://example.com/model.bin", Destination: dest}))
	require.Len(t, f.requests, 1)
}

func TestPrintRemediation(t *testing.T) {
	out := &bytes.Buffer{}
	e := Entry{URL: "https://example.com/clip_l.safetensors", Destination: "/opt/models/clip/clip_l.safetensors"}
	PrintRemediation(out, e)

	text := out.String()
	require.Contains(t, text, "Open in a browser: "+e.URL)
	require.Contains(t, text, "wget "+e.URL+" -O "+e.Destination)
	require.Contains(t, text, "curl -L --retry 5 -o "+e.Destination+" "+e.URL)
	require.NotContains(t, text, "mirror")
}

func TestRunWithDownloader(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte(r.URL.Path))
	}))
	defer srv.Close()

	root := t.TempDir()
	m := Manifest{
		{Name: "a", URL: srv.URL + "/a", Destination: filepath.Join(root, "models", "vae", "a")},
		{Name: "b", URL: srv.URL + "/b", Destination: filepath.Join(root, "models", "clip", "b")},
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(m[0].Destination), 0755))
	require.NoError(t, os.WriteFile(m[0].Destination, nil, 0644))

	d := modelfetch.New(modelfetch.Config{Output: io.Discard})
	sum := (&Runner{Fetcher: d, Out: io.Discard}).Run(context.Background(), m)
	require.Equal(t, 1, hits)
	require.Equal(t, []string{m[1].Destination}, sum.Downloaded)

	got, err := os.ReadFile(m[1].Destination)
	require.NoError(t, err)
	require.Equal(t, "/b", string(got))
}
