//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package modelfetch

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
)

// progressLine redraws a single "Progress: xx.xx%" line in place.
// Write errors are ignored: progress is informational only.
type progressLine struct {
	out   io.Writer
	total int64
}

func newProgressLine(out io.Writer, total int64) *progressLine {
	return &progressLine{out: out, total: total}
}

// Update redraws the line for the given number of downloaded bytes. Nothing
// is printed when the total size is unknown.
func (p *progressLine) Update(downloaded int64) {
	if p.total <= 0 {
		return
	}
	_, _ = fmt.Fprintf(p.out, "\r%s", formatProgress(downloaded, p.total))
}

func formatProgress(downloaded, total int64) string {
	percent := float64(downloaded) / float64(total) * 100
	return fmt.Sprintf("Progress: %.2f%% (%s / %s)",
		percent,
		humanize.Bytes(uint64(downloaded)),
		humanize.Bytes(uint64(total)))
}
