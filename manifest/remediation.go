//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package manifest

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
)

var (
	failureColor = color.New(color.FgRed, color.Bold)
	methodColor  = color.New(color.FgYellow)
)

// PrintRemediation prints alternative ways to fetch e by hand.
func PrintRemediation(w io.Writer, e Entry) {
	failureColor.Fprintln(w, "\n=== Download failed ===")
	fmt.Fprintln(w, "Try one of the following alternatives:")

	methodColor.Fprintln(w, "\nMethod 1: PowerShell")
	fmt.Fprintln(w, "Open PowerShell and run:")
	fmt.Fprintf(w, "Invoke-WebRequest -Uri '%s' -OutFile '%s' -UseBasicParsing\n", e.URL, e.Destination)

	methodColor.Fprintln(w, "\nMethod 2: manual download")
	fmt.Fprintf(w, "1. Open in a browser: %s\n", e.URL)
	fmt.Fprintf(w, "2. Save the file to: %s\n", e.Destination)

	methodColor.Fprintln(w, "\nMethod 3: wget or curl (if installed)")
	fmt.Fprintf(w, "wget %s -O %s\n", e.URL, e.Destination)
	fmt.Fprintf(w, "curl -L --retry 5 -o %s %s\n", e.Destination, e.URL)

	if len(e.Mirrors) > 0 {
		methodColor.Fprintln(w, "\nMethod 4: mirrors")
		fmt.Fprintln(w, "Try downloading from an alternative mirror:")
		for _, m := range e.Mirrors {
			fmt.Fprintln(w, m)
		}
		fmt.Fprintf(w, "Then rename the file to %s\n", filepath.Base(e.Destination))
		fmt.Fprintf(w, "and save it to: %s\n", e.Destination)
	}
}
