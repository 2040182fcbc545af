//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

// Package modelfetch downloads large files (typically model weights) to a
// fixed local path. Each download is retried with exponential backoff, every
// attempt restarts the file from byte 0, and progress is printed while the
// body is streamed.
//
//	d := modelfetch.New(modelfetch.GetDefaultConfig())
//	ok := d.Download(ctx, modelfetch.Request{
//		URL:         "https://example.com/model.safetensors",
//		Destination: "models/checkpoints/model.safetensors",
//	})
package modelfetch
