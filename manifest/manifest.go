//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

// Package manifest lists the known model files and downloads them one
// after the other.
package manifest

import (
	"path/filepath"
)

// Entry is a model file: where to get it and where to put it.
type Entry struct {
	Name        string
	URL         string
	Destination string
	// Mirrors are alternative URLs suggested when the download fails.
	Mirrors []string
}

// Manifest is an ordered list of entries. It is built once at startup and
// never modified.
type Manifest []Entry

// Model directories, relative to the root.
const (
	CheckpointsDir = "models/checkpoints"
	VAEDir         = "models/vae"
	CLIPDir        = "models/clip"
	UNETDir        = "models/unet"
)

// Default returns the known models with destinations below root. The first
// entry is the default checkpoint.
func Default(root string) Manifest {
	dest := func(dir, file string) string {
		return filepath.Join(root, filepath.FromSlash(dir), file)
	}
	return Manifest{
		{
			Name:        "Stable Diffusion 1.5 (fp16, EMA only)",
			URL:         "https://huggingface.co/runwayml/stable-diffusion-v1-5/resolve/main/v1-5-pruned-emaonly-fp16.safetensors",
			Destination: dest(CheckpointsDir, "v1-5-pruned-emaonly-fp16.safetensors"),
			Mirrors:     []string{"https://civitai.com/api/download/models/131362"},
		},
		{
			Name:        "SD VAE ft-MSE",
			URL:         "https://huggingface.co/stabilityai/sd-vae-ft-mse-original/resolve/main/vae-ft-mse-840000-ema-pruned.safetensors",
			Destination: dest(VAEDir, "vae-ft-mse-840000-ema-pruned.safetensors"),
		},
		{
			Name:        "CLIP-L text encoder",
			URL:         "https://huggingface.co/comfyanonymous/flux_text_encoders/resolve/main/clip_l.safetensors",
			Destination: dest(CLIPDir, "clip_l.safetensors"),
		},
		{
			Name:        "FLUX.1 schnell",
			URL:         "https://huggingface.co/black-forest-labs/FLUX.1-schnell/resolve/main/flux1-schnell.safetensors",
			Destination: dest(UNETDir, "flux1-schnell.safetensors"),
		},
	}
}
