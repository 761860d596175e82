package actions

import (
	"context"
	"slices"

	"audiosketch/internal/config"
	"audiosketch/internal/services/transform"
)

// Built-in action names.
const (
	Upscale       = "upscale"
	Compress      = "compress"
	Chiaroscurize = "chiaroscurize"
	Feather       = "feather"
)

// colorOrder fixes the registration order of the default palette.
var colorOrder = []string{"brown", "red", "green", "navy", "gray"}

// NewDefaultRegistry registers the built-in actions and the bundled
// extensions. Upscale and feather are only offered when GPU acceleration is
// configured.
func NewDefaultRegistry(cfg config.Actions, runner transform.CommandRunner) (*Registry, error) {
	tools := transform.Tools{
		Runner:         runner,
		UpscalerBinary: cfg.UpscalerBinary,
		UpscaleFactor:  cfg.UpscaleFactor,
		PngquantBinary: cfg.PngquantBinary,
		ConvertBinary:  cfg.ConvertBinary,
		FeatherMask:    cfg.FeatherMask,
	}
	reg := NewRegistry()
	var defs []Definition
	if cfg.GPUEnabled {
		defs = append(defs, Definition{
			ID:          Upscale,
			Suffix:      "--upscaled",
			Transform:   tools.Upscale,
			Description: "Enlarge every image with Real-ESRGAN",
		})
	}
	defs = append(defs,
		Definition{
			ID:          Compress,
			Suffix:      "--compressed",
			Transform:   tools.Compress,
			Description: "Quantize every image with pngquant",
		},
		Definition{
			ID:          Chiaroscurize,
			Suffix:      "--chiaroscurize",
			Transform:   tools.Chiaroscurize,
			Description: "High contrast grayscale",
		},
	)
	for _, color := range paletteNames(cfg.Colors) {
		hex := cfg.Colors[color]
		defs = append(defs, Definition{
			ID:     color,
			Suffix: MarkerDelimiter + color,
			Kind:   ModeExport,
			Transform: func(ctx context.Context, input, output string) error {
				return tools.Colorize(ctx, hex, input, output)
			},
			Description: "Export a " + color + " (" + hex + ") copy to stash/" + color,
		})
	}
	if cfg.GPUEnabled && cfg.FeatherMask != "" {
		defs = append(defs, Definition{
			ID:          Feather,
			Suffix:      "--feathered",
			Predecessor: Upscale,
			Transform:   tools.Feather,
			Description: "Fade edges to transparency using the edge mask",
		})
	}
	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func paletteNames(colors map[string]string) []string {
	var names []string
	for _, name := range colorOrder {
		if _, ok := colors[name]; ok {
			names = append(names, name)
		}
	}
	var extra []string
	for name := range colors {
		if !slices.Contains(colorOrder, name) {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	return append(names, extra...)
}
