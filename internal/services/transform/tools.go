package transform

import (
	"context"
	"strconv"
)

// Tools binds the configured binaries to the individual image transforms.
type Tools struct {
	Runner         CommandRunner
	UpscalerBinary string
	UpscaleFactor  int
	PngquantBinary string
	ConvertBinary  string
	FeatherMask    string
}

// Upscale enlarges input with Real-ESRGAN.
func (t Tools) Upscale(ctx context.Context, input, output string) error {
	factor := t.UpscaleFactor
	if factor <= 0 {
		factor = 3
	}
	return run(ctx, t.Runner, "upscale", output, t.UpscalerBinary,
		"-s", strconv.Itoa(factor), "-i", input, "-o", output)
}

// Compress quantizes input to a smaller palette png.
func (t Tools) Compress(ctx context.Context, input, output string) error {
	return run(ctx, t.Runner, "compress", output, t.PngquantBinary,
		"-f", "--speed", "1", "--strip", "--output", output, input)
}

// Chiaroscurize boosts contrast and converts to grayscale.
func (t Tools) Chiaroscurize(ctx context.Context, input, output string) error {
	return run(ctx, t.Runner, "chiaroscurize", output, t.ConvertBinary,
		input, "-brightness-contrast", "15x60", "-colorspace", "GRAY", output)
}

// Colorize replaces near-black pixels with hex.
func (t Tools) Colorize(ctx context.Context, hex, input, output string) error {
	return run(ctx, t.Runner, "colorize", output, t.ConvertBinary,
		input, "-set", "colorspace", "RGB", "-fuzz", "85%", "-fill", hex, "-opaque", "black", output)
}

// Feather applies the edge mask as the alpha channel.
func (t Tools) Feather(ctx context.Context, input, output string) error {
	return run(ctx, t.Runner, "feather", output, t.ConvertBinary,
		input, t.FeatherMask, "-alpha", "off", "-compose", "CopyOpacity", "-composite", output)
}
