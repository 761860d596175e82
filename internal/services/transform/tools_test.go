package transform

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"audiosketch/internal/services"
)

type recordedCall struct {
	name string
	args []string
}

// fakeRunner records invocations and writes the last argument as output.
func fakeRunner(calls *[]recordedCall, fail error) CommandRunner {
	return func(_ context.Context, name string, args ...string) error {
		*calls = append(*calls, recordedCall{name: name, args: args})
		if fail != nil {
			return fail
		}
		out := args[len(args)-1]
		if name == "pngquant" {
			out = args[5]
		}
		return os.WriteFile(out, []byte("out"), 0o644)
	}
}

func TestToolsBuildExpectedCommands(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "001_A-cat.png")
	out := filepath.Join(dir, "001_A-cat--x.png")
	var calls []recordedCall
	tools := Tools{
		Runner:         fakeRunner(&calls, nil),
		UpscalerBinary: "realesrgan-ncnn-vulkan",
		UpscaleFactor:  3,
		PngquantBinary: "pngquant",
		ConvertBinary:  "convert",
		FeatherMask:    "/masks/bgw_edge.png",
	}
	ctx := context.Background()

	tests := []struct {
		name string
		run  func() error
		want recordedCall
	}{
		{"upscale", func() error { return tools.Upscale(ctx, in, out) },
			recordedCall{"realesrgan-ncnn-vulkan", []string{"-s", "3", "-i", in, "-o", out}}},
		{"compress", func() error { return tools.Compress(ctx, in, out) },
			recordedCall{"pngquant", []string{"-f", "--speed", "1", "--strip", "--output", out, in}}},
		{"chiaroscurize", func() error { return tools.Chiaroscurize(ctx, in, out) },
			recordedCall{"convert", []string{in, "-brightness-contrast", "15x60", "-colorspace", "GRAY", out}}},
		{"colorize", func() error { return tools.Colorize(ctx, "#910E0E", in, out) },
			recordedCall{"convert", []string{in, "-set", "colorspace", "RGB", "-fuzz", "85%", "-fill", "#910E0E", "-opaque", "black", out}}},
		{"feather", func() error { return tools.Feather(ctx, in, out) },
			recordedCall{"convert", []string{in, "/masks/bgw_edge.png", "-alpha", "off", "-compose", "CopyOpacity", "-composite", out}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls = nil
			_ = os.Remove(out)
			if err := tt.run(); err != nil {
				t.Fatalf("%s: %v", tt.name, err)
			}
			if len(calls) != 1 || !reflect.DeepEqual(calls[0], tt.want) {
				t.Fatalf("unexpected call %+v, want %+v", calls, tt.want)
			}
		})
	}
}

func TestRunFailureIsTransformFailure(t *testing.T) {
	dir := t.TempDir()
	var calls []recordedCall
	tools := Tools{Runner: fakeRunner(&calls, errors.New("boom")), ConvertBinary: "convert"}
	err := tools.Chiaroscurize(context.Background(), filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png"))
	if !errors.Is(err, services.ErrTransformFailure) {
		t.Fatalf("expected transform failure, got %v", err)
	}
}

func TestMissingOutputIsTransformFailure(t *testing.T) {
	dir := t.TempDir()
	tools := Tools{
		Runner:        func(context.Context, string, ...string) error { return nil },
		ConvertBinary: "convert",
	}
	err := tools.Chiaroscurize(context.Background(), filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png"))
	if !errors.Is(err, services.ErrTransformFailure) || !strings.Contains(err.Error(), "no output") {
		t.Fatalf("expected missing output failure, got %v", err)
	}
}

func TestFailureRemovesPartialOutput(t *testing.T) {
	tests := []struct {
		name   string
		runner CommandRunner
	}{
		{"written then exit non-zero", func(_ context.Context, _ string, args ...string) error {
			_ = os.WriteFile(args[len(args)-1], []byte("half"), 0o644)
			return errors.New("exit status 1")
		}},
		{"empty output", func(_ context.Context, _ string, args ...string) error {
			return os.WriteFile(args[len(args)-1], nil, 0o644)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			out := filepath.Join(dir, "b--chiaroscurize.png")
			tools := Tools{Runner: tt.runner, ConvertBinary: "convert"}
			err := tools.Chiaroscurize(context.Background(), filepath.Join(dir, "a.png"), out)
			if !errors.Is(err, services.ErrTransformFailure) {
				t.Fatalf("expected transform failure, got %v", err)
			}
			if _, err := os.Stat(out); !os.IsNotExist(err) {
				t.Fatalf("output left behind after failure: %v", err)
			}
		})
	}
}

func TestExecRunnerReportsExitStatus(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	dir := t.TempDir()
	err := run(context.Background(), ExecRunner, "compress", filepath.Join(dir, "x.png"), "sh", "-c", "echo bad input >&2; exit 3")
	if !errors.Is(err, services.ErrTransformFailure) {
		t.Fatalf("expected transform failure, got %v", err)
	}
	for _, fragment := range []string{"exit status 3", "bad input"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected %q in %q", fragment, err)
		}
	}
}

func TestExecRunnerMissingBinary(t *testing.T) {
	err := run(context.Background(), ExecRunner, "upscale", filepath.Join(t.TempDir(), "x.png"), "definitely-not-a-real-binary-xyz")
	if !errors.Is(err, services.ErrTransformFailure) || !strings.Contains(err.Error(), "binary not found") {
		t.Fatalf("expected binary not found, got %v", err)
	}
}
