package actions

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Mode controls where an action's outputs land.
type Mode int

const (
	// ModeInPlace replaces each working file with its transformed output.
	ModeInPlace Mode = iota
	// ModeExport writes outputs to stash/<action name>/ and keeps the input.
	ModeExport
)

func (m Mode) String() string {
	if m == ModeExport {
		return "export"
	}
	return "in-place"
}

// Action is one named post-processing transform.
type Action interface {
	Name() string
	// Marker is the filename suffix, e.g. "--upscaled", added to outputs.
	Marker() string
	// Requires names the predecessor action or returns "".
	Requires() string
	Mode() Mode
	Apply(ctx context.Context, input, output string) error
}

// TransformFunc converts input into output.
type TransformFunc func(ctx context.Context, input, output string) error

// Definition is the Action implementation used for every built-in and
// extension action.
type Definition struct {
	ID          string
	Suffix      string
	Predecessor string
	Kind        Mode
	Transform   TransformFunc
	Description string
}

func (d Definition) Name() string     { return d.ID }
func (d Definition) Marker() string   { return d.Suffix }
func (d Definition) Requires() string { return d.Predecessor }
func (d Definition) Mode() Mode       { return d.Kind }

// Apply runs the transform.
func (d Definition) Apply(ctx context.Context, input, output string) error {
	if d.Transform == nil {
		return fmt.Errorf("action %s has no transform", d.ID)
	}
	return d.Transform(ctx, input, output)
}

// Describe returns a human readable summary when the action provides one.
func Describe(a Action) string {
	if d, ok := a.(Definition); ok && d.Description != "" {
		return d.Description
	}
	return ""
}

// MarkerDelimiter introduces each marker in a file name. Slugs never contain
// it, so everything after the first delimiter is the marker chain.
const MarkerDelimiter = "--"

// HasMarker reports whether the marker chain of a file name, e.g.
// "001_A-cat--upscaled--compressed.png", includes marker.
func HasMarker(name, marker string) bool {
	want := strings.TrimPrefix(marker, MarkerDelimiter)
	if want == "" || want == marker {
		return false
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	chain := strings.Split(stem, MarkerDelimiter)
	for _, part := range chain[1:] {
		// A slug ending in "-" leaves one extra hyphen in front of the first marker.
		if strings.TrimLeft(part, "-") == want {
			return true
		}
	}
	return false
}

// validMarker reports whether marker is "--" followed by a name that cannot
// be confused with the delimiter itself.
func validMarker(marker string) bool {
	name, ok := strings.CutPrefix(marker, MarkerDelimiter)
	if !ok || name == "" || strings.HasPrefix(name, "-") || strings.HasSuffix(name, "-") {
		return false
	}
	return !strings.Contains(name, MarkerDelimiter) && !strings.ContainsAny(name, "./\\ ")
}

// MarkedName inserts marker before the file extension:
// "001_A-cat.png" becomes "001_A-cat--upscaled.png".
func MarkedName(name, marker string) string {
	dot := strings.LastIndex(name, ".")
	if dot <= 0 {
		return name + marker
	}
	return name[:dot] + marker + name[dot:]
}
