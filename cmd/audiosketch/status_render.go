package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"audiosketch/internal/preflight"
)

// checkState is the outcome shown for one row of `audiosketch status`.
type checkState int

const (
	checkSkipped checkState = iota
	checkPassed
	checkDegraded
	checkFailed
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
)

const (
	checkNameWidth = 20
	checkIndent    = "  "
)

var checkBadges = map[checkState]struct{ label, color string }{
	checkSkipped:  {"SKIP", ansiCyan},
	checkPassed:   {"PASS", ansiGreen},
	checkDegraded: {"WARN", ansiYellow},
	checkFailed:   {"FAIL", ansiRed},
}

func resultState(r preflight.Result) checkState {
	if r.Passed {
		return checkPassed
	}
	return checkFailed
}

// renderCheck formats one aligned row, e.g. "  Projects directory:  [PASS] read/write ok".
func renderCheck(name string, state checkState, detail string, colorize bool) string {
	badge := checkBadges[state]
	line := fmt.Sprintf("%s%-*s [%s]", checkIndent, checkNameWidth, name+":", badge.label)
	if detail = strings.TrimSpace(detail); detail != "" {
		line += " " + detail
	}
	if !colorize {
		return line
	}
	return badge.color + line + ansiReset
}

// renderCheckSummary counts failures across the rows that actually ran.
func renderCheckSummary(results []preflight.Result, colorize bool) string {
	failed := 0
	for _, r := range results {
		if !r.Passed {
			failed++
		}
	}
	if failed == 0 {
		msg := fmt.Sprintf("All %d checks passed", len(results))
		if colorize {
			return ansiGreen + msg + ansiReset
		}
		return msg
	}
	msg := fmt.Sprintf("%d of %d checks failed; image actions or generation may not work", failed, len(results))
	if colorize {
		return ansiRed + msg + ansiReset
	}
	return msg
}

// renderHeading underlines title with a rule of the same width.
func renderHeading(title string, colorize bool) []string {
	title = strings.TrimSpace(title)
	rule := strings.Repeat("=", len([]rune(title)))
	if colorize {
		return []string{ansiCyan + title + ansiReset, ansiCyan + rule + ansiReset}
	}
	return []string{title, rule}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
