package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"dashgrid/internal/doctor"
)

// Lint checks every dashboard file matched by patterns and prints a report
// per file. It returns 1 when any file has a failing check.
func Lint(out io.Writer, patterns []string) (int, error) {
	files, err := expandPatterns(patterns)
	if err != nil {
		return 1, err
	}
	if len(files) == 0 {
		return 1, fmt.Errorf("no dashboard files match %s", strings.Join(patterns, " "))
	}

	exitCode := 0
	failed := 0
	for _, file := range files {
		report := doctor.CheckFile(file)
		printReport(out, report)
		if report.HasFailures() {
			failed++
			exitCode = report.ExitCode()
		}
	}

	if failed == 0 {
		fmt.Fprintf(out, "All %d files passed\n", len(files))
	} else {
		fmt.Fprintf(out, "%d of %d files failed\n", failed, len(files))
	}
	return exitCode, nil
}

// expandPatterns resolves ** globs. Patterns without glob characters are
// taken as paths.
func expandPatterns(patterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		matches := []string{pattern}
		if strings.ContainsAny(pattern, "*?[{") {
			var err error
			matches, err = doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
			}
		}
		for _, m := range matches {
			m = filepath.Clean(m)
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	return files, nil
}

func printReport(out io.Writer, report doctor.Report) {
	fmt.Fprintln(out, report.Path)
	fmt.Fprintln(out, strings.Repeat("-", len(report.Path)))

	for _, check := range report.Checks {
		fmt.Fprintf(out, "%s %s - %s\n", formatStatus(check.Status), check.Name, check.Summary)
		for _, detail := range check.Details {
			fmt.Fprintf(out, "    %s\n", detail)
		}
		for _, action := range check.Actions {
			fmt.Fprintf(out, "    -> %s\n", action)
		}
	}
	fmt.Fprintln(out)
}

func formatStatus(status doctor.Status) string {
	switch status {
	case doctor.StatusOK:
		return "[OK ]"
	case doctor.StatusWarn:
		return "[WARN]"
	case doctor.StatusFail:
		return "[FAIL]"
	default:
		return "[    ]"
	}
}
