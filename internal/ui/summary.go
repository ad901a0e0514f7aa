package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

// BatchSummary renders the per-script outcome of an export or merge batch as
// plain text for the run log.
func BatchSummary(kind string, scripts []string, failures []bcpstage.BatchFailure) string {
	failed := make(map[string]error, len(failures))
	for _, f := range failures {
		failed[f.Script] = f.Err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s summary: %d succeeded, %d failed\n", kind, len(scripts)-len(failures), len(failures))
	for _, s := range scripts {
		if err, ok := failed[s]; ok {
			fmt.Fprintf(&b, "  %s %s: %s", SymbolCross, s, firstLine(err.Error()))
		} else {
			fmt.Fprintf(&b, "  %s %s", SymbolCheck, s)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if utf8.RuneCountInString(s) > bcpstage.MaxErrorPreviewLength {
		s = string([]rune(s)[:bcpstage.MaxErrorPreviewLength]) + "..."
	}
	return s
}
