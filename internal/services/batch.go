package services

import (
	"path/filepath"

	"github.com/vvka-141/bcpstage/internal/ui"
	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

// batch tracks per-script outcomes. A failing script is logged when it
// happens and never stops the scripts after it.
type batch struct {
	kind     string
	logger   bcpstage.Logger
	scripts  []string
	failures []bcpstage.BatchFailure
}

func newBatch(kind string, logger bcpstage.Logger) *batch {
	return &batch{kind: kind, logger: logger}
}

func (b *batch) record(script string, err error) {
	name := filepath.Base(script)
	b.scripts = append(b.scripts, name)
	if err == nil {
		return
	}
	b.failures = append(b.failures, bcpstage.BatchFailure{Script: name, Err: err})
	b.logger.Error("%s of %s failed: %v", b.kind, name, err)
}

// finish logs the summary and returns a *bcpstage.BatchError when any script failed.
func (b *batch) finish() error {
	summary := ui.BatchSummary(b.kind, b.scripts, b.failures)
	if len(b.failures) == 0 {
		b.logger.Info("%s", summary)
		return nil
	}
	b.logger.Error("%s", summary)
	return &bcpstage.BatchError{Total: len(b.scripts), Failures: b.failures}
}
