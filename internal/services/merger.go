package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vvka-141/bcpstage/internal/files"
	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

// ScriptRunner is satisfied by *sqlcmd.Client.
type ScriptRunner interface {
	RunFile(ctx context.Context, conn bcpstage.ConnectionConfig, script string) (bcpstage.Result, error)
}

// MergeTarget selects the environments a merge script runs against.
type MergeTarget int

const (
	TargetStaging MergeTarget = 1 << iota
	TargetDestination

	TargetBoth = TargetStaging | TargetDestination
)

func (t MergeTarget) String() string {
	switch t {
	case TargetStaging:
		return "staging"
	case TargetDestination:
		return "destination"
	case TargetBoth:
		return "staging+destination"
	default:
		return "none"
	}
}

// TargetsFor derives the merge target from a script name: a both_/stage_/dest_
// prefix or a _both/_stage/_dest suffix before ".sql", ignoring case.
func TargetsFor(script string) (MergeTarget, error) {
	name := strings.ToLower(filepath.Base(script))
	has := func(tag string) bool {
		return strings.HasPrefix(name, tag+"_") || strings.HasSuffix(name, "_"+tag+bcpstage.SQLExtension)
	}

	switch {
	case has("both"):
		return TargetBoth, nil
	case has("stage"):
		return TargetStaging, nil
	case has("dest"):
		return TargetDestination, nil
	default:
		return 0, fmt.Errorf("cannot derive target of %s: use a stage_, dest_ or both_ prefix (or _stage.sql, _dest.sql, _both.sql suffix): %w",
			filepath.Base(script), bcpstage.ErrInvalidConfig)
	}
}

// MergeService runs merge scripts against the staging and destination environments.
type MergeService struct {
	runner ScriptRunner
	logger bcpstage.Logger
}

// NewMergeService creates a MergeService.
func NewMergeService(runner ScriptRunner, logger bcpstage.Logger) *MergeService {
	if runner == nil {
		panic("runner cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &MergeService{runner: runner, logger: logger}
}

// Merge runs the batch. Staging runs before destination for scripts that target both.
func (s *MergeService) Merge(ctx context.Context, cfg bcpstage.MergeConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	scripts, err := files.SelectScripts(cfg.ScriptsDir, cfg.Scripts)
	if err != nil {
		return err
	}

	b := newBatch("merge", s.logger)
	for _, script := range scripts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("merge interrupted: %w", err)
		}
		b.record(script, s.mergeOne(ctx, cfg, script))
	}
	return b.finish()
}

func (s *MergeService) mergeOne(ctx context.Context, cfg bcpstage.MergeConfig, script string) error {
	if _, err := files.LoadQuery(script); err != nil {
		return err
	}
	target, err := TargetsFor(script)
	if err != nil {
		return err
	}

	if target&TargetStaging != 0 {
		if err := s.run(ctx, cfg.Staging, script); err != nil {
			return err
		}
	}
	if target&TargetDestination != 0 {
		if err := s.run(ctx, cfg.Destination, script); err != nil {
			return err
		}
	}
	return nil
}

func (s *MergeService) run(ctx context.Context, conn bcpstage.ConnectionConfig, script string) error {
	s.logger.Info("Running %s on %s (%s/%s)", filepath.Base(script), conn.Label, conn.Server, conn.Database)
	result, err := s.runner.RunFile(ctx, conn, script)
	if err != nil {
		return err
	}
	if !result.Success() {
		return &bcpstage.ToolError{Op: fmt.Sprintf("sqlcmd %s on %s", filepath.Base(script), conn.Label), Result: result}
	}
	return nil
}
