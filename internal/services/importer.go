// Package services implements the bcpstage workflows: the staging import
// pipeline, the export and merge batches, and the connectivity and schema checks.
package services

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/vvka-141/bcpstage/internal/bcp"
	"github.com/vvka-141/bcpstage/internal/checksum"
	"github.com/vvka-141/bcpstage/internal/files"
	"github.com/vvka-141/bcpstage/internal/logging"
	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

// StagingTables is satisfied by *staging.Reconciler.
type StagingTables interface {
	EnsureStagingTable(ctx context.Context, conn bcpstage.ConnectionConfig, base, staging bcpstage.TableIdentity) error
	Truncate(ctx context.Context, conn bcpstage.ConnectionConfig, table bcpstage.TableIdentity) error
}

// BulkLoader is satisfied by *bcp.Client.
type BulkLoader interface {
	Import(ctx context.Context, conn bcpstage.ConnectionConfig, req bcp.LoadRequest) (bcpstage.LoadOutcome, error)
}

// ImportResult describes a completed import.
type ImportResult struct {
	// Source is the local path or object key the data came from.
	Source string
	// File is the flat file handed to bcp after decompression.
	File string
	// Base is the table inferred from the file name.
	Base bcpstage.TableIdentity
	// Target is the table that received the rows.
	Target bcpstage.TableIdentity
}

// ImportService runs the import pipeline:
// resolve, decompress, identify, reconcile, confirm, truncate, load.
// Any failure aborts the run; nothing is retried.
type ImportService struct {
	tables   StagingTables
	loader   BulkLoader
	store    bcpstage.ObjectStore
	approver bcpstage.Approver
	logger   bcpstage.Logger
}

// NewImportService creates an ImportService. store may be nil when only local
// imports are run.
func NewImportService(
	tables StagingTables,
	loader BulkLoader,
	store bcpstage.ObjectStore,
	approver bcpstage.Approver,
	logger bcpstage.Logger,
) *ImportService {
	if tables == nil {
		panic("tables cannot be nil")
	}
	if loader == nil {
		panic("loader cannot be nil")
	}
	if approver == nil {
		panic("approver cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &ImportService{
		tables:   tables,
		loader:   loader,
		store:    store,
		approver: approver,
		logger:   logger,
	}
}

// Import loads one flat file according to cfg.
func (s *ImportService) Import(ctx context.Context, cfg bcpstage.ImportConfig) (ImportResult, error) {
	if err := cfg.Validate(); err != nil {
		return ImportResult{}, err
	}

	source, path, err := s.resolve(ctx, cfg)
	if err != nil {
		return ImportResult{}, err
	}
	result := ImportResult{Source: source}

	path, err = files.MaybeDecompress(path)
	if err != nil {
		return result, err
	}
	result.File = path
	if logging.VerboseEnabled(s.logger) {
		if sum, err := checksum.File(path); err == nil {
			s.logger.Verbose("%s: sha256 %s", filepath.Base(path), sum)
		}
	}

	base, err := bcpstage.IdentityFromFile(path)
	if err != nil {
		return result, err
	}
	result.Base = base
	result.Target = base
	s.logger.Info("Inferred table %s from %s", base.Dotted(), filepath.Base(source))

	conn := cfg.Connection
	if !cfg.Direct {
		result.Target = base.Staging(cfg.StagingSuffix)
		if err := s.tables.EnsureStagingTable(ctx, conn, base, result.Target); err != nil {
			return result, err
		}
	}

	label := fmt.Sprintf("%s on %s/%s", result.Target.Dotted(), conn.Server, conn.Database)
	approved, err := s.approver.RequestApproval(ctx, label)
	if err != nil {
		return result, fmt.Errorf("approval failed: %w", err)
	}
	if !approved {
		return result, fmt.Errorf("truncate of %s: %w", result.Target.Dotted(), bcpstage.ErrOperatorCancelled)
	}

	if err := s.tables.Truncate(ctx, conn, result.Target); err != nil {
		return result, err
	}

	_, err = s.loader.Import(ctx, conn, bcp.LoadRequest{
		Table:           result.Target,
		FilePath:        path,
		FieldTerminator: cfg.FieldTerminator,
		KeepIdentity:    cfg.KeepIdentity,
		MaxErrors:       cfg.MaxErrors,
		ErrorFile:       cfg.ErrorFile,
	})
	if err != nil {
		return result, err
	}

	s.logger.Info("Import into %s completed", result.Target.Dotted())
	return result, nil
}

// resolve returns the source name and the local path of the flat file.
func (s *ImportService) resolve(ctx context.Context, cfg bcpstage.ImportConfig) (string, string, error) {
	if cfg.Source == bcpstage.ImportSourceLocal {
		path, err := files.ResolveLocal(cfg.LocalDir, cfg.FileName)
		if err != nil {
			return "", "", err
		}
		s.logger.Info("Using local file %s", path)
		return path, path, nil
	}

	if s.store == nil {
		return "", "", fmt.Errorf("object storage is not configured: %w", bcpstage.ErrInvalidConfig)
	}
	key := cfg.ObjectKey
	if key == "" {
		latest, err := s.store.Latest(ctx, cfg.Prefix)
		if err != nil {
			return "", "", err
		}
		key = latest
	}
	s.logger.Info("Using object %s", key)

	path, err := s.store.Download(ctx, key, cfg.DownloadDir)
	if err != nil {
		return key, "", err
	}
	return key, path, nil
}
