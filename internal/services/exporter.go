package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vvka-141/bcpstage/internal/bcp"
	"github.com/vvka-141/bcpstage/internal/checksum"
	"github.com/vvka-141/bcpstage/internal/files"
	"github.com/vvka-141/bcpstage/internal/storage"
	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

// QueryExporter is satisfied by *bcp.Client.
type QueryExporter interface {
	Export(ctx context.Context, conn bcpstage.ConnectionConfig, req bcp.ExportRequest) error
}

// ExportService runs one bcp queryout per script, compresses the output and
// uploads it to object storage.
type ExportService struct {
	exporter QueryExporter
	store    bcpstage.ObjectStore
	logger   bcpstage.Logger
	now      func() time.Time
}

// NewExportService creates an ExportService.
func NewExportService(exporter QueryExporter, store bcpstage.ObjectStore, logger bcpstage.Logger) *ExportService {
	if exporter == nil {
		panic("exporter cannot be nil")
	}
	if store == nil {
		panic("store cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &ExportService{exporter: exporter, store: store, logger: logger, now: time.Now}
}

// Export runs the batch. Script selection errors abort before any export;
// per-script failures are collected into a *bcpstage.BatchError.
func (s *ExportService) Export(ctx context.Context, cfg bcpstage.ExportConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	scripts, err := files.SelectScripts(cfg.ScriptsDir, cfg.Scripts)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", cfg.OutputDir, err)
	}

	started := s.now()
	b := newBatch("export", s.logger)
	for _, script := range scripts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("export interrupted: %w", err)
		}
		b.record(script, s.exportOne(ctx, cfg, script, started))
	}
	return b.finish()
}

func (s *ExportService) exportOne(ctx context.Context, cfg bcpstage.ExportConfig, script string, started time.Time) error {
	query, err := files.LoadQuery(script)
	if err != nil {
		return err
	}

	stem := strings.TrimSuffix(filepath.Base(script), filepath.Ext(script))
	if cfg.Timestamp {
		stem = files.StampedName(stem, started)
	}
	output := filepath.Join(cfg.OutputDir, stem+bcpstage.BCPExtension)
	s.logger.Info("Exporting %s to %s", filepath.Base(script), output)
	s.logger.Verbose("%s: query digest %s", filepath.Base(script), checksum.Short(checksum.New().CalculateNormalized([]byte(query))))

	if err := s.exporter.Export(ctx, cfg.Connection, bcp.ExportRequest{
		Query:           query,
		OutputFile:      output,
		FieldTerminator: cfg.FieldTerminator,
	}); err != nil {
		return err
	}

	compressed, err := files.Compress(output)
	if err != nil {
		return err
	}

	sum, err := checksum.File(compressed)
	if err != nil {
		return err
	}
	s.logger.Verbose("%s: sha256 %s", filepath.Base(compressed), sum)

	key := storage.JoinKey(cfg.Prefix, filepath.Base(compressed))
	if err := s.store.Upload(ctx, compressed, key); err != nil {
		return err
	}
	return nil
}
