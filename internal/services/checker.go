package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vvka-141/bcpstage/internal/catalog"
	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

// Opener opens a verified connection for one environment.
// Satisfied by *db.Connector.
type Opener interface {
	Open(ctx context.Context) (*sql.DB, error)
}

// OpenerFactory builds an Opener for a connection configuration.
type OpenerFactory func(conn bcpstage.ConnectionConfig) (Opener, error)

// CheckResult reports the outcome for one environment.
type CheckResult struct {
	Label   string
	Server  string
	Version string
	Err     error
}

// CheckService verifies that each configured environment accepts connections.
type CheckService struct {
	openers OpenerFactory
	logger  bcpstage.Logger
}

// NewCheckService creates a CheckService.
func NewCheckService(openers OpenerFactory, logger bcpstage.Logger) *CheckService {
	if openers == nil {
		panic("openers cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &CheckService{openers: openers, logger: logger}
}

// Check connects to every environment. All environments are tried; the
// returned error joins every failure.
func (s *CheckService) Check(ctx context.Context, conns []bcpstage.ConnectionConfig) ([]CheckResult, error) {
	results := make([]CheckResult, 0, len(conns))
	var errs []error
	for _, conn := range conns {
		res := CheckResult{Label: conn.Label, Server: conn.Server}
		res.Version, res.Err = s.checkOne(ctx, conn)
		if res.Err != nil {
			s.logger.Error("%s: %v", conn.Label, res.Err)
			errs = append(errs, fmt.Errorf("%s: %w", conn.Label, res.Err))
		} else {
			s.logger.Info("%s: connected to %s/%s", conn.Label, conn.Server, conn.Database)
			s.logger.Verbose("%s: %s", conn.Label, res.Version)
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (s *CheckService) checkOne(ctx context.Context, conn bcpstage.ConnectionConfig) (string, error) {
	opener, err := s.openers(conn)
	if err != nil {
		return "", err
	}
	db, err := opener.Open(ctx)
	if err != nil {
		return "", err
	}
	defer db.Close()

	var version string
	if err := db.QueryRowContext(ctx, "SELECT @@VERSION").Scan(&version); err != nil {
		return "", fmt.Errorf("failed to read server version: %w: %w", err, bcpstage.ErrConnectionFailed)
	}
	return firstLine(version), nil
}

// ColumnReader is satisfied by *catalog.Inspector.
type ColumnReader interface {
	Columns(ctx context.Context, table bcpstage.TableIdentity) ([]catalog.Column, error)
}

// VerifyService compares a staging table with its base table.
type VerifyService struct {
	openers OpenerFactory
	logger  bcpstage.Logger
}

// NewVerifyService creates a VerifyService.
func NewVerifyService(openers OpenerFactory, logger bcpstage.Logger) *VerifyService {
	if openers == nil {
		panic("openers cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &VerifyService{openers: openers, logger: logger}
}

// Verify connects to conn and compares base with its staging table.
func (s *VerifyService) Verify(ctx context.Context, conn bcpstage.ConnectionConfig, base bcpstage.TableIdentity, suffix string) error {
	if err := base.Validate(); err != nil {
		return err
	}
	opener, err := s.openers(conn)
	if err != nil {
		return err
	}
	db, err := opener.Open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	return s.Compare(ctx, catalog.NewInspector(db), base, base.Staging(suffix))
}

// Compare returns a *catalog.DriftError when staging differs from base.
func (s *VerifyService) Compare(ctx context.Context, reader ColumnReader, base, staging bcpstage.TableIdentity) error {
	baseColumns, err := reader.Columns(ctx, base)
	if err != nil {
		return err
	}
	stagingColumns, err := reader.Columns(ctx, staging)
	if err != nil {
		return err
	}

	drifts := catalog.Diff(baseColumns, stagingColumns)
	if len(drifts) > 0 {
		return &catalog.DriftError{Base: base, Staging: staging, Drifts: drifts}
	}
	s.logger.Info("%s matches %s (%d columns)", staging.Dotted(), base.Dotted(), len(baseColumns))
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
