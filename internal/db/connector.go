// Package db opens direct SQL Server connections through go-mssqldb.
// They serve connectivity checks and catalog inspection; data movement goes
// through bcp and sqlcmd.
package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	mssql "github.com/microsoft/go-mssqldb"

	"github.com/vvka-141/bcpstage/internal/retry"
	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

// Connector opens verified *sql.DB handles for one environment.
type Connector struct {
	config        bcpstage.ConnectionConfig
	tokenProvider TokenProvider
	retryExecutor *retry.Executor
	logger        bcpstage.Logger
}

// NewConnector creates a Connector for config. Azure Entra ID configurations
// get a service principal provider when all three Azure settings are present
// and the default credential chain otherwise.
func NewConnector(config bcpstage.ConnectionConfig, logger bcpstage.Logger) (*Connector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var provider TokenProvider
	if config.AuthMethod == bcpstage.AuthMethodAzureEntraID {
		var err error
		if config.AzureTenantID != "" && config.AzureClientID != "" && config.AzureClientSecret != "" {
			provider, err = NewAzureServicePrincipalProvider(config.AzureTenantID, config.AzureClientID, config.AzureClientSecret)
		} else {
			provider, err = NewAzureDefaultCredentialProvider()
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", config.Label, err)
		}
	}
	return newConnector(config, provider, logger), nil
}

func newConnector(config bcpstage.ConnectionConfig, provider TokenProvider, logger bcpstage.Logger) *Connector {
	if logger == nil {
		panic("logger cannot be nil")
	}
	strategy := retry.NewExponentialBackoff(bcpstage.DefaultRetryMaxAttempts,
		retry.WithInitialDelay(bcpstage.DefaultRetryInitialDelay),
		retry.WithMaxDelay(bcpstage.DefaultRetryMaxDelay),
	)
	executor := retry.NewExecutor(retry.NewSQLServerErrorClassifier(), strategy).
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			logger.Verbose("%s: connection attempt %d failed (%v), retrying in %v", config.Label, attempt+1, err, delay.Round(time.Millisecond))
		})

	return &Connector{
		config:        config,
		tokenProvider: provider,
		retryExecutor: executor,
		logger:        logger,
	}
}

// Open returns a pinged *sql.DB. Transient failures are retried with backoff.
// All errors wrap bcpstage.ErrConnectionFailed.
func (c *Connector) Open(ctx context.Context) (*sql.DB, error) {
	dc, err := c.driverConnector()
	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(dc)
	db.SetMaxOpenConns(2)

	err = c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		return db.PingContext(ctx)
	})
	if err != nil {
		db.Close()
		return nil, wrapConnectionError(err, c.config)
	}
	return db, nil
}

func (c *Connector) driverConnector() (driver.Connector, error) {
	if c.tokenProvider == nil {
		dsn, err := BuildDSN(c.config, true)
		if err != nil {
			return nil, err
		}
		return mssql.NewConnector(dsn)
	}

	dsn, err := BuildDSN(c.config, false)
	if err != nil {
		return nil, err
	}
	return mssql.NewAccessTokenConnector(dsn, func() (string, error) {
		token, expiresOn, err := c.tokenProvider.GetToken(context.Background())
		if err != nil {
			return "", err
		}
		if time.Until(expiresOn) < 5*time.Minute {
			c.logger.Info("Warning: %s token expires in %v", c.tokenProvider, time.Until(expiresOn).Round(time.Second))
		}
		return token, nil
	})
}

// wrapConnectionError adds actionable guidance to common failures.
func wrapConnectionError(err error, config bcpstage.ConnectionConfig) error {
	msg := strings.ToLower(err.Error())
	where := fmt.Sprintf("%s (%s/%s)", config.Label, config.Server, config.Database)

	switch {
	case strings.Contains(msg, "login failed"):
		return fmt.Errorf(`login failed for %s

Possible causes:
  - Wrong username or password
  - Login has no access to database %q

Original error: %w: %w`, where, config.Database, err, bcpstage.ErrConnectionFailed)

	case strings.Contains(msg, "cannot open database"):
		return fmt.Errorf(`database %q is not available on %s

Original error: %w: %w`, config.Database, config.Server, err, bcpstage.ErrConnectionFailed)

	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host"):
		return fmt.Errorf(`cannot reach %s

Possible causes:
  - SQL Server is not running or not listening on TCP
  - Wrong server name or port (use host,port)
  - Firewall blocking the connection

Original error: %w: %w`, where, err, bcpstage.ErrConnectionFailed)

	case strings.Contains(msg, "certificate") || strings.Contains(msg, "tls"):
		return fmt.Errorf(`TLS negotiation with %s failed

Try TrustServerCertificate=true for servers with self-signed certificates.

Original error: %w: %w`, where, err, bcpstage.ErrConnectionFailed)

	default:
		return fmt.Errorf("failed to connect to %s: %w: %w", where, err, bcpstage.ErrConnectionFailed)
	}
}
