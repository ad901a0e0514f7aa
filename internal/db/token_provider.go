package db

import (
	"context"
	"time"
)

// TokenProvider abstracts cloud token acquisition for database authentication.
type TokenProvider interface {
	// GetToken acquires an OAuth access token for Azure SQL.
	GetToken(ctx context.Context) (token string, expiresOn time.Time, err error)

	// String returns a human-readable description for logging.
	// Must not include secrets.
	String() string
}

// AzureSQLScope is the OAuth scope for Azure SQL Database and Managed Instance.
const AzureSQLScope = "https://database.windows.net/.default"
