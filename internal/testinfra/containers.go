package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	SQLServerImage    = "mcr.microsoft.com/mssql/server:2022-latest"
	SQLServerUser     = "sa"
	SQLServerPassword = "Bcpstage!Test123"
	SQLServerPort     = "1433/tcp"
)

// SQLServerContainer is a running SQL Server instance reachable from the host.
type SQLServerContainer struct {
	testcontainers.Container
	Host string
	Port string
}

// Server returns the endpoint in the "host,port" form sqlcmd, bcp and the
// go-mssqldb DSN builder accept.
func (c *SQLServerContainer) Server() string {
	return c.Host + "," + c.Port
}

// ConnString returns a go-mssqldb URL for database on the container.
func (c *SQLServerContainer) ConnString(database string) string {
	return fmt.Sprintf("sqlserver://%s:%s@%s:%s?database=%s&TrustServerCertificate=true",
		SQLServerUser, SQLServerPassword, c.Host, c.Port, database)
}

func StartSQLServer(ctx context.Context) (*SQLServerContainer, error) {
	req := testcontainers.ContainerRequest{
		Image:        SQLServerImage,
		ExposedPorts: []string{SQLServerPort},
		Env: map[string]string{
			"ACCEPT_EULA":       "Y",
			"MSSQL_SA_PASSWORD": SQLServerPassword,
			"MSSQL_PID":         "Developer",
		},
		WaitingFor: wait.ForLog("SQL Server is now ready for client connections").
			WithStartupTimeout(120 * time.Second),
	}

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("start sql server: %w", err)
	}

	host, err := ctr.Host(ctx)
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}
	port, err := ctr.MappedPort(ctx, SQLServerPort)
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}

	return &SQLServerContainer{Container: ctr, Host: host, Port: port.Port()}, nil
}
