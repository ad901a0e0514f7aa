// Package sqlcmd builds and runs sqlcmd invocations against one environment.
package sqlcmd

import (
	"context"
	"fmt"

	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

// Client runs T-SQL through the sqlcmd utility.
type Client struct {
	path   string
	runner bcpstage.ProcessRunner
}

// NewClient creates a Client that invokes the sqlcmd binary at path.
func NewClient(path string, runner bcpstage.ProcessRunner) *Client {
	if runner == nil {
		panic("runner cannot be nil")
	}
	if path == "" {
		path = bcpstage.DefaultSQLCmdPath
	}
	return &Client{path: path, runner: runner}
}

// Query runs an inline batch (-Q).
func (c *Client) Query(ctx context.Context, conn bcpstage.ConnectionConfig, query string) (bcpstage.Result, error) {
	return c.run(ctx, conn, "-Q", query)
}

// RunFile runs a script file (-i).
func (c *Client) RunFile(ctx context.Context, conn bcpstage.ConnectionConfig, script string) (bcpstage.Result, error) {
	return c.run(ctx, conn, "-i", script)
}

func (c *Client) run(ctx context.Context, conn bcpstage.ConnectionConfig, mode, value string) (bcpstage.Result, error) {
	cmd := bcpstage.Command{
		Name:    c.path,
		Args:    append(ConnectionArgs(conn), "-b", mode, value),
		Secrets: []string{conn.Password},
	}
	result, err := c.runner.Run(ctx, cmd)
	if err != nil {
		return result, fmt.Errorf("sqlcmd on %s/%s: %w", conn.Server, conn.Database, err)
	}
	return result, nil
}

// ConnectionArgs renders the server, database and login flags shared by
// sqlcmd and bcp. Azure Entra ID logins use -G instead of a password.
func ConnectionArgs(conn bcpstage.ConnectionConfig) []string {
	args := []string{"-S", conn.Server, "-d", conn.Database}
	if conn.AuthMethod == bcpstage.AuthMethodAzureEntraID {
		args = append(args, "-G")
		if conn.Username != "" {
			args = append(args, "-U", conn.Username)
		}
		if conn.Password != "" {
			args = append(args, "-P", conn.Password)
		}
		return args
	}
	return append(args, "-U", conn.Username, "-P", conn.Password)
}
