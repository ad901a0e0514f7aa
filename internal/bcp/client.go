// Package bcp drives the SQL Server bulk copy utility.
package bcp

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vvka-141/bcpstage/internal/sqlcmd"
	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

// LoadRequest describes one "bcp in" invocation.
type LoadRequest struct {
	Table           bcpstage.TableIdentity
	FilePath        string
	FieldTerminator string
	KeepIdentity    bool

	// MaxErrors is the number of rejected rows bcp tolerates before aborting.
	MaxErrors int

	// ErrorFile receives rejected rows. Empty disables capture.
	ErrorFile string
}

// ExportRequest describes one "bcp queryout" invocation.
type ExportRequest struct {
	Query           string
	OutputFile      string
	FieldTerminator string
}

// Client invokes bcp through a ProcessRunner.
type Client struct {
	path   string
	runner bcpstage.ProcessRunner
	logger bcpstage.Logger
}

// NewClient creates a Client for the bcp binary at path.
func NewClient(path string, runner bcpstage.ProcessRunner, logger bcpstage.Logger) *Client {
	if runner == nil {
		panic("runner cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if path == "" {
		path = bcpstage.DefaultBCPPath
	}
	return &Client{path: path, runner: runner, logger: logger}
}

// Import loads req.FilePath into req.Table in character mode.
//
// A non-zero exit returns *bcpstage.LoadError carrying the captured output and
// the first lines of the error file.
func (c *Client) Import(ctx context.Context, conn bcpstage.ConnectionConfig, req LoadRequest) (bcpstage.LoadOutcome, error) {
	if req.MaxErrors < 0 {
		return bcpstage.LoadOutcome{}, fmt.Errorf("max errors must be >= 0, got %d: %w", req.MaxErrors, bcpstage.ErrInvalidConfig)
	}
	if req.FieldTerminator == "" {
		return bcpstage.LoadOutcome{}, fmt.Errorf("field terminator cannot be empty: %w", bcpstage.ErrInvalidConfig)
	}
	if err := req.Table.Validate(); err != nil {
		return bcpstage.LoadOutcome{}, err
	}

	args := []string{req.Table.Dotted(), "in", req.FilePath}
	args = append(args, sqlcmd.ConnectionArgs(conn)...)
	args = append(args, "-c", "-t", req.FieldTerminator)
	if req.KeepIdentity {
		args = append(args, "-E")
	}
	args = append(args, "-m", strconv.Itoa(req.MaxErrors))
	if req.ErrorFile != "" {
		if err := os.MkdirAll(filepath.Dir(req.ErrorFile), 0o755); err != nil {
			return bcpstage.LoadOutcome{}, fmt.Errorf("failed to create error file directory: %w", err)
		}
		args = append(args, "-e", req.ErrorFile)
	}

	c.logger.Info("Loading %s into %s (max errors %d)", filepath.Base(req.FilePath), req.Table.Dotted(), req.MaxErrors)
	result, err := c.runner.Run(ctx, bcpstage.Command{Name: c.path, Args: args, Secrets: []string{conn.Password}})
	if err != nil {
		return bcpstage.LoadOutcome{}, fmt.Errorf("bcp in %s: %w", req.Table.Dotted(), err)
	}

	outcome := bcpstage.LoadOutcome{
		ExitCode: result.ExitCode,
		Stdout:   result.Stdout,
		Stderr:   result.Stderr,
	}
	if result.Success() {
		return outcome, nil
	}

	if req.ErrorFile != "" {
		outcome.SampleErrorRows = readSample(req.ErrorFile, bcpstage.ErrorSampleLines)
	}
	return outcome, &bcpstage.LoadError{Table: req.Table, Outcome: outcome}
}

// Export writes the result set of req.Query to req.OutputFile in character mode.
func (c *Client) Export(ctx context.Context, conn bcpstage.ConnectionConfig, req ExportRequest) error {
	if req.FieldTerminator == "" {
		return fmt.Errorf("field terminator cannot be empty: %w", bcpstage.ErrInvalidConfig)
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputFile), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	args := []string{req.Query, "queryout", req.OutputFile}
	args = append(args, sqlcmd.ConnectionArgs(conn)...)
	args = append(args, "-c", "-t", req.FieldTerminator)

	result, err := c.runner.Run(ctx, bcpstage.Command{Name: c.path, Args: args, Secrets: []string{conn.Password}})
	if err != nil {
		return fmt.Errorf("bcp queryout %s: %w", filepath.Base(req.OutputFile), err)
	}
	if !result.Success() {
		return &bcpstage.ToolError{Op: "bcp queryout " + filepath.Base(req.OutputFile), Result: result}
	}
	return nil
}

// readSample returns up to n lines of path. A missing or unreadable file yields nil.
func readSample(path string, n int) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var lines []string
	reader := bufio.NewReader(f)
	for len(lines) < n {
		line, err := reader.ReadString('\n')
		if line != "" {
			lines = append(lines, strings.TrimRight(line, "\r\n"))
		}
		if err != nil {
			break
		}
	}
	return lines
}
