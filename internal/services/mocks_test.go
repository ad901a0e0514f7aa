package services

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vvka-141/bcpstage/internal/bcp"
	"github.com/vvka-141/bcpstage/internal/catalog"
	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

// callLog records the order of calls across mocks.
type callLog struct {
	calls []string
}

func (l *callLog) add(format string, args ...interface{}) {
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

type mockTables struct {
	log       *callLog
	ensureErr error
	truncErr  error
}

func (m *mockTables) EnsureStagingTable(_ context.Context, _ bcpstage.ConnectionConfig, base, staging bcpstage.TableIdentity) error {
	m.log.add("ensure %s %s", base.Dotted(), staging.Dotted())
	return m.ensureErr
}

func (m *mockTables) Truncate(_ context.Context, _ bcpstage.ConnectionConfig, table bcpstage.TableIdentity) error {
	m.log.add("truncate %s", table.Dotted())
	return m.truncErr
}

type mockLoader struct {
	log      *callLog
	requests []bcp.LoadRequest
	outcome  bcpstage.LoadOutcome
	err      error
}

func (m *mockLoader) Import(_ context.Context, _ bcpstage.ConnectionConfig, req bcp.LoadRequest) (bcpstage.LoadOutcome, error) {
	m.log.add("load %s", req.Table.Dotted())
	m.requests = append(m.requests, req)
	return m.outcome, m.err
}

// mockStore serves objects from an in-memory map and records uploads.
type mockStore struct {
	log         *callLog
	objects     map[string][]byte
	latest      string
	latestErr   error
	downloadErr error
	uploadErr   error
	uploads     map[string]string
}

func (m *mockStore) Latest(_ context.Context, prefix string) (string, error) {
	m.log.add("latest %s", prefix)
	return m.latest, m.latestErr
}

func (m *mockStore) Download(_ context.Context, key, dir string) (string, error) {
	m.log.add("download %s", key)
	if m.downloadErr != nil {
		return "", m.downloadErr
	}
	data, ok := m.objects[key]
	if !ok {
		return "", fmt.Errorf("object %s: %w", key, bcpstage.ErrTransferFailed)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, filepath.Base(key))
	return path, os.WriteFile(path, data, 0o644)
}

func (m *mockStore) Upload(_ context.Context, path, key string) error {
	m.log.add("upload %s", key)
	if m.uploadErr != nil {
		return m.uploadErr
	}
	if m.uploads == nil {
		m.uploads = map[string]string{}
	}
	m.uploads[key] = path
	return nil
}

type mockApprover struct {
	log      *callLog
	approved bool
	err      error
	labels   []string
}

func (m *mockApprover) RequestApproval(_ context.Context, label string) (bool, error) {
	m.log.add("approve")
	m.labels = append(m.labels, label)
	return m.approved, m.err
}

type mockExporter struct {
	requests []bcp.ExportRequest
	// failOn maps an output file base name to the error returned for it.
	failOn map[string]error
}

func (m *mockExporter) Export(_ context.Context, _ bcpstage.ConnectionConfig, req bcp.ExportRequest) error {
	m.requests = append(m.requests, req)
	if err, ok := m.failOn[filepath.Base(req.OutputFile)]; ok {
		return err
	}
	return os.WriteFile(req.OutputFile, []byte("1;alpha\n2;beta\n"), 0o644)
}

type scriptRun struct {
	Label  string
	Script string
}

type mockScriptRunner struct {
	runs   []scriptRun
	result map[string]bcpstage.Result
}

func (m *mockScriptRunner) RunFile(_ context.Context, conn bcpstage.ConnectionConfig, script string) (bcpstage.Result, error) {
	m.runs = append(m.runs, scriptRun{Label: conn.Label, Script: filepath.Base(script)})
	if r, ok := m.result[conn.Label+"/"+filepath.Base(script)]; ok {
		return r, nil
	}
	return bcpstage.Result{}, nil
}

type mockOpener struct {
	db  *sql.DB
	err error
}

func (m *mockOpener) Open(_ context.Context) (*sql.DB, error) {
	return m.db, m.err
}

type mockColumnReader struct {
	columns map[string][]catalog.Column
}

func (m *mockColumnReader) Columns(_ context.Context, table bcpstage.TableIdentity) ([]catalog.Column, error) {
	cols, ok := m.columns[table.Dotted()]
	if !ok {
		return nil, fmt.Errorf("table %s: %w", table.Dotted(), bcpstage.ErrSourceNotFound)
	}
	return cols, nil
}

// recordingRunner is a ProcessRunner that records commands and answers from a script.
type recordingRunner struct {
	commands []bcpstage.Command
	// respond returns the result for a command; nil means success.
	respond func(cmd bcpstage.Command) bcpstage.Result
}

func (r *recordingRunner) Run(_ context.Context, cmd bcpstage.Command) (bcpstage.Result, error) {
	r.commands = append(r.commands, cmd)
	if r.respond != nil {
		return r.respond(cmd), nil
	}
	return bcpstage.Result{}, nil
}

// captureLogger records formatted messages per level.
type captureLogger struct {
	mu      sync.Mutex
	infos   []string
	errors  []string
	verbose []string

	verboseOn bool
}

func (l *captureLogger) VerboseEnabled() bool { return l.verboseOn }

func (l *captureLogger) Verbose(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose = append(l.verbose, fmt.Sprintf(format, args...))
}

func (l *captureLogger) Info(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, fmt.Sprintf(format, args...))
}

func (l *captureLogger) Error(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

// errorsContaining counts error lines that contain substr.
func (l *captureLogger) errorsContaining(substr string) int {
	n := 0
	for _, e := range l.errors {
		if strings.Contains(e, substr) {
			n++
		}
	}
	return n
}

var (
	_ StagingTables          = (*mockTables)(nil)
	_ BulkLoader             = (*mockLoader)(nil)
	_ bcpstage.ObjectStore   = (*mockStore)(nil)
	_ QueryExporter          = (*mockExporter)(nil)
	_ ScriptRunner           = (*mockScriptRunner)(nil)
	_ Opener                 = (*mockOpener)(nil)
	_ ColumnReader           = (*mockColumnReader)(nil)
	_ bcpstage.ProcessRunner = (*recordingRunner)(nil)
	_ bcpstage.Logger        = (*captureLogger)(nil)
)
