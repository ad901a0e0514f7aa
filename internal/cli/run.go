package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/vvka-141/bcpstage/internal/config"
	"github.com/vvka-141/bcpstage/internal/db"
	"github.com/vvka-141/bcpstage/internal/logging"
	"github.com/vvka-141/bcpstage/internal/services"
	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

// session holds what every command needs once settings are resolved.
type session struct {
	settings *config.Settings
	logger   bcpstage.Logger
	logPath  string
	runID    string
	started  time.Time

	closeLog func() error
}

// loadSettings reads .env files, the optional yaml file and the environment.
func loadSettings() (*config.Settings, error) {
	if err := config.LoadEnvFiles(globalFlags.envFiles...); err != nil {
		return nil, err
	}

	path := globalFlags.configFile
	if path == "" {
		path = config.ConfigFileName
	}
	file, err := config.Load(path)
	if err != nil {
		if !errors.Is(err, config.ErrConfigNotFound) {
			return nil, err
		}
		if globalFlags.configFile != "" {
			return nil, fmt.Errorf("%s: %w: %w", globalFlags.configFile, err, bcpstage.ErrInvalidConfig)
		}
		file = nil
	}

	return config.Resolve(file, os.LookupEnv)
}

// openSession resolves settings and opens the run log <prefix>_<timestamp>.log.
func openSession(cmd *cobra.Command, prefix string) (*session, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("timeout") {
		timeout, err := cmd.Flags().GetDuration("timeout")
		if err != nil {
			return nil, err
		}
		if timeout < 0 {
			return nil, fmt.Errorf("invalid argument %q for --timeout: must not be negative", timeout)
		}
		settings.Timeout = timeout
	}

	verbose := getVerboseFlag(cmd)
	runLog, err := logging.NewRunLogger(settings.LogDir, prefix, verbose)
	if err != nil {
		return nil, err
	}

	s := &session{
		settings: settings,
		logger:   runLog.Logger,
		logPath:  runLog.Path,
		runID:    uuid.New().String(),
		started:  time.Now(),
		closeLog: runLog.Close,
	}
	s.logger.Info("bcpstage %s run %s started", prefix, s.runID)
	s.logger.Verbose("Log file: %s", s.logPath)
	return s, nil
}

// Close writes the outcome line and closes the log file.
func (s *session) Close(runErr error) {
	if runErr != nil {
		s.logger.Error("run %s failed after %v: %v", s.runID, time.Since(s.started).Round(time.Millisecond), runErr)
	} else {
		s.logger.Info("run %s finished in %v", s.runID, time.Since(s.started).Round(time.Millisecond))
	}
	if err := s.closeLog(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

// runContext returns the run context, bounded by the timeout and cancelled on SIGINT/SIGTERM.
func (s *session) runContext(what string) (context.Context, context.CancelFunc) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if s.settings.Timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), s.settings.Timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			fmt.Fprintf(os.Stderr, "\n[INTERRUPT] Received interrupt signal, cancelling %s...\n", what)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

// openerFactory adapts db.NewConnector to services.OpenerFactory.
func openerFactory(logger bcpstage.Logger) services.OpenerFactory {
	return func(conn bcpstage.ConnectionConfig) (services.Opener, error) {
		connector, err := db.NewConnector(conn, logger)
		if err != nil {
			return nil, err
		}
		return connector, nil
	}
}
