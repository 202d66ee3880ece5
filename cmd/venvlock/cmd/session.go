package cmd

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/anthr76/venvlock/internal/auth"
	"github.com/anthr76/venvlock/internal/config"
	"github.com/anthr76/venvlock/internal/installer"
	"github.com/anthr76/venvlock/internal/reqfile"
)

// session is the per-invocation state shared by every subcommand.
type session struct {
	cfg       *config.Config
	logger    *log.Logger
	checker   reqfile.Checker
	installer installer.Installer
}

// newInstaller builds the package installer. Tests replace it.
var newInstaller = func(cfg *config.Config, cmd *cobra.Command, logger *log.Logger) (installer.Installer, error) {
	python, err := cfg.PythonPath()
	if err != nil {
		return nil, err
	}
	args, err := cfg.PipArguments()
	if err != nil {
		return nil, err
	}
	return &installer.Pip{
		Python: python,
		Args:   args,
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
		Logger: logger,
	}, nil
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, path, err := config.Load(config.LoadOptions{ConfigFile: rootConfig})
	if err != nil {
		return nil, err
	}

	level := log.InfoLevel
	if rootVerbose || cfg.Verbose {
		level = log.DebugLevel
	}
	logger := newLogger(cmd.ErrOrStderr(), level)
	if path != "" {
		logger.Debug("loaded config", "path", path)
	}

	inst, err := newInstaller(cfg, cmd, logger)
	if err != nil {
		return nil, err
	}

	return &session{
		cfg:       cfg,
		logger:    logger,
		checker:   reqfile.Checker{Logger: logger, Quiet: rootQuiet},
		installer: inst,
	}, nil
}

// sessionFor returns the session installed by the root command, creating
// one when cmd runs on its own.
func sessionFor(cmd *cobra.Command) (*session, error) {
	if ctx := cmd.Context(); ctx != nil {
		if s, ok := ctx.Value(sessionKey).(*session); ok {
			return s, nil
		}
	}
	return newSession(cmd)
}

// interpolator reads secrets for installation. It is built on demand so
// commands that never install do not touch the netrc file.
func (s *session) interpolator() (*auth.Interpolator, error) {
	return auth.New(s.cfg.Netrc)
}

// newLogger creates a new logger with timestamp formatting.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

type ctxKey int

const sessionKey ctxKey = 0

func withSession(ctx context.Context, s *session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}
