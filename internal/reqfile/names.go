// Package reqfile classifies requirements and lock filenames and maps one to the other.
package reqfile

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

const (
	// DefaultStem is used when no target is given.
	DefaultStem = "requirements"

	// RequirementsExt is the extension of human-edited requirements files.
	RequirementsExt = ".txt"
	// LockExt is the extension of generated lock files.
	LockExt = ".lock"

	stemMarker = "requirements"
)

// ErrInvalidFilename is matched by every InvalidFilenameError.
var ErrInvalidFilename = errors.New("invalid requirements filename")

// InvalidFilenameError reports a path that is not an acceptable requirements or lock file.
type InvalidFilenameError struct {
	Path   string
	Reason string
}

func (e *InvalidFilenameError) Error() string {
	return fmt.Sprintf("invalid requirements filename %q: %s", e.Path, e.Reason)
}

// Is lets errors.Is match ErrInvalidFilename.
func (e *InvalidFilenameError) Is(target error) bool {
	return target == ErrInvalidFilename
}

// IsRequirementsFile reports whether the basename of path is a *requirements*.txt file.
func IsRequirementsFile(path string) bool {
	return hasKind(path, RequirementsExt)
}

// IsLockTarget reports whether the basename of path is a *requirements*.lock file.
func IsLockTarget(path string) bool {
	return hasKind(path, LockExt)
}

// IsInstallTarget reports whether path can be handed to install: either a
// requirements file or a lock file.
func IsInstallTarget(path string) bool {
	return IsRequirementsFile(path) || IsLockTarget(path)
}

func hasKind(path, ext string) bool {
	if path == "" {
		return false
	}
	base := filepath.Base(path)
	if filepath.Ext(base) != ext {
		return false
	}
	stem := strings.TrimSuffix(base, ext)
	return stem != "" && strings.Contains(stem, stemMarker)
}

// LockNameFor returns the lock path paired with target. target may be a
// requirements file, a lock file (returned unchanged), a bare stem such as
// "dev" or "dev-requirements", or empty for the default requirements.lock.
func LockNameFor(target string) (string, error) {
	return pairedName(target, LockExt)
}

// RequirementsNameFor is the inverse of LockNameFor. A requirements file is
// returned unchanged.
func RequirementsNameFor(target string) (string, error) {
	return pairedName(target, RequirementsExt)
}

func pairedName(target, ext string) (string, error) {
	if target == "" {
		return DefaultStem + ext, nil
	}

	dir, base := filepath.Split(target)
	switch {
	case IsRequirementsFile(base):
		return dir + strings.TrimSuffix(base, RequirementsExt) + ext, nil
	case IsLockTarget(base):
		return dir + strings.TrimSuffix(base, LockExt) + ext, nil
	case isStem(base):
		return dir + expandStem(base) + ext, nil
	}

	return "", &InvalidFilenameError{
		Path:   target,
		Reason: fmt.Sprintf("expected a *%s%s, *%s%s or a bare stem like 'dev'", stemMarker, RequirementsExt, stemMarker, LockExt),
	}
}

// isStem reports whether s is a shorthand name: non-empty and without any dot.
func isStem(s string) bool {
	return s != "" && !strings.Contains(s, ".")
}

// expandStem turns the shorthand "dev" into "dev-requirements".
func expandStem(s string) string {
	if strings.Contains(s, stemMarker) {
		return s
	}
	return s + "-" + stemMarker
}

// Checker validates command targets and reports problems through Logger.
// With Quiet set, nothing is logged but the error is still returned.
type Checker struct {
	Logger *log.Logger
	Quiet  bool
}

// CheckInstallTarget returns an InvalidFilenameError unless path is an install target.
func (c Checker) CheckInstallTarget(path string) error {
	if IsInstallTarget(path) {
		return nil
	}
	return c.fail(&InvalidFilenameError{
		Path:   path,
		Reason: fmt.Sprintf("install target must match *%s%s or *%s%s", stemMarker, RequirementsExt, stemMarker, LockExt),
	})
}

// CheckLockTarget returns an InvalidFilenameError unless path is a lock file.
func (c Checker) CheckLockTarget(path string) error {
	if IsLockTarget(path) {
		return nil
	}
	return c.fail(&InvalidFilenameError{
		Path:   path,
		Reason: fmt.Sprintf("lock file must match *%s%s", stemMarker, LockExt),
	})
}

func (c Checker) fail(err *InvalidFilenameError) error {
	if !c.Quiet {
		logger := c.Logger
		if logger == nil {
			logger = log.Default()
		}
		logger.Error("invalid filename", "path", err.Path, "reason", err.Reason)
	}
	return err
}

// InstallTarget expands arg (a file, a bare stem or "") into the path to
// install from. Lock files are returned unchanged.
func (c Checker) InstallTarget(arg string) (string, error) {
	if IsLockTarget(arg) {
		return arg, nil
	}
	path, err := RequirementsNameFor(arg)
	if err != nil {
		return "", c.report(err)
	}
	if err := c.CheckInstallTarget(path); err != nil {
		return "", err
	}
	return path, nil
}

// LockTarget expands arg into the lock path it names.
func (c Checker) LockTarget(arg string) (string, error) {
	path, err := LockNameFor(arg)
	if err != nil {
		return "", c.report(err)
	}
	if err := c.CheckLockTarget(path); err != nil {
		return "", err
	}
	return path, nil
}

func (c Checker) report(err error) error {
	var ie *InvalidFilenameError
	if errors.As(err, &ie) {
		return c.fail(ie)
	}
	return err
}
