// Package installer drives the external package installer that resolves and
// installs requirements into the active environment.
package installer

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/anthr76/venvlock/internal/requirement"
)

// Installer installs requirement lines and reports what ended up installed.
// Lines passed to Install may carry secrets and must not be persisted.
type Installer interface {
	Install(ctx context.Context, lines []string) error
	Freeze(ctx context.Context) ([]string, error)
	UninstallAll(ctx context.Context) error
}

// ProcessError reports an installer invocation that exited unsuccessfully.
type ProcessError struct {
	Command  string
	ExitCode int
	Err      error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Command, e.ExitCode)
}

func (e *ProcessError) Unwrap() error { return e.Err }

// Skipped is a freeze line that could not be used as an exact pin.
type Skipped struct {
	Line   string
	Reason string
}

// ParseFreeze turns installer freeze output into exact pins. Comments and
// blank lines are ignored; anything else that is not an exact pin, such as
// editable or local installs, is returned in skipped. Literal credentials are
// removed from both.
func ParseFreeze(lines []string) (resolved []requirement.ResolvedDependency, skipped []Skipped) {
	for _, raw := range lines {
		s := strings.TrimSpace(raw)
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		s = stripCredentials(s)
		l, err := requirement.ParseLine(s)
		if err != nil {
			skipped = append(skipped, Skipped{Line: s, Reason: "unparseable"})
			continue
		}
		r, err := requirement.NewResolved(l)
		if err != nil {
			skipped = append(skipped, Skipped{Line: s, Reason: err.Error()})
			continue
		}
		resolved = append(resolved, r)
	}
	return resolved, skipped
}

// stripCredentials drops literal userinfo some installers echo back in
// direct URL references. Over http(s) any literal userinfo is a secret;
// for other schemes only user:password is, so ssh users like git@ stay.
// Placeholders are kept.
func stripCredentials(s string) string {
	i := strings.Index(s, "://")
	if i < 0 {
		return s
	}
	rest := s[i+3:]
	end := strings.IndexByte(rest, '/')
	if end < 0 {
		end = len(rest)
	}
	at := strings.LastIndexByte(rest[:end], '@')
	if at < 0 || strings.Contains(rest[:at], "${") {
		return s
	}
	scheme := strings.ToLower(s[:i])
	web := strings.HasSuffix(scheme, "http") || strings.HasSuffix(scheme, "https")
	if !web && !strings.Contains(rest[:at], ":") {
		return s
	}
	return s[:i+3] + rest[at+1:]
}

func splitLines(out string) []string {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
