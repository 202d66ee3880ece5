// Package lockfile builds, reads and writes requirements lock files: flat,
// newline-terminated lists of exact pins.
package lockfile

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/anthr76/venvlock/internal/requirement"
)

// Lockfile is the content of a *requirements.lock file.
type Lockfile struct {
	Path  string
	Lines []string
}

// New creates a Lockfile for path with the given lines.
func New(path string, lines []string) *Lockfile {
	return &Lockfile{Path: path, Lines: lines}
}

// Load reads a lock file. Blank lines are dropped.
func Load(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading lockfile: %w", err)
	}

	lf := &Lockfile{Path: path}
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lf.Lines = append(lf.Lines, line)
		}
	}

	return lf, nil
}

// Bytes renders the lock file: one line each, newline-terminated.
func (lf *Lockfile) Bytes() []byte {
	var b bytes.Buffer
	for _, l := range lf.Lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.Bytes()
}

// Save atomically replaces the file at lf.Path.
func (lf *Lockfile) Save() error {
	if err := WriteAtomic(lf.Path, lf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing lockfile: %w", err)
	}
	return nil
}

// Requirements parses every line of the lock file.
func (lf *Lockfile) Requirements() ([]requirement.Line, error) {
	lines, err := requirement.Parse(bytes.NewReader(lf.Bytes()), lf.Path)
	if err != nil {
		return nil, fmt.Errorf("parsing lockfile: %w", err)
	}
	return lines, nil
}
