package installer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
)

// stdinRequirements makes pip read a requirements file from its standard
// input, so interpolated credentials never touch the filesystem.
const stdinRequirements = "/dev/stdin"

// Pip runs "python -m pip" against the interpreter of the target environment.
type Pip struct {
	Python string
	// Args are extra arguments appended to every install invocation.
	Args   []string
	Stdout io.Writer
	Stderr io.Writer
	Logger *log.Logger
}

// Install installs lines with a single pip invocation.
func (p *Pip) Install(ctx context.Context, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	args := append([]string{"install"}, p.Args...)
	args = append(args, "-r", stdinRequirements)
	err := p.run(ctx, args, strings.Join(lines, "\n")+"\n", p.Stdout)
	return err
}

// Freeze lists installed distributions as pip prints them.
func (p *Pip) Freeze(ctx context.Context) ([]string, error) {
	var out bytes.Buffer
	if err := p.run(ctx, []string{"freeze"}, "", &out); err != nil {
		return nil, err
	}
	return splitLines(out.String()), nil
}

// UninstallAll removes every distribution reported by Freeze.
func (p *Pip) UninstallAll(ctx context.Context) error {
	frozen, err := p.Freeze(ctx)
	if err != nil {
		return err
	}
	var names []string
	for _, line := range frozen {
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-e ") {
			continue
		}
		names = append(names, line)
	}
	if len(names) == 0 {
		return nil
	}
	err = p.run(ctx, []string{"uninstall", "-y", "-r", stdinRequirements}, strings.Join(names, "\n")+"\n", p.Stdout)
	return err
}

func (p *Pip) run(ctx context.Context, args []string, stdin string, stdout io.Writer) error {
	python := p.Python
	if python == "" {
		python = "python3"
	}
	argv := append([]string{"-m", "pip"}, args...)
	command := python + " " + strings.Join(argv, " ")
	if p.Logger != nil {
		p.Logger.Debug("running installer", "command", command)
	}

	cmd := exec.CommandContext(ctx, python, argv...)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Stdout = stdout
	cmd.Stderr = p.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ProcessError{Command: command, ExitCode: exitErr.ExitCode(), Err: err}
		}
		return fmt.Errorf("running %s: %w", command, err)
	}
	return nil
}
