// Package graph flattens a requirements file and everything it references
// with -r into one ordered, de-duplicated list of declarations.
package graph

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/anthr76/venvlock/internal/requirement"
)

// Entry is one concrete declaration and where it came from.
type Entry struct {
	File        string
	Line        int
	Requirement requirement.Line
}

// Graph is the flattened result of a single resolution run.
type Graph struct {
	Root string
	// Entries are the declarations in depth-first pre-order, first occurrence wins.
	Entries []Entry
	// Duplicates are declarations dropped because an earlier entry had the same key.
	Duplicates []Entry
	// Files lists every requirements file visited, in visit order.
	Files []string
}

// CyclicReferenceError reports a -r chain that leads back to a file already
// being resolved. Cycle starts and ends with the same file.
type CyclicReferenceError struct {
	Cycle []string
}

func (e *CyclicReferenceError) Error() string {
	return "cyclic requirements reference: " + strings.Join(e.Cycle, " -> ")
}

// MissingFileError reports a referenced requirements file that does not exist.
// Referrer is empty when the root itself is missing.
type MissingFileError struct {
	Referrer string
	Path     string
}

func (e *MissingFileError) Error() string {
	if e.Referrer == "" {
		return fmt.Sprintf("requirements file %s does not exist", e.Path)
	}
	return fmt.Sprintf("%s references %s, which does not exist", e.Referrer, e.Path)
}

// frame is one file on the explicit traversal stack.
type frame struct {
	path  string
	key   string
	lines []requirement.Line
	next  int
}

// Resolve reads root and follows its file references depth-first. A
// reference is expanded in place, before the lines that follow it.
func Resolve(root string) (*Graph, error) {
	g := &Graph{Root: root}

	onStack := make(map[string]bool)
	done := make(map[string]bool)
	seen := make(map[string]bool)
	var stack []*frame

	push := func(path, referrer string) error {
		key, err := fileKey(path)
		if err != nil {
			return err
		}
		if onStack[key] {
			return &CyclicReferenceError{Cycle: cycleFrom(stack, key, path)}
		}
		if done[key] {
			return nil
		}
		lines, err := requirement.ParseFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return &MissingFileError{Referrer: referrer, Path: path}
			}
			return err
		}
		onStack[key] = true
		g.Files = append(g.Files, path)
		stack = append(stack, &frame{path: path, key: key, lines: lines})
		return nil
	}

	if err := push(root, ""); err != nil {
		return nil, err
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next >= len(top.lines) {
			stack = stack[:len(stack)-1]
			delete(onStack, top.key)
			done[top.key] = true
			continue
		}

		num := top.next + 1
		line := top.lines[top.next]
		top.next++

		switch l := line.(type) {
		case requirement.Blank:
		case requirement.FileReference:
			if err := push(referencePath(top.path, l.Path), top.path); err != nil {
				return nil, err
			}
		case requirement.PinnedPackage, requirement.BarePackage, requirement.VcsDependency:
			entry := Entry{File: top.path, Line: num, Requirement: line}
			key, _ := requirement.Key(line)
			if seen[key] {
				g.Duplicates = append(g.Duplicates, entry)
				continue
			}
			seen[key] = true
			g.Entries = append(g.Entries, entry)
		default:
			return nil, fmt.Errorf("%s:%d: unhandled line type %T", top.path, num, line)
		}
	}

	return g, nil
}

// referencePath resolves ref relative to the directory of the referencing file.
func referencePath(from, ref string) string {
	if filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(filepath.Dir(from), ref)
}

func fileKey(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	return abs, nil
}

func cycleFrom(stack []*frame, key, path string) []string {
	var cycle []string
	for i, f := range stack {
		if f.key == key {
			for _, g := range stack[i:] {
				cycle = append(cycle, g.path)
			}
			break
		}
	}
	return append(cycle, path)
}

// Declarations returns the requirement of every entry, in order.
func (g *Graph) Declarations() []requirement.Line {
	out := make([]requirement.Line, len(g.Entries))
	for i, e := range g.Entries {
		out[i] = e.Requirement
	}
	return out
}
