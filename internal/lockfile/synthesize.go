package lockfile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/anthr76/venvlock/internal/requirement"
)

// UnresolvedDependencyError lists declarations the installer produced no
// exact pin for.
type UnresolvedDependencyError struct {
	Requirements []string
}

func (e *UnresolvedDependencyError) Error() string {
	return "no resolved version for: " + strings.Join(e.Requirements, ", ")
}

// Options controls Synthesize.
type Options struct {
	// Transitive appends resolved pins no declaration matched, sorted by
	// normalized name.
	Transitive bool
}

// index holds resolved pins keyed by normalized name and by repository.
type index struct {
	byName map[string]int
	byRepo map[string]int
	used   []bool
}

func newIndex(resolved []requirement.ResolvedDependency) *index {
	idx := &index{
		byName: make(map[string]int),
		byRepo: make(map[string]int),
		used:   make([]bool, len(resolved)),
	}
	for i, r := range resolved {
		name := requirement.NormalizeName(r.Name)
		if _, ok := idx.byName[name]; !ok {
			idx.byName[name] = i
		}
		if r.Source != nil {
			key := r.Source.RepoKey()
			if _, ok := idx.byRepo[key]; !ok {
				idx.byRepo[key] = i
			}
		}
	}
	return idx
}

func (idx *index) name(name string) (int, bool) {
	i, ok := idx.byName[requirement.NormalizeName(name)]
	return i, ok
}

func (idx *index) repo(v requirement.VcsDependency) (int, bool) {
	if i, ok := idx.byRepo[v.RepoKey()]; ok {
		return i, true
	}
	return -1, false
}

// pinLine renders the lock line for a resolved pin with no declaration.
func pinLine(r requirement.ResolvedDependency) string {
	if r.Source != nil {
		return r.Source.String()
	}
	return r.Name + "==" + r.Version
}

// Synthesize builds lock lines from the flattened declarations and the
// installer's exact pins. Output follows declaration order. VCS declarations
// keep their credential placeholders and are pinned to the resolved commit;
// secret values never pass through here.
func Synthesize(decls []requirement.Line, resolved []requirement.ResolvedDependency, opts Options) ([]string, error) {
	idx := newIndex(resolved)

	claimed := make(map[string]bool)
	for _, d := range decls {
		if v, ok := d.(requirement.VcsDependency); ok {
			claimed[v.RepoKey()] = true
		}
	}

	var lines, missing []string
	for _, d := range decls {
		switch d := d.(type) {
		case requirement.PinnedPackage, requirement.BarePackage:
			i, ok := idx.name(requirement.Name(d))
			if !ok {
				missing = append(missing, d.String())
				continue
			}
			// A VCS declaration of the same repository emits this pin with
			// its placeholder.
			if src := resolved[i].Source; src != nil && claimed[src.RepoKey()] {
				continue
			}
			idx.used[i] = true
			lines = append(lines, pinLine(resolved[i]))
		case requirement.VcsDependency:
			i, ok := idx.repo(d)
			if !ok || resolved[i].Commit() == "" {
				missing = append(missing, requirement.Redact(d).String())
				continue
			}
			idx.used[i] = true
			lines = append(lines, requirement.Fill(d, resolved[i]))
		case requirement.Blank, requirement.FileReference:
		default:
			return nil, fmt.Errorf("unhandled declaration type %T", d)
		}
	}

	if len(missing) > 0 {
		return nil, &UnresolvedDependencyError{Requirements: missing}
	}

	if opts.Transitive {
		var extra []requirement.ResolvedDependency
		for i, r := range resolved {
			if !idx.used[i] {
				extra = append(extra, r)
			}
		}
		sort.SliceStable(extra, func(a, b int) bool {
			return requirement.NormalizeName(extra[a].Name) < requirement.NormalizeName(extra[b].Name)
		})
		seen := make(map[string]bool)
		for _, r := range extra {
			line := pinLine(r)
			if seen[line] {
				continue
			}
			seen[line] = true
			lines = append(lines, line)
		}
	}

	return lines, nil
}
