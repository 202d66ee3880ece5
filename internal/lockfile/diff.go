package lockfile

import (
	"fmt"
	"sort"

	"github.com/anthr76/venvlock/internal/requirement"
)

// Report describes how a lock file differs from its declarations.
type Report struct {
	// Missing are declarations with no matching lock line.
	Missing []string
	// Mismatched are lock lines that contradict an exact declaration, or VCS
	// lines not pinned to a commit.
	Mismatched []string
	// CredentialsLost are VCS lock lines whose placeholder differs from the
	// declaration's.
	CredentialsLost []string
	// Extra are lock lines no declaration asked for.
	Extra []string
}

// OK reports whether the lock satisfies every declaration. Extra lines only
// count when strict is set.
func (r *Report) OK(strict bool) bool {
	if len(r.Missing) > 0 || len(r.Mismatched) > 0 || len(r.CredentialsLost) > 0 {
		return false
	}
	return !strict || len(r.Extra) == 0
}

// Diff compares declarations against the parsed lock. Result lists are sorted.
func Diff(decls []requirement.Line, lock []requirement.Line) *Report {
	lockByKey := make(map[string]requirement.Line)
	lockByName := make(map[string]requirement.Line)
	var lockOrder []string
	for _, l := range lock {
		key, ok := requirement.Key(l)
		if !ok {
			continue
		}
		if _, dup := lockByKey[key]; !dup {
			lockByKey[key] = l
			lockOrder = append(lockOrder, key)
		}
		name := requirement.NormalizeName(requirement.Name(l))
		if _, dup := lockByName[name]; !dup {
			lockByName[name] = l
		}
	}

	r := &Report{}
	matched := make(map[string]bool)

	for _, d := range decls {
		switch d := d.(type) {
		case requirement.PinnedPackage, requirement.BarePackage:
			name := requirement.Name(d)
			l, ok := lockByName[requirement.NormalizeName(name)]
			if !ok {
				r.Missing = append(r.Missing, d.String())
				continue
			}
			key, _ := requirement.Key(l)
			matched[key] = true
			if p, ok := d.(requirement.PinnedPackage); ok && p.Op == "==" {
				if lp, ok := l.(requirement.PinnedPackage); ok && lp.Version != p.Version {
					r.Mismatched = append(r.Mismatched, fmt.Sprintf("%s: lock has %s, requirements want %s", name, lp.Version, p.Version))
				}
			}
		case requirement.VcsDependency:
			key, _ := requirement.Key(d)
			l, ok := lockByKey[key]
			if !ok {
				r.Missing = append(r.Missing, requirement.Redact(d).String())
				continue
			}
			matched[key] = true
			lv := l.(requirement.VcsDependency)
			if lv.Ref == "" {
				r.Mismatched = append(r.Mismatched, fmt.Sprintf("%s: not pinned to a commit", d.Name))
			}
			if lv.Credential.Raw != d.Credential.Raw {
				r.CredentialsLost = append(r.CredentialsLost, d.Name)
			}
		}
	}

	for _, key := range lockOrder {
		if !matched[key] {
			r.Extra = append(r.Extra, lockByKey[key].String())
		}
	}

	sort.Strings(r.Missing)
	sort.Strings(r.Mismatched)
	sort.Strings(r.CredentialsLost)
	sort.Strings(r.Extra)
	return r
}
