package requirement

import "fmt"

// ResolvedDependency is an exact pin reported by the package installer:
// either an index package at Version or a VCS checkout at Source.Ref.
type ResolvedDependency struct {
	Name    string
	Version string
	Source  *VcsDependency
}

// Commit returns the resolved VCS ref, or "" for index packages.
func (r ResolvedDependency) Commit() string {
	if r.Source == nil {
		return ""
	}
	return r.Source.Ref
}

// NewResolved converts an installer output line into a ResolvedDependency.
// Only exact pins qualify: name==version, name===version, or a VCS
// reference carrying a ref.
func NewResolved(l Line) (ResolvedDependency, error) {
	switch l := l.(type) {
	case PinnedPackage:
		if l.Op != "==" && l.Op != "===" {
			return ResolvedDependency{}, fmt.Errorf("resolved %s is not an exact pin", l)
		}
		return ResolvedDependency{Name: l.Name, Version: l.Version}, nil
	case VcsDependency:
		if l.Ref == "" {
			return ResolvedDependency{}, fmt.Errorf("resolved %s has no commit", l)
		}
		src := Redact(l)
		return ResolvedDependency{Name: l.Name, Source: &src}, nil
	case BarePackage:
		return ResolvedDependency{}, fmt.Errorf("resolved %s has no version", l)
	case Blank, FileReference:
		return ResolvedDependency{}, fmt.Errorf("line %q is not a dependency", l)
	}
	return ResolvedDependency{}, fmt.Errorf("unknown line type %T", l)
}

// Redact returns a copy of v without its credential placeholder. Scheme,
// host, path and ref are kept.
func Redact(v VcsDependency) VcsDependency {
	v.Credential = Credential{}
	return v
}

// Fill renders the lock line for original pinned at resolved's commit. The
// placeholder text of original is copied verbatim and any ref it carried is
// replaced. Fill never sees secret values.
func Fill(original VcsDependency, resolved ResolvedDependency) string {
	original.Ref = resolved.Commit()
	return original.String()
}
