package lockfile

import "github.com/anthr76/venvlock/internal/requirement"

// Refill restores credential placeholders on a lock produced without them,
// such as raw installer freeze output. Each VCS lock line whose repository
// matches a declaration with a credential is rewritten at its own commit;
// every other line is kept verbatim, in the lock's order.
func Refill(decls []requirement.Line, lockLines []string) []string {
	creds := make(map[string]requirement.VcsDependency)
	for _, d := range decls {
		v, ok := d.(requirement.VcsDependency)
		if !ok || v.Credential.IsZero() {
			continue
		}
		if _, dup := creds[v.RepoKey()]; !dup {
			creds[v.RepoKey()] = v
		}
	}

	out := make([]string, len(lockLines))
	for i, raw := range lockLines {
		out[i] = raw
		l, err := requirement.ParseLine(raw)
		if err != nil {
			continue
		}
		locked, ok := l.(requirement.VcsDependency)
		if !ok || locked.Ref == "" {
			continue
		}
		decl, ok := creds[locked.RepoKey()]
		if !ok {
			continue
		}
		resolved, err := requirement.NewResolved(locked)
		if err != nil {
			continue
		}
		out[i] = requirement.Fill(decl, resolved)
	}
	return out
}
