// Package requirement models single lines of a requirements file.
//
// A line is one of Blank, FileReference, PinnedPackage, BarePackage or
// VcsDependency. The set is closed: Line has an unexported method, and
// consumers switch over the concrete types.
package requirement

import (
	"regexp"
	"strings"
)

// Line is a parsed requirements line.
type Line interface {
	// String renders the line in canonical requirements syntax.
	String() string
	isLine()
}

// Blank is an empty or comment-only line.
type Blank struct {
	Comment string
}

// FileReference is a "-r <path>" directive. Path is relative to the
// directory of the file containing it.
type FileReference struct {
	Path string
}

// PinnedPackage is a package with a version constraint, e.g. numpy==1.26.0.
type PinnedPackage struct {
	Name    string
	Op      string
	Version string
}

// BarePackage is a package name with no constraint.
type BarePackage struct {
	Name string
}

// VcsDependency is a direct reference such as
// "name @ git+https://${TOKEN}@github.com/owner/repo@ref".
type VcsDependency struct {
	Name string
	// VCS is the version control prefix: git, hg, svn or bzr.
	VCS string
	// Scheme is the transport after the "+", e.g. https or ssh.
	Scheme     string
	Credential Credential
	// User is a literal, non-secret user such as "git" in git+ssh URLs.
	User     string
	Host     string
	Path     string
	Ref      string
	Fragment string
}

// Credential is an environment placeholder embedded in a VCS URL. Only
// variable names are stored, never values.
type Credential struct {
	// Raw is the placeholder text exactly as written.
	Raw string
	// Token is set for the ${TOKEN} form.
	Token string
	// User and Password are set for the ${USER}:${PASS} form.
	User     string
	Password string
}

// IsZero reports whether no placeholder is present.
func (c Credential) IsZero() bool { return c.Raw == "" }

// Variables lists the environment variable names the placeholder refers to.
func (c Credential) Variables() []string {
	switch {
	case c.Token != "":
		return []string{c.Token}
	case c.User != "":
		return []string{c.User, c.Password}
	}
	return nil
}

func (Blank) isLine()         {}
func (FileReference) isLine() {}
func (PinnedPackage) isLine() {}
func (BarePackage) isLine()   {}
func (VcsDependency) isLine() {}

func (b Blank) String() string { return b.Comment }

func (f FileReference) String() string { return "-r " + f.Path }

func (p PinnedPackage) String() string { return p.Name + p.Op + p.Version }

func (b BarePackage) String() string { return b.Name }

func (v VcsDependency) String() string {
	return v.Render(v.Credential.Raw)
}

// Render formats v with userinfo in place of the credential placeholder.
// An empty userinfo renders the URL without credentials.
func (v VcsDependency) Render(userinfo string) string {
	var b strings.Builder
	b.WriteString(v.Name)
	b.WriteString(" @ ")
	b.WriteString(v.URL(userinfo))
	return b.String()
}

// URL returns the "vcs+scheme://..." part of the dependency with the given userinfo.
func (v VcsDependency) URL(userinfo string) string {
	var b strings.Builder
	b.WriteString(v.VCS)
	b.WriteByte('+')
	b.WriteString(v.Scheme)
	b.WriteString("://")
	if userinfo != "" {
		b.WriteString(userinfo)
		b.WriteByte('@')
	} else if v.User != "" {
		b.WriteString(v.User)
		b.WriteByte('@')
	}
	b.WriteString(v.Host)
	b.WriteByte('/')
	b.WriteString(v.Path)
	if v.Ref != "" {
		b.WriteByte('@')
		b.WriteString(v.Ref)
	}
	if v.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(v.Fragment)
	}
	return b.String()
}

// RepoKey identifies the repository independent of credentials and ref.
func (v VcsDependency) RepoKey() string {
	path := strings.TrimSuffix(strings.TrimSuffix(v.Path, "/"), ".git")
	return strings.ToLower(v.Host) + "/" + path
}

var separatorRE = regexp.MustCompile(`[-_.]+`)

// NormalizeName applies PEP 503 normalization to a package name.
func NormalizeName(name string) string {
	return strings.ToLower(separatorRE.ReplaceAllString(name, "-"))
}

// Key returns the identity used for de-duplication. Index packages are keyed
// by normalized name, VCS dependencies by repository. Blank lines and file
// references have no key.
func Key(l Line) (string, bool) {
	switch l := l.(type) {
	case PinnedPackage:
		return "pkg:" + NormalizeName(l.Name), true
	case BarePackage:
		return "pkg:" + NormalizeName(l.Name), true
	case VcsDependency:
		return "vcs:" + l.RepoKey(), true
	case Blank, FileReference:
		return "", false
	}
	return "", false
}

// Name returns the declared package name, or "" for lines that declare none.
func Name(l Line) string {
	switch l := l.(type) {
	case PinnedPackage:
		return l.Name
	case BarePackage:
		return l.Name
	case VcsDependency:
		return l.Name
	case Blank, FileReference:
		return ""
	}
	return ""
}
