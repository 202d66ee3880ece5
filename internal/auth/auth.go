// Package auth turns credential placeholders into usable URLs at install
// time. Values come from the environment, falling back to the netrc entry
// for the dependency's host. Nothing produced here is meant to be stored.
package auth

import (
	"fmt"
	"net/url"
	"os"

	"github.com/git-lfs/go-netrc/netrc"

	"github.com/anthr76/venvlock/internal/requirement"
)

// MissingCredentialError reports a placeholder variable with no value in
// the environment or the netrc file.
type MissingCredentialError struct {
	Variable string
	Host     string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("credential variable %s is not set and no netrc entry matches %s", e.Variable, e.Host)
}

// LookupFunc reports the value of an environment variable.
type LookupFunc func(key string) (string, bool)

// Interpolator substitutes secret values into VCS declarations.
type Interpolator struct {
	Lookup LookupFunc
	Netrc  *netrc.Netrc
}

// New returns an Interpolator reading the process environment and the
// netrc file at netrcPath. A missing netrc file is not an error.
func New(netrcPath string) (*Interpolator, error) {
	n, err := LoadNetrc(netrcPath)
	if err != nil {
		return nil, err
	}
	return &Interpolator{Lookup: os.LookupEnv, Netrc: n}, nil
}

// LoadNetrc parses path, returning an empty set when it does not exist.
func LoadNetrc(path string) (*netrc.Netrc, error) {
	if path == "" {
		return &netrc.Netrc{}, nil
	}
	n, err := netrc.ParseFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &netrc.Netrc{}, nil
		}
		return nil, fmt.Errorf("parsing netrc: %w", err)
	}
	if n == nil {
		n = &netrc.Netrc{}
	}
	return n, nil
}

// Userinfo resolves the credential of dep. It returns nil when dep carries
// no placeholder.
func (i *Interpolator) Userinfo(dep requirement.VcsDependency) (*url.Userinfo, error) {
	c := dep.Credential
	if c.IsZero() {
		return nil, nil
	}

	var machine *netrc.Machine
	if i.Netrc != nil {
		machine = i.Netrc.FindMachine(dep.Host, "")
	}

	if c.Token != "" {
		token, ok := i.value(c.Token, machine, func(m *netrc.Machine) string { return m.Password })
		if !ok {
			return nil, &MissingCredentialError{Variable: c.Token, Host: dep.Host}
		}
		return url.User(token), nil
	}

	user, ok := i.value(c.User, machine, func(m *netrc.Machine) string { return m.Login })
	if !ok {
		return nil, &MissingCredentialError{Variable: c.User, Host: dep.Host}
	}
	pass, ok := i.value(c.Password, machine, func(m *netrc.Machine) string { return m.Password })
	if !ok {
		return nil, &MissingCredentialError{Variable: c.Password, Host: dep.Host}
	}
	return url.UserPassword(user, pass), nil
}

func (i *Interpolator) value(name string, m *netrc.Machine, field func(*netrc.Machine) string) (string, bool) {
	if i.Lookup != nil {
		if v, ok := i.Lookup(name); ok && v != "" {
			return v, true
		}
	}
	if m != nil {
		if v := field(m); v != "" {
			return v, true
		}
	}
	return "", false
}

// Line renders l the way the installer must receive it: VCS declarations
// with their secrets substituted, everything else unchanged.
func (i *Interpolator) Line(l requirement.Line) (string, error) {
	dep, ok := l.(requirement.VcsDependency)
	if !ok {
		return l.String(), nil
	}
	ui, err := i.Userinfo(dep)
	if err != nil {
		return "", err
	}
	if ui == nil {
		return dep.String(), nil
	}
	return dep.Render(ui.String()), nil
}

// Lines interpolates every declaration, skipping blanks and file references.
func (i *Interpolator) Lines(decls []requirement.Line) ([]string, error) {
	out := make([]string, 0, len(decls))
	for _, d := range decls {
		switch d.(type) {
		case requirement.Blank, requirement.FileReference:
			continue
		}
		s, err := i.Line(d)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
