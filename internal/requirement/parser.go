package requirement

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// ParseError reports a malformed requirements line.
type ParseError struct {
	File string
	// Line is 1-based; zero when the text did not come from a file.
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	loc := e.File
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.File, e.Line)
	}
	if loc == "" {
		return fmt.Sprintf("invalid requirement %q: %s", e.Text, e.Reason)
	}
	return fmt.Sprintf("%s: invalid requirement %q: %s", loc, e.Text, e.Reason)
}

const namePattern = `[A-Za-z0-9_][A-Za-z0-9._-]*`

var (
	bareRE   = regexp.MustCompile(`^` + namePattern + `$`)
	pinnedRE = regexp.MustCompile(`^(` + namePattern + `)\s*(===|==|!=|~=|>=|<=|>|<)\s*([^\s;,]+(?:\s*,\s*(?:===|==|!=|~=|>=|<=|>|<)\s*[^\s;,]+)*)$`)
	credRE   = regexp.MustCompile(`^(\$\{([A-Za-z_][A-Za-z0-9_]*)\})(?::(\$\{([A-Za-z_][A-Za-z0-9_]*)\}))?$`)
)

var vcsKinds = map[string]bool{"git": true, "hg": true, "svn": true, "bzr": true}

// ParseFile reads and parses every line of the file at path. The returned
// slice has one element per physical line, so index i is line i+1.
func ParseFile(path string) ([]Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening requirements: %w", err)
	}
	defer f.Close()

	return Parse(f, path)
}

// maxLineSize bounds a single requirements line.
const maxLineSize = 1 << 20

// Parse parses requirements text read from r. name is used in errors.
func Parse(r io.Reader, name string) ([]Line, error) {
	var lines []Line
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	n := 0
	for scanner.Scan() {
		n++
		l, err := ParseLine(scanner.Text())
		if err != nil {
			if pe, ok := err.(*ParseError); ok {
				pe.File = name
				pe.Line = n
			}
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, &ParseError{File: name, Line: n + 1, Reason: fmt.Sprintf("line longer than %d bytes", maxLineSize)}
		}
		return nil, fmt.Errorf("scanning %s: %w", name, err)
	}
	return lines, nil
}

// ParseLine parses a single requirements line.
func ParseLine(raw string) (Line, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Blank{}, nil
	}
	if strings.HasPrefix(s, "#") {
		return Blank{Comment: s}, nil
	}
	s = stripInlineComment(s)
	s = unquote(s)
	if s == "" {
		return nil, &ParseError{Text: raw, Reason: "empty quoted requirement"}
	}

	if strings.HasPrefix(s, "-") {
		return parseOption(raw, s)
	}

	if i := strings.IndexByte(s, ';'); i >= 0 {
		return nil, &ParseError{Text: raw, Reason: fmt.Sprintf("environment marker %q is not supported", strings.TrimSpace(s[i+1:]))}
	}

	if at := strings.Index(s, "@"); at >= 0 {
		return parseVcs(raw, s, at)
	}

	if m := pinnedRE.FindStringSubmatch(s); m != nil {
		return PinnedPackage{Name: m[1], Op: m[2], Version: strings.TrimSpace(m[3])}, nil
	}
	if bareRE.MatchString(s) {
		return BarePackage{Name: s}, nil
	}
	return nil, &ParseError{Text: raw, Reason: "unparseable package name"}
}

func stripInlineComment(s string) string {
	for i := 1; i < len(s); i++ {
		if s[i] == '#' && (s[i-1] == ' ' || s[i-1] == '\t') {
			return strings.TrimSpace(s[:i])
		}
	}
	return s
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

func parseOption(raw, s string) (Line, error) {
	var rest string
	switch {
	case s == "-r" || s == "--requirement" || s == "--requirement=":
		return nil, &ParseError{Text: raw, Reason: "missing path after " + strings.TrimSuffix(s, "=")}
	case strings.HasPrefix(s, "--requirement="):
		rest = strings.TrimPrefix(s, "--requirement=")
	case hasFlag(s, "--requirement"):
		rest = s[len("--requirement"):]
	case hasFlag(s, "-r"):
		rest = s[len("-r"):]
	default:
		return nil, &ParseError{Text: raw, Reason: "unsupported option"}
	}

	path := unquote(strings.TrimSpace(rest))
	if path == "" {
		return nil, &ParseError{Text: raw, Reason: "missing path after -r"}
	}
	return FileReference{Path: path}, nil
}

// hasFlag reports whether s is flag followed by whitespace.
func hasFlag(s, flag string) bool {
	return len(s) > len(flag) && strings.HasPrefix(s, flag) && (s[len(flag)] == ' ' || s[len(flag)] == '\t')
}

func parseVcs(raw, s string, at int) (Line, error) {
	name := strings.TrimSpace(s[:at])
	if !bareRE.MatchString(name) {
		return nil, &ParseError{Text: raw, Reason: "unparseable package name"}
	}
	url := strings.TrimSpace(s[at+1:])

	plus := strings.Index(url, "+")
	sep := strings.Index(url, "://")
	if plus < 0 || sep < 0 || plus > sep {
		return nil, &ParseError{Text: raw, Reason: "direct reference must be a vcs+scheme:// URL"}
	}
	dep := VcsDependency{
		Name:   name,
		VCS:    url[:plus],
		Scheme: url[plus+1 : sep],
	}
	if !vcsKinds[dep.VCS] {
		return nil, &ParseError{Text: raw, Reason: fmt.Sprintf("unsupported version control system %q", dep.VCS)}
	}
	if dep.Scheme == "" {
		return nil, &ParseError{Text: raw, Reason: "missing URL scheme"}
	}

	rest := url[sep+len("://"):]
	rest, dep.Fragment, _ = strings.Cut(rest, "#")

	authority, path, found := strings.Cut(rest, "/")
	if !found || path == "" {
		return nil, &ParseError{Text: raw, Reason: "missing repository path"}
	}

	if i := strings.LastIndex(authority, "@"); i >= 0 {
		userinfo := authority[:i]
		authority = authority[i+1:]
		cred, user, err := parseUserinfo(userinfo)
		if err != nil {
			return nil, &ParseError{Text: maskUserinfo(raw, userinfo), Reason: err.Error()}
		}
		dep.Credential = cred
		dep.User = user
	}
	if authority == "" {
		return nil, &ParseError{Text: raw, Reason: "missing host"}
	}
	dep.Host = authority

	if i := strings.LastIndex(path, "@"); i >= 0 {
		dep.Ref = path[i+1:]
		path = path[:i]
		if dep.Ref == "" {
			return nil, &ParseError{Text: raw, Reason: "empty ref after @"}
		}
	}
	if path == "" {
		return nil, &ParseError{Text: raw, Reason: "missing repository path"}
	}
	dep.Path = path

	return dep, nil
}

// parseUserinfo accepts ${TOKEN}, ${USER}:${PASS} or a literal user without
// a password.
func parseUserinfo(userinfo string) (Credential, string, error) {
	if m := credRE.FindStringSubmatch(userinfo); m != nil {
		if m[3] == "" {
			return Credential{Raw: userinfo, Token: m[2]}, "", nil
		}
		return Credential{Raw: userinfo, User: m[2], Password: m[4]}, "", nil
	}
	if strings.Contains(userinfo, "$") {
		return Credential{}, "", fmt.Errorf("malformed credential placeholder")
	}
	if strings.Contains(userinfo, ":") {
		return Credential{}, "", fmt.Errorf("literal credentials are not allowed, use ${VAR} placeholders")
	}
	if userinfo == "" {
		return Credential{}, "", fmt.Errorf("empty userinfo before @")
	}
	return Credential{}, userinfo, nil
}

// maskUserinfo hides a literal password so it never ends up in an error message.
func maskUserinfo(raw, userinfo string) string {
	user, _, found := strings.Cut(userinfo, ":")
	if !found || strings.Contains(userinfo, "${") {
		return raw
	}
	return strings.Replace(raw, userinfo, user+":***", 1)
}
