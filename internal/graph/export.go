package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/package-url/packageurl-go"
	"gopkg.in/yaml.v3"

	"github.com/anthr76/venvlock/internal/requirement"
)

// Document is the serialized form of a Graph.
type Document struct {
	Root    string          `json:"root" yaml:"root"`
	Digest  string          `json:"digest,omitempty" yaml:"digest,omitempty"`
	Files   []string        `json:"files" yaml:"files"`
	Entries []DocumentEntry `json:"entries" yaml:"entries"`
}

// DocumentEntry describes one flattened declaration.
type DocumentEntry struct {
	File        string `json:"file" yaml:"file"`
	Line        int    `json:"line" yaml:"line"`
	Kind        string `json:"kind" yaml:"kind"`
	Name        string `json:"name" yaml:"name"`
	Requirement string `json:"requirement" yaml:"requirement"`
	PURL        string `json:"purl,omitempty" yaml:"purl,omitempty"`
}

// Document builds the exportable description of g. digest may be empty.
func (g *Graph) Document(digest string) Document {
	doc := Document{
		Root:    g.Root,
		Digest:  digest,
		Files:   append([]string(nil), g.Files...),
		Entries: make([]DocumentEntry, 0, len(g.Entries)),
	}
	for _, e := range g.Entries {
		doc.Entries = append(doc.Entries, DocumentEntry{
			File:        e.File,
			Line:        e.Line,
			Kind:        kind(e.Requirement),
			Name:        requirement.Name(e.Requirement),
			Requirement: e.Requirement.String(),
			PURL:        PURL(e.Requirement),
		})
	}
	return doc
}

// Write encodes doc to w as "yaml" or "json".
func (doc Document) Write(w io.Writer, format string) error {
	switch format {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding YAML: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unsupported format %q (want yaml or json)", format)
}

func kind(l requirement.Line) string {
	switch l.(type) {
	case requirement.PinnedPackage:
		return "pinned"
	case requirement.BarePackage:
		return "bare"
	case requirement.VcsDependency:
		return "vcs"
	case requirement.FileReference:
		return "reference"
	case requirement.Blank:
		return "blank"
	}
	return "unknown"
}

// PURL returns the package URL of a declaration, or "" when it has none.
// Index packages map to pkg:pypi, GitHub repositories to pkg:github, and any
// other VCS host to pkg:generic with a vcs_url qualifier.
func PURL(l requirement.Line) string {
	switch l := l.(type) {
	case requirement.PinnedPackage:
		version := ""
		if l.Op == "==" || l.Op == "===" {
			version = l.Version
		}
		return packageurl.NewPackageURL("pypi", "", requirement.NormalizeName(l.Name), version, nil, "").ToString()
	case requirement.BarePackage:
		return packageurl.NewPackageURL("pypi", "", requirement.NormalizeName(l.Name), "", nil, "").ToString()
	case requirement.VcsDependency:
		if strings.EqualFold(l.Host, "github.com") {
			owner, repo, ok := strings.Cut(strings.TrimSuffix(l.Path, ".git"), "/")
			if ok && repo != "" && !strings.Contains(repo, "/") {
				return packageurl.NewPackageURL("github", strings.ToLower(owner), strings.ToLower(repo), l.Ref, nil, "").ToString()
			}
		}
		vcsURL := requirement.Redact(l)
		vcsURL.Ref = ""
		qualifiers := packageurl.Qualifiers{{Key: "vcs_url", Value: vcsURL.URL("")}}
		return packageurl.NewPackageURL("generic", "", requirement.NormalizeName(l.Name), l.Ref, qualifiers, "").ToString()
	case requirement.Blank, requirement.FileReference:
		return ""
	}
	return ""
}
