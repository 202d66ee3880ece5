package graph

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/mod/sumdb/dirhash"

	"github.com/anthr76/venvlock/internal/hash"
)

// Digest returns an SRI digest over the contents of every file in the graph.
// Files are named relative to the root's directory, so moving the whole tree
// does not change the digest.
func (g *Graph) Digest() (string, error) {
	base := filepath.Dir(g.Root)
	names := make([]string, 0, len(g.Files))
	paths := make(map[string]string, len(g.Files))
	for _, f := range g.Files {
		rel, err := filepath.Rel(base, f)
		if err != nil {
			rel = f
		}
		rel = filepath.ToSlash(rel)
		names = append(names, rel)
		paths[rel] = f
	}

	h1, err := dirhash.Hash1(names, func(name string) (io.ReadCloser, error) {
		return os.Open(paths[name])
	})
	if err != nil {
		return "", fmt.Errorf("hashing requirements: %w", err)
	}

	return hash.H1ToSRI(h1)
}
