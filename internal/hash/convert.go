// Package hash formats content digests as SRI strings (sha256-<base64>).
package hash

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"
)

// H1ToSRI converts a Go-style h1: digest, as produced by
// golang.org/x/mod/sumdb/dirhash, to SRI format. Both are base64 SHA-256.
func H1ToSRI(h1 string) (string, error) {
	if !strings.HasPrefix(h1, "h1:") {
		return "", fmt.Errorf("invalid h1 hash format: %s", h1)
	}

	b64 := strings.TrimPrefix(h1, "h1:")
	decoded, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", fmt.Errorf("decoding h1 hash: %w", err)
	}

	if len(decoded) != 32 {
		return "", fmt.Errorf("invalid h1 hash length: %d", len(decoded))
	}

	return "sha256-" + b64, nil
}

// Bytes returns the SRI sha256 digest of data.
func Bytes(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256-" + base64.StdEncoding.EncodeToString(sum[:])
}

// File returns the SRI sha256 digest of the file at path.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return "sha256-" + base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

// ParseSRI splits an SRI string into its algorithm and base64-decoded digest.
func ParseSRI(sri string) (algorithm string, hash []byte, err error) {
	parts := strings.SplitN(sri, "-", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("invalid SRI format: %s", sri)
	}

	hash, err = base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", nil, fmt.Errorf("decoding %s digest: %w", parts[0], err)
	}
	return parts[0], hash, nil
}

// ValidateSRI checks if an SRI hash string is a well-formed sha256 digest.
func ValidateSRI(sri string) error {
	algo, hash, err := ParseSRI(sri)
	if err != nil {
		return err
	}

	if algo != "sha256" {
		return fmt.Errorf("unsupported algorithm: %s", algo)
	}
	if len(hash) != 32 {
		return fmt.Errorf("sha256 hash must be 32 bytes, got %d", len(hash))
	}

	return nil
}
