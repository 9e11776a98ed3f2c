package source

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnavailable marks a source file that cannot be read: missing,
	// unreadable or deleted on the remote side.
	ErrUnavailable = errors.New("source unavailable")
	// ErrAuthRequired marks a missing or expired source credential, distinct
	// from ErrUnavailable so the operator re-authenticates instead of
	// checking the file.
	ErrAuthRequired = errors.New("source authentication required")
)

// File is fetched source content together with the provider reported name.
type File struct {
	Name     string
	Content  []byte
	Modified time.Time
	// Signal is the cheap change signal observed at fetch time, in the same
	// format FetchSignal returns.
	Signal string
}

// Source fetches bytes and cheap change signals for one kind of external
// file. Implementations never touch the link registry or the version ledger.
type Source interface {
	// Kind reports the source kind the adapter serves.
	Kind() string
	// Describe validates ref and returns the provider reported display name
	// without downloading content.
	Describe(ctx context.Context, ref string) (string, error)
	// FetchSignal returns an opaque comparable value that changes whenever
	// the source content may have changed. It must be cheap, no content
	// download.
	FetchSignal(ctx context.Context, ref string) (string, error)
	// Fetch reads the file content and display name.
	Fetch(ctx context.Context, ref string) (*File, error)
}

// Registry resolves a source adapter by kind.
type Registry map[string]Source

func NewRegistry(sources ...Source) Registry {
	r := make(Registry, len(sources))
	for _, s := range sources {
		r[s.Kind()] = s
	}
	return r
}

func (r Registry) For(kind string) (Source, error) {
	s, ok := r[kind]
	if !ok {
		return nil, fmt.Errorf("no source adapter for kind %q", kind)
	}
	return s, nil
}

// Fingerprint returns the hex encoded SHA-256 digest of content. The digest
// is the authoritative change signal, the per adapter signals are only a
// pre-check.
func Fingerprint(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}
