package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/emrgen/filesearch/internal/model"
)

// Local reads files from the local filesystem.
type Local struct {
}

func NewLocal() *Local {
	return &Local{}
}

func (l *Local) Kind() string {
	return model.SourceLocal
}

func (l *Local) Describe(ctx context.Context, ref string) (string, error) {
	if _, err := l.stat(ref); err != nil {
		return "", err
	}

	return filepath.Base(ref), nil
}

func (l *Local) FetchSignal(ctx context.Context, ref string) (string, error) {
	info, err := l.stat(ref)
	if err != nil {
		return "", err
	}

	return localSignal(info), nil
}

func (l *Local) Fetch(ctx context.Context, ref string) (*File, error) {
	info, err := l.stat(ref)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(ref)
	if err != nil {
		return nil, mapFSErr(ref, err)
	}

	return &File{
		Name:     filepath.Base(ref),
		Content:  content,
		Modified: info.ModTime(),
		Signal:   localSignal(info),
	}, nil
}

func (l *Local) stat(ref string) (fs.FileInfo, error) {
	info, err := os.Stat(ref)
	if err != nil {
		return nil, mapFSErr(ref, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrUnavailable, ref)
	}

	return info, nil
}

func localSignal(info fs.FileInfo) string {
	return fmt.Sprintf("%d:%d", info.Size(), info.ModTime().UnixNano())
}

func mapFSErr(ref string, err error) error {
	switch {
	case os.IsNotExist(err):
		return fmt.Errorf("%w: file not found: %s", ErrUnavailable, ref)
	case os.IsPermission(err):
		return fmt.Errorf("%w: permission denied: %s", ErrUnavailable, ref)
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}
