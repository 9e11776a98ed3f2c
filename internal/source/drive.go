package source

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/emrgen/filesearch/internal/gdrive"
	"github.com/emrgen/filesearch/internal/model"
)

// Drive reads files from Google Drive through a read only OAuth credential.
// The API client is built lazily so that a console without Drive credentials
// still starts, drive syncs then fail with the auth error.
type Drive struct {
	cfg gdrive.Config

	mu     sync.Mutex
	client *gdrive.Client
}

func NewDrive(cfg gdrive.Config) *Drive {
	return &Drive{cfg: cfg}
}

func (d *Drive) Kind() string {
	return model.SourceDrive
}

func (d *Drive) Describe(ctx context.Context, ref string) (string, error) {
	client, err := d.service(ctx)
	if err != nil {
		return "", err
	}

	meta, err := client.FileMetadata(ctx, ref)
	if err != nil {
		return "", mapDriveErr(err)
	}

	return meta.Name, nil
}

func (d *Drive) FetchSignal(ctx context.Context, ref string) (string, error) {
	client, err := d.service(ctx)
	if err != nil {
		return "", err
	}

	meta, err := client.FileMetadata(ctx, ref)
	if err != nil {
		return "", mapDriveErr(err)
	}

	return meta.ModifiedTime, nil
}

func (d *Drive) Fetch(ctx context.Context, ref string) (*File, error) {
	client, err := d.service(ctx)
	if err != nil {
		return nil, err
	}

	meta, err := client.FileMetadata(ctx, ref)
	if err != nil {
		return nil, mapDriveErr(err)
	}

	content, err := client.Download(ctx, ref)
	if err != nil {
		return nil, mapDriveErr(err)
	}

	modified, _ := time.Parse(time.RFC3339, meta.ModifiedTime)

	return &File{
		Name:     meta.Name,
		Content:  content,
		Modified: modified,
		Signal:   meta.ModifiedTime,
	}, nil
}

func (d *Drive) service(ctx context.Context) (*gdrive.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.client != nil {
		return d.client, nil
	}

	client, err := gdrive.NewClient(ctx, d.cfg)
	if err != nil {
		return nil, mapDriveErr(err)
	}

	d.client = client
	return client, nil
}

func mapDriveErr(err error) error {
	switch {
	case errors.Is(err, gdrive.ErrAuthRequired):
		return fmt.Errorf("%w: %v", ErrAuthRequired, err)
	case errors.Is(err, gdrive.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}
