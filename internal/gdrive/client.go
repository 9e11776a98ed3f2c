package gdrive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

var (
	// ErrAuthRequired marks a missing or expired OAuth credential. The file
	// itself may be fine, the operator has to re-authenticate.
	ErrAuthRequired = errors.New("drive authentication required")
	// ErrNotFound marks a file id the credential cannot see.
	ErrNotFound = errors.New("drive file not found")
)

// Config locates the OAuth client secret and the cached token on disk.
type Config struct {
	CredentialsFile string
	TokenFile       string
}

// Client wraps the Drive v3 API with the read only scope.
type Client struct {
	svc *drive.Service
}

// NewClient builds a Drive client from the cached token. It fails with
// ErrAuthRequired when the credentials or the token cannot be loaded.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	oauthCfg, err := oauthConfig(cfg)
	if err != nil {
		return nil, err
	}

	tok, err := tokenFromFile(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("%w: no cached token (%v), run the drive auth flow", ErrAuthRequired, err)
	}

	svc, err := drive.NewService(ctx, option.WithTokenSource(oauthCfg.TokenSource(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	return &Client{svc: svc}, nil
}

// FileMetadata fetches name, modification time and size for a file id.
func (c *Client) FileMetadata(ctx context.Context, fileID string) (*drive.File, error) {
	f, err := c.svc.Files.Get(fileID).
		Fields("id, name, mimeType, modifiedTime, size").
		Context(ctx).Do()
	if err != nil {
		return nil, mapErr(err)
	}

	return f, nil
}

// Download reads the raw file content.
func (c *Client) Download(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := c.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, mapErr(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read drive download: %w", err)
	}

	return data, nil
}

// AuthURL returns the consent URL for the installed app flow.
func AuthURL(cfg Config) (string, error) {
	oauthCfg, err := oauthConfig(cfg)
	if err != nil {
		return "", err
	}

	return oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline), nil
}

// Exchange trades an auth code for a token and caches it at the token file.
func Exchange(ctx context.Context, cfg Config, code string) error {
	oauthCfg, err := oauthConfig(cfg)
	if err != nil {
		return err
	}

	tok, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange auth code: %w", err)
	}

	return saveToken(cfg.TokenFile, tok)
}

func oauthConfig(cfg Config) (*oauth2.Config, error) {
	if cfg.CredentialsFile == "" {
		return nil, fmt.Errorf("%w: no credentials file configured", ErrAuthRequired)
	}

	data, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("%w: read credentials: %v", ErrAuthRequired, err)
	}

	oauthCfg, err := google.ConfigFromJSON(data, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("%w: parse credentials: %v", ErrAuthRequired, err)
	}

	return oauthCfg, nil
}

func mapErr(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 401, 403:
			return fmt.Errorf("%w: %v", ErrAuthRequired, err)
		case 404:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return err
	}

	// token refresh failures surface from the oauth2 transport, not as API
	// errors
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: %v", ErrAuthRequired, err)
	}

	return err
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}

	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(tok)
}
