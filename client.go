// Package filesearch is the Go client for the file search console REST API.
package filesearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	v1 "github.com/emrgen/filesearch/apis/v1"
)

// DefaultBaseURL matches the server's default listen address.
const DefaultBaseURL = "http://localhost:8000"

// APIError is a non-2xx console response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("filesearch: %s (status %d)", e.Message, e.StatusCode)
}

// AuditQuery filters audit listings. Zero fields match everything.
type AuditQuery struct {
	Action       string
	ResourceType string
	ResourceID   string
	Limit        int
}

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a console client. An empty baseURL targets a local
// server.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
}

func (c *Client) CreateLink(ctx context.Context, req *v1.CreateLinkRequest) (*v1.Link, error) {
	var link v1.Link
	if err := c.do(ctx, http.MethodPost, "/v1/links", nil, req, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

func (c *Client) ListLinks(ctx context.Context, projectID string) ([]*v1.Link, error) {
	query := url.Values{}
	if projectID != "" {
		query.Set("project_id", projectID)
	}

	var list v1.LinkList
	if err := c.do(ctx, http.MethodGet, "/v1/links", query, nil, &list); err != nil {
		return nil, err
	}
	return list.Links, nil
}

func (c *Client) GetLink(ctx context.Context, id string) (*v1.Link, error) {
	var link v1.Link
	if err := c.do(ctx, http.MethodGet, "/v1/links/"+url.PathEscape(id), nil, nil, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

func (c *Client) DeleteLink(ctx context.Context, id string, deleteFromStore bool) error {
	query := url.Values{}
	if deleteFromStore {
		query.Set("delete_from_store", "true")
	}
	return c.do(ctx, http.MethodDelete, "/v1/links/"+url.PathEscape(id), query, nil, nil)
}

func (c *Client) SyncLink(ctx context.Context, id string, force bool) (*v1.Link, error) {
	query := url.Values{}
	if force {
		query.Set("force", "true")
	}

	var link v1.Link
	if err := c.do(ctx, http.MethodPost, "/v1/links/"+url.PathEscape(id)+"/sync", query, nil, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// ReplaceFile uploads content as the link's new document version.
func (c *Client) ReplaceFile(ctx context.Context, id, filename string, content []byte) (*v1.Link, error) {
	var link v1.Link
	if err := c.upload(ctx, "/v1/links/"+url.PathEscape(id)+"/replace", filename, content, nil, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

func (c *Client) LinkHistory(ctx context.Context, id string) (*v1.History, error) {
	var history v1.History
	if err := c.do(ctx, http.MethodGet, "/v1/links/"+url.PathEscape(id)+"/history", nil, nil, &history); err != nil {
		return nil, err
	}
	return &history, nil
}

func (c *Client) CreateStore(ctx context.Context, displayName string) (*v1.Store, error) {
	var store v1.Store
	req := v1.CreateStoreRequest{DisplayName: displayName}
	if err := c.do(ctx, http.MethodPost, "/v1/stores", nil, req, &store); err != nil {
		return nil, err
	}
	return &store, nil
}

func (c *Client) ListStores(ctx context.Context) ([]*v1.Store, error) {
	var list v1.StoreList
	if err := c.do(ctx, http.MethodGet, "/v1/stores", nil, nil, &list); err != nil {
		return nil, err
	}
	return list.Stores, nil
}

func (c *Client) GetStore(ctx context.Context, id string) (*v1.Store, error) {
	var store v1.Store
	if err := c.do(ctx, http.MethodGet, "/v1/stores/"+url.PathEscape(id), nil, nil, &store); err != nil {
		return nil, err
	}
	return &store, nil
}

func (c *Client) DeleteStore(ctx context.Context, id string, force bool) error {
	query := url.Values{}
	if force {
		query.Set("force", "true")
	}
	return c.do(ctx, http.MethodDelete, "/v1/stores/"+url.PathEscape(id), query, nil, nil)
}

func (c *Client) UploadDocument(ctx context.Context, storeID, displayName string, content []byte, metadata map[string]string) (*v1.Document, error) {
	fields := map[string]string{}
	if displayName != "" {
		fields["display_name"] = displayName
	}
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return nil, err
		}
		fields["metadata"] = string(raw)
	}

	var doc v1.Document
	path := "/v1/stores/" + url.PathEscape(storeID) + "/documents"
	if err := c.upload(ctx, path, displayName, content, fields, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) ListDocuments(ctx context.Context, storeID string) ([]*v1.Document, error) {
	var list v1.DocumentList
	path := "/v1/stores/" + url.PathEscape(storeID) + "/documents"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &list); err != nil {
		return nil, err
	}
	return list.Documents, nil
}

func (c *Client) GetDocument(ctx context.Context, storeID, documentID string) (*v1.Document, error) {
	var doc v1.Document
	path := "/v1/stores/" + url.PathEscape(storeID) + "/documents/" + url.PathEscape(documentID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) DeleteDocument(ctx context.Context, storeID, documentID string) error {
	path := "/v1/stores/" + url.PathEscape(storeID) + "/documents/" + url.PathEscape(documentID)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) Query(ctx context.Context, storeID string, req *v1.QueryRequest) (*v1.QueryResult, error) {
	var result v1.QueryResult
	path := "/v1/stores/" + url.PathEscape(storeID) + "/query"
	if err := c.do(ctx, http.MethodPost, path, nil, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) CreateBackup(ctx context.Context) (*v1.BackupInfo, error) {
	var info v1.BackupInfo
	if err := c.do(ctx, http.MethodPost, "/v1/backups", nil, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) ListBackups(ctx context.Context) ([]*v1.BackupInfo, error) {
	var list v1.BackupList
	if err := c.do(ctx, http.MethodGet, "/v1/backups", nil, nil, &list); err != nil {
		return nil, err
	}
	return list.Backups, nil
}

func (c *Client) ListAudit(ctx context.Context, filter AuditQuery) ([]*v1.AuditRecord, error) {
	query := url.Values{}
	if filter.Action != "" {
		query.Set("action", filter.Action)
	}
	if filter.ResourceType != "" {
		query.Set("resource_type", filter.ResourceType)
	}
	if filter.ResourceID != "" {
		query.Set("resource_id", filter.ResourceID)
	}
	if filter.Limit != 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}

	var list v1.AuditList
	if err := c.do(ctx, http.MethodGet, "/v1/audit", query, nil, &list); err != nil {
		return nil, err
	}
	return list.Records, nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/v1/healthz", nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

func (c *Client) upload(ctx context.Context, path, filename string, content []byte, fields map[string]string, out any) error {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := part.Write(content); err != nil {
		return err
	}
	for key, value := range fields {
		if err := form.WriteField(key, value); err != nil {
			return err
		}
	}
	if err := form.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := &APIError{StatusCode: res.StatusCode, Message: res.Status}
		var body v1.ErrorResponse
		if err := json.NewDecoder(res.Body).Decode(&body); err == nil && body.Error != "" {
			apiErr.Message = body.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
