package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"sort"
	"strings"
	"time"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Client talks to the hosted File Search REST API. Store and document ids
// are bare ids on this side, resource names only exist on the wire.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

var _ Backend = (*Client)(nil)

func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: 60 * time.Second},
	}
}

type wireStore struct {
	Name                 string `json:"name,omitempty"`
	DisplayName          string `json:"displayName,omitempty"`
	CreateTime           string `json:"createTime,omitempty"`
	ActiveDocumentsCount int64  `json:"activeDocumentsCount,omitempty"`
}

type wireDocument struct {
	Name           string         `json:"name,omitempty"`
	DisplayName    string         `json:"displayName,omitempty"`
	CustomMetadata []wireMetadata `json:"customMetadata,omitempty"`
	SizeBytes      int64          `json:"sizeBytes,omitempty"`
	CreateTime     string         `json:"createTime,omitempty"`
}

type wireMetadata struct {
	Key         string `json:"key"`
	StringValue string `json:"stringValue,omitempty"`
}

func (c *Client) CreateStore(ctx context.Context, displayName string) (*Store, error) {
	var out wireStore
	err := c.do(ctx, http.MethodPost, "/v1beta/fileSearchStores", &wireStore{DisplayName: displayName}, &out)
	if err != nil {
		return nil, err
	}

	return storeFromWire(&out), nil
}

func (c *Client) ListStores(ctx context.Context) ([]*Store, error) {
	var out struct {
		FileSearchStores []*wireStore `json:"fileSearchStores"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1beta/fileSearchStores", nil, &out); err != nil {
		return nil, err
	}

	stores := make([]*Store, 0, len(out.FileSearchStores))
	for _, ws := range out.FileSearchStores {
		stores = append(stores, storeFromWire(ws))
	}

	return stores, nil
}

func (c *Client) GetStore(ctx context.Context, id string) (*Store, error) {
	var out wireStore
	if err := c.do(ctx, http.MethodGet, storePath(id), nil, &out); err != nil {
		return nil, err
	}

	return storeFromWire(&out), nil
}

func (c *Client) DeleteStore(ctx context.Context, id string, force bool) error {
	path := storePath(id)
	if force {
		path += "?force=true"
	}

	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) UploadDocument(ctx context.Context, storeID string, content []byte, displayName string, metadata map[string]string) (string, error) {
	meta := wireDocument{
		DisplayName:    displayName,
		CustomMetadata: toWireMetadata(metadata),
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
	metaPart, err := w.CreatePart(metaHeader)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if err := json.NewEncoder(metaPart).Encode(meta); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}

	mediaHeader := textproto.MIMEHeader{}
	mediaHeader.Set("Content-Type", "application/octet-stream")
	mediaPart, err := w.CreatePart(mediaHeader)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if _, err := mediaPart.Write(content); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}

	path := fmt.Sprintf("/upload/v1beta/fileSearchStores/%s/documents?uploadType=multipart", url.PathEscape(storeID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("Content-Type", "multipart/related; boundary="+w.Boundary())

	var out wireDocument
	if err := c.send(req, &out); err != nil {
		return "", err
	}
	if docID(out.Name) == "" {
		return "", fmt.Errorf("%w: upload response missing document name", ErrBackend)
	}

	return docID(out.Name), nil
}

func (c *Client) DeleteDocument(ctx context.Context, storeID, documentID string) error {
	return c.do(ctx, http.MethodDelete, documentPath(storeID, documentID), nil, nil)
}

func (c *Client) GetDocument(ctx context.Context, storeID, documentID string) (*Document, error) {
	var out wireDocument
	if err := c.do(ctx, http.MethodGet, documentPath(storeID, documentID), nil, &out); err != nil {
		return nil, err
	}

	return documentFromWire(storeID, &out), nil
}

func (c *Client) ListDocuments(ctx context.Context, storeID string) ([]*Document, error) {
	var out struct {
		Documents []*wireDocument `json:"documents"`
	}
	path := storePath(storeID) + "/documents"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	docs := make([]*Document, 0, len(out.Documents))
	for _, wd := range out.Documents {
		docs = append(docs, documentFromWire(storeID, wd))
	}

	return docs, nil
}

func (c *Client) Query(ctx context.Context, storeID, query string, topK int, filter map[string]string) (*QueryResult, error) {
	type metadataFilter struct {
		Key         string `json:"key"`
		StringValue string `json:"stringValue"`
	}
	body := struct {
		Query           string           `json:"query"`
		ResultsCount    int              `json:"resultsCount,omitempty"`
		MetadataFilters []metadataFilter `json:"metadataFilters,omitempty"`
	}{Query: query, ResultsCount: topK}
	for _, key := range sortedKeys(filter) {
		body.MetadataFilters = append(body.MetadataFilters, metadataFilter{Key: key, StringValue: filter[key]})
	}

	var out struct {
		RelevantChunks []struct {
			ChunkRelevanceScore float64 `json:"chunkRelevanceScore"`
			Chunk               struct {
				Name string `json:"name"`
				Data struct {
					StringValue string `json:"stringValue"`
				} `json:"data"`
			} `json:"chunk"`
		} `json:"relevantChunks"`
	}
	if err := c.do(ctx, http.MethodPost, storePath(storeID)+":query", body, &out); err != nil {
		return nil, err
	}

	result := &QueryResult{Query: query, Chunks: make([]*Chunk, 0, len(out.RelevantChunks))}
	for _, rc := range out.RelevantChunks {
		result.Chunks = append(result.Chunks, &Chunk{
			DocumentID: docID(rc.Chunk.Name),
			Content:    rc.Chunk.Data.StringValue,
			Score:      rc.ChunkRelevanceScore,
		})
	}

	return result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode request: %v", ErrBackend, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrBackend, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, apiErrMessage(data))
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: status %d: %s", ErrAuth, resp.StatusCode, apiErrMessage(data))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d: %s", ErrBackend, resp.StatusCode, apiErrMessage(data))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%w: decode response: %v", ErrBackend, err)
		}
	}

	return nil
}

func apiErrMessage(data []byte) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}

	msg := strings.TrimSpace(string(data))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

func storePath(id string) string {
	return "/v1beta/fileSearchStores/" + url.PathEscape(id)
}

func documentPath(storeID, documentID string) string {
	return storePath(storeID) + "/documents/" + url.PathEscape(documentID)
}

func storeFromWire(ws *wireStore) *Store {
	return &Store{
		ID:            strings.TrimPrefix(ws.Name, "fileSearchStores/"),
		DisplayName:   ws.DisplayName,
		CreateTime:    ws.CreateTime,
		DocumentCount: ws.ActiveDocumentsCount,
	}
}

func documentFromWire(storeID string, wd *wireDocument) *Document {
	meta := make(map[string]string, len(wd.CustomMetadata))
	for _, m := range wd.CustomMetadata {
		meta[m.Key] = m.StringValue
	}

	return &Document{
		ID:          docID(wd.Name),
		StoreID:     storeID,
		DisplayName: wd.DisplayName,
		Metadata:    meta,
		SizeBytes:   wd.SizeBytes,
		CreateTime:  wd.CreateTime,
	}
}

// docID extracts the document id from a resource name like
// fileSearchStores/{store}/documents/{doc} or a chunk name below it.
func docID(name string) string {
	parts := strings.Split(name, "/")
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] == "documents" {
			return parts[i+1]
		}
	}
	return ""
}

// toWireMetadata converts user metadata to the hosted API shape. The API
// restricts keys to lowercase identifiers of at most 63 characters starting
// with a letter.
func toWireMetadata(metadata map[string]string) []wireMetadata {
	out := make([]wireMetadata, 0, len(metadata))
	for _, key := range sortedKeys(metadata) {
		out = append(out, wireMetadata{Key: sanitizeKey(key), StringValue: metadata[key]})
	}
	return out
}

func sanitizeKey(key string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(key) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	s := b.String()
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		s = "k" + s
	}
	if len(s) > 63 {
		s = s[:63]
	}
	return s
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
