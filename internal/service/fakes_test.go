package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/emrgen/filesearch/internal/cache"
	"github.com/emrgen/filesearch/internal/model"
	"github.com/emrgen/filesearch/internal/queue"
	"github.com/emrgen/filesearch/internal/rag"
	"github.com/emrgen/filesearch/internal/source"
	"github.com/emrgen/filesearch/internal/store"
	"github.com/emrgen/filesearch/internal/tester"
	"github.com/google/uuid"
)

func mustParse(t *testing.T, id string) uuid.UUID {
	t.Helper()

	linkID, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("parse link id %s: %v", id, err)
	}
	return linkID
}

// fakeBackend keeps stores and documents in memory and counts calls.
type fakeBackend struct {
	mu     sync.Mutex
	stores map[string]*rag.Store
	docs   map[string]*rag.Document

	nextDoc int
	uploads int
	deletes int
	fetches int

	uploadErr error
	deleteErr error

	lastUploadName    string
	lastUploadContent []byte
	lastUploadMeta    map[string]string
	lastQueryTopK     int
}

func newFakeBackend(storeIDs ...string) *fakeBackend {
	b := &fakeBackend{
		stores: map[string]*rag.Store{},
		docs:   map[string]*rag.Document{},
	}
	for _, id := range storeIDs {
		b.stores[id] = &rag.Store{ID: id, DisplayName: id}
	}

	return b
}

func docKey(storeID, documentID string) string {
	return storeID + "/" + documentID
}

func (b *fakeBackend) CreateStore(ctx context.Context, displayName string) (*rag.Store, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := &rag.Store{ID: fmt.Sprintf("store-%d", len(b.stores)+1), DisplayName: displayName}
	b.stores[s.ID] = s
	return s, nil
}

func (b *fakeBackend) ListStores(ctx context.Context) ([]*rag.Store, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]*rag.Store, 0, len(b.stores))
	for _, s := range b.stores {
		out = append(out, s)
	}
	return out, nil
}

func (b *fakeBackend) GetStore(ctx context.Context, id string) (*rag.Store, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.stores[id]
	if !ok {
		return nil, rag.ErrNotFound
	}
	return s, nil
}

func (b *fakeBackend) DeleteStore(ctx context.Context, id string, force bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.stores[id]; !ok {
		return rag.ErrNotFound
	}
	delete(b.stores, id)
	return nil
}

func (b *fakeBackend) UploadDocument(ctx context.Context, storeID string, content []byte, displayName string, metadata map[string]string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.uploadErr != nil {
		return "", b.uploadErr
	}

	b.uploads++
	b.nextDoc++
	id := fmt.Sprintf("doc-%d", b.nextDoc)
	b.docs[docKey(storeID, id)] = &rag.Document{
		ID:          id,
		StoreID:     storeID,
		DisplayName: displayName,
		Metadata:    metadata,
		SizeBytes:   int64(len(content)),
	}

	b.lastUploadName = displayName
	b.lastUploadContent = content
	b.lastUploadMeta = metadata

	return id, nil
}

func (b *fakeBackend) DeleteDocument(ctx context.Context, storeID, documentID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.deleteErr != nil {
		return b.deleteErr
	}

	key := docKey(storeID, documentID)
	if _, ok := b.docs[key]; !ok {
		return rag.ErrNotFound
	}
	delete(b.docs, key)
	b.deletes++
	return nil
}

func (b *fakeBackend) GetDocument(ctx context.Context, storeID, documentID string) (*rag.Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, ok := b.docs[docKey(storeID, documentID)]
	if !ok {
		return nil, rag.ErrNotFound
	}
	return doc, nil
}

func (b *fakeBackend) ListDocuments(ctx context.Context, storeID string) ([]*rag.Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []*rag.Document
	for _, doc := range b.docs {
		if doc.StoreID == storeID {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (b *fakeBackend) Query(ctx context.Context, storeID, query string, topK int, filter map[string]string) (*rag.QueryResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.fetches++
	b.lastQueryTopK = topK
	return &rag.QueryResult{
		Query:  query,
		Chunks: []*rag.Chunk{{DocumentID: "doc-1", Content: "chunk", Score: 0.9}},
	}, nil
}

// fakeSource serves one file's content and change signal from memory.
type fakeSource struct {
	mu       sync.Mutex
	kind     string
	name     string
	content  []byte
	modified time.Time
	signal   string

	fetchCalls  int
	signalCalls int

	describeErr error
	fetchErr    error
	signalErr   error

	// fetchGate, when set before use, holds every Fetch until it is closed.
	fetchGate chan struct{}
}

func newFakeSource(content, signal string) *fakeSource {
	return &fakeSource{
		kind:     model.SourceLocal,
		name:     "notes.md",
		content:  []byte(content),
		modified: time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC),
		signal:   signal,
	}
}

func (f *fakeSource) set(content, signal string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.content = []byte(content)
	f.signal = signal
}

func (f *fakeSource) Kind() string {
	return f.kind
}

func (f *fakeSource) Describe(ctx context.Context, ref string) (string, error) {
	if f.describeErr != nil {
		return "", f.describeErr
	}
	return f.name, nil
}

func (f *fakeSource) FetchSignal(ctx context.Context, ref string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.signalCalls++
	if f.signalErr != nil {
		return "", f.signalErr
	}
	return f.signal, nil
}

func (f *fakeSource) Fetch(ctx context.Context, ref string) (*source.File, error) {
	if f.fetchGate != nil {
		<-f.fetchGate
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return &source.File{
		Name:     f.name,
		Content:  append([]byte(nil), f.content...),
		Modified: f.modified,
		Signal:   f.signal,
	}, nil
}

// env wires the services over a fresh sqlite db, the fake backend and the
// fake source.
type env struct {
	store   store.Store
	backend *fakeBackend
	source  *fakeSource
	audit   *AuditService
	links   *LinkService
	syncer  *SyncService
}

func newEnv(storeIDs ...string) *env {
	tester.RemoveDBFile()
	tester.Setup()

	gs := store.NewGormStore(tester.TestDB())
	backend := newFakeBackend(storeIDs...)
	src := newFakeSource("v1 content", "sig-1")
	sources := source.NewRegistry(src)
	audit := NewAuditService(gs)

	return &env{
		store:   gs,
		backend: backend,
		source:  src,
		audit:   audit,
		links:   NewLinkService(gs, sources, backend, cache.NewNoop(), audit),
		syncer:  NewSyncService(gs, sources, backend, queue.NewNoop(), cache.NewNoop(), audit, 0),
	}
}

func (e *env) createLink(req *CreateLinkRequest) (*model.SyncLink, error) {
	if req.SourceKind == "" {
		req.SourceKind = model.SourceLocal
	}
	if req.SourceReference == "" {
		req.SourceReference = "/data/notes.md"
	}
	if req.DestinationStore == "" {
		req.DestinationStore = "store-1"
	}
	return e.links.CreateLink(context.TODO(), req)
}
