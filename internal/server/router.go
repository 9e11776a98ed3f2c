package server

import (
	"net"
	"net/http"
	"time"

	"github.com/emrgen/filesearch/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gobuffalo/packr"
	"github.com/sirupsen/logrus"
)

// restServer holds the services behind the REST surface.
type restServer struct {
	links     *service.LinkService
	syncer    *service.SyncService
	stores    *service.StoreService
	documents *service.DocumentService
	queries   *service.QueryService
	backups   *service.BackupService
	audit     *service.AuditService
}

func (s *restServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestTime)
	r.Use(clientIP)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/links", func(r chi.Router) {
			r.Post("/", s.createLink)
			r.Get("/", s.listLinks)
			r.Get("/{linkID}", s.getLink)
			r.Delete("/{linkID}", s.deleteLink)
			r.Post("/{linkID}/sync", s.syncLink)
			r.Post("/{linkID}/replace", s.replaceFile)
			r.Get("/{linkID}/history", s.linkHistory)
		})

		r.Route("/stores", func(r chi.Router) {
			r.Post("/", s.createStore)
			r.Get("/", s.listStores)
			r.Get("/{storeID}", s.getStore)
			r.Delete("/{storeID}", s.deleteStore)
			r.Post("/{storeID}/documents", s.uploadDocument)
			r.Get("/{storeID}/documents", s.listDocuments)
			r.Get("/{storeID}/documents/{documentID}", s.getDocument)
			r.Delete("/{storeID}/documents/{documentID}", s.deleteDocument)
			r.Post("/{storeID}/query", s.queryStore)
		})

		r.Post("/backups", s.createBackup)
		r.Get("/backups", s.listBackups)
		r.Get("/audit", s.listAudit)
		r.Get("/healthz", s.healthz)
	})

	docs := packr.NewBox("../../docs/v1")
	r.Handle("/docs/*", http.StripPrefix("/docs/", http.FileServer(docs)))

	return r
}

// requestTime logs method, path, status and latency of every request.
func requestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logrus.Infof("request time: %s %s: %d: %v", r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

// clientIP tags the request context so audit records carry the caller.
func clientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		next.ServeHTTP(w, r.WithContext(service.WithClientIP(r.Context(), host)))
	})
}
