package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"

	"github.com/emrgen/filesearch/internal/cache"
	"github.com/emrgen/filesearch/internal/compress"
	"github.com/emrgen/filesearch/internal/config"
	"github.com/emrgen/filesearch/internal/gdrive"
	"github.com/emrgen/filesearch/internal/job"
	"github.com/emrgen/filesearch/internal/jobs"
	"github.com/emrgen/filesearch/internal/model"
	"github.com/emrgen/filesearch/internal/queue"
	"github.com/emrgen/filesearch/internal/rag"
	"github.com/emrgen/filesearch/internal/service"
	"github.com/emrgen/filesearch/internal/source"
	"github.com/emrgen/filesearch/internal/store"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Server represents the console server
type Server struct {
	cfg *config.Config
}

// NewServer creates a new server
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

// Start starts the server
func (s *Server) Start() {
	if err := Start(s.cfg); err != nil {
		logrus.Fatalf("error starting server: %v", err)
	}
}

// Start wires the services, starts the background workers and serves the
// REST console until a shutdown signal arrives.
func Start(cfg *config.Config) error {
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}

	registry := store.NewGormStore(db)
	if err := registry.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	var linkCache cache.LinkCache
	var queryCache cache.QueryCache
	if cfg.RedisAddr != "" {
		redis := cache.NewRedis(cfg.RedisAddr, cfg.CacheTTL)
		linkCache, queryCache = redis, redis
		logrus.Infof("caching on redis at %s", cfg.RedisAddr)
	} else {
		noop := cache.NewNoop()
		linkCache, queryCache = noop, noop
	}

	var events queue.SyncEventQueue
	if cfg.KafkaBrokers != "" {
		kafka, err := queue.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		events = kafka
		logrus.Infof("publishing sync events to kafka topic %s", cfg.KafkaTopic)
	} else {
		events = queue.NewNoop()
	}
	defer events.Close()

	if cfg.APIKey == "" {
		logrus.Warn("FILESEARCH_API_KEY is not set, backend calls will fail")
	}
	backend := rag.NewClient(cfg.BaseURL, cfg.APIKey)

	sources := source.NewRegistry(
		source.NewLocal(),
		source.NewDrive(gdrive.Config{
			CredentialsFile: cfg.DriveCredentialsFile,
			TokenFile:       cfg.DriveTokenFile,
		}),
	)

	audit := service.NewAuditService(registry)
	links := service.NewLinkService(registry, sources, backend, linkCache, audit)
	syncer := service.NewSyncService(registry, sources, backend, events, linkCache, audit, cfg.SyncTimeout)
	stores := service.NewStoreService(backend, registry, audit)
	documents := service.NewDocumentService(backend, audit)
	queries := service.NewQueryService(backend, queryCache, audit)
	backups := service.NewBackupService(registry, compress.ByName(cfg.BackupCompression),
		cfg.BackupDir, store.SQLitePath(cfg.DatabaseURL), audit)

	executor := jobs.NewTaskExecutor(
		[]jobs.CronTask{
			jobs.NewAutoSyncTask(model.SourceLocal, cfg.LocalSweep, syncer),
			jobs.NewAutoSyncTask(model.SourceDrive, cfg.DriveSweep, syncer),
			jobs.NewStatusTask(registry),
		},
		[]jobs.DaemonTask{
			job.NewRetentionCleaner(cfg.BackupDir, cfg.BackupRetentionDays),
		},
	)
	if err := executor.Run(); err != nil {
		return err
	}

	rest := &restServer{
		links:     links,
		syncer:    syncer,
		stores:    stores,
		documents: documents,
		queries:   queries,
		backups:   backups,
		audit:     audit,
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "PUT"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	listener, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    cfg.Addr(),
		Handler: c.Handler(rest.routes()),
	}

	// make sure to wait for the server to stop before exiting
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		logrus.Info("starting file search console on: ", cfg.Addr())
		logrus.Info("click on the following link to view the API documentation: http://localhost:", cfg.Port, "/docs/")
		if err := httpServer.Serve(listener); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logrus.Errorf("error starting server: %v", err)
			}
		}
		logrus.Infof("server stopped")
	}()

	logrus.Infof("Press Ctrl+C to stop the server")

	// listen for interrupt signal to gracefully shut down the server
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, unix.SIGTERM, unix.SIGINT, unix.SIGTSTP)
	<-sigs
	// clean Ctrl+C output
	fmt.Println()

	executor.Stop()
	if err := httpServer.Shutdown(context.Background()); err != nil {
		logrus.Errorf("error stopping server: %v", err)
	}

	wg.Wait()

	return nil
}
