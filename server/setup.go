package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coding-snail/file-server/dbsync"
	"github.com/coding-snail/file-server/filestore"
	"github.com/coding-snail/file-server/internal/config"
)

// Components holds the initialized server components.
type Components struct {
	MasterPool  *pgxpool.Pool
	BackupPool  *pgxpool.Pool
	SyncService *dbsync.SyncService
	FileStore   *filestore.Store
	JWTAuth     *dbsync.JWTAuth // nil when auth is disabled
	Handler     http.Handler
	Logger      *slog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
}

// Setup initializes pools, services and the HTTP handler from configuration.
// This is the shared logic used by both main() and tests.
func Setup(cfg *config.Config, logger *slog.Logger) (*Components, error) {
	ctx, cancel := context.WithCancel(context.Background())

	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	masterPool, err := newPool(ctx, cfg.Databases.Master)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("connect master database: %w", err)
	}
	backupPool, err := newPool(ctx, cfg.Databases.Backup)
	if err != nil {
		masterPool.Close()
		cancel()
		return nil, fmt.Errorf("connect backup database: %w", err)
	}

	tableRules := make(map[string]dbsync.TableRule, len(cfg.Tables))
	for table, rule := range cfg.Tables {
		tableRules[table] = dbsync.TableRule{
			PrimaryKey: rule.PrimaryKey,
			TimeColumn: rule.TimeColumn,
		}
	}

	syncService, err := dbsync.NewSyncService(masterPool, backupPool, &dbsync.ServiceConfig{
		AppName:    "file-server",
		Schema:     cfg.Sync.Schema,
		WindowDays: cfg.Sync.WindowDays,
		TableRules: tableRules,
	}, logger)
	if err != nil {
		backupPool.Close()
		masterPool.Close()
		cancel()
		return nil, err
	}

	fileStore, err := filestore.NewStore(cfg.Files.UploadDir, logger)
	if err != nil {
		backupPool.Close()
		masterPool.Close()
		cancel()
		return nil, err
	}

	syncHandlers := dbsync.NewHTTPSyncHandlers(syncService, logger)
	fileHandlers := filestore.NewHTTPFileHandlers(fileStore, logger)

	var jwtAuth *dbsync.JWTAuth
	withAuth := func(h http.Handler) http.Handler { return h }
	if cfg.Auth.JWTSecret != "" {
		jwtAuth = dbsync.NewJWTAuth(cfg.Auth.JWTSecret)
		withAuth = jwtAuth.Middleware
	} else {
		logger.Warn("JWT secret not configured, sync endpoints are unauthenticated")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", HandleHealth)
	mux.Handle("GET /compare", withAuth(http.HandlerFunc(syncHandlers.HandleCompare)))
	mux.Handle("GET /migrate", withAuth(http.HandlerFunc(syncHandlers.HandleMigrate)))
	mux.HandleFunc("POST /files/upload", fileHandlers.HandleUpload)
	mux.HandleFunc("GET /files/download", fileHandlers.HandleDownload)

	return &Components{
		MasterPool:  masterPool,
		BackupPool:  backupPool,
		SyncService: syncService,
		FileStore:   fileStore,
		JWTAuth:     jwtAuth,
		Handler:     mux,
		Logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

func newPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// Close shuts down the server components and cleans up resources.
func (c *Components) Close() {
	if c.BackupPool != nil {
		c.BackupPool.Close()
	}
	if c.MasterPool != nil {
		c.MasterPool.Close()
	}
	if c.cancel != nil {
		c.cancel()
	}
}

// HandleHealth provides a simple health check endpoint.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "healthy", "service": "file-server"}`))
}

// TestServer represents a running test server instance.
type TestServer struct {
	*Components
	HTTPServer *httptest.Server
}

// NewTestServer creates a test server instance using the shared setup.
func NewTestServer(cfg *config.Config, logger *slog.Logger) (*TestServer, error) {
	components, err := Setup(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &TestServer{
		Components: components,
		HTTPServer: httptest.NewServer(components.Handler),
	}, nil
}

// Close shuts down the test server and cleans up resources.
func (ts *TestServer) Close() {
	if ts.HTTPServer != nil {
		ts.HTTPServer.Close()
	}
	ts.Components.Close()
}

// URL returns the base URL of the test server.
func (ts *TestServer) URL() string {
	return ts.HTTPServer.URL
}
