package app

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"time"

	"cadetquiz/internal/app/observability"
	"cadetquiz/internal/db"
	"cadetquiz/internal/exam"
	"cadetquiz/internal/handoff"
	"cadetquiz/internal/report"
	"cadetquiz/internal/testdef"

	"github.com/jmoiron/sqlx"
)

// Services holds the wired application components shared by the router and
// the background sweeper.
type Services struct {
	Exam    *exam.Service
	Results *handoff.Results
	Report  *report.Service
	Catalog *testdef.Catalog
	Metrics *observability.Collector

	// TestFiles serves the site directory's test/ tree; nil when definitions
	// come from TEST_BASE_URL.
	TestFiles fs.FS

	db *sqlx.DB
}

// OpenStore opens the configured result store. The returned DB is nil for the
// memory backend.
func OpenStore(ctx context.Context, cfg Config) (handoff.Store, *sqlx.DB, error) {
	switch cfg.ResultStore {
	case StoreMemory:
		return handoff.NewMemoryStore(), nil, nil
	case StorePostgres:
		conn, err := db.OpenPostgresWithConfig(ctx, cfg.DBDSN, db.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifeMins) * time.Minute,
		})
		if err != nil {
			return nil, nil, err
		}
		return migrate(ctx, conn)
	case StoreSQLite:
		conn, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return migrate(ctx, conn)
	default:
		return nil, nil, fmt.Errorf("%w: unknown result store %q", ErrInvalidConfig, cfg.ResultStore)
	}
}

func migrate(ctx context.Context, conn *sqlx.DB) (handoff.Store, *sqlx.DB, error) {
	s := handoff.NewSQLStore(conn)
	if err := s.Migrate(ctx); err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return s, conn, nil
}

// NewServices wires the domain services around an already opened store.
func NewServices(cfg Config, store handoff.Store, conn *sqlx.DB) (*Services, error) {
	var fetcher testdef.Fetcher
	var files fs.FS
	if cfg.TestBaseURL != "" {
		fetcher = testdef.NewHTTPFetcher(cfg.TestBaseURL, nil)
	} else {
		files = os.DirFS(cfg.TestDir)
		fetcher = testdef.NewFSFetcher(files)
	}

	signer, err := report.NewSigner(cfg.ShareSecret)
	if err != nil {
		return nil, err
	}
	if cfg.ShareSecret == "" {
		log.Printf("SHARE_SECRET not set, share links will not survive a restart")
	}

	var metrics *observability.Collector
	if conn != nil {
		metrics = observability.NewCollector(conn)
	} else {
		metrics = observability.NewCollector(nil)
	}

	results := handoff.NewResults(store, cfg.VisitorTTL())
	examSvc := exam.NewService(testdef.NewLoader(fetcher), results, exam.Options{
		AutoSubmitDelay: cfg.AutoSubmitDelay(),
		Counter:         metrics,
	})
	metrics.Gauge("sessions_active", examSvc.Count)

	return &Services{
		Exam:      examSvc,
		Results:   results,
		Report:    report.NewService(results, signer),
		Catalog:   testdef.NewCatalog(fetcher),
		Metrics:   metrics,
		TestFiles: files,
		db:        conn,
	}, nil
}

// Close stops every session ticker and closes the database.
func (s *Services) Close() {
	s.Exam.Close()
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Printf("close db: %v", err)
		}
	}
}

func testFileServer(files fs.FS) http.Handler {
	sub, err := fs.Sub(files, "test")
	if err != nil {
		return http.NotFoundHandler()
	}
	return http.StripPrefix("/test/", http.FileServer(http.FS(sub)))
}
