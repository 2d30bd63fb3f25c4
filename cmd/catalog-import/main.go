package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/schedulease-api/internal/models"
	"github.com/noah-isme/schedulease-api/internal/repository"
	"github.com/noah-isme/schedulease-api/internal/service"
	"github.com/noah-isme/schedulease-api/pkg/cache"
	"github.com/noah-isme/schedulease-api/pkg/config"
	"github.com/noah-isme/schedulease-api/pkg/database"
	"github.com/noah-isme/schedulease-api/pkg/jobs"
	"github.com/noah-isme/schedulease-api/pkg/logger"
)

const (
	importJobType            = "catalog.import_course"
	cacheInvalidationTimeout = 15 * time.Second
)

// importer loads one course and its sections inside a single transaction.
type importer struct {
	db       *sqlx.DB
	courses  *repository.CourseRepository
	sections *repository.SectionRepository
	catalog  *repository.FileCatalogRepository
	batch    string
}

func (i *importer) handle(ctx context.Context, job jobs.Job) error {
	course, ok := job.Payload.(models.Course)
	if !ok {
		return fmt.Errorf("unexpected payload %T", job.Payload)
	}
	course.ImportBatch = i.batch

	tx, err := i.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import of %s: %w", course.Code, err)
	}
	if err := i.courses.Upsert(ctx, tx, &course); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := i.sections.ReplaceForCourse(ctx, tx, course.Code, i.catalog.SectionRows(course.Code)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func main() {
	var (
		file    string
		workers int
		retries int
		dryRun  bool
	)
	flag.StringVar(&file, "file", "", "Catalog JSON file (defaults to CATALOG_FILE)")
	flag.IntVar(&workers, "workers", 4, "Concurrent course imports")
	flag.IntVar(&retries, "retries", 2, "Retries per course before giving up")
	flag.BoolVar(&dryRun, "dry-run", false, "Parse the catalog and report counts without writing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if file == "" {
		file = cfg.Catalog.File
	}
	catalog, err := repository.NewFileCatalogRepository(file)
	if err != nil {
		logr.Fatal("failed to load catalog file", zap.String("path", file), zap.Error(err))
	}
	courses := catalog.Courses()
	logr.Info("catalog parsed", zap.String("path", file), zap.Int("courses", len(courses)))
	if dryRun {
		for _, course := range courses {
			fmt.Printf("%-12s %3d sections  %s\n", course.Code, course.SectionCount, course.Title)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if _, err := db.ExecContext(ctx, repository.CatalogSchema); err != nil {
		logr.Fatal("failed to ensure catalog schema", zap.Error(err))
	}

	imp := &importer{
		db:       db,
		courses:  repository.NewCourseRepository(db),
		sections: repository.NewSectionRepository(db),
		catalog:  catalog,
		batch:    uuid.NewString(),
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []string
	)
	queue := jobs.NewQueue("catalog-import", imp.handle, jobs.QueueConfig{
		Workers:    workers,
		MaxRetries: retries,
		RetryDelay: 500 * time.Millisecond,
		Logger:     logr,
		OnDone: func(job jobs.Job, err error) {
			defer wg.Done()
			if err == nil {
				return
			}
			mu.Lock()
			failed = append(failed, job.ID)
			mu.Unlock()
		},
	})
	queue.Start(ctx)

	started := time.Now()
	for _, course := range courses {
		wg.Add(1)
		if err := queue.Enqueue(jobs.Job{ID: course.Code, Type: importJobType, Payload: course}); err != nil {
			wg.Done()
			logr.Error("failed to enqueue course", zap.String("course", course.Code), zap.Error(err))
			mu.Lock()
			failed = append(failed, course.Code)
			mu.Unlock()
		}
	}
	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-ctx.Done():
		logr.Warn("import interrupted, committed courses are kept")
	}
	queue.Stop()

	mu.Lock()
	failedCourses := append([]string(nil), failed...)
	mu.Unlock()

	logr.Info("catalog import finished",
		zap.String("batch", imp.batch),
		zap.Int("courses", len(courses)),
		zap.Int("failed", len(failedCourses)),
		zap.Duration("elapsed", time.Since(started)),
	)

	invalidateCaches(cfg, logr)

	if len(failedCourses) > 0 || ctx.Err() != nil {
		logr.Error("some courses were not imported", zap.Strings("courses", failedCourses))
		os.Exit(1)
	}
}

// invalidateCaches drops cached catalog lookups and generated schedules so the
// API serves the new import immediately. It runs on its own deadline: after an
// interrupt the import context is already cancelled, yet the courses committed
// before it still need fresh caches.
func invalidateCaches(cfg *config.Config, logr *zap.Logger) {
	if !cfg.Catalog.CacheEnabled {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cacheInvalidationTimeout)
	defer cancel()

	cacheSvc, closeCache, err := connectImportCache(ctx, cfg, logr)
	if err != nil {
		logr.Warn("redis unavailable, cached entries will expire on their own", zap.Error(err))
		return
	}
	defer closeCache() //nolint:errcheck

	flushCaches(ctx, cacheSvc, logr)
}

type patternInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// connectImportCache dials Redis for invalidation; replaced in tests.
var connectImportCache = func(ctx context.Context, cfg *config.Config, logr *zap.Logger) (patternInvalidator, func() error, error) {
	client, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	repo := repository.NewCacheRepository(client, logr)
	return service.NewCacheService(repo, nil, cfg.Catalog.CacheTTL, logr, true), repo.Close, nil
}

var importCachePatterns = []string{"catalog:*", "schedules:*"}

func flushCaches(ctx context.Context, cacheSvc patternInvalidator, logr *zap.Logger) {
	for _, pattern := range importCachePatterns {
		if err := cacheSvc.Invalidate(ctx, pattern); err != nil {
			logr.Warn("cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
		}
	}
}
