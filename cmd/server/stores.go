package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/vssut/academia-backend/internal/config"
	"github.com/vssut/academia-backend/internal/database"
	"github.com/vssut/academia-backend/internal/handler"
	"github.com/vssut/academia-backend/internal/repository"
	"github.com/vssut/academia-backend/internal/repository/sqlitestore"
	"github.com/vssut/academia-backend/internal/service"
	"github.com/vssut/academia-backend/internal/worker"
)

// stores is the persistence backend selected by STORE_DRIVER.
type stores struct {
	exams       service.ExamStore
	attempts    service.AttemptStore
	profiles    service.ProfileLookup
	enrollments service.EnrollmentLookup
	lockEvents  interface {
		worker.LockEventSink
		service.LockEventReader
	}
	ping  handler.PingFunc
	close func()
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return &stores{
			exams:       repository.NewExamRepository(pool),
			attempts:    repository.NewAttemptRepository(pool),
			profiles:    repository.NewProfileRepository(pool),
			enrollments: repository.NewEnrollmentRepository(pool),
			lockEvents:  repository.NewLockEventRepository(pool),
			ping:        pool.Ping,
			close:       pool.Close,
		}, nil

	case config.StoreDriverSQLite:
		db, err := database.NewSQLiteDB(ctx, cfg.SQLiteDSN, log)
		if err != nil {
			return nil, err
		}
		return &stores{
			exams:       sqlitestore.NewExamRepository(db),
			attempts:    sqlitestore.NewAttemptRepository(db),
			profiles:    sqlitestore.NewProfileRepository(db),
			enrollments: sqlitestore.NewEnrollmentRepository(db),
			lockEvents:  sqlitestore.NewLockEventRepository(db),
			ping:        db.PingContext,
			close:       func() { _ = db.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
